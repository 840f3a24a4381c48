package pebble

import (
	"bytes"
	"errors"

	"github.com/cockroachdb/pebble"
	"github.com/kvbench/sanitybench/internal/common"
	"github.com/kvbench/sanitybench/internal/drivers"
	"github.com/kvbench/sanitybench/internal/store"
	"github.com/savsgio/gotils/strconv"
)

type DB struct {
	db *pebble.DB
	wo *pebble.WriteOptions
}

func New(path string, fsync bool) (store.Driver, error) {
	if path == ":memory:" {
		return nil, store.ErrMemoryNotAllowed
	}

	opts := &pebble.Options{}
	if !fsync {
		opts.DisableWAL = true
	}

	wo := &pebble.WriteOptions{}
	wo.Sync = fsync

	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, err
	}

	return &DB{
		db: db,
		wo: wo,
	}, nil
}

func (db *DB) get(key []byte) ([]byte, error) {
	v, closer, err := db.db.Get(key)

	switch {
	case errors.Is(err, pebble.ErrNotFound):
		return nil, nil
	case err != nil:
		return nil, err
	}

	value := append([]byte(nil), v...)
	closer.Close()

	return value, nil
}

func (db *DB) Read(table, key string, fields []string) (common.Record, store.Status, error) {
	value, err := db.get(common.StoreKey(table, key))
	if err != nil {
		return nil, store.StatusError, err
	}

	record, status := drivers.ReadRecord(value, fields)

	return record, status, nil
}

func (db *DB) Scan(table, startKey string, count int, fields []string) ([]common.Record, store.Status, error) {
	if count <= 0 {
		return nil, store.StatusOK, nil
	}

	prefix := strconv.S2B(common.TablePrefix(table))

	var values [][]byte

	it := db.db.NewIter(&pebble.IterOptions{})

	for ok := it.SeekGE(common.StoreKey(table, startKey)); ok && len(values) < count; ok = it.Next() {
		if !bytes.HasPrefix(it.Key(), prefix) {
			break
		}

		value := it.Value()
		values = append(values, append([]byte(nil), value...))
	}

	if err := it.Close(); err != nil {
		return nil, store.StatusError, err
	}

	records, status := drivers.DecodeRows(values, fields)

	return records, status, nil
}

func (db *DB) Insert(table, key string, values common.Record) (store.Status, error) {
	encoded, err := common.EncodeRecord(values)
	if err != nil {
		return store.StatusError, err
	}

	if err := db.db.Set(common.StoreKey(table, key), encoded, db.wo); err != nil {
		return store.StatusError, err
	}

	return store.StatusOK, nil
}

func (db *DB) Update(table, key string, values common.Record) (store.Status, error) {
	storeKey := common.StoreKey(table, key)

	value, err := db.get(storeKey)
	if err != nil {
		return store.StatusError, err
	}

	if value == nil {
		return store.StatusNotFound, nil
	}

	record, err := common.DecodeRecord(value)
	if err != nil {
		return store.StatusUnexpectedState, nil
	}

	encoded, err := common.EncodeRecord(drivers.Patch(record, values))
	if err != nil {
		return store.StatusError, err
	}

	if err := db.db.Set(storeKey, encoded, db.wo); err != nil {
		return store.StatusError, err
	}

	return store.StatusOK, nil
}

func (db *DB) Delete(table, key string) (store.Status, error) {
	if err := db.db.Delete(common.StoreKey(table, key), db.wo); err != nil {
		return store.StatusError, err
	}

	return store.StatusOK, nil
}

func (db *DB) Close() error {
	return db.db.Close()
}
