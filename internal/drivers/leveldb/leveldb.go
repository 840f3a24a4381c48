package leveldb

import (
	"errors"
	"sync"

	"github.com/kvbench/sanitybench/internal/common"
	"github.com/kvbench/sanitybench/internal/drivers"
	"github.com/kvbench/sanitybench/internal/store"
	"github.com/savsgio/gotils/strconv"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/tidwall/match"
)

type DB struct {
	db    *leveldb.DB
	wo    opt.WriteOptions
	path  string
	fsync bool
	mu    sync.RWMutex
}

func New(path string, fsync bool) (store.Driver, error) {
	if path == ":memory:" {
		return nil, store.ErrMemoryNotAllowed
	}

	opts := &opt.Options{NoSync: !fsync}
	db, err := leveldb.OpenFile(path, opts)
	if err != nil {
		return nil, err
	}

	return &DB{
		db:    db,
		wo:    opt.WriteOptions{Sync: fsync},
		path:  path,
		fsync: fsync,
	}, nil
}

func (db *DB) get(key []byte) ([]byte, error) {
	value, err := db.db.Get(key, nil)

	switch {
	case errors.Is(err, leveldb.ErrNotFound):
		return nil, nil
	case err != nil:
		return nil, err
	}

	return value, nil
}

func (db *DB) Read(table, key string, fields []string) (common.Record, store.Status, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

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

	db.mu.RLock()
	defer db.mu.RUnlock()

	pattern := common.TablePattern(table)
	_, max := match.Allowable(pattern)

	var values [][]byte

	iter := db.db.NewIterator(nil, nil)

	for ok := iter.Seek(common.StoreKey(table, startKey)); ok; ok = iter.Next() {
		if len(values) >= count {
			break
		}

		strKey := strconv.B2S(iter.Key())
		if strKey >= max {
			break
		}

		if match.Match(strKey, pattern) {
			value := iter.Value()
			values = append(values, append([]byte(nil), value...))
		}
	}

	iter.Release()

	if err := iter.Error(); err != nil {
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

	db.mu.RLock()
	defer db.mu.RUnlock()

	if err := db.db.Put(common.StoreKey(table, key), encoded, &db.wo); err != nil {
		return store.StatusError, err
	}

	return store.StatusOK, nil
}

func (db *DB) Update(table, key string, values common.Record) (store.Status, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

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

	if err := db.db.Put(storeKey, encoded, &db.wo); err != nil {
		return store.StatusError, err
	}

	return store.StatusOK, nil
}

func (db *DB) Delete(table, key string) (store.Status, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if err := db.db.Delete(common.StoreKey(table, key), &db.wo); err != nil {
		return store.StatusError, err
	}

	return store.StatusOK, nil
}

func (db *DB) Close() error {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.db.Close()
}
