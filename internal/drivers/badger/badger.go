package badger

import (
	"errors"

	"github.com/dgraph-io/badger/v3"
	"github.com/kvbench/sanitybench/internal/common"
	"github.com/kvbench/sanitybench/internal/drivers"
	"github.com/kvbench/sanitybench/internal/store"
	"github.com/savsgio/gotils/strconv"
)

type DB struct {
	path  string
	fsync bool
	db    *badger.DB
}

func New(path string, fsync bool) (store.Driver, error) {
	db := &DB{
		path:  path,
		fsync: fsync,
	}

	if err := db.init(); err != nil {
		return nil, err
	}

	return db, nil
}

func (db *DB) init() error {
	opts := badger.DefaultOptions(db.path)
	if db.path == ":memory:" {
		opts.InMemory = true
	}

	opts.SyncWrites = db.fsync
	bdb, err := badger.Open(opts)
	if err != nil {
		return err
	}

	db.db = bdb

	return nil
}

func (db *DB) Read(table, key string, fields []string) (common.Record, store.Status, error) {
	var value []byte

	err := db.db.View(func(tx *badger.Txn) error {
		item, err := tx.Get(common.StoreKey(table, key))

		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			return nil
		case err != nil:
			return err
		}

		value, err = item.ValueCopy(value)

		return err
	})

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

	var values [][]byte

	err := db.db.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = strconv.S2B(common.TablePrefix(table))

		it := tx.NewIterator(opts)
		defer it.Close()

		for it.Seek(common.StoreKey(table, startKey)); it.Valid() && len(values) < count; it.Next() {
			value, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}

			values = append(values, value)
		}

		return nil
	})

	if err != nil {
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

	err = db.db.Update(func(tx *badger.Txn) error {
		return tx.Set(common.StoreKey(table, key), encoded)
	})

	if err != nil {
		return store.StatusError, err
	}

	return store.StatusOK, nil
}

func (db *DB) Update(table, key string, values common.Record) (store.Status, error) {
	status := store.StatusOK

	err := db.db.Update(func(tx *badger.Txn) error {
		k := common.StoreKey(table, key)

		item, err := tx.Get(k)

		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			status = store.StatusNotFound
			return nil
		case err != nil:
			return err
		}

		value, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}

		record, err := common.DecodeRecord(value)
		if err != nil {
			status = store.StatusUnexpectedState
			return nil
		}

		encoded, err := common.EncodeRecord(drivers.Patch(record, values))
		if err != nil {
			return err
		}

		return tx.Set(k, encoded)
	})

	if err != nil {
		return store.StatusError, err
	}

	return status, nil
}

func (db *DB) Delete(table, key string) (store.Status, error) {
	err := db.db.Update(func(tx *badger.Txn) error {
		return tx.Delete(common.StoreKey(table, key))
	})

	if err != nil {
		return store.StatusError, err
	}

	return store.StatusOK, nil
}

func (db *DB) Close() error {
	return db.db.Close()
}
