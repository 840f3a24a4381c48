package buntdb

import (
	"errors"
	"strings"

	"github.com/kvbench/sanitybench/internal/common"
	"github.com/kvbench/sanitybench/internal/drivers"
	"github.com/kvbench/sanitybench/internal/store"
	"github.com/savsgio/gotils/strconv"
	"github.com/tidwall/buntdb"
)

type DB struct {
	db *buntdb.DB
}

func New(path string, fsync bool) (store.Driver, error) {
	if path == ":memory:" {
		return nil, store.ErrMemoryNotAllowed
	}

	opts := buntdb.Config{}
	if fsync {
		opts.SyncPolicy = buntdb.Always
	}

	db, err := buntdb.Open(path)
	if err != nil {
		return nil, err
	}

	if err := db.SetConfig(opts); err != nil {
		return nil, err
	}

	return &DB{
		db: db,
	}, nil
}

func (db *DB) get(tx *buntdb.Tx, storeKey string) ([]byte, error) {
	value, err := tx.Get(storeKey)

	switch {
	case errors.Is(err, buntdb.ErrNotFound):
		return nil, nil
	case err != nil:
		return nil, err
	}

	return []byte(value), nil
}

func (db *DB) Read(table, key string, fields []string) (common.Record, store.Status, error) {
	var value []byte

	err := db.db.View(func(tx *buntdb.Tx) error {
		v, err := db.get(tx, strconv.B2S(common.StoreKey(table, key)))
		if err != nil {
			return err
		}

		value = v

		return nil
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

	prefix := common.TablePrefix(table)
	start := strconv.B2S(common.StoreKey(table, startKey))

	var values [][]byte

	err := db.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendGreaterOrEqual("", start, func(key, value string) bool {
			if !strings.HasPrefix(key, prefix) {
				return false
			}

			values = append(values, []byte(value))

			return len(values) < count
		})
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

	err = db.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(strconv.B2S(common.StoreKey(table, key)), strconv.B2S(encoded), nil)

		return err
	})

	if err != nil {
		return store.StatusError, err
	}

	return store.StatusOK, nil
}

func (db *DB) Update(table, key string, values common.Record) (store.Status, error) {
	status := store.StatusOK

	err := db.db.Update(func(tx *buntdb.Tx) error {
		storeKey := strconv.B2S(common.StoreKey(table, key))

		value, err := db.get(tx, storeKey)
		if err != nil {
			return err
		}

		if value == nil {
			status = store.StatusNotFound
			return nil
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

		_, _, err = tx.Set(storeKey, strconv.B2S(encoded), nil)

		return err
	})

	if err != nil {
		return store.StatusError, err
	}

	return status, nil
}

func (db *DB) Delete(table, key string) (store.Status, error) {
	err := db.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(strconv.B2S(common.StoreKey(table, key)))

		if err != nil && !errors.Is(err, buntdb.ErrNotFound) {
			return err
		}

		return nil
	})

	if err != nil {
		return store.StatusError, err
	}

	return store.StatusOK, nil
}

func (db *DB) Close() error {
	return db.db.Close()
}
