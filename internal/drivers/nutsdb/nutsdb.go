package nutsdb

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/kvbench/sanitybench/internal/common"
	"github.com/kvbench/sanitybench/internal/drivers"
	"github.com/kvbench/sanitybench/internal/store"
	"github.com/savsgio/gotils/strconv"
	"github.com/xujiajun/nutsdb"
)

const (
	bucket  = "records"
	keyInit = "init"
)

type DB struct {
	path  string
	fsync bool
	db    *nutsdb.DB
	mu    sync.RWMutex
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
	opt := nutsdb.DefaultOptions
	opt.Dir = db.path
	opt.EntryIdxMode = nutsdb.HintBPTSparseIdxMode
	opt.SyncEnable = db.fsync

	ndb, err := nutsdb.Open(opt)
	if err != nil {
		return err
	}

	db.db = ndb

	// The bucket must exist before the first read.
	if err := db.put(strconv.S2B(keyInit), nil); err != nil {
		return store.ErrInit
	}

	if err := db.del(strconv.S2B(keyInit)); err != nil {
		return store.ErrInit
	}

	return nil
}

func (db *DB) put(key, value []byte) error {
	return db.db.Update(func(tx *nutsdb.Tx) error {
		return tx.Put(bucket, key, value, 0)
	})
}

func (db *DB) del(key []byte) error {
	return db.db.Update(func(tx *nutsdb.Tx) error {
		return tx.Delete(bucket, key)
	})
}

func notFound(err error) bool {
	return errors.Is(err, nutsdb.ErrKeyNotFound) || errors.Is(err, nutsdb.ErrNotFoundKey)
}

func (db *DB) get(key []byte) (value []byte, err error) {
	err = db.db.View(func(tx *nutsdb.Tx) error {
		e, err := tx.Get(bucket, key)

		switch {
		case err != nil && notFound(err):
			return nil
		case err != nil:
			return err
		}

		value = e.Value

		return nil
	})

	return value, err
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

	prefix := common.TablePrefix(table)
	start := strconv.B2S(common.StoreKey(table, startKey))

	type kv struct {
		key   string
		value []byte
	}

	var kvs []kv

	err := db.db.View(func(tx *nutsdb.Tx) error {
		entries, err := tx.GetAll(bucket)

		switch {
		case err != nil && errors.Is(err, nutsdb.ErrBucketEmpty):
			return nil
		case err != nil:
			return err
		}

		for i := range entries {
			entry := entries[i]

			strKey := string(entry.Key)
			if !strings.HasPrefix(strKey, prefix) || strKey < start {
				continue
			}

			kvs = append(kvs, kv{
				key:   strKey,
				value: append([]byte(nil), entry.Value...),
			})
		}

		return nil
	})

	if err != nil {
		return nil, store.StatusError, err
	}

	// GetAll gives no ordering guarantee across data files.
	sort.Slice(kvs, func(i, j int) bool { return kvs[i].key < kvs[j].key })

	if len(kvs) > count {
		kvs = kvs[:count]
	}

	values := make([][]byte, len(kvs))
	for i := range kvs {
		values[i] = kvs[i].value
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

	if err := db.put(common.StoreKey(table, key), encoded); err != nil {
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

	if err := db.put(storeKey, encoded); err != nil {
		return store.StatusError, err
	}

	return store.StatusOK, nil
}

func (db *DB) Delete(table, key string) (store.Status, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	err := db.del(common.StoreKey(table, key))
	if err != nil && !notFound(err) {
		return store.StatusError, err
	}

	return store.StatusOK, nil
}

func (db *DB) Close() error {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.db.Close()
}
