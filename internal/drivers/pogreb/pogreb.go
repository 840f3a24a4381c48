package pogreb

import (
	"errors"
	"sort"
	"sync"

	"github.com/akrylysov/pogreb"
	"github.com/kvbench/sanitybench/internal/common"
	"github.com/kvbench/sanitybench/internal/drivers"
	"github.com/kvbench/sanitybench/internal/store"
	"github.com/savsgio/gotils/strconv"
	"github.com/tidwall/match"
)

type DB struct {
	db    *pogreb.DB
	path  string
	fsync bool
	mu    sync.RWMutex
}

func New(path string, fsync bool) (store.Driver, error) {
	if path == ":memory:" {
		return nil, store.ErrMemoryNotAllowed
	}

	opts := new(pogreb.Options)
	if fsync {
		opts.BackgroundSyncInterval = -1
	}

	db, err := pogreb.Open(path, opts)
	if err != nil {
		return nil, err
	}

	return &DB{
		db:    db,
		path:  path,
		fsync: fsync,
	}, nil
}

func (db *DB) Read(table, key string, fields []string) (common.Record, store.Status, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	value, err := db.db.Get(common.StoreKey(table, key))
	if err != nil {
		return nil, store.StatusError, err
	}

	record, status := drivers.ReadRecord(value, fields)

	return record, status, nil
}

// Scan walks the whole store: pogreb has no ordered iterator, so matching
// entries are collected, sorted by key and sliced.
func (db *DB) Scan(table, startKey string, count int, fields []string) ([]common.Record, store.Status, error) {
	if count <= 0 {
		return nil, store.StatusOK, nil
	}

	db.mu.RLock()
	defer db.mu.RUnlock()

	pattern := common.TablePattern(table)
	start := strconv.B2S(common.StoreKey(table, startKey))

	type kv struct {
		key   string
		value []byte
	}

	var kvs []kv

	it := db.db.Items()

	for {
		key, value, err := it.Next()
		if errors.Is(err, pogreb.ErrIterationDone) {
			break
		}

		if err != nil {
			return nil, store.StatusError, err
		}

		strKey := string(key)
		if strKey < start || !match.Match(strKey, pattern) {
			continue
		}

		kvs = append(kvs, kv{
			key:   strKey,
			value: append([]byte(nil), value...),
		})
	}

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

	if err := db.db.Put(common.StoreKey(table, key), encoded); err != nil {
		return store.StatusError, err
	}

	return store.StatusOK, nil
}

func (db *DB) Update(table, key string, values common.Record) (store.Status, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	storeKey := common.StoreKey(table, key)

	value, err := db.db.Get(storeKey)
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

	if err := db.db.Put(storeKey, encoded); err != nil {
		return store.StatusError, err
	}

	return store.StatusOK, nil
}

func (db *DB) Delete(table, key string) (store.Status, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if err := db.db.Delete(common.StoreKey(table, key)); err != nil {
		return store.StatusError, err
	}

	return store.StatusOK, nil
}

func (db *DB) Close() error {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.db.Close()
}
