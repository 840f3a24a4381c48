package drivers_test

import (
	"bytes"
	"flag"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/kvbench/sanitybench/internal/common"
	"github.com/kvbench/sanitybench/internal/drivers/badger"
	"github.com/kvbench/sanitybench/internal/drivers/buntdb"
	"github.com/kvbench/sanitybench/internal/drivers/leveldb"
	"github.com/kvbench/sanitybench/internal/drivers/nutsdb"
	"github.com/kvbench/sanitybench/internal/drivers/pebble"
	"github.com/kvbench/sanitybench/internal/drivers/pogreb"
	"github.com/kvbench/sanitybench/internal/store"
)

var count = flag.Int("count", 50, "records per driver test")

const table = "usertable"

var stores = []struct {
	Name    string
	Path    string
	Factory func(path string, fsync bool) (store.Driver, error)
}{
	{"badger", "badger.db", badger.New},
	{"buntdb", "buntdb.db", buntdb.New},
	{"leveldb", "leveldb.db", leveldb.New},
	{"nutsdb", "nutsdb.db", nutsdb.New},
	{"pebble", "pebble.db", pebble.New},
	{"pogreb", "pogreb.db", pogreb.New},
}

func key(i int) string {
	return fmt.Sprintf("user%010d", i)
}

func record(i int) common.Record {
	return common.Record{
		"field0": []byte(fmt.Sprintf("v%010d", i)),
		"field1": []byte("constant"),
	}
}

func TestDrivers(t *testing.T) {
	for _, s := range stores {
		s := s

		t.Run(s.Name, func(t *testing.T) {
			d, err := s.Factory(filepath.Join(t.TempDir(), s.Path), false)
			if err != nil {
				t.Fatal(err)
			}
			defer d.Close()

			testDriver(t, d)
		})
	}
}

func testDriver(t *testing.T, d store.Driver) {
	fields := []string{"field0", "field1"}

	t.Run("insert", func(t *testing.T) {
		for i := 0; i < *count; i++ {
			status, err := d.Insert(table, key(i), record(i))
			if err != nil {
				t.Fatalf("failed to insert key %d: %v", i, err)
			}
			if status != store.StatusOK {
				t.Fatalf("insert key %d: status %s", i, status)
			}
		}
	})

	t.Run("read", func(t *testing.T) {
		rec, status, err := d.Read(table, key(3), fields)
		if err != nil {
			t.Fatal(err)
		}
		if status != store.StatusOK {
			t.Fatalf("status %s", status)
		}
		if !bytes.Equal(rec["field0"], record(3)["field0"]) {
			t.Fatalf("field0 = %q", rec["field0"])
		}
	})

	t.Run("read projection", func(t *testing.T) {
		rec, status, err := d.Read(table, key(3), []string{"field1", "missing"})
		if err != nil {
			t.Fatal(err)
		}
		if status != store.StatusOK {
			t.Fatalf("status %s", status)
		}
		if len(rec) != 1 {
			t.Fatalf("expected only field1, got %d fields", len(rec))
		}
		if _, ok := rec["missing"]; ok {
			t.Fatal("absent requested field must be skipped, not present")
		}
	})

	t.Run("read full record with nil fields", func(t *testing.T) {
		rec, status, err := d.Read(table, key(3), nil)
		if err != nil {
			t.Fatal(err)
		}
		if status != store.StatusOK {
			t.Fatalf("status %s", status)
		}
		if len(rec) != 2 {
			t.Fatalf("expected full record, got %d fields", len(rec))
		}
	})

	t.Run("read missing", func(t *testing.T) {
		_, status, err := d.Read(table, key(*count+100), fields)
		if err != nil {
			t.Fatal(err)
		}
		if status != store.StatusNotFound {
			t.Fatalf("status %s", status)
		}
	})

	t.Run("scan", func(t *testing.T) {
		const scanCount = 5

		records, status, err := d.Scan(table, key(10), scanCount, fields)
		if err != nil {
			t.Fatal(err)
		}
		if status != store.StatusOK {
			t.Fatalf("status %s", status)
		}
		if len(records) != scanCount {
			t.Fatalf("expected %d records, got %d", scanCount, len(records))
		}

		for j, rec := range records {
			want := record(10 + j)["field0"]
			if !bytes.Equal(rec["field0"], want) {
				t.Fatalf("record %d: field0 = %q, want %q", j, rec["field0"], want)
			}
		}
	})

	t.Run("scan beyond keyspace", func(t *testing.T) {
		records, status, err := d.Scan(table, key(*count+100), 5, fields)
		if err != nil {
			t.Fatal(err)
		}
		if status != store.StatusOK {
			t.Fatalf("status %s", status)
		}
		if len(records) != 0 {
			t.Fatalf("expected no records, got %d", len(records))
		}
	})

	t.Run("update patches fields", func(t *testing.T) {
		status, err := d.Update(table, key(3), common.Record{"field1": []byte("patched")})
		if err != nil {
			t.Fatal(err)
		}
		if status != store.StatusOK {
			t.Fatalf("status %s", status)
		}

		rec, status, err := d.Read(table, key(3), fields)
		if err != nil {
			t.Fatal(err)
		}
		if status != store.StatusOK {
			t.Fatalf("status %s", status)
		}
		if !bytes.Equal(rec["field1"], []byte("patched")) {
			t.Fatalf("field1 = %q", rec["field1"])
		}
		if !bytes.Equal(rec["field0"], record(3)["field0"]) {
			t.Fatal("unpatched field must be kept")
		}
	})

	t.Run("update missing", func(t *testing.T) {
		status, err := d.Update(table, key(*count+100), common.Record{"field1": []byte("x")})
		if err != nil {
			t.Fatal(err)
		}
		if status != store.StatusNotFound {
			t.Fatalf("status %s", status)
		}
	})

	t.Run("delete", func(t *testing.T) {
		status, err := d.Delete(table, key(4))
		if err != nil {
			t.Fatal(err)
		}
		if status != store.StatusOK {
			t.Fatalf("status %s", status)
		}

		_, status, err = d.Read(table, key(4), fields)
		if err != nil {
			t.Fatal(err)
		}
		if status != store.StatusNotFound {
			t.Fatalf("status after delete %s", status)
		}
	})
}
