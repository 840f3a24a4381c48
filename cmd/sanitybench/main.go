package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/kvbench/sanitybench/internal/common"
	"github.com/kvbench/sanitybench/internal/drivers/badger"
	"github.com/kvbench/sanitybench/internal/drivers/buntdb"
	"github.com/kvbench/sanitybench/internal/drivers/leveldb"
	"github.com/kvbench/sanitybench/internal/drivers/nutsdb"
	"github.com/kvbench/sanitybench/internal/drivers/pebble"
	"github.com/kvbench/sanitybench/internal/drivers/pogreb"
	"github.com/kvbench/sanitybench/internal/drivers/sanity"
	"github.com/kvbench/sanitybench/internal/properties"
	"github.com/kvbench/sanitybench/internal/store"
)

var (
	duration   = flag.Duration("d", time.Minute, "duration for each timed phase")
	c          = flag.Int("c", runtime.NumCPU(), "concurrent workers")
	s          = flag.String("s", "sanity", "driver name")
	table      = flag.String("table", "usertable", "document type / logical table")
	fieldCount = flag.Int("fields", 10, "fields per record")
	fieldSize  = flag.Int("size", 100, "bytes per field value")
	records    = flag.Int("records", 1000, "records inserted by the load phase")
	scanCount  = flag.Int("scancount", 100, "max records per scan")
	fsync      = flag.Bool("fsync", false, "fsync on every write (embedded drivers)")
	propsFile  = flag.String("props", "", "properties file (key=value lines)")

	overrides = properties.New()

	logger = hclog.New(&hclog.LoggerOptions{
		Name:  "sanitybench",
		Level: hclog.Info,
	})
)

// propFlag accumulates repeated -p key=value flags.
type propFlag struct{}

func (propFlag) String() string { return "" }

func (propFlag) Set(kv string) error {
	i := strings.IndexByte(kv, '=')
	if i < 1 {
		return fmt.Errorf("property must be key=value, got %q", kv)
	}

	overrides.Set(kv[:i], kv[i+1:])

	return nil
}

func main() {
	flag.Var(propFlag{}, "p", "driver property, key=value (repeatable)")
	flag.Parse()

	props := properties.New()

	if *propsFile != "" {
		loaded, err := properties.LoadFile(*propsFile)
		if err != nil {
			logger.Error("failed to load properties", "error", err)
			os.Exit(1)
		}

		props.Merge(loaded)
	}

	props.Merge(overrides)

	var memory bool
	var path string

	if strings.HasSuffix(*s, "/memory") {
		memory = true
		path = ":memory:"
		*s = strings.TrimSuffix(*s, "/memory")
	}

	d, path, err := getDriver(*s, *fsync, path, props)
	if err != nil {
		logger.Error("failed to init driver", "driver", *s, "error", err)
		os.Exit(1)
	}

	if *s != "sanity" && !memory {
		defer os.RemoveAll(path)
	}

	defer d.Close()

	name := *s
	if memory {
		name += "/memory"
	}

	if *s != "sanity" {
		if *fsync {
			name += "/fsync"
		} else {
			name += "/nofsync"
		}
	}

	logger.Info("starting",
		"driver", name, "workers", *c, "records", *records,
		"fields", *fieldCount, "size", *fieldSize, "duration", *duration)

	fields := fieldNames(*fieldCount)

	benchLoad(name, d)
	benchRead(name, d, fields)
	benchUpdate(name, d)
	benchScan(name, d, fields)
	benchDelete(name, d)
}

func fieldNames(n int) []string {
	fields := make([]string, n)
	for i := range fields {
		fields[i] = fmt.Sprintf("field%d", i)
	}

	return fields
}

func genKey(i int) string {
	return fmt.Sprintf("user%010d", i)
}

const valueAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func genValues() common.Record {
	values := make(common.Record, *fieldCount)

	for i := 0; i < *fieldCount; i++ {
		value := make([]byte, *fieldSize)
		for j := range value {
			value[j] = valueAlphabet[rand.Intn(len(valueAlphabet))]
		}

		values[fmt.Sprintf("field%d", i)] = value
	}

	return values
}

// tally counts operation outcomes per status across workers.
type tally [store.NumStatus]uint64

func (t *tally) add(s store.Status) {
	atomic.AddUint64(&t[s], 1)
}

func (t *tally) String() string {
	var b strings.Builder

	for i := range t {
		if t[i] == 0 {
			continue
		}

		if b.Len() > 0 {
			b.WriteByte(' ')
		}

		fmt.Fprintf(&b, "%s=%d", store.Status(i), t[i])
	}

	if b.Len() == 0 {
		return "no ops"
	}

	return b.String()
}

func report(name, phase string, n int, dur time.Duration, t *tally) {
	d := int64(dur)

	if n == 0 {
		fmt.Printf("%s %s rate: 0 op/s, took: %d s (%s)\n", name, phase, int(dur.Seconds()), t)
		return
	}

	fmt.Printf(
		"%s %s rate: %d op/s, mean: %d ns, took: %d s (%s)\n",
		name, phase, int64(n)*1e6/(d/1e3), d/int64(n), int(dur.Seconds()), t,
	)
}

// benchLoad inserts the whole keyspace once, split across workers.
func benchLoad(name string, d store.Driver) {
	var wg sync.WaitGroup
	var t tally

	start := time.Now()

	for w := 0; w < *c; w++ {
		wg.Add(1)

		go func(w int) {
			defer wg.Done()

			for i := w; i < *records; i += *c {
				status, err := d.Insert(*table, genKey(i), genValues())
				if err != nil {
					panic(err)
				}

				t.add(status)
			}
		}(w)
	}

	wg.Wait()

	report(name, "load", *records, time.Since(start), &t)
}

// timedLoop runs op from *c workers until the phase duration elapses and
// returns the number of completed operations. Each worker walks its own
// stride of the keyspace.
func timedLoop(op func(i int) (store.Status, error), t *tally) int {
	var wg sync.WaitGroup

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	counts := make([]int, *c)

	for j := 0; j < *c; j++ {
		wg.Add(1)

		index := j
		go func() {
			defer wg.Done()

			i := index

			for {
				select {
				case <-ctx.Done():
					return
				default:
					status, err := op(i % *records)
					if err != nil {
						panic(err)
					}

					t.add(status)

					i += *c
					counts[index]++
				}
			}
		}()
	}

	wg.Wait()

	var n int
	for _, count := range counts {
		n += count
	}

	return n
}

func benchRead(name string, d store.Driver, fields []string) {
	var t tally

	start := time.Now()
	n := timedLoop(func(i int) (store.Status, error) {
		_, status, err := d.Read(*table, genKey(i), fields)
		return status, err
	}, &t)

	report(name, "read", n, time.Since(start), &t)
}

func benchUpdate(name string, d store.Driver) {
	var t tally

	start := time.Now()
	n := timedLoop(func(i int) (store.Status, error) {
		return d.Update(*table, genKey(i), genValues())
	}, &t)

	report(name, "update", n, time.Since(start), &t)
}

func benchScan(name string, d store.Driver, fields []string) {
	var t tally

	start := time.Now()
	n := timedLoop(func(i int) (store.Status, error) {
		_, status, err := d.Scan(*table, genKey(i), *scanCount, fields)
		return status, err
	}, &t)

	report(name, "scan", n, time.Since(start), &t)
}

func benchDelete(name string, d store.Driver) {
	var t tally

	start := time.Now()
	n := timedLoop(func(i int) (store.Status, error) {
		return d.Delete(*table, genKey(i))
	}, &t)

	report(name, "delete", n, time.Since(start), &t)
}

func getDriver(name string, fsync bool, path string, props properties.Properties) (store.Driver, string, error) {
	var d store.Driver
	var err error

	switch name {
	default:
		err = fmt.Errorf("unknown driver: %v", name)
	case "sanity":
		d, err = sanity.New(props)
	case "badger":
		if path == "" {
			path = "badger.db"
		}
		d, err = badger.New(path, fsync)
	case "buntdb":
		if path == "" {
			path = "buntdb.db"
		}
		d, err = buntdb.New(path, fsync)
	case "leveldb":
		if path == "" {
			path = "leveldb.db"
		}
		d, err = leveldb.New(path, fsync)
	case "nutsdb":
		if path == "" {
			path = "nutsdb.db"
		}
		d, err = nutsdb.New(path, fsync)
	case "pebble":
		if path == "" {
			path = "pebble.db"
		}
		d, err = pebble.New(path, fsync)
	case "pogreb":
		if path == "" {
			path = "pogreb.db"
		}
		d, err = pogreb.New(path, fsync)
	}

	return d, path, err
}
