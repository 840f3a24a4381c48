package store

import "github.com/kvbench/sanitybench/internal/common"

// Driver is the CRUD contract the workload runner drives. Operations return a
// typed Status for application-level outcomes; a non-nil error is the fatal
// tier (transport failure, broken store) and aborts the run. Drivers keep no
// state across calls beyond their immutable configuration.
type Driver interface {
	Read(table, key string, fields []string) (common.Record, Status, error)
	Scan(table, startKey string, count int, fields []string) ([]common.Record, Status, error)
	Insert(table, key string, values common.Record) (Status, error)
	Update(table, key string, values common.Record) (Status, error)
	Delete(table, key string) (Status, error)
	Close() error
}
