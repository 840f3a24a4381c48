// Package drivers holds the record plumbing shared by the embedded
// comparison drivers. Records live under the composite key <table>/<key>
// with the JSON-encoded field map as value.
package drivers

import (
	"github.com/kvbench/sanitybench/internal/common"
	"github.com/kvbench/sanitybench/internal/store"
)

// ReadRecord turns a stored value into a projected record. A nil value means
// the key was absent; an undecodable value reports UNEXPECTED_STATE.
func ReadRecord(value []byte, fields []string) (common.Record, store.Status) {
	if value == nil {
		return nil, store.StatusNotFound
	}

	record, err := common.DecodeRecord(value)
	if err != nil {
		return nil, store.StatusUnexpectedState
	}

	return common.Project(record, fields), store.StatusOK
}

// DecodeRows decodes scan results in iteration order.
func DecodeRows(values [][]byte, fields []string) ([]common.Record, store.Status) {
	records := make([]common.Record, 0, len(values))

	for _, value := range values {
		record, err := common.DecodeRecord(value)
		if err != nil {
			return nil, store.StatusUnexpectedState
		}

		records = append(records, common.Project(record, fields))
	}

	return records, store.StatusOK
}

// Patch applies update semantics to a stored record: fields in values
// overwrite or extend the existing record, everything else is kept.
func Patch(record, values common.Record) common.Record {
	for field, value := range values {
		record[field] = value
	}

	return record
}
