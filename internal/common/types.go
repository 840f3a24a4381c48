package common

import (
	"encoding/json"

	"github.com/savsgio/gotils/strconv"
)

// Record is a flat field map: field name to string-like value. There is no
// nested structure and no typed schema.
type Record map[string][]byte

// StoreKey builds the composite key the embedded drivers store records under.
func StoreKey(table, key string) []byte {
	return strconv.S2B(table + "/" + key)
}

// TablePrefix is the key prefix shared by all records of a table.
func TablePrefix(table string) string {
	return table + "/"
}

// TablePattern is the key glob matching all records of a table.
func TablePattern(table string) string {
	return table + "/*"
}

// EncodeRecord serializes a record for an embedded store value.
func EncodeRecord(r Record) ([]byte, error) {
	m := make(map[string]string, len(r))
	for field, value := range r {
		m[field] = strconv.B2S(value)
	}

	return json.Marshal(m)
}

// DecodeRecord is the inverse of EncodeRecord.
func DecodeRecord(data []byte) (Record, error) {
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}

	r := make(Record, len(m))
	for field, value := range m {
		r[field] = []byte(value)
	}

	return r, nil
}

// Project returns the subset of r named by fields. A nil field list means no
// projection: the full record is returned. Requested fields absent from r are
// skipped, never an error.
func Project(r Record, fields []string) Record {
	if fields == nil {
		return r
	}

	out := make(Record, len(fields))
	for _, field := range fields {
		if value, ok := r[field]; ok {
			out[field] = value
		}
	}

	return out
}
