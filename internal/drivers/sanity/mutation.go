package sanity

import (
	"encoding/json"

	"github.com/kvbench/sanitybench/internal/common"
	"github.com/savsgio/gotils/strconv"
)

// MutationKind is the closed set of write operations the mutate endpoint
// accepts. Each kind has a fixed wire string used as the sole key of the
// mutation item object.
type MutationKind int

const (
	MutationCreate MutationKind = iota
	MutationCreateOrReplace
	MutationCreateIfNotExists
	MutationPatch
	MutationDelete
)

func (k MutationKind) Wire() string {
	switch k {
	case MutationCreate:
		return "create"
	case MutationCreateOrReplace:
		return "createOrReplace"
	case MutationCreateIfNotExists:
		return "createIfNotExists"
	case MutationPatch:
		return "patch"
	case MutationDelete:
		return "delete"
	}

	return ""
}

// mutationBody builds the JSON document for one mutation:
// {"mutations":[{"<kind>": <payload>}]}. Constructed fresh per call, sent
// once, discarded.
func mutationBody(kind MutationKind, table, key string, values common.Record) ([]byte, error) {
	var payload map[string]interface{}

	switch kind {
	case MutationCreate, MutationCreateOrReplace, MutationCreateIfNotExists:
		payload = make(map[string]interface{}, len(values)+2)
		payload["_id"] = key
		payload["_type"] = table

		for field, value := range values {
			payload[field] = strconv.B2S(value)
		}
	case MutationPatch:
		set := make(map[string]interface{}, len(values))
		for field, value := range values {
			set[field] = strconv.B2S(value)
		}

		payload = map[string]interface{}{
			"id":  key,
			"set": set,
		}
	case MutationDelete:
		payload = map[string]interface{}{
			"_id": key,
		}
	}

	root := map[string]interface{}{
		"mutations": []map[string]interface{}{
			{kind.Wire(): payload},
		},
	}

	return json.Marshal(root)
}
