package sanity

import (
	"testing"

	"github.com/kvbench/sanitybench/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMutationKindWire(t *testing.T) {
	tests := []struct {
		kind MutationKind
		want string
	}{
		{MutationCreate, "create"},
		{MutationCreateOrReplace, "createOrReplace"},
		{MutationCreateIfNotExists, "createIfNotExists"},
		{MutationPatch, "patch"},
		{MutationDelete, "delete"},
		{MutationKind(99), ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.kind.Wire())
	}
}

func TestMutationBody(t *testing.T) {
	values := common.Record{"name": []byte("a")}

	t.Run("create variants share the document payload", func(t *testing.T) {
		for _, kind := range []MutationKind{MutationCreate, MutationCreateOrReplace, MutationCreateIfNotExists} {
			body, err := mutationBody(kind, "user", "u1", values)
			require.NoError(t, err)
			assert.JSONEq(t,
				`{"mutations":[{"`+kind.Wire()+`":{"_id":"u1","_type":"user","name":"a"}}]}`,
				string(body))
		}
	})

	t.Run("patch wraps values in a set object", func(t *testing.T) {
		body, err := mutationBody(MutationPatch, "user", "u1", values)
		require.NoError(t, err)
		assert.JSONEq(t, `{"mutations":[{"patch":{"id":"u1","set":{"name":"a"}}}]}`, string(body))
	})

	t.Run("delete carries only the document id", func(t *testing.T) {
		body, err := mutationBody(MutationDelete, "user", "u1", nil)
		require.NoError(t, err)
		assert.JSONEq(t, `{"mutations":[{"delete":{"_id":"u1"}}]}`, string(body))
	})
}
