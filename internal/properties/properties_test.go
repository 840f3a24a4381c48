package properties

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	p := New()
	p.Set("sanity.dataset", "bench")

	assert.Equal(t, "bench", p.Get("sanity.dataset", "default"))
	assert.Equal(t, "default", p.Get("sanity.project", "default"))
}

func TestGetInt(t *testing.T) {
	p := New()
	p.Set("count", "42")
	p.Set("bad", "x")

	n, err := p.GetInt("count", 1)
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	n, err = p.GetInt("missing", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	_, err = p.GetInt("bad", 1)
	assert.Error(t, err)
}

func TestMerge(t *testing.T) {
	p := New()
	p.Set("a", "1")
	p.Set("b", "2")

	o := New()
	o.Set("b", "3")
	o.Set("c", "4")

	p.Merge(o)

	assert.Equal(t, "1", p.Get("a", ""))
	assert.Equal(t, "3", p.Get("b", ""))
	assert.Equal(t, "4", p.Get("c", ""))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sanity.properties")
	content := "sanity.dataset=bench\nsanity.api.auth_token=secret\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	p, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "bench", p.Get("sanity.dataset", ""))
	assert.Equal(t, "secret", p.Get("sanity.api.auth_token", ""))

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.properties"))
	assert.Error(t, err)
}
