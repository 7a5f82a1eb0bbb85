package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/dravlex/internal/model"
)

func TestKey_Deterministic(t *testing.T) {
	a := Key("run.log", "0.1", "Tree.height")
	b := Key("run.log", "0.1", "Tree.height")
	c := Key("run.log", "0.2", "Tree.height")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.True(t, strings.HasPrefix(a, "dravlex:v1:"))
}

func TestKey_PartsAreSeparated(t *testing.T) {
	assert.NotEqual(t, Key("ab", "c"), Key("a", "bc"))
}

func TestFileKey_ChangesWithContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	require.NoError(t, os.WriteFile(path, []byte("Sample\tx\n0\t1\n"), 0644))

	k1, err := FileKey(path, "0.1")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("Sample\tx\n0\t1\n1\t2\n"), 0644))
	k2, err := FileKey(path, "0.1")
	require.NoError(t, err)

	assert.NotEqual(t, k1, k2)
}

func TestFileKey_Missing(t *testing.T) {
	_, err := FileKey(filepath.Join(t.TempDir(), "nope.log"))
	assert.Error(t, err)
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	require.NoError(t, c.Set("k", []byte("v"), 0))
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)
	assert.Equal(t, 1, c.Len())

	require.NoError(t, c.Delete("k"))
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestDiskCache_RoundTripAndExpiry(t *testing.T) {
	c := NewDiskCache(filepath.Join(t.TempDir(), "cache"), time.Hour)

	require.NoError(t, c.Set("dravlex:v1:abc", []byte("payload"), 0))
	got, ok := c.Get("dravlex:v1:abc")
	require.True(t, ok)
	assert.Equal(t, []byte("payload"), got)

	require.NoError(t, c.Set("old", []byte("x"), -time.Second))
	_, ok = c.Get("old")
	assert.False(t, ok, "expired entries are misses")

	assert.NoError(t, c.Delete("never-set"))
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	require.NoError(t, NewDiskCache(dir, time.Hour).Set("k", []byte("v"), 0))

	c := NewLayeredCache(time.Minute, dir, time.Hour)
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)

	_, ok = c.memory.Get("k")
	assert.True(t, ok)
}

func TestLayeredCache_Clear(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	c := NewLayeredCache(time.Minute, dir, time.Hour)
	require.NoError(t, c.Set("k", []byte("v"), 0))

	require.NoError(t, c.Clear())

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestJSONHelpers(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	want := model.Summary{Parameter: "Tree.height", Samples: 900, Mean: 4.7, HPDLower: 3.9, HPDUpper: 5.6, HPDWidth: 1.7}

	require.NoError(t, SetJSON(c, "s", want))
	got, ok := GetJSON[model.Summary](c, "s")

	require.True(t, ok)
	assert.Equal(t, want, got)

	require.NoError(t, c.Set("bad", []byte("{"), 0))
	_, ok = GetJSON[model.Summary](c, "bad")
	assert.False(t, ok)
}
