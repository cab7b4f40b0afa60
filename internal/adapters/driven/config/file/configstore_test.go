package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *ConfigStore {
	t.Helper()

	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestConfigStoreSetGet(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set("chunking.targetTokens", 800))

	val, ok := store.Get("chunking.targetTokens")
	require.True(t, ok)
	assert.Equal(t, 800, val)

	_, ok = store.Get("missing.key")
	assert.False(t, ok)
}

func TestConfigStoreTypedGetters(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set("query.language", "de"))
	require.NoError(t, store.Set("chunking.maxTokens", 1000))
	require.NoError(t, store.Set("ranking.textWeight", 0.3))
	require.NoError(t, store.Set("chunking.dedupe", true))

	assert.Equal(t, "de", store.GetString("query.language"))
	assert.Equal(t, 1000, store.GetInt("chunking.maxTokens"))
	assert.InDelta(t, 0.3, store.GetFloat("ranking.textWeight"), 1e-9)
	assert.True(t, store.GetBool("chunking.dedupe"))

	// Wrong types fall back to zero values.
	assert.Equal(t, "", store.GetString("chunking.maxTokens"))
	assert.Equal(t, 0, store.GetInt("query.language"))
	assert.False(t, store.GetBool("query.language"))
}

func TestConfigStoreGetFloatWidensInt(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set("budget.totalTokens", 4000))
	assert.InDelta(t, 4000.0, store.GetFloat("budget.totalTokens"), 1e-9)
}

func TestConfigStorePersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()

	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set("query.language", "en"))

	reopened, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, "en", reopened.GetString("query.language"))
}

func TestConfigStoreFlattensNestedTables(t *testing.T) {
	dir := t.TempDir()
	content := "[chunking]\ntargetTokens = 800\n\n[chunking.split]\nenabled = true\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, 800, store.GetInt("chunking.targetTokens"))
	assert.True(t, store.GetBool("chunking.split.enabled"))
}

func TestConfigStoreLoadMissingFile(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Load())
	_, ok := store.Get("anything")
	assert.False(t, ok)
}

func TestConfigStorePath(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "config.toml"), store.Path())
}
