package indexer

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRecord struct {
	Name string
	Line int
}

func setupTestDB(t *testing.T) *DataIndexer[testRecord] {
	t.Helper()

	idx, err := NewDataIndexer[testRecord](filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err, "Failed to create new data indexer")
	t.Cleanup(func() {
		if err := idx.Close(); err != nil {
			t.Logf("Warning: error closing test database: %v", err)
		}
	})
	return idx
}

func TestDataIndexer_GetValues_Empty(t *testing.T) {
	idx := setupTestDB(t)

	values, err := idx.GetValues("missing")
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestDataIndexer_PutAndGet(t *testing.T) {
	idx := setupTestDB(t)

	rec := testRecord{Name: "Product", Line: 12}
	require.NoError(t, idx.Put("file1.php", "App\\Product", rec))

	values, err := idx.GetValues("App\\Product")
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.Equal(t, rec, values[0])

	got, ok, err := idx.GetFirst("App\\Product")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, rec, got)

	_, ok, err = idx.GetFirst("App\\Missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDataIndexer_BatchPut(t *testing.T) {
	idx := setupTestDB(t)

	err := idx.BatchPut(map[string]map[string]testRecord{
		"file1.php": {
			"keyA": {Name: "A", Line: 1},
			"keyB": {Name: "B", Line: 2},
		},
		"file2.php": {
			"keyA": {Name: "A2", Line: 3},
		},
	})
	require.NoError(t, err)

	values, err := idx.GetValues("keyA")
	require.NoError(t, err)
	assert.Len(t, values, 2)

	keys, err := idx.GetAllKeys()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"keyA", "keyB"}, keys)

	keys, err = idx.GetKeysByPath("file2.php")
	require.NoError(t, err)
	assert.Equal(t, []string{"keyA"}, keys)
}

func TestDataIndexer_DeleteByFilePath(t *testing.T) {
	idx := setupTestDB(t)

	require.NoError(t, idx.Put("file1.php", "keyA", testRecord{Name: "A"}))
	require.NoError(t, idx.Put("file2.php", "keyA", testRecord{Name: "A2"}))

	require.NoError(t, idx.DeleteByFilePath("file1.php"))

	values, err := idx.GetValues("keyA")
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.Equal(t, "A2", values[0].Name)
}

func TestDataIndexer_Clear(t *testing.T) {
	idx := setupTestDB(t)

	require.NoError(t, idx.Put("file1.php", "keyA", testRecord{Name: "A"}))
	require.NoError(t, idx.Clear())

	keys, err := idx.GetAllKeys()
	require.NoError(t, err)
	assert.Empty(t, keys)
}
