package fsutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOSFileSystem_Exists(t *testing.T) {
	fsys := OSFileSystem{}

	assert.True(t, fsys.Exists("filesystem.go"))
	assert.False(t, fsys.Exists("nonexistent_file_xyz.go"))
}

func TestOSFileSystem_RoundTrip(t *testing.T) {
	fsys := OSFileSystem{}
	dir := filepath.Join(t.TempDir(), "Results", "Tables")
	require.NoError(t, fsys.MkdirAll(dir, 0755))

	path := filepath.Join(dir, "table.csv")
	w, err := fsys.Create(path)
	require.NoError(t, err)
	_, err = w.Write([]byte("Algorithm,Errors\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	data, err := fsys.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Algorithm,Errors\n", string(data))

	names, err := ListFiles(fsys, dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"table.csv"}, names)
}

func TestMemoryFileSystem_WriteAndRead(t *testing.T) {
	mfs := NewMemoryFileSystem()

	require.NoError(t, mfs.WriteFile("/test.txt", []byte("hello, world"), 0644))

	data, err := mfs.ReadFile("/test.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello, world", string(data))

	// Returned slice is a copy.
	data[0] = 'H'
	again, err := mfs.ReadFile("/test.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello, world", string(again))
}

func TestMemoryFileSystem_CreateAndWrite(t *testing.T) {
	mfs := NewMemoryFileSystem()

	w, err := mfs.Create("Results/out.json")
	require.NoError(t, err)
	_, err = w.Write([]byte(`{"a":`))
	require.NoError(t, err)
	_, err = w.Write([]byte(`1}`))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	data, err := mfs.ReadFile("Results/out.json")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(data))
	assert.True(t, mfs.Exists("Results"))
}

func TestMemoryFileSystem_ReadMissing(t *testing.T) {
	mfs := NewMemoryFileSystem()

	_, err := mfs.ReadFile("missing.json")
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	_, err = mfs.Stat("missing.json")
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	_, err = mfs.ReadDir("nowhere")
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestMemoryFileSystem_ReadDir(t *testing.T) {
	mfs := NewMemoryFileSystem()
	require.NoError(t, mfs.WriteFile("Samples/sample_2_coordinates.json", []byte("[]"), 0644))
	require.NoError(t, mfs.WriteFile("Samples/sample_1_coordinates.json", []byte("[]"), 0644))
	require.NoError(t, mfs.WriteFile("Samples/nested/ignored.json", []byte("{}"), 0644))
	require.NoError(t, mfs.MkdirAll("Samples/empty", 0755))

	entries, err := mfs.ReadDir("Samples")
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"empty", "nested", "sample_1_coordinates.json", "sample_2_coordinates.json"}, names)

	files, err := ListFiles(mfs, "Samples")
	require.NoError(t, err)
	assert.Equal(t, []string{"sample_1_coordinates.json", "sample_2_coordinates.json"}, files)
}

func TestMemoryFileSystem_Stat(t *testing.T) {
	mfs := NewMemoryFileSystem()
	require.NoError(t, mfs.WriteFile("/data/Results/a.json", []byte("12345"), 0600))

	info, err := mfs.Stat("/data/Results/a.json")
	require.NoError(t, err)
	assert.Equal(t, "a.json", info.Name())
	assert.Equal(t, int64(5), info.Size())
	assert.Equal(t, os.FileMode(0600), info.Mode())
	assert.False(t, info.IsDir())

	info, err = mfs.Stat("/data/Results")
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.True(t, mfs.Exists("/data"))
}

func TestMemoryFileSystem_Paths(t *testing.T) {
	mfs := NewMemoryFileSystem()
	require.NoError(t, mfs.WriteFile("b.json", nil, 0644))
	require.NoError(t, mfs.WriteFile("a/c.json", nil, 0644))

	assert.Equal(t, []string{"a/c.json", "b.json"}, mfs.Paths())
}

func TestMemoryFileSystem_ImplementsInterface(t *testing.T) {
	var _ FileSystem = NewMemoryFileSystem()
	var _ FileSystem = OSFileSystem{}
}
