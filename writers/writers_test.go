package writers

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtomicFileRenamesOnClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "stats.json")
	f, err := NewAtomicFile(path, 0o644)
	require.NoError(t, err)

	_, err = f.Write([]byte("{}\n"))
	require.NoError(t, err)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, f.Close())
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{}\n", string(got))
	require.NoError(t, f.Close())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestAtomicFileAbort(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "raw.json")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	f, err := NewAtomicFile(path, 0o644)
	require.NoError(t, err)
	_, err = f.Write([]byte("partial"))
	require.NoError(t, err)
	f.Abort()
	require.NoError(t, f.Close())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "old", string(got))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLazyWriteCloser(t *testing.T) {
	calls := 0
	var buf bytes.Buffer
	w := NewLazyWriteCloser(func() (io.WriteCloser, error) {
		calls++
		return nopCloser{&buf}, nil
	})
	assert.False(t, w.Opened())
	require.NoError(t, w.Close())
	assert.Zero(t, calls)

	_, err := w.Write([]byte("a"))
	require.NoError(t, err)
	_, err = w.Write([]byte("b"))
	require.NoError(t, err)
	assert.True(t, w.Opened())
	assert.Equal(t, 1, calls)
	assert.Equal(t, "ab", buf.String())
}

func TestLazyWriteCloserInitError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	w := NewLazyWriteCloser(func() (io.WriteCloser, error) {
		calls++
		return nil, boom
	})
	_, err := w.Write([]byte("a"))
	assert.ErrorIs(t, err, boom)
	_, err = w.Write([]byte("a"))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
	assert.False(t, w.Opened())
	w.Abort()
}

func TestOutput(t *testing.T) {
	var stdout bytes.Buffer
	w := Output(StdoutName, &stdout)
	_, err := w.Write([]byte("hi"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.Equal(t, "hi", stdout.String())

	path := filepath.Join(t.TempDir(), "unused.json")
	w = Output(path, &stdout)
	require.NoError(t, w.Close())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	w = Output(path, &stdout)
	_, err = w.Write([]byte("data"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "data", string(got))
}
