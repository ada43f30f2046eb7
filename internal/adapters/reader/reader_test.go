package reader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// budgetSource fails any read that reaches past budget.
type budgetSource struct {
	data   []byte
	budget int64
	calls  int
}

func (s *budgetSource) ReadAt(p []byte, off int64) (int, error) {
	s.calls++
	if off+int64(len(p)) > s.budget {
		return 0, fmt.Errorf("read past budget: off=%d len=%d budget=%d", off, len(p), s.budget)
	}
	return copy(p, s.data[off:]), nil
}

func (s *budgetSource) Name() string { return "big.jpg" }
func (s *budgetSource) Size() int64  { return int64(len(s.data)) }

type failingSource struct{}

func (failingSource) ReadAt(p []byte, off int64) (int, error) { return 0, errors.New("disk on fire") }
func (failingSource) Name() string                             { return "bad.jpg" }
func (failingSource) Size() int64                              { return 1024 }

func makeData(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return data
}

func TestReadAsBuffer_NeverReadsPastBudget(t *testing.T) {
	src := &budgetSource{data: makeData(200_000), budget: 65635}

	buf, err := ReadAsBuffer(context.Background(), src, 65635)
	require.NoError(t, err)
	assert.Len(t, buf, 65635)
	assert.Equal(t, src.data[:65635], buf)
	assert.Positive(t, src.calls)
}

func TestReadAsBuffer_SmallFileUnderBudget(t *testing.T) {
	data := makeData(1000)
	f := NewMemFile("small.jpg", data)

	buf, err := ReadAsBuffer(context.Background(), f, 65635)
	require.NoError(t, err)
	assert.Equal(t, data, buf)
}

func TestReadAsBuffer_WholeFileWithoutBudget(t *testing.T) {
	data := makeData(100_000)
	f := NewMemFile("whole.jpg", data)

	buf, err := ReadAsBuffer(context.Background(), f, 0)
	require.NoError(t, err)
	assert.Equal(t, data, buf)
}

func TestReadAsBuffer_EmptyFile(t *testing.T) {
	buf, err := ReadAsBuffer(context.Background(), NewMemFile("empty.jpg", nil), 65635)
	require.NoError(t, err)
	assert.Empty(t, buf)
}

func TestReadAsBuffer_ReadFailure(t *testing.T) {
	_, err := ReadAsBuffer(context.Background(), failingSource{}, 65635)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.jpg")
	assert.Contains(t, err.Error(), "disk on fire")
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.jpg")
	require.NoError(t, os.WriteFile(path, makeData(4096), 0o644))

	f, err := Open(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, "photo.jpg", f.Name())
	assert.Equal(t, int64(4096), f.Size())

	buf, err := ReadAsBuffer(context.Background(), f, 100)
	require.NoError(t, err)
	assert.Len(t, buf, 100)

	_, err = Open(dir)
	assert.Error(t, err)

	_, err = Open(filepath.Join(dir, "missing.jpg"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
