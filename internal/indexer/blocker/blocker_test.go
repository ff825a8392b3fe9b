package blocker

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	apperrors "github.com/Adithya-Monish-Kumar-K/spimi-search/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixed(n uint64) MemorySampler {
	return func() (uint64, error) { return n, nil }
}

func files(sizes ...int64) []File {
	out := make([]File, len(sizes))
	for i, s := range sizes {
		out[i] = File{Path: filepath.Join("f", string(rune('a'+i))), Size: s}
	}
	return out
}

func TestPartitionClosesAtThreshold(t *testing.T) {
	p := NewPartitioner(4, 0, fixed(400))
	blocks, err := p.Partition(files(60, 40, 10, 100, 5))
	require.NoError(t, err)
	require.Len(t, blocks, 3)
	assert.Len(t, blocks[0].Files, 2)
	assert.Equal(t, int64(100), blocks[0].Bytes)
	assert.Len(t, blocks[1].Files, 2)
	assert.Len(t, blocks[2].Files, 1)
	assert.Equal(t, 2, blocks[2].ID)
}

func TestPartitionForcesTwoBlocks(t *testing.T) {
	p := NewPartitioner(4, 1<<30, nil)
	blocks, err := p.Partition(files(1, 1, 1, 1, 1))
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Len(t, blocks[0].Files, 3)
	assert.Len(t, blocks[1].Files, 2)
	assert.Equal(t, int64(2), blocks[1].Bytes)
}

func TestPartitionSingleFile(t *testing.T) {
	p := NewPartitioner(4, 1<<30, nil)
	blocks, err := p.Partition(files(10))
	require.NoError(t, err)
	assert.Len(t, blocks, 1)
}

func TestPartitionSamplesOnce(t *testing.T) {
	calls := 0
	p := NewPartitioner(4, 0, func() (uint64, error) {
		calls++
		return 4, nil
	})
	_, err := p.Partition(files(1, 1, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestPartitionErrors(t *testing.T) {
	_, err := NewPartitioner(4, 10, nil).Partition(nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = NewPartitioner(4, 0, func() (uint64, error) { return 0, errors.New("no proc") }).Partition(files(1))
	assert.Error(t, err)
}

func TestExpandPathsRecursive(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub", "deeper"), 0o755))
	for _, name := range []string{"b.txt", "a.txt", "sub/c.txt", "sub/deeper/d.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("xyz"), 0o644))
	}
	single := filepath.Join(dir, "a.txt")

	got, err := ExpandPaths([]string{dir, single})
	require.NoError(t, err)
	paths := make([]string, len(got))
	for i, f := range got {
		paths[i] = f.Path
	}
	assert.Equal(t, []string{
		filepath.Join(dir, "a.txt"),
		filepath.Join(dir, "b.txt"),
		filepath.Join(dir, "sub", "c.txt"),
		filepath.Join(dir, "sub", "deeper", "d.txt"),
		single,
	}, paths)
	assert.Equal(t, int64(3), got[0].Size)

	_, err = ExpandPaths([]string{filepath.Join(dir, "missing")})
	assert.Error(t, err)
}

func TestExpandPathsFollowsFileSymlinks(t *testing.T) {
	outside := t.TempDir()
	target := filepath.Join(outside, "target.txt")
	require.NoError(t, os.WriteFile(target, []byte("hello"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(outside, "linked"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(outside, "linked", "inner.txt"), []byte("x"), 0o644))

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("xyz"), 0o644))
	if err := os.Symlink(target, filepath.Join(dir, "b.txt")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	require.NoError(t, os.Symlink(filepath.Join(outside, "linked"), filepath.Join(dir, "c")))
	require.NoError(t, os.Symlink(filepath.Join(outside, "gone.txt"), filepath.Join(dir, "d.txt")))

	got, err := ExpandPaths([]string{dir})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, filepath.Join(dir, "a.txt"), got[0].Path)
	assert.Equal(t, filepath.Join(dir, "b.txt"), got[1].Path)
	assert.Equal(t, int64(5), got[1].Size)
}

func TestGuard(t *testing.T) {
	free := uint64(100)
	g := NewGuard(func() (uint64, error) { return free, nil }, 50, 2)
	require.NoError(t, g.Check())
	require.NoError(t, g.Check())
	free = 10
	require.NoError(t, g.Check())
	assert.ErrorIs(t, g.Check(), apperrors.ErrResourceExhausted)

	var disabled *Guard
	assert.NoError(t, disabled.Check())
}
