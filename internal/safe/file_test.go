package safe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadFile(t *testing.T) {
	t.Run("reads regular file", func(t *testing.T) {
		tmpDir := t.TempDir()
		src := filepath.Join(tmpDir, "source.bin")
		content := []byte{0x58, 0x35, 0x4f, 0x21}

		require.NoError(t, os.WriteFile(src, content, 0o644))

		got, err := ReadFile(src, nil)
		require.NoError(t, err)
		assert.Equal(t, content, got)
	})

	t.Run("reads empty file", func(t *testing.T) {
		src := filepath.Join(t.TempDir(), "empty.bin")
		require.NoError(t, os.WriteFile(src, nil, 0o644))

		got, err := ReadFile(src, &ReadOptions{})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("rejects symlink by default", func(t *testing.T) {
		tmpDir := t.TempDir()
		src := filepath.Join(tmpDir, "source.txt")
		link := filepath.Join(tmpDir, "link.txt")

		require.NoError(t, os.WriteFile(src, []byte("test"), 0o644))
		require.NoError(t, os.Symlink(src, link))

		_, err := ReadFile(link, nil)
		assert.Error(t, err)
	})

	t.Run("follows symlink when allowed", func(t *testing.T) {
		tmpDir := t.TempDir()
		src := filepath.Join(tmpDir, "source.txt")
		link := filepath.Join(tmpDir, "link.txt")

		require.NoError(t, os.WriteFile(src, []byte("test"), 0o644))
		require.NoError(t, os.Symlink(src, link))

		got, err := ReadFile(link, &ReadOptions{AllowSymlinks: true})
		require.NoError(t, err)
		assert.Equal(t, "test", string(got))
	})

	t.Run("rejects directory", func(t *testing.T) {
		_, err := ReadFile(t.TempDir(), &ReadOptions{})
		assert.ErrorContains(t, err, "not a regular file")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := ReadFile(filepath.Join(t.TempDir(), "nope"), nil)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("rejects file exceeding max size", func(t *testing.T) {
		src := filepath.Join(t.TempDir(), "source.txt")
		require.NoError(t, os.WriteFile(src, make([]byte, 1024), 0o644))

		_, err := ReadFile(src, &ReadOptions{MaxSize: 512})
		assert.ErrorContains(t, err, "maximum allowed size")
	})

	t.Run("no limit when max size is zero", func(t *testing.T) {
		src := filepath.Join(t.TempDir(), "big.bin")
		require.NoError(t, os.WriteFile(src, make([]byte, 2*DefaultMaxDocumentSize), 0o644))

		got, err := ReadFile(src, &ReadOptions{})
		require.NoError(t, err)
		assert.Len(t, got, 2*DefaultMaxDocumentSize)
	})
}
