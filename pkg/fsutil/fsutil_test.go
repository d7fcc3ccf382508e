package fsutil_test

import (
	"context"
	"crypto/sha256"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/gocif/pkg/fsutil"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "1abc.cif")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestStat(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "data_1ABC\n")

	info, err := fsutil.Stat(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, path, info.Path)
	assert.Equal(t, int64(10), info.Size)
	assert.Equal(t, os.FileMode(0o644), info.Mode.Perm())
	assert.Equal(t, [32]byte{}, info.Hash, "Stat does not hash")
}

func TestStat_Errors(t *testing.T) {
	t.Parallel()

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name    string
		ctx     context.Context
		path    string
		wantErr error
	}{
		{"missing", context.Background(), "/nonexistent/1abc.cif", fsutil.ErrNotFound},
		{"directory", context.Background(), t.TempDir(), fsutil.ErrIsDirectory},
		{"cancelled", cancelled, "anything", context.Canceled},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			_, err := fsutil.Stat(testCase.ctx, testCase.path)
			require.ErrorIs(t, err, testCase.wantErr)

			_, _, err = fsutil.Open(testCase.ctx, testCase.path)
			require.ErrorIs(t, err, testCase.wantErr)
		})
	}
}

func TestOpen(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "data_x\n")

	file, info, err := fsutil.Open(context.Background(), path)
	require.NoError(t, err)
	defer file.Close()

	buf := make([]byte, 16)
	n, err := file.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "data_x\n", string(buf[:n]))
	assert.Equal(t, int64(n), info.Size)
}

func TestHash(t *testing.T) {
	t.Parallel()

	content := "loop_\n_a.b\n1\n2\n"
	path := writeFile(t, content)

	sum, err := fsutil.Hash(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, sha256.Sum256([]byte(content)), sum)

	info, err := fsutil.StatHash(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, sum, info.Hash)
}

func TestCheckModified(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		change    func(t *testing.T, path string, info *fsutil.FileInfo)
		wantQuick bool
		wantFull  bool
	}{
		{
			name:   "unchanged",
			change: func(*testing.T, string, *fsutil.FileInfo) {},
		},
		{
			name: "size change",
			change: func(t *testing.T, path string, _ *fsutil.FileInfo) {
				require.NoError(t, os.WriteFile(path, []byte("data_longer_name\n"), 0o644))
			},
			wantQuick: true,
			wantFull:  true,
		},
		{
			name: "mtime change only",
			change: func(t *testing.T, path string, info *fsutil.FileInfo) {
				later := info.ModTime.Add(time.Hour)
				require.NoError(t, os.Chtimes(path, later, later))
			},
			wantQuick: true,
			wantFull:  true,
		},
		{
			name: "same size same mtime different content",
			change: func(t *testing.T, path string, info *fsutil.FileInfo) {
				require.NoError(t, os.WriteFile(path, []byte("data_XYZ\n"), 0o644))
				require.NoError(t, os.Chtimes(path, info.ModTime, info.ModTime))
			},
			wantQuick: false,
			wantFull:  true,
		},
		{
			name: "deleted",
			change: func(t *testing.T, path string, _ *fsutil.FileInfo) {
				require.NoError(t, os.Remove(path))
			},
			wantQuick: true,
			wantFull:  true,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			path := writeFile(t, "data_ABC\n")
			info, err := fsutil.StatHash(ctx, path)
			require.NoError(t, err)

			testCase.change(t, path, info)

			quick, err := fsutil.CheckModifiedQuick(ctx, info)
			require.NoError(t, err)
			assert.Equal(t, testCase.wantQuick, quick)

			full, err := fsutil.CheckModified(ctx, info)
			require.NoError(t, err)
			assert.Equal(t, testCase.wantFull, full)
		})
	}
}

func TestCheckModified_NilInfo(t *testing.T) {
	t.Parallel()

	_, err := fsutil.CheckModified(context.Background(), nil)
	require.ErrorIs(t, err, fsutil.ErrNilFileInfo)
}
