package runner_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/gocif/pkg/runner"
)

// makeTree creates files (relative, slash-separated) under a new temp dir.
func makeTree(t *testing.T, files ...string) string {
	t.Helper()

	dir := t.TempDir()
	for _, f := range files {
		path := filepath.Join(dir, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("data_x\n"), 0o644))
	}
	return dir
}

func relAll(t *testing.T, dir string, paths []string) []string {
	t.Helper()

	out := make([]string, len(paths))
	for i, p := range paths {
		rel, err := filepath.Rel(dir, p)
		require.NoError(t, err)
		out[i] = filepath.ToSlash(rel)
	}
	return out
}

func TestDiscover(t *testing.T) {
	t.Parallel()

	tree := []string{
		"1abc.cif",
		"2xyz.bcif",
		"3def.MMCIF",
		"notes.txt",
		"models/4ghi.cif",
		"models/deep/5jkl.cif",
		"models/deep/5jkl.cif.bak",
		"vendor/6mno.cif",
		".hidden/7pqr.cif",
		".8stu.cif",
	}

	tests := []struct {
		name string
		opts runner.Options
		want []string
	}{
		{
			name: "defaults",
			want: []string{
				"1abc.cif", "2xyz.bcif", "3def.MMCIF",
				"models/4ghi.cif", "models/deep/5jkl.cif", "vendor/6mno.cif",
			},
		},
		{
			name: "custom extensions",
			opts: runner.Options{Extensions: []string{".bcif", ".cif.bak"}},
			want: []string{"2xyz.bcif", "models/deep/5jkl.cif.bak"},
		},
		{
			name: "exclude directory",
			opts: runner.Options{ExcludeGlobs: []string{"vendor/**"}},
			want: []string{
				"1abc.cif", "2xyz.bcif", "3def.MMCIF",
				"models/4ghi.cif", "models/deep/5jkl.cif",
			},
		},
		{
			name: "exclude by base name",
			opts: runner.Options{ExcludeGlobs: []string{"*.bcif", "4*"}},
			want: []string{
				"1abc.cif", "3def.MMCIF", "models/deep/5jkl.cif", "vendor/6mno.cif",
			},
		},
		{
			name: "include with double star",
			opts: runner.Options{IncludeGlobs: []string{"models/**/*.cif"}},
			want: []string{"models/4ghi.cif", "models/deep/5jkl.cif"},
		},
		{
			name: "subdirectory path",
			opts: runner.Options{Paths: []string{"models"}},
			want: []string{"models/4ghi.cif", "models/deep/5jkl.cif"},
		},
		{
			name: "explicit file skips extension filter",
			opts: runner.Options{Paths: []string{"notes.txt", "1abc.cif", "./1abc.cif"}},
			want: []string{"1abc.cif", "notes.txt"},
		},
		{
			name: "explicit file still excluded",
			opts: runner.Options{Paths: []string{"1abc.cif"}, ExcludeGlobs: []string{"1abc.cif"}},
			want: []string{},
		},
		{
			name: "overlapping paths are deduplicated",
			opts: runner.Options{Paths: []string{".", "models"}},
			want: []string{
				"1abc.cif", "2xyz.bcif", "3def.MMCIF",
				"models/4ghi.cif", "models/deep/5jkl.cif", "vendor/6mno.cif",
			},
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			dir := makeTree(t, tree...)
			opts := testCase.opts
			opts.WorkingDir = dir

			files, err := runner.Discover(context.Background(), opts)
			require.NoError(t, err)
			assert.Equal(t, testCase.want, relAll(t, dir, files))
		})
	}
}

func TestDiscover_Errors(t *testing.T) {
	t.Parallel()

	dir := makeTree(t, "a.cif")

	_, err := runner.Discover(context.Background(), runner.Options{
		WorkingDir: dir,
		Paths:      []string{"missing"},
	})
	require.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = runner.Discover(ctx, runner.Options{WorkingDir: dir})
	require.ErrorIs(t, err, context.Canceled)
}

func TestDiscover_Symlinks(t *testing.T) {
	t.Parallel()

	dir := makeTree(t, "real/1abc.cif")
	external := makeTree(t, "2xyz.cif")

	if err := os.Symlink(filepath.Join(dir, "real", "1abc.cif"), filepath.Join(dir, "link.cif")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}
	require.NoError(t, os.Symlink(external, filepath.Join(dir, "linked")))
	require.NoError(t, os.Symlink("nowhere", filepath.Join(dir, "broken.cif")))
	// A cycle back to the root must not loop forever.
	require.NoError(t, os.Symlink(dir, filepath.Join(dir, "real", "loop")))

	ctx := context.Background()

	files, err := runner.Discover(ctx, runner.Options{WorkingDir: dir})
	require.NoError(t, err)
	assert.Equal(t, []string{"link.cif", "real/1abc.cif"}, relAll(t, dir, files))

	files, err = runner.Discover(ctx, runner.Options{WorkingDir: dir, FollowSymlinks: true})
	require.NoError(t, err)
	assert.Len(t, files, 3)
	assert.Contains(t, files, filepath.Join(external, "2xyz.cif"))
}
