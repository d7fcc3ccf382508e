package runner

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Discover finds the files a run should check and returns their absolute
// paths sorted and without duplicates.
func Discover(ctx context.Context, opts Options) ([]string, error) {
	workDir, err := resolveWorkDir(opts.WorkingDir)
	if err != nil {
		return nil, fmt.Errorf("resolve working directory: %w", err)
	}

	w := &walker{
		ctx:      ctx,
		workDir:  workDir,
		exts:     lowerAll(opts.effectiveExtensions()),
		include:  newGlobSet(opts.IncludeGlobs),
		exclude:  newGlobSet(opts.ExcludeGlobs),
		follow:   opts.FollowSymlinks,
		seen:     make(map[string]struct{}),
		visiting: make(map[string]struct{}),
	}

	for _, inputPath := range opts.effectivePaths() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("discovery cancelled: %w", err)
		}

		absPath := inputPath
		if !filepath.IsAbs(absPath) {
			absPath = filepath.Join(workDir, absPath)
		}
		absPath = filepath.Clean(absPath)

		info, err := os.Stat(absPath)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", inputPath, err)
		}

		if !info.IsDir() {
			// Named files skip the extension filter but not the excludes.
			if !w.exclude.match(w.rel(absPath)) {
				w.add(absPath)
			}
			continue
		}

		if err := w.walk(absPath); err != nil {
			return nil, err
		}
	}

	slices.Sort(w.files)
	return w.files, nil
}

type walker struct {
	ctx     context.Context
	workDir string
	exts    []string
	include globSet
	exclude globSet
	follow  bool

	files    []string
	seen     map[string]struct{}
	visiting map[string]struct{}
}

func (w *walker) add(path string) {
	if _, ok := w.seen[path]; ok {
		return
	}
	w.seen[path] = struct{}{}
	w.files = append(w.files, path)
}

func (w *walker) rel(path string) string {
	rel, err := filepath.Rel(w.workDir, path)
	if err != nil {
		return path
	}
	return rel
}

// walk adds matching files below root. Hidden entries are skipped.
func (w *walker) walk(root string) error {
	// Guard against symlink cycles when following directory links.
	resolved, err := filepath.EvalSymlinks(root)
	if err == nil {
		if _, ok := w.visiting[resolved]; ok {
			return nil
		}
		w.visiting[resolved] = struct{}{}
		defer delete(w.visiting, resolved)
	}

	err = filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if err := w.ctx.Err(); err != nil {
			return err
		}

		if walkErr != nil {
			if os.IsPermission(walkErr) {
				return nil
			}
			return walkErr
		}

		if path != root && strings.HasPrefix(entry.Name(), ".") {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		relPath := w.rel(path)

		if entry.IsDir() {
			if path != root && w.exclude.match(relPath) {
				return filepath.SkipDir
			}
			return nil
		}

		if entry.Type()&fs.ModeSymlink != 0 {
			return w.symlink(path)
		}

		if w.wanted(path, relPath) {
			w.add(path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk directory %s: %w", root, err)
	}
	return nil
}

// symlink handles a link found while walking. Broken links are ignored;
// directory links are walked only when following is enabled.
func (w *walker) symlink(path string) error {
	target, err := filepath.EvalSymlinks(path)
	if err != nil {
		return nil //nolint:nilerr // broken symlink
	}
	info, err := os.Stat(target)
	if err != nil {
		return nil //nolint:nilerr // inaccessible target
	}

	if info.IsDir() {
		if !w.follow || w.exclude.match(w.rel(path)) {
			return nil
		}
		// Walk the target: WalkDir does not descend into a symlink root.
		return w.walk(target)
	}

	if w.wanted(path, w.rel(path)) {
		w.add(path)
	}
	return nil
}

// wanted applies the extension, exclude and include filters.
func (w *walker) wanted(path, relPath string) bool {
	if !hasExtension(path, w.exts) {
		return false
	}
	if w.exclude.match(relPath) {
		return false
	}
	return w.include.empty() || w.include.match(relPath)
}

func hasExtension(path string, exts []string) bool {
	name := strings.ToLower(filepath.Base(path))
	for _, ext := range exts {
		if strings.HasSuffix(name, ext) && len(name) > len(ext) {
			return true
		}
	}
	return false
}

func lowerAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(v)
	}
	return out
}

func resolveWorkDir(workDir string) (string, error) {
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("get working directory: %w", err)
		}
		return wd, nil
	}
	absPath, err := filepath.Abs(workDir)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path: %w", err)
	}
	return absPath, nil
}
