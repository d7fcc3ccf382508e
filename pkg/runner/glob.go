package runner

import (
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// globSet matches slash-separated relative paths against patterns.
//
// A pattern without a slash matches the base name or the whole path. A
// pattern with slashes matches the whole path, where a "**" segment stands
// for any number of segments (including none), so "models/**" also matches
// the models directory itself. Patterns that do not compile match nothing.
type globSet struct {
	names []glob.Glob
	paths []glob.Glob
	n     int
}

func newGlobSet(patterns []string) globSet {
	var set globSet
	for _, p := range patterns {
		p = strings.Trim(filepath.ToSlash(p), "/")
		if p == "" {
			continue
		}
		set.n++

		if !strings.Contains(p, "/") && p != "**" {
			if g, err := glob.Compile(p, '/'); err == nil {
				set.names = append(set.names, g)
			}
			continue
		}

		for _, segs := range dropDoubleStars(strings.Split(p, "/")) {
			if len(segs) == 0 {
				continue
			}
			if g, err := glob.Compile(strings.Join(segs, "/"), '/'); err == nil {
				set.paths = append(set.paths, g)
			}
		}
	}
	return set
}

func (g globSet) empty() bool {
	return g.n == 0
}

func (g globSet) match(relPath string) bool {
	relPath = filepath.ToSlash(relPath)
	base := relPath[strings.LastIndexByte(relPath, '/')+1:]

	for _, name := range g.names {
		if name.Match(base) || name.Match(relPath) {
			return true
		}
	}
	for _, p := range g.paths {
		if p.Match(relPath) {
			return true
		}
	}
	return false
}

// dropDoubleStars returns segs and every variant with some "**" segments
// removed. The glob library needs at least one separator around "**", so
// the empty match is spelled out.
func dropDoubleStars(segs []string) [][]string {
	if len(segs) == 0 {
		return [][]string{nil}
	}

	var out [][]string
	for _, rest := range dropDoubleStars(segs[1:]) {
		out = append(out, append([]string{segs[0]}, rest...))
		if segs[0] == "**" {
			out = append(out, rest)
		}
	}
	return out
}
