package check

import (
	"fmt"
	"slices"

	"github.com/yaklabco/gocif/pkg/cif"
	"github.com/yaklabco/gocif/pkg/config"
)

// unknownSet records names the schema does not cover. In strict mode the
// first sighting of each name is also reported as an error.
type unknownSet struct {
	out    *Outcome
	strict bool
	seen   map[string]struct{}
}

func newUnknownSet(out *Outcome, strict bool) *unknownSet {
	return &unknownSet{out: out, strict: strict, seen: make(map[string]struct{})}
}

func (u *unknownSet) category(_ *cif.Reader, category string, line int) error {
	if u.note(category) && u.strict {
		u.out.add(line, config.SeverityError, CodeUnknownCategory,
			fmt.Sprintf("category %s is not in the schema", category))
	}
	return nil
}

func (u *unknownSet) keyword(_ *cif.Reader, category, keyword string, line int) error {
	if u.note(category+"."+keyword) && u.strict {
		u.out.add(line, config.SeverityError, CodeUnknownKeyword,
			fmt.Sprintf("keyword %s.%s is not in the schema", category, keyword))
	}
	return nil
}

// note adds name and reports whether it was new.
func (u *unknownSet) note(name string) bool {
	if _, ok := u.seen[name]; ok {
		return false
	}
	u.seen[name] = struct{}{}
	return true
}

func (u *unknownSet) sorted() []string {
	if len(u.seen) == 0 {
		return nil
	}
	out := make([]string, 0, len(u.seen))
	for name := range u.seen {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}
