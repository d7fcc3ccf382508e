package runner

import "testing"

func TestGlobSet(t *testing.T) {
	t.Parallel()

	tests := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"*.cif", "1abc.cif", true},
		{"*.cif", "models/1abc.cif", true},
		{"*.cif", "models/1abc.bcif", false},
		{"models/*.cif", "models/1abc.cif", true},
		{"models/*.cif", "models/deep/1abc.cif", false},
		{"models/**", "models", true},
		{"models/**", "models/deep/1abc.cif", true},
		{"models/**", "other/models/1abc.cif", false},
		{"**/tmp", "a/b/tmp", true},
		{"**/tmp", "tmp", true},
		{"**/tmp/*.cif", "a/tmp/x.cif", true},
		{"a/**/z.cif", "a/z.cif", true},
		{"a/**/z.cif", "a/b/c/z.cif", true},
		{"a/**/z.cif", "b/z.cif", false},
		{"**", "anything/at/all", true},
		{"*.{cif,bcif}", "models/2xyz.bcif", true},
		{"*.{cif,bcif}", "2xyz.cif.gz", false},
		{"models/**/*.gz", "models/ab/1abc.cif.gz", true},
		{"models/**/*.gz", "models/1abc.cif.gz", true},
		{"[a-c]*.cif", "b12.cif", true},
		{"[bad", "x", false},
	}

	for _, testCase := range tests {
		t.Run(testCase.pattern+"~"+testCase.path, func(t *testing.T) {
			t.Parallel()

			set := newGlobSet([]string{testCase.pattern})
			if got := set.match(testCase.path); got != testCase.want {
				t.Errorf("match(%q, %q) = %v, want %v", testCase.pattern, testCase.path, got, testCase.want)
			}
		})
	}
}

func TestGlobSet_Empty(t *testing.T) {
	t.Parallel()

	set := newGlobSet([]string{"", "/"})
	if !set.empty() {
		t.Error("blank patterns should be dropped")
	}
	if set.match("x.cif") {
		t.Error("empty set matches nothing")
	}
}
