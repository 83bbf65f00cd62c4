package syntax

import (
	"testing"

	"github.com/trre-go/trre/internal/ast"
)

// FuzzParse checks that every parsed pattern is well formed and prints to a
// pattern that parses back to the same tree.
// To run: go test -fuzz=FuzzParse ./internal/syntax/
func FuzzParse(f *testing.F) {
	for _, seed := range []string{
		"",
		"a:x",
		"(a:b|b:a)*",
		"(cat):(dog)|(dog):(cat)",
		"a?b+:(x|y)?",
		"(:x|:)*a",
		`\::\|`,
		"∅:x|()",
		"h(é:e)llo",
		"a(b:x)c",
		"((a:",
		"a:b:c",
		"c:da:ot:g",
		"a{2,3}?b*?:x",
		"(a:x){,2}",
	} {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, pattern string) {
		x, err := Parse(pattern)
		if err != nil {
			if _, ok := err.(*Error); !ok {
				t.Fatalf("Parse(%q) returned %T, want *Error", pattern, err)
			}
			return
		}
		if err := ast.Validate(x, nil, nil); err != nil {
			t.Fatalf("Parse(%q) = %s is malformed: %v", pattern, x, err)
		}
		printed := x.String()
		y, err := Parse(printed)
		if err != nil {
			t.Fatalf("Parse(%q) printed as %q, which does not parse: %v", pattern, printed, err)
		}
		if !y.Equal(x) {
			t.Fatalf("Parse(%q) = %s, reparsed as %s", pattern, x, y)
		}
	})
}
