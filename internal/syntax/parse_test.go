package syntax

import (
	"errors"
	"testing"

	"github.com/trre-go/trre/internal/ast"
)

var (
	a = func() *ast.RE { return ast.Lit('a') }
	b = func() *ast.RE { return ast.Lit('b') }
	x = func() *ast.RE { return ast.Lit('x') }
	y = func() *ast.RE { return ast.Lit('y') }
	e = ast.Eps
)

func id(r rune) *ast.Expr { return ast.Pair(ast.Lit(r), ast.Lit(r)) }

func TestParse(t *testing.T) {
	tests := []struct {
		pattern string
		want    *ast.Expr
	}{
		{"a:x", ast.Pair(a(), x())},
		{"(a|b):x", ast.Pair(ast.Or(a(), b()), x())},
		{"a*:x", ast.Pair(ast.Star(a()), x())},
		{"a:x|a:y", ast.Either(ast.Pair(a(), x()), ast.Pair(a(), y()))},
		{"ab:xy", ast.Then(ast.Then(id('a'), ast.Pair(b(), x())), id('y'))},
		{"(ab):(xy)", ast.Pair(ast.Cat(a(), b()), ast.Cat(x(), y()))},
		{"c:da:ot:g", ast.Then(ast.Then(ast.Pair(ast.Lit('c'), ast.Lit('d')), ast.Pair(a(), ast.Lit('o'))), ast.Pair(ast.Lit('t'), ast.Lit('g')))},
		{"ab:", ast.Then(id('a'), ast.Pair(b(), e()))},
		{":xa", ast.Then(ast.Pair(e(), x()), id('a'))},
		{"a:x*", ast.Pair(a(), ast.Star(x()))},
		{":x", ast.Pair(e(), x())},
		{"a:", ast.Pair(a(), e())},
		{":", ast.Pair(e(), e())},
		{"", ast.Pair(e(), e())},
		{"()", ast.Pair(e(), e())},
		{"a", id('a')},
		{"ab", ast.Then(id('a'), id('b'))},
		{"a(b:x)", ast.Then(id('a'), ast.Pair(b(), x()))},
		{"(a:x)*", ast.Repeat(ast.Pair(a(), x()))},
		{"(a:x)(b:y)", ast.Then(ast.Pair(a(), x()), ast.Pair(b(), y()))},
		{"(a:x|b)*", ast.Repeat(ast.Either(ast.Pair(a(), x()), id('b')))},
		{"a+:x", ast.Pair(ast.Cat(a(), ast.Star(a())), x())},
		{"a?:x", ast.Pair(ast.Or(a(), e()), x())},
		{"(a:x)+", ast.Then(ast.Pair(a(), x()), ast.Repeat(ast.Pair(a(), x())))},
		{"(a:x)?", ast.Either(ast.Pair(a(), x()), ast.Pair(e(), e()))},
		{`\::\|`, ast.Pair(ast.Lit(':'), ast.Lit('|'))},
		{`\n:\t`, ast.Pair(ast.Lit('\n'), ast.Lit('\t'))},
		{"∅:x", ast.Pair(ast.None(), x())},
		{`\∅`, id('∅')},
		{"é:ü", ast.Pair(ast.Lit('é'), ast.Lit('ü'))},
		{"a|b|x:y", ast.Either(ast.Either(id('a'), id('b')), ast.Pair(x(), y()))},
		{"a*?:x", ast.Pair(ast.LazyStar(a()), x())},
		{"(a:x)*?", ast.LazyRepeat(ast.Pair(a(), x()))},
		{"a+?:x", ast.Pair(ast.Cat(a(), ast.LazyStar(a())), x())},
		{"a??:x", ast.Pair(ast.Or(e(), a()), x())},
		{"a?*", ast.Repeat(ast.Either(id('a'), ast.Pair(e(), e())))},
		{"a{2}:x", ast.Pair(ast.Cat(a(), a()), x())},
		{"a{0}:x", ast.Pair(e(), x())},
		{"a{2,}:x", ast.Pair(ast.Cat(ast.Cat(a(), a()), ast.Star(a())), x())},
		{"a{1,3}:x", ast.Pair(ast.Cat(a(), ast.Or(ast.Cat(a(), ast.Or(a(), e())), e())), x())},
		{"a{,2}:x", ast.Pair(ast.Or(ast.Cat(a(), ast.Or(a(), e())), e()), x())},
		{"a{0,1}?:x", ast.Pair(ast.Or(e(), a()), x())},
		{"(a:x){2}", ast.Then(ast.Pair(a(), x()), ast.Pair(a(), x()))},
		{`\{\}`, ast.Then(id('{'), id('}'))},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			got, err := Parse(tt.pattern)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.pattern, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Parse(%q) = %s, want %s", tt.pattern, got, tt.want)
			}
			if err := ast.Validate(got, nil, nil); err != nil {
				t.Errorf("Parse(%q) produced an invalid tree: %v", tt.pattern, err)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		pattern string
		pos     int
	}{
		{"(a:x", 0},
		{"a(b(c)", 1},
		{"a)", 1},
		{"a)xyz", 1},
		{"|a", 0},
		{"a|", 1},
		{"*a", 0},
		{"a:b:c", 3},
		{"(a:b):c", 0},
		{"a:(b:c)", 2},
		{`ab\`, 2},
		{"a{", 1},
		{"a{}", 1},
		{"a{,}", 1},
		{"a{3,1}", 1},
		{"a{x}", 1},
		{"a{1,2,3}", 1},
		{"a{1001}", 1},
		{"(((a{1000}){1000}))", 11},
		{"{2}", 0},
		{"a}", 1},
		{"}", 0},
		{"a:*", 2},
		{"a::b", 2},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			_, err := Parse(tt.pattern)
			var serr *Error
			if !errors.As(err, &serr) {
				t.Fatalf("Parse(%q) error = %v, want *Error", tt.pattern, err)
			}
			if serr.Pos != tt.pos {
				t.Errorf("Parse(%q) error at %d (%s), want %d", tt.pattern, serr.Pos, serr.Msg, tt.pos)
			}
		})
	}
}

// Printing a tree and parsing it back yields the same tree.
func TestRoundTrip(t *testing.T) {
	exprs := []*ast.Expr{
		ast.Pair(ast.Or(a(), b()), x()),
		ast.Repeat(ast.Either(ast.Pair(a(), x()), ast.Pair(ast.Star(b()), e()))),
		ast.Then(ast.Pair(e(), ast.Str("xy")), ast.Repeat(ast.Pair(e(), e()))),
		ast.Pair(ast.Cat(ast.Lit(':'), ast.Lit('(')), ast.Lit('∅')),
		ast.Pair(ast.None(), e()),
		ast.Either(ast.Pair(a(), e()), ast.Then(ast.Pair(b(), y()), ast.Pair(a(), x()))),
		ast.Then(ast.Then(ast.Pair(a(), e()), ast.Pair(e(), x())), ast.Pair(e(), e())),
		ast.Then(id('a'), ast.Then(id('b'), id('x'))),
		ast.Pair(ast.Cat(a(), ast.LazyStar(b())), ast.Or(x(), y())),
		ast.Repeat(ast.LazyRepeat(ast.Pair(a(), x()))),
		ast.LazyRepeat(ast.Repeat(ast.Pair(e(), x()))),
		ast.Pair(ast.Lit('{'), ast.Lit('?')),
	}
	for _, want := range exprs {
		got, err := Parse(want.String())
		if err != nil {
			t.Errorf("Parse(%q): %v", want.String(), err)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("Parse(%q) = %s, want %s", want.String(), got, want)
		}
	}
}

func TestMustParse(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustParse did not panic on a bad pattern")
		}
	}()
	if x := MustParse("a:x"); x.Op != ast.OpPair {
		t.Errorf("MustParse(a:x) = %s", x)
	}
	MustParse("(")
}
