package trre

import (
	"fmt"

	"github.com/trre-go/trre/internal/ast"
	"github.com/trre-go/trre/internal/compiler"
	"github.com/trre-go/trre/internal/syntax"
)

// Expression trees. Build them with the constructors below or parse them
// with Parse; a tree must not be modified once built.
type (
	// Expr is a transductive regular expression.
	Expr = ast.Expr
	// RE is a regular expression on one side of a pair.
	RE = ast.RE
	// Symbol is one alphabet element.
	Symbol = ast.Symbol
	// Alphabet is a finite set of symbols.
	Alphabet = ast.Alphabet
)

// Parse parses pattern into an expression tree without compiling it.
func Parse(pattern string) (*Expr, error) {
	x, err := syntax.Parse(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedExpression, err)
	}
	return x, nil
}

// Epsilon is the empty-string marker in transition tables.
const Epsilon = ast.Epsilon

// NewAlphabet returns the alphabet holding every rune of syms.
func NewAlphabet(syms string) Alphabet { return ast.NewAlphabet(syms) }

// Eps returns the regular expression matching only the empty string.
func Eps() *RE { return ast.Eps() }

// None returns the regular expression matching nothing.
func None() *RE { return ast.None() }

// Lit returns the regular expression matching r.
func Lit(r rune) *RE { return ast.Lit(r) }

// Str returns the regular expression matching exactly s.
func Str(s string) *RE { return ast.Str(s) }

// Cat returns the concatenation of x and y.
func Cat(x, y *RE) *RE { return ast.Cat(x, y) }

// Or returns the union of x and y.
func Or(x, y *RE) *RE { return ast.Or(x, y) }

// Star returns the Kleene closure of x.
func Star(x *RE) *RE { return ast.Star(x) }

// Pair returns the transducer reading a string of L(in) and writing a string
// of L(out).
func Pair(in, out *RE) *Expr { return ast.Pair(in, out) }

// Then returns the concatenation of t and u.
func Then(t, u *Expr) *Expr { return ast.Then(t, u) }

// Either returns the union of t and u.
func Either(t, u *Expr) *Expr { return ast.Either(t, u) }

// Repeat returns the Kleene closure of t.
func Repeat(t *Expr) *Expr { return ast.Repeat(t) }

// Identity returns the transducer copying every string of L(re) unchanged.
func Identity(re *RE) *Expr { return ast.Identity(re) }

// Transition is one row of a transition table: reading In and writing Out
// moves From one state To another. Either label may be Epsilon.
type Transition = compiler.Transition

// FromTable builds a transducer from a transition table, as emitted by
// Generate. States are [0, numStates); start and accept are state numbers.
func FromTable(numStates int, table []Transition, start, accept int, opts ...Options) (*Transducer, error) {
	o, err := options(opts)
	if err != nil {
		return nil, err
	}
	prog, err := compiler.NewProgram(numStates, table, start, accept)
	if err != nil {
		return nil, fmt.Errorf("invalid table: %w", err)
	}
	logger := compiler.NewLogger(o.Verbose)
	return newTransducer(prog, fmt.Sprintf("table(%d states, %d transitions)", numStates, len(table)),
		compiler.Analyze(prog), o, logger)
}

// MustFromTable is like FromTable but panics on error. Generated code uses it
// to initialize package variables.
func MustFromTable(numStates int, table []Transition, start, accept int, opts ...Options) *Transducer {
	t, err := FromTable(numStates, table, start, accept, opts...)
	if err != nil {
		panic("trre: FromTable: " + err.Error())
	}
	return t
}
