// Package trre compiles transductive regular expressions into finite state
// transducers and runs them over strings.
//
// A transductive regular expression relates input strings to output strings.
// The pair a:b reads a and writes b; pairs combine by concatenation, union
// and Kleene star like ordinary regular expressions do. Compiling an
// expression builds a nondeterministic transducer, which is determinized
// lazily while matching: a deterministic state is created the first time some
// input reaches it and is reused by every later match.
//
// Example:
//
//	t, err := trre.CompileString("(cat):(dog)|(a:b)*")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res, err := t.Match("aaa")
//	fmt.Println(res.Accepted, res.Outputs) // true [bbb]
package trre

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/trre-go/trre/internal/ast"
	"github.com/trre-go/trre/internal/compiler"
	"github.com/trre-go/trre/internal/dft"
	"github.com/trre-go/trre/internal/syntax"
)

var (
	// ErrMalformedExpression is returned, wrapped, for expression trees that
	// violate their structural contract and for patterns that do not parse.
	ErrMalformedExpression = ast.ErrMalformed

	// ErrResourceExceeded is returned, wrapped, when matching would exceed
	// Options.MaxStates or Options.MaxFrontier.
	ErrResourceExceeded = dft.ErrResourceExceeded
)

type (
	// MalformedError describes a malformed expression tree.
	MalformedError = ast.MalformedError
	// ResourceError describes the bound a match ran into.
	ResourceError = dft.ResourceError
	// SyntaxError describes a pattern that does not parse.
	SyntaxError = syntax.Error
)

// Result is the outcome of a match: whether the input was accepted and, if
// so, the outputs it is related to.
type Result = dft.Result

// Policy selects which outputs a match reports.
type Policy = dft.Policy

const (
	// AllOutputs reports every output, sorted and without duplicates.
	AllOutputs = dft.AllOutputs
	// FirstOutput reports the output of the highest-priority accepting path.
	FirstOutput = dft.FirstOutput
)

// Analysis summarizes the shape of a compiled transducer.
type Analysis = compiler.Analysis

// Options configures compilation and matching. The zero value is ready to use.
type Options struct {
	// InputAlphabet and OutputAlphabet restrict the literals an expression
	// may use on each side. Nil admits every rune.
	InputAlphabet  Alphabet
	OutputAlphabet Alphabet

	// MaxStates bounds the number of deterministic states cached by one
	// transducer (default 10000).
	MaxStates int

	// MaxFrontier bounds the number of (state, output) pairs alive at once
	// during a match (default 4096).
	MaxFrontier int

	// Policy selects which outputs a match reports (default AllOutputs).
	Policy Policy

	// Verbose logs compilation and cache decisions to stderr.
	Verbose bool
}

// Validate checks if the options are valid.
func (o Options) Validate() error {
	if o.MaxStates < 0 {
		return fmt.Errorf("max states cannot be negative")
	}
	if o.MaxFrontier < 0 {
		return fmt.Errorf("max frontier cannot be negative")
	}
	if o.Policy != AllOutputs && o.Policy != FirstOutput {
		return fmt.Errorf("unknown policy %d", o.Policy)
	}
	return nil
}

func options(opts []Options) (Options, error) {
	switch len(opts) {
	case 0:
		return Options{}, nil
	case 1:
		if err := opts[0].Validate(); err != nil {
			return Options{}, fmt.Errorf("invalid options: %w", err)
		}
		return opts[0], nil
	}
	return Options{}, fmt.Errorf("invalid options: %d Options values given", len(opts))
}

// Transducer is a compiled transductive regular expression. It is safe for
// concurrent use by multiple goroutines.
type Transducer struct {
	source   string
	policy   Policy
	analysis Analysis
	dft      *dft.DFT
}

// Compile validates expr, rewrites it into normal form and builds its
// transducer. Malformed trees fail with an error wrapping
// ErrMalformedExpression.
func Compile(expr *Expr, opts ...Options) (*Transducer, error) {
	return compile(expr, "", opts)
}

// CompileString parses pattern and compiles it.
func CompileString(pattern string, opts ...Options) (*Transducer, error) {
	expr, err := Parse(pattern)
	if err != nil {
		return nil, err
	}
	return compile(expr, pattern, opts)
}

func compile(expr *Expr, pattern string, opts []Options) (*Transducer, error) {
	o, err := options(opts)
	if err != nil {
		return nil, err
	}
	c := compiler.New(compiler.Config{
		Expr:           expr,
		Pattern:        pattern,
		InputAlphabet:  o.InputAlphabet,
		OutputAlphabet: o.OutputAlphabet,
		Verbose:        o.Verbose,
	})
	prog, err := c.Compile()
	if err != nil {
		return nil, err
	}
	if pattern == "" {
		pattern = expr.String()
	}
	return newTransducer(prog, pattern, c.Analysis(), o, c.Logger())
}

// MustCompile is like Compile but panics if the expression cannot be compiled.
func MustCompile(expr *Expr, opts ...Options) *Transducer {
	t, err := Compile(expr, opts...)
	if err != nil {
		panic(fmt.Sprintf("trre: Compile(%s): %v", expr, err))
	}
	return t
}

// MustCompileString is like CompileString but panics if the pattern cannot
// be compiled. It simplifies safe initialization of global variables.
func MustCompileString(pattern string, opts ...Options) *Transducer {
	t, err := CompileString(pattern, opts...)
	if err != nil {
		panic(fmt.Sprintf("trre: CompileString(%q): %v", pattern, err))
	}
	return t
}

func newTransducer(prog *compiler.Program, source string, analysis Analysis, o Options, logger *compiler.Logger) (*Transducer, error) {
	m, err := dft.New(prog, dft.Config{
		MaxStates:   o.MaxStates,
		MaxFrontier: o.MaxFrontier,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}
	return &Transducer{
		source:   source,
		policy:   o.Policy,
		analysis: analysis,
		dft:      m,
	}, nil
}

// Match runs the whole of input through t. The result is rejected when no
// path of t reads exactly input; otherwise it carries the outputs selected by
// t's Policy. The error is non-nil only when a resource bound was hit.
func (t *Transducer) Match(input string) (Result, error) {
	return t.dft.Match(input, t.policy)
}

// Scan copies input to the result, replacing each leftmost-longest nonempty
// substring that t accepts with its output. Where only the empty string is
// accepted, its output is inserted before the next rune. When a substring has
// several outputs the first one reported under t's Policy is used.
func (t *Transducer) Scan(input string) (string, error) {
	var b strings.Builder
	for i := 0; ; {
		n, res, err := t.dft.LongestPrefix(input[i:], t.policy)
		if err != nil {
			var re *ResourceError
			if errors.As(err, &re) {
				re.Offset += i
			}
			return "", err
		}
		if n >= 0 {
			b.WriteString(res.Outputs[0])
		}
		if n > 0 {
			i += n
			continue
		}
		if i == len(input) {
			return b.String(), nil
		}
		_, size := utf8.DecodeRuneInString(input[i:])
		b.WriteString(input[i : i+size])
		i += size
	}
}

// CacheSize returns the number of deterministic states built so far.
func (t *Transducer) CacheSize() int {
	return t.dft.Len()
}

// Analysis returns the shape of t's nondeterministic transducer.
func (t *Transducer) Analysis() Analysis {
	return t.analysis
}

// Policy returns the output policy t was compiled with.
func (t *Transducer) Policy() Policy {
	return t.policy
}

// String returns the source text of t: the pattern it was compiled from, or
// the printed expression tree.
func (t *Transducer) String() string {
	return t.source
}
