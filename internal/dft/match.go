package dft

import (
	"errors"
	"slices"
	"unicode/utf8"

	"github.com/trre-go/trre/internal/ast"
)

// Policy decides which outputs a match reports when the transducer relates
// one input to several outputs.
type Policy uint8

const (
	// AllOutputs reports every output, sorted and without duplicates.
	AllOutputs Policy = iota
	// FirstOutput reports only the output of the highest-priority accepting
	// path. Earlier transitions win: the left side of a union, and another
	// iteration of a greedy star before leaving it (leaving first for a lazy
	// one). Paths are compared transition by transition, like a backtracking
	// matcher would try them.
	FirstOutput
)

func (p Policy) String() string {
	switch p {
	case AllOutputs:
		return "all"
	case FirstOutput:
		return "first"
	}
	return "Policy(?)"
}

// Result is the outcome of a match.
type Result struct {
	Accepted bool     `json:"accepted"`
	Outputs  []string `json:"outputs"`
}

type member struct {
	state *State
	out   string
}

// frontier is an ordered set of members.
type frontier struct {
	members []member
	seen    map[member]bool
}

func newFrontier() *frontier {
	return &frontier{seen: make(map[member]bool)}
}

func (f *frontier) add(m member) {
	if f.seen[m] {
		return
	}
	f.seen[m] = true
	f.members = append(f.members, m)
}

// advance replaces f by the states reachable from it on sym.
func (m *DFT) advance(f *frontier, sym ast.Symbol, offset int) (*frontier, error) {
	next := newFrontier()
	for _, mem := range f.members {
		edges, err := m.Step(mem.state, sym)
		if err != nil {
			var re *ResourceError
			if errors.As(err, &re) {
				re.Offset = offset
			}
			return nil, err
		}
		for _, e := range edges {
			next.add(member{state: e.To, out: mem.out + e.Out})
		}
		if len(next.members) > m.config.MaxFrontier {
			return nil, &ResourceError{Resource: "frontier", Limit: m.config.MaxFrontier, Size: len(next.members), Offset: offset}
		}
	}
	return next, nil
}

// accept collects the outputs of the accepting members of f, sorted and
// without duplicates.
func (f *frontier) accept() Result {
	var outs []string
	for _, mem := range f.members {
		for _, final := range mem.state.finals {
			outs = append(outs, mem.out+final)
		}
	}
	if len(outs) == 0 {
		return Result{}
	}
	slices.Sort(outs)
	return Result{Accepted: true, Outputs: slices.Compact(outs)}
}

// symbolAt decodes the rune starting at input[offset]. A byte that is not
// valid UTF-8 is no symbol at all: ok is false and it matches nothing, not
// even a literal U+FFFD.
func symbolAt(input string, offset int) (sym ast.Symbol, size int, ok bool) {
	r, size := utf8.DecodeRuneInString(input[offset:])
	return ast.Symbol(r), size, r != utf8.RuneError || size > 1
}

// Match runs the whole of input through the transducer. The result is
// accepted when some path consumes all of input and ends in the accept state.
func (m *DFT) Match(input string, policy Policy) (Result, error) {
	if policy == FirstOutput {
		return m.matchFirst(input)
	}
	f := newFrontier()
	f.add(member{state: m.start})
	for offset := 0; offset < len(input); {
		sym, size, ok := symbolAt(input, offset)
		if !ok {
			return Result{}, nil
		}
		var err error
		f, err = m.advance(f, sym, offset)
		if err != nil {
			return Result{}, err
		}
		if len(f.members) == 0 {
			return Result{}, nil
		}
		offset += size
	}
	return f.accept(), nil
}

// LongestPrefix finds the longest prefix of input the transducer accepts and
// returns its length in bytes together with its outputs. n is -1 when no
// prefix, not even the empty one, is accepted.
func (m *DFT) LongestPrefix(input string, policy Policy) (n int, res Result, err error) {
	if policy == FirstOutput {
		return m.longestPrefixFirst(input)
	}
	f := newFrontier()
	f.add(member{state: m.start})
	n = -1
	if r := f.accept(); r.Accepted {
		n, res = 0, r
	}
	for offset := 0; offset < len(input); {
		sym, size, ok := symbolAt(input, offset)
		if !ok {
			break
		}
		f, err = m.advance(f, sym, offset)
		if err != nil {
			return -1, Result{}, err
		}
		if len(f.members) == 0 {
			break
		}
		offset += size
		if acc := f.accept(); acc.Accepted {
			n, res = offset, acc
		}
	}
	return n, res, nil
}
