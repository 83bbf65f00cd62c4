package compiler

import (
	"fmt"

	"github.com/trre-go/trre/internal/ast"
)

// Transition is one labeled edge of a nondeterministic transducer. In or Out
// may be ast.Epsilon.
type Transition struct {
	From int
	In   ast.Symbol
	Out  ast.Symbol
	To   int
}

// Free reports whether t consumes no input.
func (t Transition) Free() bool {
	return t.In == ast.Epsilon
}

// Program is a nondeterministic finite state transducer. States are the
// integers [0, NumStates); transitions live in one flat table so cycles
// are plain indices.
type Program struct {
	NumStates int
	Trans     []Transition
	Out       [][]int // Out[s] lists indices into Trans leaving s, in construction order
	Start     int
	Accept    int
}

// NewProgram assembles a Program from a transition table and indexes it.
func NewProgram(numStates int, trans []Transition, start, accept int) (*Program, error) {
	if start < 0 || start >= numStates || accept < 0 || accept >= numStates {
		return nil, fmt.Errorf("start %d or accept %d outside %d states", start, accept, numStates)
	}
	p := &Program{
		NumStates: numStates,
		Trans:     trans,
		Out:       make([][]int, numStates),
		Start:     start,
		Accept:    accept,
	}
	for i, t := range trans {
		if t.From < 0 || t.From >= numStates || t.To < 0 || t.To >= numStates {
			return nil, fmt.Errorf("transition %d (%d -> %d) outside %d states", i, t.From, t.To, numStates)
		}
		p.Out[t.From] = append(p.Out[t.From], i)
	}
	return p, nil
}

// Fragment is the automaton piece built for one subexpression: the states
// between Entry and Exit together with the transitions added while building it.
type Fragment struct {
	Entry int
	Exit  int
}

// builder allocates states from one counter for the whole expression and
// appends transitions to a shared table. Composing fragments only adds
// transitions; it never touches states a sibling fragment allocated.
type builder struct {
	next  int
	trans []Transition
}

func (b *builder) state() int {
	s := b.next
	b.next++
	return s
}

func (b *builder) link(from int, in, out ast.Symbol, to int) {
	b.trans = append(b.trans, Transition{From: from, In: in, Out: out, To: to})
}

func (b *builder) epsilon(from, to int) {
	b.link(from, ast.Epsilon, ast.Epsilon, to)
}

func (b *builder) build(x *ast.Expr) Fragment {
	switch x.Op {
	case ast.OpPair:
		f := Fragment{Entry: b.state(), Exit: b.state()}
		if x.In.Op != ast.REEmpty {
			b.link(f.Entry, x.In.Label(), x.Out.Label(), f.Exit)
		}
		return f
	case ast.OpConcat:
		t := b.build(x.Sub[0])
		u := b.build(x.Sub[1])
		b.epsilon(t.Exit, u.Entry)
		return Fragment{Entry: t.Entry, Exit: u.Exit}
	case ast.OpUnion:
		entry := b.state()
		t := b.build(x.Sub[0])
		u := b.build(x.Sub[1])
		exit := b.state()
		b.epsilon(entry, t.Entry)
		b.epsilon(entry, u.Entry)
		b.epsilon(t.Exit, exit)
		b.epsilon(u.Exit, exit)
		return Fragment{Entry: entry, Exit: exit}
	case ast.OpStar:
		// Transitions leaving a state are tried in the order they were
		// added: a greedy star loops first, a lazy one leaves first.
		entry := b.state()
		t := b.build(x.Sub[0])
		exit := b.state()
		if x.Lazy {
			b.epsilon(entry, exit)
			b.epsilon(entry, t.Entry)
			b.epsilon(t.Exit, exit)
			b.epsilon(t.Exit, t.Entry)
		} else {
			b.epsilon(entry, t.Entry)
			b.epsilon(t.Exit, t.Entry)
			b.epsilon(t.Exit, exit)
			b.epsilon(entry, exit)
		}
		return Fragment{Entry: entry, Exit: exit}
	}
	panic("compiler: build of unvalidated expression " + x.String())
}

// Build runs the Thompson construction over a normal-form expression. The
// resulting program starts at the root fragment's entry and accepts at its exit.
func Build(x *ast.Expr) (*Program, error) {
	if !IsNormal(x) {
		return nil, &ast.MalformedError{Expr: x.String(), Reason: "expression is not in normal form"}
	}
	b := &builder{}
	f := b.build(x)
	return NewProgram(b.next, b.trans, f.Entry, f.Exit)
}
