// Package ast defines the expression trees of regular expressions (RE) and
// transductive regular expressions (TRRE).
//
// Trees are built once and never mutated afterwards. Every node owns its
// children; rewriting functions build new nodes instead of editing existing ones.
package ast

import "sort"

// Symbol is a single alphabet element. Epsilon stands for the empty string.
type Symbol rune

// Epsilon is the empty-string marker. It is never a member of an Alphabet.
const Epsilon Symbol = -1

// IsEpsilon reports whether s is the empty-string marker.
func (s Symbol) IsEpsilon() bool {
	return s == Epsilon
}

// Alphabet is a finite set of symbols. A nil Alphabet accepts every rune.
type Alphabet map[Symbol]struct{}

// NewAlphabet returns the alphabet holding every rune of syms.
func NewAlphabet(syms string) Alphabet {
	a := make(Alphabet, len(syms))
	for _, r := range syms {
		a[Symbol(r)] = struct{}{}
	}
	return a
}

// Contains reports whether s is a member of a.
func (a Alphabet) Contains(s Symbol) bool {
	if s == Epsilon {
		return false
	}
	if a == nil {
		return true
	}
	_, ok := a[s]
	return ok
}

// Symbols returns the members of a in ascending order.
func (a Alphabet) Symbols() []Symbol {
	syms := make([]Symbol, 0, len(a))
	for s := range a {
		syms = append(syms, s)
	}
	sort.Slice(syms, func(i, j int) bool { return syms[i] < syms[j] })
	return syms
}

// REOp is the operator of an RE node.
type REOp uint8

const (
	REEpsilon REOp = iota + 1 // matches the empty string
	REEmpty                   // matches nothing
	RELiteral                 // matches Sym
	REConcat                  // Sub[0] followed by Sub[1]
	REUnion                   // Sub[0] or Sub[1]
	REStar                    // zero or more Sub[0]
)

func (op REOp) String() string {
	switch op {
	case REEpsilon:
		return "Epsilon"
	case REEmpty:
		return "Empty"
	case RELiteral:
		return "Literal"
	case REConcat:
		return "Concat"
	case REUnion:
		return "Union"
	case REStar:
		return "Star"
	}
	return "REOp(?)"
}

// RE is a regular expression node.
type RE struct {
	Op   REOp
	Sym  Symbol // RELiteral only
	Lazy bool   // REStar only: fewer iterations take priority
	Sub  []*RE
}

// Eps returns the RE matching only the empty string.
func Eps() *RE { return &RE{Op: REEpsilon} }

// None returns the RE matching nothing.
func None() *RE { return &RE{Op: REEmpty} }

// Lit returns the RE matching the single symbol r.
func Lit(r rune) *RE { return &RE{Op: RELiteral, Sym: Symbol(r)} }

// Cat returns the concatenation x·y.
func Cat(x, y *RE) *RE { return &RE{Op: REConcat, Sub: []*RE{x, y}} }

// Or returns the union x+y.
func Or(x, y *RE) *RE { return &RE{Op: REUnion, Sub: []*RE{x, y}} }

// Star returns the Kleene closure x*.
func Star(x *RE) *RE { return &RE{Op: REStar, Sub: []*RE{x}} }

// LazyStar returns x*?, which relates the same strings as x* but prefers
// leaving the loop over another iteration.
func LazyStar(x *RE) *RE { return &RE{Op: REStar, Lazy: true, Sub: []*RE{x}} }

// Str returns the concatenation of the literals of s, or Eps for "".
func Str(s string) *RE {
	var re *RE
	for _, r := range s {
		if re == nil {
			re = Lit(r)
			continue
		}
		re = Cat(re, Lit(r))
	}
	if re == nil {
		return Eps()
	}
	return re
}

// IsAtom reports whether re is Epsilon or a single literal.
func (re *RE) IsAtom() bool {
	return re != nil && (re.Op == REEpsilon || re.Op == RELiteral)
}

// Label returns the symbol an atomic RE stands for: the literal, or Epsilon.
func (re *RE) Label() Symbol {
	if re.Op == RELiteral {
		return re.Sym
	}
	return Epsilon
}

// Op is the operator of a TRRE node.
type Op uint8

const (
	OpPair   Op = iota + 1 // In:Out
	OpConcat               // Sub[0] followed by Sub[1]
	OpUnion                // Sub[0] or Sub[1]
	OpStar                 // zero or more Sub[0]
)

func (op Op) String() string {
	switch op {
	case OpPair:
		return "Pair"
	case OpConcat:
		return "Concat"
	case OpUnion:
		return "Union"
	case OpStar:
		return "Star"
	}
	return "Op(?)"
}

// Expr is a transductive regular expression node.
type Expr struct {
	Op   Op
	In   *RE  // OpPair only
	Out  *RE  // OpPair only
	Lazy bool // OpStar only: fewer iterations take priority
	Sub  []*Expr
}

// Pair returns the relation in:out.
func Pair(in, out *RE) *Expr { return &Expr{Op: OpPair, In: in, Out: out} }

// Then returns the concatenation t·u.
func Then(t, u *Expr) *Expr { return &Expr{Op: OpConcat, Sub: []*Expr{t, u}} }

// Either returns the union t+u.
func Either(t, u *Expr) *Expr { return &Expr{Op: OpUnion, Sub: []*Expr{t, u}} }

// Repeat returns the Kleene closure t*.
func Repeat(t *Expr) *Expr { return &Expr{Op: OpStar, Sub: []*Expr{t}} }

// LazyRepeat returns t*?, the non-greedy closure of t.
func LazyRepeat(t *Expr) *Expr { return &Expr{Op: OpStar, Lazy: true, Sub: []*Expr{t}} }

// Equal reports whether x and y are structurally identical.
func (x *RE) Equal(y *RE) bool {
	if x == nil || y == nil {
		return x == y
	}
	if x.Op != y.Op || x.Sym != y.Sym || x.Lazy != y.Lazy || len(x.Sub) != len(y.Sub) {
		return false
	}
	for i := range x.Sub {
		if !x.Sub[i].Equal(y.Sub[i]) {
			return false
		}
	}
	return true
}

// Equal reports whether x and y are structurally identical.
func (x *Expr) Equal(y *Expr) bool {
	if x == nil || y == nil {
		return x == y
	}
	if x.Op != y.Op || x.Lazy != y.Lazy || len(x.Sub) != len(y.Sub) {
		return false
	}
	if x.Op == OpPair && (!x.In.Equal(y.In) || !x.Out.Equal(y.Out)) {
		return false
	}
	for i := range x.Sub {
		if !x.Sub[i].Equal(y.Sub[i]) {
			return false
		}
	}
	return true
}

// Size returns the number of nodes in x, counting embedded RE nodes.
func (x *Expr) Size() int {
	if x == nil {
		return 0
	}
	n := 1
	if x.Op == OpPair {
		n += x.In.Size() + x.Out.Size()
	}
	for _, sub := range x.Sub {
		n += sub.Size()
	}
	return n
}

// Size returns the number of nodes in re.
func (re *RE) Size() int {
	if re == nil {
		return 0
	}
	n := 1
	for _, sub := range re.Sub {
		n += sub.Size()
	}
	return n
}

// Clone returns a deep copy of re.
func (re *RE) Clone() *RE {
	if re == nil {
		return nil
	}
	c := &RE{Op: re.Op, Sym: re.Sym, Lazy: re.Lazy}
	for _, sub := range re.Sub {
		c.Sub = append(c.Sub, sub.Clone())
	}
	return c
}

// Clone returns a deep copy of x.
func (x *Expr) Clone() *Expr {
	if x == nil {
		return nil
	}
	c := &Expr{Op: x.Op, In: x.In.Clone(), Out: x.Out.Clone(), Lazy: x.Lazy}
	for _, sub := range x.Sub {
		c.Sub = append(c.Sub, sub.Clone())
	}
	return c
}

// Identity returns the transducer that copies every string of L(re) to the
// output unchanged: each literal c becomes c:c.
func Identity(re *RE) *Expr {
	switch re.Op {
	case RELiteral:
		return Pair(Lit(rune(re.Sym)), Lit(rune(re.Sym)))
	case REEmpty:
		return Pair(None(), Eps())
	case REConcat:
		return Then(Identity(re.Sub[0]), Identity(re.Sub[1]))
	case REUnion:
		return Either(Identity(re.Sub[0]), Identity(re.Sub[1]))
	case REStar:
		return &Expr{Op: OpStar, Lazy: re.Lazy, Sub: []*Expr{Identity(re.Sub[0])}}
	}
	return Pair(Eps(), Eps())
}
