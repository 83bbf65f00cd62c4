/*
Package syntax parses the concrete syntax of transductive regular expressions.

The grammar, loosest binding first:

	union:  concat | union '|' concat
	concat: pair | concat pair
	pair:   repeat | [repeat] ':' [repeat]
	repeat: atom | repeat op | repeat op '?'
	op:     '*' | '+' | '?' | '{' n '}' | '{' n ',' '}' | '{' [n] ',' m '}'
	atom:   literal | '∅' | '(' ')' | '(' union ')'

A literal is any rune other than the metacharacters |:*+?(){}\∅, or a
metacharacter preceded by \. The escapes \n and \t stand for newline and tab.

':' binds tighter than concatenation, so "c:da:ot:g" reads c as d, a as o
and t as g, and "ab:xy" is a(b:x)y. Use parentheses for longer sides:
"(cat):(dog)". A missing side of ':' is the empty string, so ":x" inserts x
and "a:" deletes a. "()" is the empty string and "∅" matches nothing.
A subexpression without ':' in a position that needs a transducer is the
identity on its language: "a(b:c)" is the same as "a:a(b:c)".

r+ is r r*, r? is r|() and r{n,m} is n copies of r followed by up to m-n
optional ones; r{n,} ends in r*. A trailing '?' makes the operator
non-greedy: the same strings are related, but paths taking fewer
iterations come first, which matters to the first-output policy.

Both sides of a pair are plain regular expressions; "(a:b):c" and "a:b:c"
are errors.
*/
package syntax

import (
	"fmt"

	"github.com/trre-go/trre/internal/ast"
)

// An Error records a syntax error. Pos counts runes from the start of the
// pattern.
type Error struct {
	Pos int
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("syntax error at %d: %s", e.Pos, e.Msg)
}

type token rune

// Meta tokens are negative numbers.
const (
	eof token = -1 - iota
	or
	colon
	star
	plus
	question
	oparen
	cparen
	obrace
	cbrace
	empty
)

// maxRepeat bounds the counts of r{n,m}, maxNodes the tree it expands to.
const (
	maxRepeat = 1000
	maxNodes  = 1 << 16
)

func (t token) String() string {
	switch t {
	case eof:
		return "end of pattern"
	case or:
		return "'|'"
	case colon:
		return "':'"
	case star:
		return "'*'"
	case plus:
		return "'+'"
	case question:
		return "'?'"
	case oparen:
		return "'('"
	case cparen:
		return "')'"
	case obrace:
		return "'{'"
	case cbrace:
		return "'}'"
	case empty:
		return "'∅'"
	default:
		return fmt.Sprintf("%q", rune(t))
	}
}

type parser struct {
	rs        []rune
	prev, pos int
}

func (p *parser) eof() bool {
	return p.pos == len(p.rs)
}

func (p *parser) fail(pos int, format string, args ...interface{}) {
	panic(&Error{Pos: pos, Msg: fmt.Sprintf(format, args...)})
}

func (p *parser) peek() token {
	if p.eof() {
		return eof
	}
	pos := p.pos
	t := p.next()
	p.pos = pos
	return t
}

func (p *parser) next() token {
	if p.eof() {
		return eof
	}
	p.prev = p.pos
	p.pos++
	switch r := p.rs[p.pos-1]; r {
	case '\\':
		if p.eof() {
			p.fail(p.prev, "trailing backslash")
		}
		p.pos++
		switch e := p.rs[p.pos-1]; e {
		case 'n':
			return '\n'
		case 't':
			return '\t'
		default:
			return token(e)
		}
	case '|':
		return or
	case ':':
		return colon
	case '*':
		return star
	case '+':
		return plus
	case '?':
		return question
	case '(':
		return oparen
	case ')':
		return cparen
	case '{':
		return obrace
	case '}':
		return cbrace
	case '∅':
		return empty
	default:
		return token(r)
	}
}

// term is a parsed subexpression. re is set while it contains no ':';
// otherwise x is.
type term struct {
	re *ast.RE
	x  *ast.Expr
}

func (t *term) expr() *ast.Expr {
	if t.x != nil {
		return t.x
	}
	return ast.Identity(t.re)
}

// Parse parses pattern into a transducer expression. The empty pattern is
// the identity on the empty string.
func Parse(pattern string) (x *ast.Expr, err error) {
	defer func() {
		switch e := recover().(type) {
		case nil:
		case *Error:
			x, err = nil, e
		default:
			panic(e)
		}
	}()
	p := &parser{rs: []rune(pattern)}
	t := p.union()
	switch tok := p.next(); tok {
	case eof:
	case cparen:
		p.fail(p.prev, "unmatched ')'")
	case cbrace:
		p.fail(p.prev, "unmatched '}'")
	default:
		p.fail(p.prev, "unexpected %s", tok)
	}
	if t == nil {
		return ast.Pair(ast.Eps(), ast.Eps()), nil
	}
	return t.expr(), nil
}

// MustParse is like Parse but panics if the pattern cannot be parsed.
func MustParse(pattern string) *ast.Expr {
	x, err := Parse(pattern)
	if err != nil {
		panic(fmt.Sprintf("syntax: Parse(%q): %v", pattern, err))
	}
	return x
}

func (p *parser) union() *term {
	l := p.concat()
	for p.peek() == or {
		p.next()
		at := p.prev
		if l == nil {
			p.fail(at, "'|' has no left hand side")
		}
		r := p.concat()
		if r == nil {
			p.fail(at, "'|' has no right hand side")
		}
		if l.re != nil && r.re != nil {
			l = &term{re: ast.Or(l.re, r.re)}
		} else {
			l = &term{x: ast.Either(l.expr(), r.expr())}
		}
	}
	return l
}

func (p *parser) concat() *term {
	var l *term
	for {
		r := p.pair()
		switch {
		case r == nil:
			return l
		case l == nil:
			l = r
		case l.re != nil && r.re != nil:
			l = &term{re: ast.Cat(l.re, r.re)}
		default:
			l = &term{x: ast.Then(l.expr(), r.expr())}
		}
	}
}

func (p *parser) pair() *term {
	start := p.pos
	l := p.repeat()
	if p.peek() != colon {
		return l
	}
	p.next()
	at := p.prev
	r := p.repeat()
	if p.peek() == colon {
		p.next()
		p.fail(p.prev, "':' inside a pair side")
	}
	in, out := ast.Eps(), ast.Eps()
	if l != nil {
		if l.re == nil {
			p.fail(start, "left side of ':' at %d is a transducer", at)
		}
		in = l.re
	}
	if r != nil {
		if r.re == nil {
			p.fail(at+1, "right side of ':' at %d is a transducer", at)
		}
		out = r.re
	}
	return &term{x: ast.Pair(in, out)}
}

func (p *parser) repeat() *term {
	t := p.atom()
	for {
		tok := p.peek()
		if tok != star && tok != plus && tok != question && tok != obrace {
			return t
		}
		p.next()
		at := p.prev
		if t == nil {
			p.fail(at, "missing operand for %s", tok)
		}
		lo, hi := 0, -1
		switch tok {
		case plus:
			lo = 1
		case question:
			hi = 1
		case obrace:
			lo, hi = p.counts(at)
			if t.size()*max(lo, hi, 1) > maxNodes {
				p.fail(at, "repetition expands to more than %d nodes", maxNodes)
			}
		}
		lazy := false
		if p.peek() == question {
			p.next()
			lazy = true
		}
		t = repeatTerm(t, lo, hi, lazy)
	}
}

// counts reads the body of {n}, {n,}, {n,m} or {,m} after the opening brace
// at open. hi is -1 when unbounded.
func (p *parser) counts(open int) (lo, hi int) {
	number := func() (int, bool) {
		n, digits := 0, 0
		for !p.eof() && p.rs[p.pos] >= '0' && p.rs[p.pos] <= '9' {
			n = n*10 + int(p.rs[p.pos]-'0')
			if n > maxRepeat {
				p.fail(open, "repeat count over %d", maxRepeat)
			}
			p.pos++
			digits++
		}
		return n, digits > 0
	}
	lo, hasLo := number()
	hi = lo
	if !p.eof() && p.rs[p.pos] == ',' {
		p.pos++
		var hasHi bool
		hi, hasHi = number()
		if !hasHi {
			if !hasLo {
				p.fail(open, "empty repeat count")
			}
			hi = -1
		}
	} else if !hasLo {
		p.fail(open, "empty repeat count")
	}
	if p.eof() || p.rs[p.pos] != '}' {
		p.fail(open, "bad repeat count, want {n}, {n,} or {n,m}")
	}
	p.pos++
	if hi >= 0 && hi < lo {
		p.fail(open, "repeat count {%d,%d} has max below min", lo, hi)
	}
	return lo, hi
}

// repeatTerm returns t repeated between lo and hi times, hi -1 meaning
// unbounded. Greedy repetition prefers another copy of t; lazy repetition
// prefers to stop.
func repeatTerm(t *term, lo, hi int, lazy bool) *term {
	var r *term
	for i := 0; i < lo; i++ {
		r = catTerms(r, t.clone())
	}
	if hi < 0 {
		return catTerms(r, starTerm(t.clone(), lazy))
	}
	var opt *term
	for i := lo; i < hi; i++ {
		opt = optTerm(catTerms(t.clone(), opt), lazy)
	}
	if opt != nil {
		r = catTerms(r, opt)
	}
	if r == nil {
		return &term{re: ast.Eps()}
	}
	return r
}

func (t *term) size() int {
	if t.re != nil {
		return t.re.Size()
	}
	return t.x.Size()
}

func (t *term) clone() *term {
	if t.re != nil {
		return &term{re: t.re.Clone()}
	}
	return &term{x: t.x.Clone()}
}

func catTerms(l, r *term) *term {
	switch {
	case l == nil:
		return r
	case r == nil:
		return l
	case l.re != nil && r.re != nil:
		return &term{re: ast.Cat(l.re, r.re)}
	}
	return &term{x: ast.Then(l.expr(), r.expr())}
}

func starTerm(t *term, lazy bool) *term {
	if t.re != nil {
		if lazy {
			return &term{re: ast.LazyStar(t.re)}
		}
		return &term{re: ast.Star(t.re)}
	}
	if lazy {
		return &term{x: ast.LazyRepeat(t.x)}
	}
	return &term{x: ast.Repeat(t.x)}
}

// optTerm returns t|() or, when lazy, ()|t.
func optTerm(t *term, lazy bool) *term {
	if t.re != nil {
		if lazy {
			return &term{re: ast.Or(ast.Eps(), t.re)}
		}
		return &term{re: ast.Or(t.re, ast.Eps())}
	}
	none := ast.Pair(ast.Eps(), ast.Eps())
	if lazy {
		return &term{x: ast.Either(none, t.x)}
	}
	return &term{x: ast.Either(t.x, none)}
}

func (p *parser) atom() *term {
	switch tok := p.peek(); tok {
	case eof, or, colon, star, plus, question, cparen, obrace:
		return nil
	}
	tok := p.next()
	switch tok {
	case oparen:
		open := p.prev
		if p.peek() == cparen {
			p.next()
			return &term{re: ast.Eps()}
		}
		t := p.union()
		if p.next() != cparen {
			p.fail(open, "missing ')'")
		}
		return t
	case cbrace:
		p.fail(p.prev, "unmatched '}'")
	case empty:
		return &term{re: ast.None()}
	}
	return &term{re: ast.Lit(rune(tok))}
}
