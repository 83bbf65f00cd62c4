package ast

import "strings"

// metachars must be escaped to be read back as literals.
const metachars = `|:*+?(){}\∅`

// binding strength, loosest first
const (
	precUnion = iota + 1
	precConcat
	precPair
	precStar
)

func writeSym(b *strings.Builder, s Symbol) {
	if s == Epsilon {
		return
	}
	if strings.ContainsRune(metachars, rune(s)) {
		b.WriteByte('\\')
	}
	b.WriteRune(rune(s))
}

// String renders re in the concrete syntax. Epsilon is "()" and Empty is "∅".
func (re *RE) String() string {
	var b strings.Builder
	re.write(&b, precUnion)
	return b.String()
}

func (re *RE) write(b *strings.Builder, outer int) {
	if re == nil {
		b.WriteString("<nil>")
		return
	}
	switch re.Op {
	case REEpsilon:
		b.WriteString("()")
	case REEmpty:
		b.WriteString("∅")
	case RELiteral:
		writeSym(b, re.Sym)
	case REConcat, REUnion:
		prec, sep := precConcat, ""
		if re.Op == REUnion {
			prec, sep = precUnion, "|"
		}
		if len(re.Sub) != 2 {
			b.WriteString("<bad " + re.Op.String() + ">")
			return
		}
		if outer > prec {
			b.WriteByte('(')
		}
		re.Sub[0].write(b, prec)
		b.WriteString(sep)
		re.Sub[1].write(b, prec+1)
		if outer > prec {
			b.WriteByte(')')
		}
	case REStar:
		if len(re.Sub) != 1 {
			b.WriteString("<bad Star>")
			return
		}
		re.Sub[0].write(b, precStar+1)
		writeStar(b, re.Lazy)
	default:
		b.WriteString("<bad RE>")
	}
}

// String renders x in the concrete syntax, e.g. "(a|b):x" or "(a:)*".
func (x *Expr) String() string {
	var b strings.Builder
	x.write(&b, precUnion)
	return b.String()
}

func (x *Expr) write(b *strings.Builder, outer int) {
	if x == nil {
		b.WriteString("<nil>")
		return
	}
	switch x.Op {
	case OpPair:
		// A blank side would let ':' reach into a neighbour.
		paren := outer > precPair || (outer > precUnion && (x.In.blank() || x.Out.blank()))
		if paren {
			b.WriteByte('(')
		}
		x.In.writeSide(b)
		b.WriteByte(':')
		x.Out.writeSide(b)
		if paren {
			b.WriteByte(')')
		}
	case OpConcat, OpUnion:
		prec, sep := precConcat, ""
		if x.Op == OpUnion {
			prec, sep = precUnion, "|"
		}
		if len(x.Sub) != 2 {
			b.WriteString("<bad " + x.Op.String() + ">")
			return
		}
		if outer > prec {
			b.WriteByte('(')
		}
		x.Sub[0].write(b, prec)
		b.WriteString(sep)
		x.Sub[1].write(b, prec+1)
		if outer > prec {
			b.WriteByte(')')
		}
	case OpStar:
		if len(x.Sub) != 1 {
			b.WriteString("<bad Star>")
			return
		}
		x.Sub[0].write(b, precStar+1)
		writeStar(b, x.Lazy)
	default:
		b.WriteString("<bad Expr>")
	}
}

func writeStar(b *strings.Builder, lazy bool) {
	b.WriteByte('*')
	if lazy {
		b.WriteByte('?')
	}
}

func (re *RE) blank() bool {
	return re != nil && re.Op == REEpsilon
}

// writeSide prints one side of a pair; an epsilon side is left blank.
func (re *RE) writeSide(b *strings.Builder) {
	if re.blank() {
		return
	}
	re.write(b, precStar)
}
