package ast

import (
	"errors"
	"fmt"
)

// ErrMalformed is the sentinel wrapped by every MalformedError.
var ErrMalformed = errors.New("malformed expression")

// MalformedError reports a structural contract violation in an expression tree.
type MalformedError struct {
	Expr   string // offending subexpression, printed
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed expression %q: %s", e.Expr, e.Reason)
}

func (e *MalformedError) Unwrap() error {
	return ErrMalformed
}

// Validate checks that x is a well-formed TRRE: every node has a known
// operator and the right number of children, Pair nodes wrap two RE trees,
// and every literal belongs to its side's alphabet. A nil alphabet admits
// every rune.
func Validate(x *Expr, in, out Alphabet) error {
	if x == nil {
		return &MalformedError{Expr: "<nil>", Reason: "nil expression"}
	}
	switch x.Op {
	case OpPair:
		if len(x.Sub) != 0 {
			return &MalformedError{Expr: x.String(), Reason: "pair with transducer children"}
		}
		if x.In == nil || x.Out == nil {
			return &MalformedError{Expr: x.String(), Reason: "pair side is not a regular expression"}
		}
		if err := validateRE(x.In, in, "input"); err != nil {
			return err
		}
		return validateRE(x.Out, out, "output")
	case OpConcat, OpUnion:
		if len(x.Sub) != 2 {
			return &MalformedError{Expr: x.String(), Reason: fmt.Sprintf("%s needs 2 operands, has %d", x.Op, len(x.Sub))}
		}
	case OpStar:
		if len(x.Sub) != 1 {
			return &MalformedError{Expr: x.String(), Reason: fmt.Sprintf("Star needs 1 operand, has %d", len(x.Sub))}
		}
	default:
		return &MalformedError{Expr: x.String(), Reason: fmt.Sprintf("unknown operator %d", x.Op)}
	}
	if x.In != nil || x.Out != nil {
		return &MalformedError{Expr: x.String(), Reason: x.Op.String() + " node carries pair sides"}
	}
	if x.Lazy && x.Op != OpStar {
		return &MalformedError{Expr: x.String(), Reason: x.Op.String() + " node marked lazy"}
	}
	for _, sub := range x.Sub {
		if err := Validate(sub, in, out); err != nil {
			return err
		}
	}
	return nil
}

func validateRE(re *RE, alpha Alphabet, side string) error {
	if re == nil {
		return &MalformedError{Expr: "<nil>", Reason: "nil " + side + " regular expression"}
	}
	want := 0
	switch re.Op {
	case REEpsilon, REEmpty:
	case RELiteral:
		if !alpha.Contains(re.Sym) {
			return &MalformedError{Expr: re.String(), Reason: fmt.Sprintf("symbol %q is not in the %s alphabet", rune(re.Sym), side)}
		}
	case REConcat, REUnion:
		want = 2
	case REStar:
		want = 1
	default:
		return &MalformedError{Expr: re.String(), Reason: fmt.Sprintf("unknown %s operator %d", side, re.Op)}
	}
	if re.Lazy && re.Op != REStar {
		return &MalformedError{Expr: re.String(), Reason: re.Op.String() + " node marked lazy"}
	}
	if len(re.Sub) != want {
		return &MalformedError{Expr: re.String(), Reason: fmt.Sprintf("%s needs %d operands, has %d", re.Op, want, len(re.Sub))}
	}
	for _, sub := range re.Sub {
		if err := validateRE(sub, alpha, side); err != nil {
			return err
		}
	}
	return nil
}
