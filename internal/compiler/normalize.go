package compiler

import "github.com/trre-go/trre/internal/ast"

// Normalize rewrites x into normal form, where every pair relates at most one
// input symbol to at most one output symbol. The result relates exactly the
// same pairs of strings as x. x is not modified.
//
// The rewrite applies these identities, each as a tree pattern:
//
//	r:s      = (r:ε)(ε:s)            split a compound pair
//	(a|b):c  = a:c | b:c             union on the input side, c atomic
//	a:(b|c)  = a:b | a:c             union on the output side, a atomic
//	a*:ε     = (a:ε)*                star on one side, a*? likewise
//	ε:b*     = (ε:b)*
//	(ab):ε   = (a:ε)(b:ε)            concatenation on one side
//
// A pair with ∅ on either side relates nothing and becomes ∅:ε.
func Normalize(x *ast.Expr) *ast.Expr {
	switch x.Op {
	case ast.OpPair:
		return normPair(x.In, x.Out)
	case ast.OpConcat:
		return ast.Then(Normalize(x.Sub[0]), Normalize(x.Sub[1]))
	case ast.OpUnion:
		return ast.Either(Normalize(x.Sub[0]), Normalize(x.Sub[1]))
	case ast.OpStar:
		return repeat(Normalize(x.Sub[0]), x.Lazy)
	}
	panic("compiler: Normalize of unvalidated expression " + x.String())
}

func normPair(in, out *ast.RE) *ast.Expr {
	if isVoid(in) || isVoid(out) {
		return ast.Pair(ast.None(), ast.Eps())
	}
	switch {
	case in.IsAtom() && out.IsAtom():
		return ast.Pair(atom(in), atom(out))
	case in.Op == ast.REUnion && out.IsAtom():
		return ast.Either(normPair(in.Sub[0], out), normPair(in.Sub[1], out))
	case out.Op == ast.REUnion && in.IsAtom():
		return ast.Either(normPair(in, out.Sub[0]), normPair(in, out.Sub[1]))
	case out.Op == ast.REEpsilon:
		return oneSided(in, true)
	case in.Op == ast.REEpsilon:
		return oneSided(out, false)
	}
	return ast.Then(oneSided(in, true), oneSided(out, false))
}

// oneSided rewrites re:ε (input true) or ε:re (input false) by structural
// induction on re.
func oneSided(re *ast.RE, input bool) *ast.Expr {
	switch re.Op {
	case ast.REEpsilon:
		return ast.Pair(ast.Eps(), ast.Eps())
	case ast.REEmpty:
		return ast.Pair(ast.None(), ast.Eps())
	case ast.RELiteral:
		if input {
			return ast.Pair(ast.Lit(rune(re.Sym)), ast.Eps())
		}
		return ast.Pair(ast.Eps(), ast.Lit(rune(re.Sym)))
	case ast.REConcat:
		return ast.Then(oneSided(re.Sub[0], input), oneSided(re.Sub[1], input))
	case ast.REUnion:
		return ast.Either(oneSided(re.Sub[0], input), oneSided(re.Sub[1], input))
	case ast.REStar:
		return repeat(oneSided(re.Sub[0], input), re.Lazy)
	}
	panic("compiler: oneSided of unvalidated expression " + re.String())
}

func repeat(x *ast.Expr, lazy bool) *ast.Expr {
	if lazy {
		return ast.LazyRepeat(x)
	}
	return ast.Repeat(x)
}

func atom(re *ast.RE) *ast.RE {
	if re.Op == ast.RELiteral {
		return ast.Lit(rune(re.Sym))
	}
	return ast.Eps()
}

// isVoid reports whether L(re) is empty.
func isVoid(re *ast.RE) bool {
	switch re.Op {
	case ast.REEmpty:
		return true
	case ast.REConcat:
		return isVoid(re.Sub[0]) || isVoid(re.Sub[1])
	case ast.REUnion:
		return isVoid(re.Sub[0]) && isVoid(re.Sub[1])
	}
	return false
}

// IsNormal reports whether x is in normal form.
func IsNormal(x *ast.Expr) bool {
	if x == nil {
		return false
	}
	switch x.Op {
	case ast.OpPair:
		if x.In == nil || x.Out == nil {
			return false
		}
		if x.In.Op == ast.REEmpty {
			return x.Out.Op == ast.REEpsilon
		}
		return x.In.IsAtom() && x.Out.IsAtom()
	case ast.OpConcat, ast.OpUnion, ast.OpStar:
		for _, sub := range x.Sub {
			if !IsNormal(sub) {
				return false
			}
		}
		return len(x.Sub) > 0
	}
	return false
}
