package compiler

import "github.com/trre-go/trre/internal/ast"

// Analysis summarizes the shape of a compiled transducer.
type Analysis struct {
	States      int `json:"states"`
	Transitions int `json:"transitions"`
	Epsilon     int `json:"epsilon"`     // ε:ε
	InputOnly   int `json:"input_only"`  // a:ε
	OutputOnly  int `json:"output_only"` // ε:b
	Both        int `json:"both"`        // a:b

	// OutputCycle is set when output can be produced forever without
	// consuming input, e.g. (:x)*. Such cycles are traversed once per path
	// while matching.
	OutputCycle bool `json:"output_cycle"`
}

// Analyze counts the transitions of p by label kind and looks for cycles of
// input-free transitions that emit output.
func Analyze(p *Program) Analysis {
	a := Analysis{States: p.NumStates, Transitions: len(p.Trans)}
	for _, t := range p.Trans {
		switch {
		case t.In == ast.Epsilon && t.Out == ast.Epsilon:
			a.Epsilon++
		case t.Out == ast.Epsilon:
			a.InputOnly++
		case t.In == ast.Epsilon:
			a.OutputOnly++
		default:
			a.Both++
		}
	}
	if a.OutputOnly > 0 {
		a.OutputCycle = hasOutputCycle(p)
	}
	return a
}

// hasOutputCycle finds the strongly connected components of the input-free
// subgraph (Tarjan) and reports whether any output-emitting transition stays
// inside one component.
func hasOutputCycle(p *Program) bool {
	index := make([]int, p.NumStates)
	low := make([]int, p.NumStates)
	comp := make([]int, p.NumStates)
	onStack := make([]bool, p.NumStates)
	for i := range index {
		index[i] = -1
	}
	var stack []int
	counter, ncomp := 0, 0

	var visit func(s int)
	visit = func(s int) {
		index[s], low[s] = counter, counter
		counter++
		stack = append(stack, s)
		onStack[s] = true
		for _, ti := range p.Out[s] {
			t := p.Trans[ti]
			if !t.Free() {
				continue
			}
			if index[t.To] < 0 {
				visit(t.To)
				low[s] = min(low[s], low[t.To])
			} else if onStack[t.To] {
				low[s] = min(low[s], index[t.To])
			}
		}
		if low[s] == index[s] {
			for {
				top := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[top] = false
				comp[top] = ncomp
				if top == s {
					break
				}
			}
			ncomp++
		}
	}
	for s := 0; s < p.NumStates; s++ {
		if index[s] < 0 {
			visit(s)
		}
	}

	for _, t := range p.Trans {
		if t.Free() && t.Out != ast.Epsilon && comp[t.From] == comp[t.To] {
			return true
		}
	}
	return false
}
