package dft

import (
	"errors"
	"strconv"
	"strings"

	"github.com/trre-go/trre/internal/ast"
)

// The first-output policy cannot share the output-grouped states: merging
// paths with equal outputs loses which of them came first. It runs on ranked
// states instead, whose kernel is an ordered list of transducer states, each
// standing for the highest-priority path that reached it. A lower-priority
// path reaching a state already in the list is dropped, since every
// continuation open to it is open to the earlier path too.

// thread is a path through the closure of a ranked state.
type thread struct {
	state int
	from  int    // kernel index the path started at
	out   string // output emitted since leaving the kernel
}

type rankedState struct {
	id      int
	kernel  []int    // transducer states in priority order
	threads []thread // closure members with input transitions, in priority order
	final   thread   // highest-priority path to the accept state, if accepts
	accepts bool

	next map[ast.Symbol]*rankedEdge // guarded by DFT.mu
}

// rankedEdge maps the kernel of to back onto the kernel it was reached from:
// member i continues the path of member from[i] and appends out[i]. to is nil
// when the symbol is rejected.
type rankedEdge struct {
	to   *rankedState
	from []int
	out  []string
}

// outList is an output string built back to front, so that paths share the
// output they have in common.
type outList struct {
	prev *outList
	s    string
}

func (l *outList) push(s string) *outList {
	if s == "" {
		return l
	}
	return &outList{prev: l, s: s}
}

func (l *outList) String() string {
	var parts []string
	n := 0
	for ; l != nil; l = l.prev {
		parts = append(parts, l.s)
		n += len(l.s)
	}
	var b strings.Builder
	b.Grow(n)
	for i := len(parts) - 1; i >= 0; i-- {
		b.WriteString(parts[i])
	}
	return b.String()
}

// rankedStart returns the start state of the ranked cache, building it on
// first use.
func (m *DFT) rankedStart() (*rankedState, error) {
	m.mu.RLock()
	s := m.rstart
	m.mu.RUnlock()
	if s != nil {
		return s, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rstart == nil {
		s, err := m.rankedLookup([]int{m.prog.Start})
		if err != nil {
			return nil, err
		}
		m.rstart = s
	}
	return m.rstart, nil
}

func (m *DFT) rankedStep(s *rankedState, sym ast.Symbol) (*rankedEdge, error) {
	m.mu.RLock()
	e, ok := s.next[sym]
	m.mu.RUnlock()
	if ok {
		return e, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := s.next[sym]; ok {
		return e, nil
	}
	e = &rankedEdge{}
	var kernel []int
	seen := make(map[int]bool)
	for _, th := range s.threads {
		for _, ti := range m.prog.Out[th.state] {
			t := m.prog.Trans[ti]
			if t.In != sym || seen[t.To] {
				continue
			}
			seen[t.To] = true
			out := th.out
			if t.Out != ast.Epsilon {
				out += string(rune(t.Out))
			}
			kernel = append(kernel, t.To)
			e.from = append(e.from, th.from)
			e.out = append(e.out, out)
		}
	}
	if len(kernel) > 0 {
		to, err := m.rankedLookup(kernel)
		if err != nil {
			return nil, err
		}
		e.to = to
	}
	if s.next == nil {
		s.next = make(map[ast.Symbol]*rankedEdge)
	}
	s.next[sym] = e
	return e, nil
}

// rankedLookup must be called with mu held for writing.
func (m *DFT) rankedLookup(kernel []int) (*rankedState, error) {
	key := rankKey(kernel)
	if s, ok := m.ranked[key]; ok {
		return s, nil
	}
	if len(m.ranked) >= m.config.MaxStates {
		return nil, &ResourceError{Resource: "states", Limit: m.config.MaxStates, Size: len(m.ranked) + 1, Offset: -1}
	}
	s := &rankedState{id: len(m.ranked), kernel: kernel}
	if err := m.rankedClosure(s); err != nil {
		return nil, err
	}
	m.ranked[key] = s
	if m.logger.Enabled() {
		m.logger.Log("ranked state %d = %v (closure %d, accepting %v)", s.id, kernel, len(s.threads), s.accepts)
	}
	return s, nil
}

// rankedClosure follows input-free transitions depth first, in priority
// order, from each kernel member in turn. A state is entered once: the first
// path to reach it has the highest priority.
func (m *DFT) rankedClosure(s *rankedState) error {
	visited := make([]bool, m.prog.NumStates)
	n := 0

	var walk func(state, from int, out string) error
	walk = func(state, from int, out string) error {
		if visited[state] {
			return nil
		}
		visited[state] = true
		n++
		if n > m.config.MaxClosure {
			return &ResourceError{Resource: "closure", Limit: m.config.MaxClosure, Size: n, Offset: -1}
		}
		if state == m.prog.Accept && !s.accepts {
			s.final = thread{state: state, from: from, out: out}
			s.accepts = true
		}
		for _, ti := range m.prog.Out[state] {
			if !m.prog.Trans[ti].Free() {
				s.threads = append(s.threads, thread{state: state, from: from, out: out})
				break
			}
		}
		for _, ti := range m.prog.Out[state] {
			t := m.prog.Trans[ti]
			if !t.Free() {
				continue
			}
			next := out
			if t.Out != ast.Epsilon {
				next += string(rune(t.Out))
			}
			if err := walk(t.To, from, next); err != nil {
				return err
			}
		}
		return nil
	}

	for i, state := range s.kernel {
		if err := walk(state, i, ""); err != nil {
			return err
		}
	}
	return nil
}

// rankedRun is the state of one first-output match: the current ranked state
// and the output of the path behind each of its kernel members.
type rankedRun struct {
	m    *DFT
	s    *rankedState
	outs []*outList
}

func (m *DFT) newRankedRun() (*rankedRun, error) {
	s, err := m.rankedStart()
	if err != nil {
		return nil, err
	}
	return &rankedRun{m: m, s: s, outs: []*outList{nil}}, nil
}

// advance consumes sym. It reports false when no path survives.
func (r *rankedRun) advance(sym ast.Symbol, offset int) (bool, error) {
	e, err := r.m.rankedStep(r.s, sym)
	if err != nil {
		var re *ResourceError
		if errors.As(err, &re) {
			re.Offset = offset
		}
		return false, err
	}
	if e.to == nil {
		return false, nil
	}
	if len(e.from) > r.m.config.MaxFrontier {
		return false, &ResourceError{Resource: "frontier", Limit: r.m.config.MaxFrontier, Size: len(e.from), Offset: offset}
	}
	outs := make([]*outList, len(e.from))
	for i, from := range e.from {
		outs[i] = r.outs[from].push(e.out[i])
	}
	r.s, r.outs = e.to, outs
	return true, nil
}

func (r *rankedRun) accept() Result {
	if !r.s.accepts {
		return Result{}
	}
	out := r.outs[r.s.final.from].String() + r.s.final.out
	return Result{Accepted: true, Outputs: []string{out}}
}

func (m *DFT) matchFirst(input string) (Result, error) {
	r, err := m.newRankedRun()
	if err != nil {
		return Result{}, err
	}
	for offset := 0; offset < len(input); {
		sym, size, ok := symbolAt(input, offset)
		if !ok {
			return Result{}, nil
		}
		alive, err := r.advance(sym, offset)
		if err != nil || !alive {
			return Result{}, err
		}
		offset += size
	}
	return r.accept(), nil
}

func (m *DFT) longestPrefixFirst(input string) (n int, res Result, err error) {
	r, err := m.newRankedRun()
	if err != nil {
		return -1, Result{}, err
	}
	n = -1
	if acc := r.accept(); acc.Accepted {
		n, res = 0, acc
	}
	for offset := 0; offset < len(input); {
		sym, size, ok := symbolAt(input, offset)
		if !ok {
			break
		}
		alive, err := r.advance(sym, offset)
		if err != nil {
			return -1, Result{}, err
		}
		if !alive {
			break
		}
		offset += size
		if acc := r.accept(); acc.Accepted {
			n, res = offset, acc
		}
	}
	return n, res, nil
}

func rankKey(kernel []int) string {
	var b strings.Builder
	for i, s := range kernel {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(s))
	}
	return b.String()
}
