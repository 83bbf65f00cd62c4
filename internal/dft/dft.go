// Package dft determinizes a nondeterministic transducer lazily while it
// matches input.
//
// A deterministic state stands for a set of transducer states that some input
// prefix leads to, all with the same accumulated output. States are created
// the first time a step reaches them and are cached by their set for the life
// of the DFT, so matching the same transducer again reuses earlier work.
package dft

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/trre-go/trre/internal/ast"
	"github.com/trre-go/trre/internal/compiler"
)

// Default resource bounds.
const (
	DefaultMaxStates   = 10000
	DefaultMaxFrontier = 4096
	DefaultMaxClosure  = 1 << 16
)

// ErrResourceExceeded is the sentinel wrapped by every ResourceError.
var ErrResourceExceeded = errors.New("resource exceeded")

// ResourceError reports that matching hit a configured bound.
type ResourceError struct {
	Resource string // "states", "frontier" or "closure"
	Limit    int
	Size     int
	Offset   int // byte offset into the input, -1 when not matching
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("resource exceeded: %s size %d over limit %d at input offset %d",
		e.Resource, e.Size, e.Limit, e.Offset)
}

func (e *ResourceError) Unwrap() error {
	return ErrResourceExceeded
}

// Config bounds the work a DFT may do. Zero values select the defaults.
type Config struct {
	MaxStates   int              // distinct cached deterministic states
	MaxFrontier int              // (state, output) pairs alive at once while matching
	MaxClosure  int              // (state, output) pairs expanded by one closure
	Logger      *compiler.Logger // nil disables logging
}

// Edge is one result of a step: the output emitted and the state reached.
type Edge struct {
	Out string
	To  *State
}

type item struct {
	state int
	out   string
}

// State is a deterministic state. Everything but the step memo is fixed when
// the state is created.
type State struct {
	id     int
	set    []int    // transducer states, in the order first reached
	items  []item   // closure members that have input transitions
	finals []string // closure outputs on paths reaching the accept state

	next map[ast.Symbol][]Edge // guarded by DFT.mu
}

// ID returns the creation index of s. The start state is 0.
func (s *State) ID() int { return s.id }

// Set returns the sorted transducer states s stands for.
func (s *State) Set() []int {
	set := slices.Clone(s.set)
	slices.Sort(set)
	return set
}

// Accepting reports whether the closure of s reaches the accept state.
func (s *State) Accepting() bool { return len(s.finals) > 0 }

// FinalOutputs returns the outputs emitted between s and the accept state.
func (s *State) FinalOutputs() []string { return s.finals }

// DFT is the lazily built deterministic view of a transducer. It is safe for
// concurrent use; the lock is written only when a state or step is missing
// from the cache.
type DFT struct {
	prog   *compiler.Program
	config Config
	logger *compiler.Logger

	mu     sync.RWMutex
	states map[string]*State
	start  *State
	ranked map[string]*rankedState // first-output states, see ranked.go
	rstart *rankedState
}

// New creates the DFT for prog and materializes its start state.
func New(prog *compiler.Program, config Config) (*DFT, error) {
	if config.MaxStates <= 0 {
		config.MaxStates = DefaultMaxStates
	}
	if config.MaxFrontier <= 0 {
		config.MaxFrontier = DefaultMaxFrontier
	}
	if config.MaxClosure <= 0 {
		config.MaxClosure = DefaultMaxClosure
	}
	m := &DFT{
		prog:   prog,
		config: config,
		logger: config.Logger.With("dft"),
		states: make(map[string]*State),
		ranked: make(map[string]*rankedState),
	}
	start, err := m.lookup([]int{prog.Start})
	if err != nil {
		return nil, err
	}
	m.start = start
	return m, nil
}

// Start returns the start state.
func (m *DFT) Start() *State {
	return m.start
}

// Len returns the number of cached states of both policies. MaxStates
// bounds each policy's cache separately.
func (m *DFT) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.states) + len(m.ranked)
}

// Step returns the edges leaving s on sym. More than one edge means the
// outputs for this input diverge; no edge means sym is rejected. Repeated
// calls return the same edges and the same *State values.
func (m *DFT) Step(s *State, sym ast.Symbol) ([]Edge, error) {
	m.mu.RLock()
	edges, ok := s.next[sym]
	m.mu.RUnlock()
	if ok {
		return edges, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if edges, ok := s.next[sym]; ok {
		return edges, nil
	}
	edges, err := m.step(s, sym)
	if err != nil {
		return nil, err
	}
	if s.next == nil {
		s.next = make(map[ast.Symbol][]Edge)
	}
	s.next[sym] = edges
	return edges, nil
}

// step must be called with mu held for writing.
func (m *DFT) step(s *State, sym ast.Symbol) ([]Edge, error) {
	var outs []string
	groups := make(map[string][]int)
	for _, it := range s.items {
		for _, ti := range m.prog.Out[it.state] {
			t := m.prog.Trans[ti]
			if t.In != sym {
				continue
			}
			out := it.out
			if t.Out != ast.Epsilon {
				out += string(rune(t.Out))
			}
			g, seen := groups[out]
			if !seen {
				outs = append(outs, out)
			}
			if !slices.Contains(g, t.To) {
				groups[out] = append(g, t.To)
			}
		}
	}

	edges := make([]Edge, 0, len(outs))
	for _, out := range outs {
		to, err := m.lookup(groups[out])
		if err != nil {
			return nil, err
		}
		edges = append(edges, Edge{Out: out, To: to})
	}
	return edges, nil
}

// lookup returns the cached state for set, creating it if needed. It must be
// called with mu held for writing, or before m is shared.
func (m *DFT) lookup(set []int) (*State, error) {
	key := setKey(set)
	if s, ok := m.states[key]; ok {
		return s, nil
	}
	if len(m.states) >= m.config.MaxStates {
		return nil, &ResourceError{Resource: "states", Limit: m.config.MaxStates, Size: len(m.states) + 1, Offset: -1}
	}
	items, finals, err := m.closure(set)
	if err != nil {
		return nil, err
	}
	s := &State{id: len(m.states), set: set, items: items, finals: finals}
	m.states[key] = s
	if m.logger.Enabled() {
		m.logger.Log("state %d = %v (closure %d, accepting %v)", s.id, s.Set(), len(items), s.Accepting())
	}
	return s, nil
}

// closure follows input-free transitions from every state of set, adding
// their output. A path never re-enters a state it already passed through,
// and each (state, output) pair is expanded once, so output-only cycles are
// taken at most once per path.
func (m *DFT) closure(set []int) ([]item, []string, error) {
	var (
		items   []item
		finals  []string
		visited = make(map[item]bool)
		onPath  = make([]bool, m.prog.NumStates)
		final   = make(map[string]bool)
	)

	var walk func(s int, out string) error
	walk = func(s int, out string) error {
		it := item{state: s, out: out}
		if visited[it] {
			return nil
		}
		visited[it] = true
		if len(visited) > m.config.MaxClosure {
			return &ResourceError{Resource: "closure", Limit: m.config.MaxClosure, Size: len(visited), Offset: -1}
		}
		if s == m.prog.Accept && !final[out] {
			final[out] = true
			finals = append(finals, out)
		}
		for _, ti := range m.prog.Out[s] {
			if !m.prog.Trans[ti].Free() {
				items = append(items, it)
				break
			}
		}
		onPath[s] = true
		defer func() { onPath[s] = false }()
		for _, ti := range m.prog.Out[s] {
			t := m.prog.Trans[ti]
			if !t.Free() || onPath[t.To] {
				continue
			}
			next := out
			if t.Out != ast.Epsilon {
				next += string(rune(t.Out))
			}
			if err := walk(t.To, next); err != nil {
				return err
			}
		}
		return nil
	}

	for _, s := range set {
		if err := walk(s, ""); err != nil {
			return nil, nil, err
		}
	}
	return items, finals, nil
}

func setKey(set []int) string {
	sorted := slices.Clone(set)
	slices.Sort(sorted)
	var b strings.Builder
	for i, s := range sorted {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(s))
	}
	return b.String()
}
