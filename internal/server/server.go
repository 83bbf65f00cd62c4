// Package server serves transducer matching over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/trre-go/trre/pkg/trre"
)

const (
	// DefaultMaxCached is the number of compiled transducers a Server keeps
	// when NewServer is given a non-positive limit.
	DefaultMaxCached = 256
	// DefaultMaxBodyBytes bounds request bodies unless SetMaxBodyBytes
	// says otherwise.
	DefaultMaxBodyBytes = 1 << 20
)

// MatchRequest is the body of a match or scan request.
type MatchRequest struct {
	// Expr is the transductive regular expression.
	Expr string `json:"expr"`
	// Input is the string to transduce.
	Input string `json:"input"`
	// Policy is "all" (the default) or "first".
	Policy string `json:"policy,omitempty"`
}

// MatchResponse is the result of a match request.
type MatchResponse struct {
	Accepted bool     `json:"accepted"`
	Outputs  []string `json:"outputs"`
}

// ScanResponse is the result of a scan request.
type ScanResponse struct {
	Output string `json:"output"`
}

// Server implements the HTTP match service.
// Compiled transducers are cached per expression and policy,
// so repeated requests share their lazily built states.
type Server struct {
	sync.RWMutex
	opts      trre.Options
	maxCached int
	maxBody   int64
	cache     map[cacheKey]*trre.Transducer
}

type cacheKey struct {
	expr   string
	policy trre.Policy
}

// NewServer returns a new Server compiling expressions with opts.
// At most maxCached transducers are kept.
func NewServer(opts trre.Options, maxCached int) *Server {
	if maxCached <= 0 {
		maxCached = DefaultMaxCached
	}
	return &Server{
		opts:      opts,
		maxCached: maxCached,
		maxBody:   DefaultMaxBodyBytes,
		cache:     make(map[cacheKey]*trre.Transducer),
	}
}

// SetMaxBodyBytes bounds the size of request bodies; larger requests fail
// with Request Entity Too Large. n <= 0 restores the default.
func (s *Server) SetMaxBodyBytes(n int64) {
	if n <= 0 {
		n = DefaultMaxBodyBytes
	}
	s.Lock()
	s.maxBody = n
	s.Unlock()
}

// RegisterHandlers registers handlers for the following paths and methods:
//
//	/match transduces a whole input.
//
//	POST takes a MatchRequest and returns a MatchResponse.
//	Returns:
//	• OK on success, whether or not the input is accepted.
//	• Bad Request if the request or the expression is malformed.
//	• Request Entity Too Large if the body exceeds the configured limit.
//	• Unprocessable Entity if matching exceeds a resource bound.
//
//	/scan rewrites every longest accepted substring of the input.
//
//	POST takes a MatchRequest and returns a ScanResponse.
//	Returns the same statuses as /match.
//
//	/healthz
//
//	GET returns OK.
//
// Unless otherwise stated, the body of all error responses is the error message.
func (s *Server) RegisterHandlers(r *mux.Router) {
	r.HandleFunc("/match", s.match).Methods(http.MethodPost)
	r.HandleFunc("/scan", s.scan).Methods(http.MethodPost)
	r.HandleFunc("/healthz", healthz).Methods(http.MethodGet)
}

// CacheLen returns the number of cached transducers.
func (s *Server) CacheLen() int {
	s.RLock()
	defer s.RUnlock()
	return len(s.cache)
}

// respond JSON encodes resp to w, and sends an Internal Server Error on failure.
func respond(w http.ResponseWriter, resp interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// fail sends err with the status its kind maps to.
func fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, trre.ErrMalformedExpression):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, trre.ErrResourceExceeded):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func healthz(w http.ResponseWriter, req *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok\n"))
}

func (s *Server) match(w http.ResponseWriter, req *http.Request) {
	t, in, ok := s.decode(w, req)
	if !ok {
		return
	}
	res, err := t.Match(in)
	if err != nil {
		fail(w, err)
		return
	}
	outputs := res.Outputs
	if outputs == nil {
		outputs = []string{}
	}
	respond(w, MatchResponse{Accepted: res.Accepted, Outputs: outputs})
}

func (s *Server) scan(w http.ResponseWriter, req *http.Request) {
	t, in, ok := s.decode(w, req)
	if !ok {
		return
	}
	out, err := t.Scan(in)
	if err != nil {
		fail(w, err)
		return
	}
	respond(w, ScanResponse{Output: out})
}

// decode reads a MatchRequest and returns its compiled transducer and input.
// On failure it writes the error response and returns false.
func (s *Server) decode(w http.ResponseWriter, req *http.Request) (*trre.Transducer, string, bool) {
	s.RLock()
	limit := s.maxBody
	s.RUnlock()
	var mr MatchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, req.Body, limit)).Decode(&mr); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
		} else {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
		return nil, "", false
	}
	policy, err := parsePolicy(mr.Policy)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, "", false
	}
	t, err := s.transducer(mr.Expr, policy)
	if err != nil {
		fail(w, err)
		return nil, "", false
	}
	return t, mr.Input, true
}

func parsePolicy(name string) (trre.Policy, error) {
	switch name {
	case "", trre.AllOutputs.String():
		return trre.AllOutputs, nil
	case trre.FirstOutput.String():
		return trre.FirstOutput, nil
	}
	return 0, fmt.Errorf("unknown policy %q", name)
}

// transducer returns the cached transducer for expr, compiling it on first use.
func (s *Server) transducer(expr string, policy trre.Policy) (*trre.Transducer, error) {
	key := cacheKey{expr: expr, policy: policy}
	s.RLock()
	t, ok := s.cache[key]
	s.RUnlock()
	if ok {
		return t, nil
	}

	opts := s.opts
	opts.Policy = policy
	t, err := trre.CompileString(expr, opts)
	if err != nil {
		return nil, err
	}

	s.Lock()
	defer s.Unlock()
	if cached, ok := s.cache[key]; ok {
		return cached, nil
	}
	if len(s.cache) >= s.maxCached {
		// Evict an arbitrary entry.
		for k := range s.cache {
			delete(s.cache, k)
			break
		}
	}
	s.cache[key] = t
	return t, nil
}
