package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"github.com/trre-go/trre/pkg/trre"
)

type testServer struct {
	matchServer *Server
	httpServer  *httptest.Server
}

func newServer(opts trre.Options, maxCached int) *testServer {
	router := mux.NewRouter()
	matchServer := NewServer(opts, maxCached)
	matchServer.RegisterHandlers(router)
	return &testServer{
		matchServer: matchServer,
		httpServer:  httptest.NewServer(router),
	}
}

func (s *testServer) close() {
	s.httpServer.Close()
}

func (s *testServer) post(t *testing.T, path, body string) (int, string) {
	t.Helper()
	resp, err := http.Post(s.httpServer.URL+path, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading response: %v", err)
	}
	return resp.StatusCode, string(data)
}

func request(t *testing.T, mr MatchRequest) string {
	t.Helper()
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(mr); err != nil {
		t.Fatal(err)
	}
	return buf.String()
}

func TestMatch(t *testing.T) {
	s := newServer(trre.Options{}, 0)
	defer s.close()

	tests := []struct {
		name string
		req  MatchRequest
		want MatchResponse
	}{
		{
			name: "accepted",
			req:  MatchRequest{Expr: "(a:b|b:a)*", Input: "abba"},
			want: MatchResponse{Accepted: true, Outputs: []string{"baab"}},
		},
		{
			name: "rejected",
			req:  MatchRequest{Expr: "a:x", Input: "b"},
			want: MatchResponse{Accepted: false, Outputs: []string{}},
		},
		{
			name: "all outputs",
			req:  MatchRequest{Expr: "a:y|a:x", Input: "a"},
			want: MatchResponse{Accepted: true, Outputs: []string{"x", "y"}},
		},
		{
			name: "first output",
			req:  MatchRequest{Expr: "a:y|a:x", Input: "a", Policy: "first"},
			want: MatchResponse{Accepted: true, Outputs: []string{"y"}},
		},
		{
			name: "first output after a shared output",
			req:  MatchRequest{Expr: "(a:x)(b:)(c:)|(a:y)(b:)|(a:x)(b:)", Input: "ab", Policy: "first"},
			want: MatchResponse{Accepted: true, Outputs: []string{"y"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := s.post(t, "/match", request(t, tt.req))
			if code != http.StatusOK {
				t.Fatalf("status %d, body %q", code, body)
			}
			var got MatchResponse
			if err := json.Unmarshal([]byte(body), &got); err != nil {
				t.Fatalf("decoding %q: %v", body, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestScan(t *testing.T) {
	s := newServer(trre.Options{}, 0)
	defer s.close()

	code, body := s.post(t, "/scan", request(t, MatchRequest{
		Expr:  "(cat):(dog)|(dog):(cat)",
		Input: "the cat chased the dog",
	}))
	if code != http.StatusOK {
		t.Fatalf("status %d, body %q", code, body)
	}
	var got ScanResponse
	if err := json.Unmarshal([]byte(body), &got); err != nil {
		t.Fatalf("decoding %q: %v", body, err)
	}
	if got.Output != "the dog chased the cat" {
		t.Errorf("got %q", got.Output)
	}
}

func TestErrors(t *testing.T) {
	s := newServer(trre.Options{MaxFrontier: 8}, 0)
	defer s.close()

	tests := []struct {
		name string
		path string
		body string
		code int
	}{
		{"bad json", "/match", "{", http.StatusBadRequest},
		{"bad policy", "/match", `{"expr":"a","input":"a","policy":"some"}`, http.StatusBadRequest},
		{"syntax error", "/match", `{"expr":"a:(b","input":"a"}`, http.StatusBadRequest},
		{"syntax error on scan", "/scan", `{"expr":")","input":"a"}`, http.StatusBadRequest},
		{"frontier exceeded", "/match", `{"expr":"(a:x|a:y)*","input":"aaaaaa"}`, http.StatusUnprocessableEntity},
		{"frontier exceeded on scan", "/scan", `{"expr":"(a:x|a:y)*","input":"aaaaaa"}`, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := s.post(t, tt.path, tt.body)
			if code != tt.code {
				t.Errorf("status %d, want %d (body %q)", code, tt.code, body)
			}
		})
	}

	t.Run("body too large", func(t *testing.T) {
		s.matchServer.SetMaxBodyBytes(64)
		defer s.matchServer.SetMaxBodyBytes(0)
		body := request(t, MatchRequest{Expr: "(a:b)*", Input: strings.Repeat("a", 100)})
		code, _ := s.post(t, "/match", body)
		if code != http.StatusRequestEntityTooLarge {
			t.Errorf("status %d, want %d", code, http.StatusRequestEntityTooLarge)
		}
		code, _ = s.post(t, "/match", `{"expr":"a:b","input":"a"}`)
		if code != http.StatusOK {
			t.Errorf("small body: status %d, want 200", code)
		}
	})

	t.Run("wrong method", func(t *testing.T) {
		resp, err := http.Get(s.httpServer.URL + "/match")
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("status %d, want %d", resp.StatusCode, http.StatusMethodNotAllowed)
		}
	})
}

func TestHealthz(t *testing.T) {
	s := newServer(trre.Options{}, 0)
	defer s.close()

	resp, err := http.Get(s.httpServer.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status %d, want 200", resp.StatusCode)
	}
}

func TestCache(t *testing.T) {
	s := newServer(trre.Options{}, 2)
	defer s.close()

	body := request(t, MatchRequest{Expr: "a:x", Input: "a"})
	for i := 0; i < 3; i++ {
		s.post(t, "/match", body)
	}
	if n := s.matchServer.CacheLen(); n != 1 {
		t.Errorf("CacheLen() = %d after repeated requests, want 1", n)
	}

	s.post(t, "/match", request(t, MatchRequest{Expr: "a:x", Input: "a", Policy: "first"}))
	if n := s.matchServer.CacheLen(); n != 2 {
		t.Errorf("CacheLen() = %d, want 2 after a second policy", n)
	}

	s.post(t, "/match", request(t, MatchRequest{Expr: "b:y", Input: "b"}))
	if n := s.matchServer.CacheLen(); n != 2 {
		t.Errorf("CacheLen() = %d, want the limit 2", n)
	}

	// Malformed expressions are not cached.
	s.post(t, "/match", request(t, MatchRequest{Expr: "(", Input: ""}))
	if n := s.matchServer.CacheLen(); n != 2 {
		t.Errorf("CacheLen() = %d after a malformed expression", n)
	}
}

func TestConcurrentRequests(t *testing.T) {
	s := newServer(trre.Options{}, 0)
	defer s.close()

	body := request(t, MatchRequest{Expr: "(a:b|b:a)*", Input: "abab"})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := http.Post(s.httpServer.URL+"/match", "application/json", strings.NewReader(body))
			if err != nil {
				t.Error(err)
				return
			}
			defer resp.Body.Close()
			var got MatchResponse
			if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
				t.Error(err)
				return
			}
			if !got.Accepted || len(got.Outputs) != 1 || got.Outputs[0] != "baba" {
				t.Errorf("got %+v", got)
			}
		}()
	}
	wg.Wait()
}
