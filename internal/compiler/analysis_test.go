package compiler

import (
	"bytes"
	"strings"
	"testing"

	"github.com/trre-go/trre/internal/ast"
)

func TestAnalyze(t *testing.T) {
	tests := []struct {
		name string
		expr *ast.Expr
		want Analysis
	}{
		{
			"substitution",
			ast.Pair(a(), x()),
			Analysis{States: 2, Transitions: 1, Both: 1},
		},
		{
			"deletion then insertion",
			ast.Pair(ast.Str("ab"), x()),
			Analysis{States: 6, Transitions: 5, Epsilon: 2, InputOnly: 2, OutputOnly: 1},
		},
		{
			"output cycle",
			ast.Repeat(ast.Pair(e(), x())),
			Analysis{States: 4, Transitions: 5, Epsilon: 4, OutputOnly: 1, OutputCycle: true},
		},
		{
			"insertion outside star",
			ast.Then(ast.Repeat(ast.Pair(a(), e())), ast.Pair(e(), x())),
			Analysis{States: 6, Transitions: 7, Epsilon: 5, InputOnly: 1, OutputOnly: 1},
		},
		{
			"cycle broken by input",
			ast.Repeat(ast.Then(ast.Pair(e(), x()), ast.Pair(a(), e()))),
			Analysis{States: 6, Transitions: 7, Epsilon: 5, InputOnly: 1, OutputOnly: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Build(Normalize(tt.expr))
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			if got := Analyze(p); got != tt.want {
				t.Errorf("Analyze(%s) = %+v, want %+v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestLogger(t *testing.T) {
	t.Run("disabled logger produces no output", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(false)
		logger.SetOutput(&buf)

		logger.Log("test message")
		logger.Section("test section")

		if buf.Len() != 0 {
			t.Errorf("disabled logger produced output: %s", buf.String())
		}
	})

	t.Run("nil logger is disabled", func(t *testing.T) {
		var logger *Logger
		if logger.Enabled() {
			t.Error("nil logger reports enabled")
		}
		logger.Log("ignored")
	})

	t.Run("enabled logger produces output", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(true)
		logger.SetOutput(&buf)

		logger.Log("test message")
		logger.Section("test section")

		output := buf.String()
		if !strings.Contains(output, "[trre] test message") {
			t.Errorf("output missing 'test message': %s", output)
		}
		if !strings.Contains(output, "=== test section ===") {
			t.Errorf("output missing 'test section': %s", output)
		}
	})

	t.Run("derived logger shares output", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(true)
		dft := logger.With("dft")
		logger.SetOutput(&buf)

		dft.Log("state %d", 3)
		if got := buf.String(); got != "[trre:dft] state 3\n" {
			t.Errorf("output = %q", got)
		}
		if (*Logger)(nil).With("dft") != nil {
			t.Error("With on nil logger returned non-nil")
		}
		if NewLogger(false).With("dft").Enabled() {
			t.Error("derived logger of a disabled logger is enabled")
		}
	})
}

func TestCompilerVerboseLogging(t *testing.T) {
	var buf bytes.Buffer
	c := New(Config{
		Expr:    ast.Repeat(ast.Pair(e(), x())),
		Verbose: true,
	})
	c.Logger().SetOutput(&buf)

	if _, err := c.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}

	output := buf.String()
	for _, want := range []string{"Normal Form", "Transducer", "output-only cycle"} {
		if !strings.Contains(output, want) {
			t.Errorf("verbose output missing %q:\n%s", want, output)
		}
	}
	if !c.Analysis().OutputCycle {
		t.Error("Analysis().OutputCycle = false")
	}
}

func TestCompileMemoized(t *testing.T) {
	c := New(Config{Expr: ast.Pair(ast.Str("ab"), x())})
	first, err := c.Compile()
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.Compile()
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Error("second Compile built a new program")
	}
	if !IsNormal(c.Normal()) {
		t.Errorf("Normal() = %s is not in normal form", c.Normal())
	}
}

func TestCompileAlphabet(t *testing.T) {
	c := New(Config{
		Expr:          ast.Pair(ast.Str("ab"), x()),
		InputAlphabet: ast.NewAlphabet("a"),
	})
	if _, err := c.Compile(); err == nil {
		t.Error("Compile accepted a symbol outside the input alphabet")
	}
}
