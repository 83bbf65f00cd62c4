// Package compiler turns transductive regular expressions into
// nondeterministic finite state transducers and generates Go code for them.
package compiler

import (
	"fmt"

	"github.com/trre-go/trre/internal/ast"
	"github.com/trre-go/trre/internal/codegen"
)

// Config holds the configuration for compilation and code generation.
type Config struct {
	Expr             *ast.Expr
	Pattern          string       // Source text of Expr, used in generated comments
	InputAlphabet    ast.Alphabet // nil admits every rune
	OutputAlphabet   ast.Alphabet // nil admits every rune
	Name             string       // Identifier prefix for generated code
	OutputFile       string
	Package          string
	GenerateTestFile bool     // Generate a test file next to OutputFile
	TestFileInputs   []string // Inputs checked by the generated test file
	Verbose          bool     // Enable verbose logging of compilation decisions
}

// Compiler runs the pipeline validate → normalize → build for one expression.
type Compiler struct {
	config   Config
	logger   *Logger
	normal   *ast.Expr
	prog     *Program
	analysis Analysis
}

// New creates a new compiler instance.
func New(config Config) *Compiler {
	return &Compiler{
		config: config,
		logger: NewLogger(config.Verbose),
	}
}

// Logger returns the compiler's verbose logger.
func (c *Compiler) Logger() *Logger {
	return c.logger
}

// SetOutputFile sets the output file path.
func (c *Compiler) SetOutputFile(path string) {
	c.config.OutputFile = path
}

// Compile validates the expression and builds its transducer. The result
// is computed once; later calls return the same program.
func (c *Compiler) Compile() (*Program, error) {
	if c.prog != nil {
		return c.prog, nil
	}
	x := c.config.Expr
	if err := ast.Validate(x, c.config.InputAlphabet, c.config.OutputAlphabet); err != nil {
		return nil, err
	}

	c.logger.Section("Normal Form")
	c.logger.Log("Expression: %s", x)
	c.normal = Normalize(x)
	c.logger.Log("Normal form: %s", c.normal)
	c.logger.Log("Tree size: %d -> %d", x.Size(), c.normal.Size())

	prog, err := Build(c.normal)
	if err != nil {
		return nil, fmt.Errorf("failed to build transducer: %w", err)
	}

	c.analysis = Analyze(prog)
	c.logger.Section("Transducer")
	c.logger.Log("States: %d, transitions: %d", c.analysis.States, c.analysis.Transitions)
	c.logger.Log("Labels: %d ε:ε, %d a:ε, %d ε:b, %d a:b",
		c.analysis.Epsilon, c.analysis.InputOnly, c.analysis.OutputOnly, c.analysis.Both)
	if c.analysis.OutputCycle {
		c.logger.Log("Warning: output-only cycle, each input yields finitely many of infinitely many outputs")
	}

	c.prog = prog
	return prog, nil
}

// Normal returns the normal form computed by Compile, or nil before it ran.
func (c *Compiler) Normal() *ast.Expr {
	return c.normal
}

// Analysis returns the analysis computed by Compile.
func (c *Compiler) Analysis() Analysis {
	return c.analysis
}

// name returns the configured identifier for generated code.
func (c *Compiler) name(suffix string) string {
	return codegen.UpperFirst(c.config.Name) + suffix
}
