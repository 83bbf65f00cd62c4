package trre

import (
	"fmt"

	"github.com/trre-go/trre/internal/compiler"
)

// GenerateOptions configures code generation.
type GenerateOptions struct {
	// Pattern is the transductive regular expression to compile
	Pattern string

	// Name is the prefix for generated identifiers (e.g., "Swap" generates "Swap" and "SwapMatch")
	Name string

	// OutputFile is the path where generated code will be written
	OutputFile string

	// Package is the Go package name for the generated code
	Package string

	// InputAlphabet and OutputAlphabet restrict the literals of Pattern, as in Options
	InputAlphabet  Alphabet
	OutputAlphabet Alphabet

	// GenerateTestFile generates a test file comparing the generated transducer with one compiled from Pattern (default: true if TestFileInputs provided)
	GenerateTestFile bool

	// TestFileInputs is a list of inputs for the generated test file. If empty and GenerateTestFile is true, defaults to []string{""}
	TestFileInputs []string

	// Verbose logs compilation decisions to stderr
	Verbose bool
}

// Validate checks if the options are valid.
func (o GenerateOptions) Validate() error {
	if o.Name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if o.OutputFile == "" {
		return fmt.Errorf("output file cannot be empty")
	}
	if o.Package == "" {
		return fmt.Errorf("package cannot be empty")
	}
	return nil
}

// Generate compiles the pattern and writes Go source declaring its
// transition table, a Transducer built from it, and a <Name>Match function.
// The generated code depends only on this package.
func Generate(opts GenerateOptions) error {
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}

	expr, err := Parse(opts.Pattern)
	if err != nil {
		return fmt.Errorf("failed to parse pattern: %w", err)
	}

	generateTestFile := opts.GenerateTestFile
	testInputs := opts.TestFileInputs
	if len(testInputs) > 0 {
		generateTestFile = true
	} else if generateTestFile {
		testInputs = []string{""}
	}

	c := compiler.New(compiler.Config{
		Expr:             expr,
		Pattern:          opts.Pattern,
		InputAlphabet:    opts.InputAlphabet,
		OutputAlphabet:   opts.OutputAlphabet,
		Name:             opts.Name,
		Package:          opts.Package,
		GenerateTestFile: generateTestFile,
		TestFileInputs:   testInputs,
		Verbose:          opts.Verbose,
	})
	c.SetOutputFile(opts.OutputFile)

	if err := c.Generate(); err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}
	return nil
}
