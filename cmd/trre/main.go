// Command trre transduces text with transductive regular expressions.
//
// Usage:
//
//	trre [flags] expr [file]         scan or match lines of file (default stdin)
//	trre gen [flags] expr            generate Go code for expr
//	trre serve [flags]               serve matching over HTTP
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/gorilla/mux"
	"github.com/pkg/profile"
	"github.com/trre-go/trre/internal/server"
	"github.com/trre-go/trre/pkg/trre"
	"github.com/trre-go/trre/stream"
)

// arrayFlags allows a flag to be given more than once.
type arrayFlags []string

func (i *arrayFlags) String() string {
	return strings.Join(*i, ", ")
}

func (i *arrayFlags) Set(value string) error {
	*i = append(*i, value)
	return nil
}

// usageError marks errors caused by bad command lines.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func usagef(format string, args ...interface{}) error {
	return usageError{fmt.Sprintf(format, args...)}
}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "trre: %v\n", err)
		var ue usageError
		if errors.As(err, &ue) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) > 0 {
		switch args[0] {
		case "gen":
			return runGen(args[1:], stdout, stderr)
		case "serve":
			return runServe(args[1:], stderr)
		}
	}
	return runTransduce(args, stdin, stdout, stderr)
}

func printHelp(fs *flag.FlagSet, usage string) {
	out := fs.Output()
	fmt.Fprintf(out, "Usage: %s\n\nFlags:\n", usage)
	fs.PrintDefaults()
}

// profileFlags registers the profiling flags on fs.
func profileFlags(fs *flag.FlagSet) (cpu, mem *bool, dir *string) {
	cpu = fs.Bool("cpuprofile", false, "Write a CPU profile")
	mem = fs.Bool("memprofile", false, "Write a memory profile")
	dir = fs.String("profile-dir", ".", "Directory for profile output")
	return cpu, mem, dir
}

// startProfile starts the selected profile. The returned function stops it.
func startProfile(cpu, mem bool, dir string) (func(), error) {
	var mode func(*profile.Profile)
	switch {
	case cpu && mem:
		return nil, usagef("-cpuprofile and -memprofile are mutually exclusive")
	case cpu:
		mode = profile.CPUProfile
	case mem:
		mode = profile.MemProfile
	default:
		return func() {}, nil
	}
	p := profile.Start(mode, profile.ProfilePath(dir), profile.Quiet, profile.NoShutdownHook)
	return p.Stop, nil
}

func runTransduce(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("trre", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		matchMode   = fs.Bool("m", false, "Match mode: print the output of each whole line")
		allOutputs  = fs.Bool("a", false, "Report all outputs, sorted, instead of the highest-priority one; scan mode uses the smallest")
		verbose     = fs.Bool("v", false, "Log compilation decisions to stderr")
		maxStates   = fs.Int("max-states", 0, "Bound on cached deterministic states (0: default)")
		maxFrontier = fs.Int("max-frontier", 0, "Bound on live (state, output) pairs (0: default)")
	)
	cpu, mem, dir := profileFlags(fs)
	fs.Usage = func() { printHelp(fs, "trre [flags] expr [file]") }
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 || fs.NArg() > 2 {
		fs.Usage()
		return usagef("expected an expression and at most one file")
	}

	stop, err := startProfile(*cpu, *mem, *dir)
	if err != nil {
		return err
	}
	defer stop()

	opts := trre.Options{
		MaxStates:   *maxStates,
		MaxFrontier: *maxFrontier,
		Policy:      trre.FirstOutput,
		Verbose:     *verbose,
	}
	if *allOutputs {
		opts.Policy = trre.AllOutputs
	}
	t, err := trre.CompileString(fs.Arg(0), opts)
	if err != nil {
		return err
	}

	in := stdin
	if fs.NArg() == 2 {
		f, err := os.Open(fs.Arg(1))
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	cfg := stream.DefaultConfig()
	cfg.AllOutputs = *allOutputs
	var r *stream.Transformer
	if *matchMode {
		r = stream.Match(in, t, cfg)
	} else {
		r = stream.Scan(in, t, cfg)
	}
	defer r.Close()

	if _, err := io.Copy(stdout, r); err != nil {
		return err
	}
	if *verbose {
		fmt.Fprintf(stderr, "[trre] %d deterministic states built\n", t.CacheSize())
	}
	return nil
}

func runGen(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("trre gen", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		name     = fs.String("name", "", "Name prefix for generated identifiers (required)")
		pkg      = fs.String("pkg", "main", "Package name of the generated file")
		output   = fs.String("o", "", "Output file (default: <name>.go, lowercased)")
		testFile = fs.Bool("test", false, "Also generate a _test.go file")
		inAlpha  = fs.String("input-alphabet", "", "Restrict input literals to these runes")
		outAlpha = fs.String("output-alphabet", "", "Restrict output literals to these runes")
		verbose  = fs.Bool("v", false, "Log compilation decisions to stderr")
		inputs   arrayFlags
	)
	fs.Var(&inputs, "input", "Input for the generated test file (repeatable; implies -test)")
	fs.Usage = func() { printHelp(fs, "trre gen -name N [-pkg P] [-o file] [-input s]... expr") }
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return usagef("expected exactly one expression")
	}
	if *name == "" {
		fs.Usage()
		return usagef("-name is required")
	}
	if *output == "" {
		*output = strings.ToLower(*name) + ".go"
	}

	opts := trre.GenerateOptions{
		Pattern:          fs.Arg(0),
		Name:             *name,
		OutputFile:       *output,
		Package:          *pkg,
		GenerateTestFile: *testFile,
		TestFileInputs:   inputs,
		Verbose:          *verbose,
	}
	if *inAlpha != "" {
		opts.InputAlphabet = trre.NewAlphabet(*inAlpha)
	}
	if *outAlpha != "" {
		opts.OutputAlphabet = trre.NewAlphabet(*outAlpha)
	}
	if err := trre.Generate(opts); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Generated %s\n", *output)
	return nil
}

// newRouter returns the router of the HTTP service.
func newRouter(opts trre.Options, maxCached int, maxBody int64) *mux.Router {
	r := mux.NewRouter()
	s := server.NewServer(opts, maxCached)
	s.SetMaxBodyBytes(maxBody)
	s.RegisterHandlers(r)
	return r
}

func runServe(args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("trre serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		addr        = fs.String("addr", ":8080", "Address to listen on")
		maxStates   = fs.Int("max-states", 0, "Bound on cached deterministic states per expression (0: default)")
		maxFrontier = fs.Int("max-frontier", 0, "Bound on live (state, output) pairs (0: default)")
		maxCached   = fs.Int("cache", server.DefaultMaxCached, "Number of compiled expressions to keep")
		maxBody     = fs.Int64("max-body", server.DefaultMaxBodyBytes, "Largest request body in bytes")
	)
	fs.Usage = func() { printHelp(fs, "trre serve [-addr host:port]") }
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 0 {
		fs.Usage()
		return usagef("unexpected arguments: %v", fs.Args())
	}

	opts := trre.Options{MaxStates: *maxStates, MaxFrontier: *maxFrontier}
	if err := opts.Validate(); err != nil {
		return usagef("%v", err)
	}
	if *maxBody <= 0 {
		return usagef("-max-body must be positive")
	}
	fmt.Fprintf(stderr, "trre: listening on %s\n", *addr)
	return http.ListenAndServe(*addr, newRouter(opts, *maxCached, *maxBody))
}
