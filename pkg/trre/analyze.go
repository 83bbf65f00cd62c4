package trre

// Analyze parses and compiles pattern without running it and returns the
// shape of its nondeterministic transducer. It fails like CompileString on
// patterns that do not parse or violate the alphabets in opts.
//
// Example:
//
//	a, err := trre.Analyze("(:x)*")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(a.States, a.OutputCycle) // 4 true
func Analyze(pattern string, opts ...Options) (*Analysis, error) {
	t, err := CompileString(pattern, opts...)
	if err != nil {
		return nil, err
	}
	a := t.Analysis()
	return &a, nil
}
