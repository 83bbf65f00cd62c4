package trre_test

import (
	"fmt"

	"github.com/trre-go/trre/pkg/trre"
)

func ExampleCompileString() {
	t := trre.MustCompileString("(a:b|b:a)*")
	res, err := t.Match("abba")
	if err != nil {
		panic(err)
	}
	fmt.Println(res.Accepted, res.Outputs)
	// Output: true [baab]
}

func ExampleCompile() {
	// (a|b):x reads a or b and writes x.
	t, err := trre.Compile(trre.Pair(trre.Or(trre.Lit('a'), trre.Lit('b')), trre.Lit('x')))
	if err != nil {
		panic(err)
	}
	for _, in := range []string{"a", "b", ""} {
		res, _ := t.Match(in)
		fmt.Printf("%q %v %q\n", in, res.Accepted, res.Outputs)
	}
	// Output:
	// "a" true ["x"]
	// "b" true ["x"]
	// "" false []
}

func ExampleTransducer_Match_ambiguous() {
	t := trre.MustCompileString("a:x|a:y")
	res, _ := t.Match("a")
	fmt.Println(res.Outputs)

	first := trre.MustCompileString("a:y|a:x", trre.Options{Policy: trre.FirstOutput})
	res, _ = first.Match("a")
	fmt.Println(res.Outputs)
	// Output:
	// [x y]
	// [y]
}

func ExampleTransducer_Scan() {
	t := trre.MustCompileString("(cat):(dog)|(dog):(cat)")
	out, err := t.Scan("the cat chased the dog")
	if err != nil {
		panic(err)
	}
	fmt.Println(out)
	// Output: the dog chased the cat
}
