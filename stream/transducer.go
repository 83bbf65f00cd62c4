package stream

import (
	"bytes"
	"io"

	"github.com/trre-go/trre/pkg/trre"
)

// Scan returns a Transformer that rewrites each line of r with t.Scan.
// Line terminators are copied unchanged.
//
// Example - swap two words on every line:
//
//	t := trre.MustCompileString("(cat):(dog)|(dog):(cat)")
//	r := stream.Scan(input, t, stream.DefaultConfig())
//	io.Copy(os.Stdout, r)
func Scan(r io.Reader, t *trre.Transducer, cfg Config) *Transformer {
	return NewTransformer(r, cfg, func(line []byte, emit func([]byte)) error {
		body, nl := splitNewline(line)
		out, err := t.Scan(string(body))
		if err != nil {
			return err
		}
		emit([]byte(out))
		emit(nl)
		return nil
	})
}

// Match returns a Transformer that replaces each line of r accepted by t
// with its outputs, one per line. Rejected lines are dropped. Only the first
// output is written unless cfg.AllOutputs is set.
func Match(r io.Reader, t *trre.Transducer, cfg Config) *Transformer {
	all := cfg.AllOutputs
	return NewTransformer(r, cfg, func(line []byte, emit func([]byte)) error {
		body, _ := splitNewline(line)
		res, err := t.Match(string(body))
		if err != nil {
			return err
		}
		outputs := res.Outputs
		if !all && len(outputs) > 1 {
			outputs = outputs[:1]
		}
		for _, out := range outputs {
			emit([]byte(out))
			emit([]byte{'\n'})
		}
		return nil
	})
}

// splitNewline splits a line into its body and its terminator ("\n",
// "\r\n" or empty).
func splitNewline(line []byte) (body, nl []byte) {
	if !bytes.HasSuffix(line, []byte{'\n'}) {
		return line, nil
	}
	n := 1
	if bytes.HasSuffix(line, []byte("\r\n")) {
		n = 2
	}
	return line[:len(line)-n], line[len(line)-n:]
}
