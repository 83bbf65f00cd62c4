package stream

import (
	"bytes"
	"fmt"
	"io"
	"sync"
)

// LineFunc transforms one line. The line includes its trailing newline, if
// any, and is only valid during the call. emit appends to the output and may
// be called any number of times; not calling it drops the line.
type LineFunc func(line []byte, emit func([]byte)) error

// inputBufPool holds input buffers of the default size.
var inputBufPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, defaultBufferSize)
		return &buf
	},
}

// Transformer wraps a source io.Reader and applies a LineFunc to each line.
// It implements io.Reader, allowing standard Go composition via io.Copy, etc.
//
// The transformation is lazy - processing happens only when Read is called.
type Transformer struct {
	source io.Reader
	cfg    Config
	fn     LineFunc

	// Input buffering
	inputBuf   []byte
	inputStart int // start of unprocessed data
	inputEnd   int // end of valid data
	line       int // lines processed so far

	output      []byte
	outputStart int

	sourceEOF bool
	err       error

	inputBufPtr   *[]byte
	poolsReturned bool
}

// NewTransformer creates a Transformer that reads lines from source and
// passes each one to fn. An invalid cfg is reported by the first Read.
//
// Call Close when done to return pooled buffers.
func NewTransformer(source io.Reader, cfg Config, fn LineFunc) *Transformer {
	t := &Transformer{source: source, fn: fn}
	if err := cfg.Validate(); err != nil {
		t.err = err
		return t
	}
	t.cfg = cfg.ApplyDefaults()
	if t.cfg.BufferSize == defaultBufferSize {
		t.inputBufPtr = inputBufPool.Get().(*[]byte)
		t.inputBuf = *t.inputBufPtr
	} else {
		t.inputBuf = make([]byte, t.cfg.BufferSize)
	}
	return t
}

// Close returns pooled buffers. It is safe to call more than once.
func (t *Transformer) Close() error {
	if t.poolsReturned {
		return nil
	}
	t.poolsReturned = true
	if t.inputBufPtr != nil {
		inputBufPool.Put(t.inputBufPtr)
		t.inputBufPtr = nil
	}
	t.inputBuf = nil
	return nil
}

// Read implements io.Reader.
func (t *Transformer) Read(p []byte) (n int, err error) {
	if t.cfg.Context != nil {
		select {
		case <-t.cfg.Context.Done():
			return 0, t.cfg.Context.Err()
		default:
		}
	}

	for t.outputStart == len(t.output) {
		if t.err != nil {
			return 0, t.err
		}
		t.output = t.output[:0]
		t.outputStart = 0
		if t.poolsReturned {
			t.err = fmt.Errorf("stream: read after Close")
			continue
		}
		t.err = t.processMore()
	}

	n = copy(p, t.output[t.outputStart:])
	t.outputStart += n
	return n, nil
}

// processMore reads one chunk from the source and transforms every complete
// line in the buffer. Returns io.EOF once the last line has been transformed.
func (t *Transformer) processMore() error {
	if t.cfg.Context != nil {
		select {
		case <-t.cfg.Context.Done():
			return t.cfg.Context.Err()
		default:
		}
	}

	// Compact input buffer if needed
	if t.inputStart > 0 {
		remaining := copy(t.inputBuf, t.inputBuf[t.inputStart:t.inputEnd])
		t.inputStart = 0
		t.inputEnd = remaining
	}

	if !t.sourceEOF {
		// Grow buffer if a pending line fills it
		if t.inputEnd == len(t.inputBuf) {
			grown := make([]byte, 2*len(t.inputBuf))
			copy(grown, t.inputBuf[:t.inputEnd])
			t.inputBuf = grown
		}

		n, err := t.source.Read(t.inputBuf[t.inputEnd:])
		t.inputEnd += n
		if err != nil {
			if err != io.EOF {
				return err
			}
			t.sourceEOF = true
		}
	}

	data := t.inputBuf[t.inputStart:t.inputEnd]
	for {
		idx := bytes.IndexByte(data, '\n')
		if idx < 0 {
			break
		}
		if err := t.transformLine(data[:idx+1]); err != nil {
			return err
		}
		data = data[idx+1:]
		t.inputStart += idx + 1
	}

	if t.sourceEOF {
		if len(data) > 0 {
			// Last line without newline
			if err := t.transformLine(data); err != nil {
				return err
			}
			t.inputStart = t.inputEnd
		}
		return io.EOF
	}

	if t.cfg.MaxLineSize >= 0 && len(data) > t.cfg.MaxLineSize {
		return &LineTooLongError{Line: t.line + 1, Limit: t.cfg.MaxLineSize}
	}
	return nil
}

func (t *Transformer) transformLine(line []byte) error {
	t.line++
	if t.cfg.MaxLineSize >= 0 && len(line) > t.cfg.MaxLineSize {
		return &LineTooLongError{Line: t.line, Limit: t.cfg.MaxLineSize}
	}
	if err := t.fn(line, t.emit); err != nil {
		return fmt.Errorf("line %d: %w", t.line, err)
	}
	return nil
}

func (t *Transformer) emit(data []byte) {
	t.output = append(t.output, data...)
}

// Reset resets the transformer to read from a new source.
// This allows reuse of the transformer's buffers.
func (t *Transformer) Reset(source io.Reader) {
	t.source = source
	t.inputStart = 0
	t.inputEnd = 0
	t.line = 0
	t.output = t.output[:0]
	t.outputStart = 0
	t.sourceEOF = false
	if !t.poolsReturned && t.inputBuf != nil {
		t.err = nil
	}
}
