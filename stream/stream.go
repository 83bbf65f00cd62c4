// Package stream runs transducers over line-oriented input.
//
// Each line of the source is passed through a compiled transducer, either
// rewritten in place (Scan) or replaced by the outputs it relates to (Match).
// Input is processed incrementally, so memory use is bounded by the longest
// line rather than by the size of the stream.
//
// Example usage:
//
//	t := trre.MustCompileString("(cat):(dog)|(dog):(cat)")
//	file, _ := os.Open("pets.txt")
//	defer file.Close()
//
//	r := stream.Scan(file, t, stream.DefaultConfig())
//	io.Copy(os.Stdout, r)
package stream

import (
	"context"
	"fmt"
)

// Config configures line transduction.
type Config struct {
	// BufferSize is the chunk size for reading from the io.Reader.
	// Default: 64KB (65536).
	BufferSize int

	// MaxLineSize limits the length of a single line in bytes, including
	// its newline. Longer lines fail with a *LineTooLongError.
	// Default: 1MB. Set to -1 for unlimited.
	MaxLineSize int

	// AllOutputs makes Match emit every output of an accepted line
	// instead of only the first one.
	AllOutputs bool

	// Context for cancellation support.
	// Default: nil (no cancellation).
	Context context.Context
}

const (
	defaultBufferSize  = 64 * 1024
	defaultMaxLineSize = 1024 * 1024
)

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BufferSize:  defaultBufferSize,
		MaxLineSize: defaultMaxLineSize,
	}
}

// Validate validates the Config and returns an error if invalid.
func (c Config) Validate() error {
	if c.BufferSize < 0 {
		return fmt.Errorf("stream: BufferSize must be non-negative, got %d", c.BufferSize)
	}
	if c.MaxLineSize < -1 {
		return fmt.Errorf("stream: MaxLineSize must be -1 or non-negative, got %d", c.MaxLineSize)
	}
	return nil
}

// ApplyDefaults returns a Config with defaults applied for any zero values.
func (c Config) ApplyDefaults() Config {
	result := c
	if result.BufferSize == 0 {
		result.BufferSize = defaultBufferSize
	}
	if result.MaxLineSize == 0 {
		result.MaxLineSize = defaultMaxLineSize
	}
	return result
}

// LineTooLongError is returned when a line exceeds Config.MaxLineSize.
type LineTooLongError struct {
	Line  int // 1-based line number
	Limit int
}

func (e *LineTooLongError) Error() string {
	return fmt.Sprintf("stream: line %d exceeds %d bytes", e.Line, e.Limit)
}
