package trace

import (
	"fmt"
	"io"
	"strings"
)

// Sink receives rendered text. Two implementations exist on purpose and
// render sites are polymorphic over this interface rather than branching
// on a nil buffer: BufferSink accumulates the whole dump for callers that
// return it (the administrative read endpoint), WriterSink emits each
// line immediately for the console/panic path, where buffering could
// lose output.
type Sink interface {
	Printf(format string, args ...any)
}

// BufferSink accumulates rendered text in memory. The zero value is
// ready to use; it grows one-way, like the dump it holds.
type BufferSink struct {
	b strings.Builder
}

// Printf appends formatted text to the buffer.
func (s *BufferSink) Printf(format string, args ...any) {
	fmt.Fprintf(&s.b, format, args...)
}

// String returns everything rendered so far.
func (s *BufferSink) String() string {
	return s.b.String()
}

// Len returns the number of buffered bytes.
func (s *BufferSink) Len() int {
	return s.b.Len()
}

// WriterSink writes each rendered piece straight through to W.
type WriterSink struct {
	W io.Writer
}

// Printf writes formatted text to the underlying writer immediately.
func (s *WriterSink) Printf(format string, args ...any) {
	fmt.Fprintf(s.W, format, args...)
}
