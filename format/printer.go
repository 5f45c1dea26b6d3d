package format

import (
	"fmt"
	"io"

	"github.com/arnodel/jsonwritestream/internal/debug"
	"github.com/arnodel/jsonwritestream/token"
)

//go:generate mockgen -source=printer.go -destination=../internal/mocks/mock_sink.go -package=mocks

// A Sink is the destination of the JSON text produced by a writer.  It only
// needs to accept spans of text and to be closed once the document is
// finished.  Opening files, choosing the text encoding or compressing the
// output all happen before the sink is handed to a writer.
type Sink interface {
	io.Writer
	io.Closer
}

// NewSink turns any io.Writer into a Sink.  If w is already a Sink it is
// returned unchanged.  Otherwise Close flushes w if it has a Flush() error
// method and closes it if it implements io.Closer.
func NewSink(w io.Writer) Sink {
	if s, ok := w.(Sink); ok {
		return s
	}
	return &WriterSink{Writer: w}
}

// WriterSink implements a Sink on top of an io.Writer which may not know how
// to close itself.
type WriterSink struct {
	io.Writer
}

var _ Sink = &WriterSink{}

// Close flushes and closes the underlying writer when it supports it.
func (s *WriterSink) Close() error {
	if f, ok := s.Writer.(interface{ Flush() error }); ok {
		if err := f.Flush(); err != nil {
			return err
		}
	}
	if c, ok := s.Writer.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// A SinkError contains an error that occurred while a Printer was sending
// some output to its sink.
type SinkError struct {
	Err error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("sink error: %s", e.Err)
}

func (e *SinkError) Unwrap() error {
	return e.Err
}

// Printer sends tokens to a Sink.
//
// The print methods do not return an error.  Instead the first error is
// recorded and all following output is discarded, so a caller can emit a
// sequence of tokens and check Err() once at the end.  Errors coming from
// the sink are reported as *SinkError.
type Printer struct {
	Sink Sink
	*Colorizer
	err error
}

// NewPrinter returns a Printer sending output to sink.  The colorizer may be
// nil, in which case no color codes are emitted.
func NewPrinter(sink Sink, colorizer *Colorizer) *Printer {
	return &Printer{Sink: sink, Colorizer: colorizer}
}

// PrintBytes sends the given bytes verbatim to the sink.
func (p *Printer) PrintBytes(b []byte) {
	if p.err != nil || len(b) == 0 {
		return
	}
	if debug.On {
		debug.Printf("write %q", b)
	}
	if _, err := p.Sink.Write(b); err != nil {
		p.err = &SinkError{Err: err}
	}
}

// PrintString sends s verbatim to the sink.
func (p *Printer) PrintString(s string) {
	if s != "" {
		p.PrintBytes([]byte(s))
	}
}

// PrintToken sends the text of a token to the sink.  Scalars go through the
// Colorizer.
func (p *Printer) PrintToken(t token.Token) {
	if s, ok := t.(*token.Scalar); ok {
		p.Colorizer.PrintScalar(p, s)
		return
	}
	p.PrintBytes(t.Text())
}

// Fail records err as the printer's error unless an error was already
// recorded.  Nothing is printed after that.
func (p *Printer) Fail(err error) {
	if p.err == nil {
		p.err = err
	}
}

// Err returns the first error encountered by the printer.
func (p *Printer) Err() error {
	return p.err
}

// Close closes the sink.  It may be called even if the printer has failed.
func (p *Printer) Close() error {
	if debug.On {
		debug.Printf("close")
	}
	if err := p.Sink.Close(); err != nil {
		return &SinkError{Err: err}
	}
	return nil
}
