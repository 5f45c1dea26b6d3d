package jsonwritestream

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/arnodel/jsonwritestream/format"
	"github.com/arnodel/jsonwritestream/internal/stack"
	"github.com/arnodel/jsonwritestream/token"
)

// A StatefulWriter writes one JSON value to a sink, with the caller opening
// and closing containers explicitly.  For example
//
//	w.OpenArray()
//	w.WriteElement("abc")
//	w.OpenObject()
//	w.WriteKeyValue("def", "ghi")
//	w.Close()
//
// writes
//
//	["abc",{"def":"ghi"}]
//
// The writer keeps a stack of the open containers.  Once the top-level
// container is closed the stream is over (EOS returns true) and any further
// write fails with ErrEndOfStream.
//
// A StatefulWriter is not safe for concurrent use.
type StatefulWriter struct {
	printer   *format.Printer
	logger    *slog.Logger
	stack     *stack.Stack[Frame]
	rootCount int
	closed    bool
}

// NewStatefulWriter returns a StatefulWriter emitting compact JSON to sink.
func NewStatefulWriter(sink format.Sink) *StatefulWriter {
	return newStatefulWriter(format.NewPrinter(sink, nil), discardLogger)
}

func newStatefulWriter(printer *format.Printer, logger *slog.Logger) *StatefulWriter {
	return &StatefulWriter{
		printer: printer,
		logger:  logger,
		stack:   stack.NewWithCapacity[Frame](8),
	}
}

// OpenObject starts a new object.  Inside an object, exactly one string key
// must be given for the new member.  Inside an array or at the top level no
// key may be given.
func (w *StatefulWriter) OpenObject(key ...any) error {
	return w.open(Object, key)
}

// OpenArray starts a new array.  Keys follow the same rules as for
// OpenObject.
func (w *StatefulWriter) OpenArray(key ...any) error {
	return w.open(Array, key)
}

func (w *StatefulWriter) open(kind Kind, keys []any) error {
	if err := w.check(); err != nil {
		return err
	}
	if len(keys) > 1 {
		return fmt.Errorf("%w: at most one key allowed, got %d", ErrUnexpectedKey, len(keys))
	}
	top := w.stack.PeekRef()
	if top == nil {
		if len(keys) > 0 {
			return fmt.Errorf("%w: top-level %s cannot have a key", ErrUnexpectedKey, kind)
		}
	} else {
		switch top.Kind {
		case Object:
			if len(keys) == 0 {
				return fmt.Errorf("%w: %s inside an object needs a key", ErrInvalidKey, kind)
			}
			key, err := token.KeyScalar(keys[0], false)
			if err != nil {
				return err
			}
			w.writeSeparator(top)
			w.printer.PrintToken(key)
			w.printer.PrintToken(token.KeyValueSeparator)
		case Array:
			if len(keys) > 0 {
				return fmt.Errorf("%w: %s inside an array cannot have a key", ErrUnexpectedKey, kind)
			}
			w.writeSeparator(top)
		}
		// The new container counts as one member of its parent.
		top.Count++
	}
	w.stack.Push(Frame{Kind: kind})
	w.printer.PrintToken(kind.openToken())
	return w.printer.Err()
}

// WriteKeyValue writes a member with a scalar value in the current object.
// The key must be a string.
func (w *StatefulWriter) WriteKeyValue(key, value any) error {
	if err := w.check(); err != nil {
		return err
	}
	top := w.stack.PeekRef()
	if top == nil || top.Kind != Object {
		return ErrNotInObject
	}
	k, err := token.KeyScalar(key, false)
	if err != nil {
		return err
	}
	v, err := token.ToScalar(value)
	if err != nil {
		return err
	}
	w.writeSeparator(top)
	w.printer.PrintToken(k)
	w.printer.PrintToken(token.KeyValueSeparator)
	w.printer.PrintToken(v)
	top.Count++
	return w.printer.Err()
}

// WriteElement writes a scalar element in the current array.
func (w *StatefulWriter) WriteElement(value any) error {
	if err := w.check(); err != nil {
		return err
	}
	top := w.stack.PeekRef()
	if top == nil || top.Kind != Array {
		return ErrNotInArray
	}
	v, err := token.ToScalar(value)
	if err != nil {
		return err
	}
	w.writeSeparator(top)
	w.printer.PrintToken(v)
	top.Count++
	return w.printer.Err()
}

// CloseObject closes the current object.  It fails with ErrNotInObject if
// the innermost open container is not an object.
func (w *StatefulWriter) CloseObject() error {
	if w.EOS() {
		return ErrEndOfStream
	}
	return w.closeContainer(Object)
}

// CloseArray closes the current array.  It fails with ErrNotInArray if the
// innermost open container is not an array.
func (w *StatefulWriter) CloseArray() error {
	if w.EOS() {
		return ErrEndOfStream
	}
	return w.closeContainer(Array)
}

func (w *StatefulWriter) closeContainer(kind Kind) error {
	top := w.stack.PeekRef()
	if top == nil || top.Kind != kind {
		return kind.notInError()
	}
	w.stack.Pop()
	w.printer.PrintToken(kind.closeToken())
	w.rootCount++
	if w.stack.IsEmpty() {
		w.logger.Debug("json stream complete", slog.String("kind", kind.String()), slog.Int("closed_containers", w.rootCount))
	}
	return w.printer.Err()
}

// Close closes every container still open, innermost first, then closes
// the sink.  The sink is closed even if writing the closing tokens failed.
//
// Calling Close again returns ErrEndOfStream and leaves the sink alone.
func (w *StatefulWriter) Close() error {
	if w.closed {
		return ErrEndOfStream
	}
	depth := w.stack.Size()
	for top := w.stack.PeekRef(); top != nil; top = w.stack.PeekRef() {
		_ = w.closeContainer(top.Kind)
	}
	w.closed = true
	closeErr := w.printer.Close()
	w.logger.Debug("json stream closed", slog.Int("unwound", depth))
	return errors.Join(w.printer.Err(), closeErr)
}

// InObject returns true if the innermost open container is an object.
func (w *StatefulWriter) InObject() bool {
	top := w.stack.PeekRef()
	return top != nil && top.Kind == Object
}

// InArray returns true if the innermost open container is an array.
func (w *StatefulWriter) InArray() bool {
	top := w.stack.PeekRef()
	return top != nil && top.Kind == Array
}

// EOS returns true once nothing more can be written, i.e. when the top-level
// container has been closed or the writer itself has been closed.
func (w *StatefulWriter) EOS() bool {
	return (w.stack.IsEmpty() && w.rootCount > 0) || w.closed
}

// Closed returns true after Close has been called.
func (w *StatefulWriter) Closed() bool {
	return w.closed
}

// Depth returns the number of containers currently open.
func (w *StatefulWriter) Depth() int {
	return w.stack.Size()
}

func (w *StatefulWriter) check() error {
	if w.EOS() {
		return ErrEndOfStream
	}
	return w.printer.Err()
}

func (w *StatefulWriter) writeSeparator(f *Frame) {
	if f.Count > 0 {
		w.printer.PrintToken(token.ItemSeparator)
	}
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
