package jsonwritestream

import (
	"fmt"
	"log/slog"

	"github.com/arnodel/jsonwritestream/format"
	"github.com/arnodel/jsonwritestream/token"
)

// A Writer is the top level of a scoped JSON stream.  Containers are
// written by passing a callback which receives a writer for the new
// container; the closing token is written when the callback returns nil.
//
//	err := w.OpenObject(func(obj *ObjectWriter) error {
//		if err := obj.WriteKeyValue("foo", "bar"); err != nil {
//			return err
//		}
//		return obj.OpenArray("tags", func(arr *ArrayWriter) error {
//			return arr.WriteElement(1)
//		})
//	})
//
// writes {"foo":"bar","tags":[1]}.
//
// If a callback returns an error or panics, the container it was writing is
// left unclosed and the whole stream is abandoned: every later operation on
// any writer of the stream fails with an error wrapping ErrPoisoned and the
// callback's error.  Close must still be called to release the sink.
//
// A Writer accepts a single top-level value and is not safe for concurrent
// use.
type Writer struct {
	scope
	closed bool
}

// ObjectWriter writes the members of one object.  It is only valid for the
// duration of the callback it is passed to.
type ObjectWriter struct {
	scope
}

// ArrayWriter writes the elements of one array.  It is only valid for the
// duration of the callback it is passed to.
type ArrayWriter struct {
	scope
}

// NewWriter returns a Writer emitting JSON to sink.
func NewWriter(sink format.Sink) *Writer {
	return newWriter(format.NewPrinter(sink, nil), discardLogger)
}

func newWriter(printer *format.Printer, logger *slog.Logger) *Writer {
	w := &Writer{}
	w.scope.session = &session{printer: printer, logger: logger}
	return w
}

// OpenObject writes the top-level object, calling fn to write its members.
func (w *Writer) OpenObject(fn func(*ObjectWriter) error, seps ...Separators) error {
	if err := w.checkRoot(); err != nil {
		return err
	}
	w.prep(pickSeparators(seps), nil)
	return w.openObject(fn)
}

// OpenArray writes the top-level array, calling fn to write its elements.
func (w *Writer) OpenArray(fn func(*ArrayWriter) error, seps ...Separators) error {
	if err := w.checkRoot(); err != nil {
		return err
	}
	w.prep(pickSeparators(seps), nil)
	return w.openArray(fn)
}

func (w *Writer) checkRoot() error {
	if w.closed || w.count > 0 {
		return ErrEndOfStream
	}
	return w.check()
}

// Close closes the sink.  It does not check that anything was written.
// Calling Close again returns ErrEndOfStream.
func (w *Writer) Close() error {
	if w.closed {
		return ErrEndOfStream
	}
	if w.busy {
		return ErrWriterBusy
	}
	w.closed = true
	w.logger.Debug("json stream closed", slog.Bool("complete", w.count > 0 && w.printer.Err() == nil))
	return w.printer.Close()
}

// Err returns the error that stopped the stream, if any.  It is either a
// *format.SinkError or an error wrapping ErrPoisoned.
func (w *Writer) Err() error {
	return w.printer.Err()
}

// OpenObject writes a member of the current object whose value is an object,
// calling fn to write its members.  Non-string keys are converted to their
// textual form.
func (o *ObjectWriter) OpenObject(key any, fn func(*ObjectWriter) error, seps ...Separators) error {
	k, err := o.member(key)
	if err != nil {
		return err
	}
	o.prep(pickSeparators(seps), k)
	return o.openObject(fn)
}

// OpenArray writes a member of the current object whose value is an array,
// calling fn to write its elements.
func (o *ObjectWriter) OpenArray(key any, fn func(*ArrayWriter) error, seps ...Separators) error {
	k, err := o.member(key)
	if err != nil {
		return err
	}
	o.prep(pickSeparators(seps), k)
	return o.openArray(fn)
}

// WriteKeyValue writes a member with a scalar value.
func (o *ObjectWriter) WriteKeyValue(key, value any, seps ...Separators) error {
	k, err := o.member(key)
	if err != nil {
		return err
	}
	v, err := token.ToScalar(value)
	if err != nil {
		return err
	}
	o.prep(pickSeparators(seps), k)
	o.printer.PrintToken(v)
	o.count++
	return o.printer.Err()
}

func (o *ObjectWriter) member(key any) (*token.Scalar, error) {
	if err := o.check(); err != nil {
		return nil, err
	}
	return token.KeyScalar(key, true)
}

// OpenObject writes an element of the current array which is an object,
// calling fn to write its members.
func (a *ArrayWriter) OpenObject(fn func(*ObjectWriter) error, seps ...Separators) error {
	if err := a.check(); err != nil {
		return err
	}
	a.prep(pickSeparators(seps), nil)
	return a.openObject(fn)
}

// OpenArray writes an element of the current array which is an array,
// calling fn to write its elements.
func (a *ArrayWriter) OpenArray(fn func(*ArrayWriter) error, seps ...Separators) error {
	if err := a.check(); err != nil {
		return err
	}
	a.prep(pickSeparators(seps), nil)
	return a.openArray(fn)
}

// WriteElement writes a scalar element.
func (a *ArrayWriter) WriteElement(value any, seps ...Separators) error {
	if err := a.check(); err != nil {
		return err
	}
	v, err := token.ToScalar(value)
	if err != nil {
		return err
	}
	a.prep(pickSeparators(seps), nil)
	a.printer.PrintToken(v)
	a.count++
	return a.printer.Err()
}

// session is shared by all the writers of one document.
type session struct {
	printer *format.Printer
	logger  *slog.Logger
	depth   int
}

// poison stops the stream after a callback failed.  Only the first failure
// is kept.
func (s *session) poison(cause error) {
	s.printer.Fail(fmt.Errorf("%w: %w", ErrPoisoned, cause))
}

// scope is the state of one writer: its position in the document and the
// number of values it has written.
type scope struct {
	*session
	count   int
	busy    bool // a nested writer is open
	expired bool // the callback owning this writer has returned
}

func (sc *scope) check() error {
	switch {
	case sc.expired:
		return ErrWriterExpired
	case sc.busy:
		return ErrWriterBusy
	}
	return sc.printer.Err()
}

// prep writes what comes before a value: the separator from the previous
// value, the Before string and, for object members, the key.
func (sc *scope) prep(seps Separators, key *token.Scalar) {
	if sc.count > 0 {
		sc.printer.PrintToken(token.ItemSeparator)
	}
	sc.printer.PrintString(seps.Before)
	if key != nil {
		sc.printer.PrintToken(key)
		sc.printer.PrintToken(token.KeyValueSeparator)
		sc.printer.PrintString(seps.Between)
	}
}

func (sc *scope) openObject(fn func(*ObjectWriter) error) error {
	child := &ObjectWriter{scope: scope{session: sc.session}}
	return sc.nest(Object, &child.scope, func() error { return fn(child) })
}

func (sc *scope) openArray(fn func(*ArrayWriter) error) error {
	child := &ArrayWriter{scope: scope{session: sc.session}}
	return sc.nest(Array, &child.scope, func() error { return fn(child) })
}

// nest writes a container whose content is produced by body through child.
// The closing token is only written if body returns nil without poisoning
// the stream.
func (sc *scope) nest(kind Kind, child *scope, body func() error) error {
	sc.printer.PrintToken(kind.openToken())
	if err := sc.printer.Err(); err != nil {
		child.expired = true
		return err
	}
	sc.busy = true
	sc.depth++
	returned := false
	defer func() {
		sc.busy = false
		sc.depth--
		child.expired = true
		if !returned {
			sc.poison(fmt.Errorf("panic while writing %s", kind))
		}
	}()
	err := body()
	returned = true
	if err != nil {
		sc.poison(err)
		sc.logger.Debug("json stream abandoned", slog.String("kind", kind.String()), slog.Int("depth", sc.depth), slog.Any("error", err))
		return err
	}
	if err := sc.printer.Err(); err != nil {
		return err
	}
	sc.printer.PrintToken(kind.closeToken())
	if err := sc.printer.Err(); err != nil {
		return err
	}
	sc.count++
	if sc.depth == 1 {
		sc.logger.Debug("json stream complete", slog.String("kind", kind.String()))
	}
	return nil
}
