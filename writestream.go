package jsonwritestream

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/arnodel/jsonwritestream/format"
	"github.com/arnodel/jsonwritestream/internal/options"
	"github.com/arnodel/jsonwritestream/internal/sinkfile"
	"golang.org/x/text/encoding"
)

// Compression selects how a stream is compressed.  Open infers it from the
// file name unless WithCompression is given.
type Compression = sinkfile.Compression

const (
	NoCompression = sinkfile.NoCompression
	Gzip          = sinkfile.Gzip
	Zstd          = sinkfile.Zstd
	S2            = sinkfile.S2
	LZ4           = sinkfile.LZ4
)

type config struct {
	encoding       encoding.Encoding
	compression    Compression
	hasCompression bool
	colorizer      *format.Colorizer
	logger         *slog.Logger
	digest         *format.Digest
}

// An Option configures how FromStream, Open, WriteStream and WriteFile set
// up the sink.
type Option = options.Option[*config]

// WithEncoding sets the text encoding of the output, e.g. "utf-16be".  The
// default is UTF-8.  Text that cannot be represented in the encoding makes
// the write fail.
func WithEncoding(name string) Option {
	return options.New(func(c *config) error {
		enc, err := sinkfile.LookupEncoding(name)
		if err != nil {
			return err
		}
		c.encoding = enc
		return nil
	})
}

// WithCompression compresses the output.
func WithCompression(compression Compression) Option {
	return options.NoError(func(c *config) {
		c.compression = compression
		c.hasCompression = true
	})
}

// WithColorizer surrounds keys and scalars with terminal color codes.  The
// output is then meant for display only.
func WithColorizer(colorizer *format.Colorizer) Option {
	return options.NoError(func(c *config) {
		c.colorizer = colorizer
	})
}

// WithLogger sets the logger receiving debug events about the stream.  By
// default nothing is logged.
func WithLogger(logger *slog.Logger) Option {
	return options.NoError(func(c *config) {
		c.logger = logger
	})
}

// WithDigest records the checksum and size of the JSON text in d, before
// any encoding or compression is applied.
func WithDigest(d *format.Digest) Option {
	return options.NoError(func(c *config) {
		c.digest = d
	})
}

func newConfig(opts []Option) (*config, error) {
	c := &config{logger: discardLogger}
	if err := options.Apply(c, opts...); err != nil {
		return nil, err
	}
	if c.logger == nil {
		c.logger = discardLogger
	}
	return c, nil
}

func (c *config) printer(sink format.Sink) *format.Printer {
	if c.digest != nil {
		sink = format.NewDigestSink(sink, c.digest)
	}
	return format.NewPrinter(sink, c.colorizer)
}

func (c *config) wrap(w io.Writer) (format.Sink, error) {
	return sinkfile.Wrap(w, sinkfile.Config{Encoding: c.encoding, Compression: c.compression})
}

func (c *config) create(path string) (format.Sink, error) {
	compression := c.compression
	if !c.hasCompression {
		compression = sinkfile.CompressionFor(path)
	}
	c.logger.Debug("creating json stream file", slog.String("path", path), slog.String("compression", compression.String()))
	return sinkfile.Create(path, sinkfile.Config{Encoding: c.encoding, Compression: compression})
}

// FromStream returns a StatefulWriter writing to w.  Closing the writer
// flushes w if it has a Flush method and closes it if it is an io.Closer.
func FromStream(w io.Writer, opts ...Option) (*StatefulWriter, error) {
	c, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	sink, err := c.wrap(w)
	if err != nil {
		return nil, err
	}
	return newStatefulWriter(c.printer(sink), c.logger), nil
}

// Open creates the file at path and returns a StatefulWriter writing to it.
// The output is compressed according to the file extension (.gz, .zst, .s2,
// .lz4) unless WithCompression is given.
func Open(path string, opts ...Option) (*StatefulWriter, error) {
	c, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	sink, err := c.create(path)
	if err != nil {
		return nil, err
	}
	return newStatefulWriter(c.printer(sink), c.logger), nil
}

// WriteStream calls fn with a Writer writing to w, then closes the writer.
// The error returned by fn takes precedence over errors closing the sink.
func WriteStream(w io.Writer, fn func(*Writer) error, opts ...Option) error {
	c, err := newConfig(opts)
	if err != nil {
		return err
	}
	sink, err := c.wrap(w)
	if err != nil {
		return err
	}
	return runWriter(newWriter(c.printer(sink), c.logger), fn)
}

// WriteFile creates the file at path and calls fn with a Writer writing to
// it, then closes the writer.  Compression follows the same rules as Open.
func WriteFile(path string, fn func(*Writer) error, opts ...Option) error {
	c, err := newConfig(opts)
	if err != nil {
		return err
	}
	sink, err := c.create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	return runWriter(newWriter(c.printer(sink), c.logger), fn)
}

func runWriter(w *Writer, fn func(*Writer) error) (err error) {
	defer func() {
		closeErr := w.Close()
		if err == nil {
			err = errors.Join(w.Err(), closeErr)
		}
	}()
	return fn(w)
}
