// Package sinkfile acquires the sinks JSON streams are written to: files or
// arbitrary writers, optionally compressed and transcoded from UTF-8.
package sinkfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/arnodel/jsonwritestream/format"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// Compression selects how the text is compressed before it reaches the
// underlying writer.
type Compression uint8

const (
	NoCompression Compression = iota
	Gzip
	Zstd
	S2
	LZ4
)

var compressionNames = [...]string{
	NoCompression: "none",
	Gzip:          "gzip",
	Zstd:          "zstd",
	S2:            "s2",
	LZ4:           "lz4",
}

func (c Compression) String() string {
	if int(c) < len(compressionNames) {
		return compressionNames[c]
	}
	return fmt.Sprintf("Compression(%d)", c)
}

// ParseCompression returns the compression with the given name, as returned
// by Compression.String.
func ParseCompression(name string) (Compression, error) {
	for c, n := range compressionNames {
		if strings.EqualFold(n, name) {
			return Compression(c), nil
		}
	}
	return NoCompression, fmt.Errorf("unknown compression %q", name)
}

// CompressionFor guesses the compression from a file name extension.
func CompressionFor(path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz", ".gzip":
		return Gzip
	case ".zst", ".zstd":
		return Zstd
	case ".s2":
		return S2
	case ".lz4":
		return LZ4
	default:
		return NoCompression
	}
}

// LookupEncoding finds a text encoding by its WHATWG name or label.  UTF-8
// returns a nil encoding, as writers already produce UTF-8.
func LookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(name) {
	case "", "utf-8", "utf8":
		return nil, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	return enc, nil
}

// Config describes how the text is turned into bytes.
type Config struct {
	Encoding    encoding.Encoding
	Compression Compression
}

// Create creates (or truncates) the file at path and returns a sink writing
// to it.  Closing the sink closes the file.
func Create(path string, cfg Config) (format.Sink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	sink, err := Wrap(f, cfg)
	if err != nil {
		return nil, errors.Join(err, f.Close())
	}
	return sink, nil
}

// Wrap returns a sink writing to w.  Closing the sink flushes the encoder
// and the compressor, then flushes w if it has a Flush method and closes it
// if it is an io.Closer.
func Wrap(w io.Writer, cfg Config) (format.Sink, error) {
	sink := &chainSink{}
	// Flushes and closes w when it supports it.
	base := format.NewSink(w)
	sink.push(base, base)
	switch cfg.Compression {
	case NoCompression:
	case Gzip:
		zw := gzip.NewWriter(sink.Writer)
		sink.push(zw, zw)
	case Zstd:
		zw, err := zstd.NewWriter(sink.Writer)
		if err != nil {
			return nil, err
		}
		sink.push(zw, zw)
	case S2:
		zw := s2.NewWriter(sink.Writer)
		sink.push(zw, zw)
	case LZ4:
		zw := lz4.NewWriter(sink.Writer)
		sink.push(zw, zw)
	default:
		return nil, fmt.Errorf("unsupported compression %s", cfg.Compression)
	}
	if cfg.Encoding != nil {
		ew := cfg.Encoding.NewEncoder().Writer(sink.Writer)
		// The transforming writer holds back incomplete input until closed.
		if c, ok := ew.(io.Closer); ok {
			sink.push(ew, c)
		} else {
			sink.Writer = ew
		}
	}
	return sink, nil
}

// chainSink writes to the outermost of a chain of writers, each one feeding
// the next.  Closers are closed outermost first.
type chainSink struct {
	io.Writer
	closers []io.Closer
	closed  bool
}

var _ format.Sink = &chainSink{}

func (s *chainSink) push(w io.Writer, c io.Closer) {
	s.Writer = w
	s.closers = append(s.closers, c)
}

func (s *chainSink) Close() error {
	if s.closed {
		return os.ErrClosed
	}
	s.closed = true
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
