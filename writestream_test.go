package jsonwritestream

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/arnodel/jsonwritestream/format"
	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"
)

func TestFromStream(t *testing.T) {
	sink := &bufferSink{}
	w, err := FromStream(sink)
	require.NoError(t, err)
	require.NoError(t, w.OpenObject())
	require.NoError(t, w.WriteKeyValue("foo", "bar"))
	require.NoError(t, w.Close())
	assert.Equal(t, `{"foo":"bar"}`, sink.String())
	assert.Equal(t, 1, sink.closed)
}

func TestFromStreamPlainWriter(t *testing.T) {
	var buf bytes.Buffer
	w, err := FromStream(&buf)
	require.NoError(t, err)
	require.NoError(t, w.OpenArray())
	require.NoError(t, w.Close())
	assert.Equal(t, "[]", buf.String())
}

func TestWriteStreamEncoding(t *testing.T) {
	var buf bytes.Buffer
	err := WriteStream(&buf, func(w *Writer) error {
		return w.OpenObject(func(o *ObjectWriter) error {
			return o.WriteKeyValue("foo", "bar")
		})
	}, WithEncoding("utf-16be"))
	require.NoError(t, err)

	assert.NotEqual(t, []byte(`{"foo":"bar"}`), buf.Bytes())
	decoded, err := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder().Bytes(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, `{"foo":"bar"}`, string(decoded))
}

func TestWriteStreamReturnsCallbackError(t *testing.T) {
	sink := &bufferSink{}
	boom := errors.New("boom")
	err := WriteStream(sink, func(w *Writer) error {
		return w.OpenArray(func(a *ArrayWriter) error {
			return boom
		})
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, "[", sink.String())
	assert.Equal(t, 1, sink.closed, "the sink is closed even after a failure")
}

func TestWriteStreamClosesOnPanic(t *testing.T) {
	sink := &bufferSink{}
	assert.Panics(t, func() {
		_ = WriteStream(sink, func(w *Writer) error {
			panic("oops")
		})
	})
	assert.Equal(t, 1, sink.closed)
}

func TestBadOption(t *testing.T) {
	_, err := FromStream(&bytes.Buffer{}, WithEncoding("klingon"))
	require.Error(t, err)
	err = WriteStream(&bytes.Buffer{}, func(*Writer) error { return nil }, WithEncoding("klingon"))
	require.Error(t, err)
}

func TestOpenCompressedByExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.json.gz")
	w, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, w.OpenArray())
	for i := 0; i < 1000; i++ {
		require.NoError(t, w.WriteElement(i))
	}
	require.NoError(t, w.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	zr, err := gzip.NewReader(f)
	require.NoError(t, err)
	data, err := io.ReadAll(zr)
	require.NoError(t, err)

	var expected []any
	for i := 0; i < 1000; i++ {
		expected = append(expected, i)
	}
	assertRoundtrip(t, expected, string(data))
}

func TestOpenExplicitCompression(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.json.gz")
	w, err := Open(path, WithCompression(NoCompression))
	require.NoError(t, err)
	require.NoError(t, w.OpenObject())
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}

func TestOpenMissingDirectory(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "out.json"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")
	value := map[string]any{"foo": []any{"bar", map[string]any{"baz": "moo"}}}
	err := WriteFile(path, func(w *Writer) error { return writeScoped(w, value) })
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assertRoundtrip(t, value, string(data))
}

func TestWithDigest(t *testing.T) {
	var buf bytes.Buffer
	d := format.NewDigest()
	err := WriteStream(&buf, func(w *Writer) error {
		return w.OpenArray(func(a *ArrayWriter) error {
			return a.WriteElement("abc")
		})
	}, WithDigest(d), WithEncoding("utf-16le"))
	require.NoError(t, err)

	// The digest covers the UTF-8 text, not the encoded bytes.
	assert.Equal(t, xxhash.Sum64String(`["abc"]`), d.Sum64())
	assert.Equal(t, int64(7), d.Count())
	assert.Equal(t, 14, buf.Len())
}

func TestWithColorizer(t *testing.T) {
	c := &format.Colorizer{
		KeyColorCode:     []byte("<k>"),
		ScalarColorCodes: [4][]byte{[]byte("<n>"), []byte("<b>"), []byte("<d>"), []byte("<s>")},
		ResetCode:        []byte("</>"),
	}
	var buf bytes.Buffer
	w, err := FromStream(&buf, WithColorizer(c))
	require.NoError(t, err)
	require.NoError(t, w.OpenObject())
	require.NoError(t, w.WriteKeyValue("a", nil))
	require.NoError(t, w.Close())
	assert.Equal(t, `{<k>"a"</>:<n>null</>}`, buf.String())
}

func TestWithLogger(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	w, err := FromStream(&bytes.Buffer{}, WithLogger(logger))
	require.NoError(t, err)
	require.NoError(t, w.OpenArray())
	require.NoError(t, w.CloseArray())
	require.NoError(t, w.Close())

	assert.Contains(t, logs.String(), "json stream complete")
	assert.Contains(t, logs.String(), "json stream closed")
}
