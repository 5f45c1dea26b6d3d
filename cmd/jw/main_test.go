package main

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		stdin  string
		colors bool
	}{
		{name: "object", args: []string{"name=jw", "version=1", "stable=true"}},
		{name: "array_lines", args: []string{"-a", "-lines"}, stdin: "1\n2\n3\n"},
		{name: "object_lines", args: []string{"-lines", "a=1"}, stdin: "b=x\n\nc=null\n"},
		{name: "pretty", args: []string{"-pretty", "a=1", "b=x"}},
		{name: "strings", args: []string{"-s", "a=1", "b=true"}},
		{name: "separators", args: []string{"-before", `\n\t`, "-between", " ", "a=1", "b=2"}},
		{name: "empty_object"},
		{name: "empty_array", args: []string{"-a"}},
		{name: "colors", args: []string{"a=1", "b=x"}, colors: true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg, err := Parse(test.args, &bytes.Buffer{})
			require.NoError(t, err)

			var stdout, stderr bytes.Buffer
			err = run(cfg, strings.NewReader(test.stdin), &stdout, &stderr, test.colors)
			require.NoError(t, err)
			assert.Empty(t, stderr.String())

			g := goldie.New(t)
			g.Assert(t, test.name, stdout.Bytes())
		})
	}
}

func TestRunValidJSON(t *testing.T) {
	cfg, err := Parse([]string{"-pretty", "-lines", "n=-1.5e3", "s=hello world", `q=say "hi"`}, &bytes.Buffer{})
	require.NoError(t, err)

	var stdout bytes.Buffer
	err = run(cfg, strings.NewReader("x=[1,2]\n"), &stdout, &bytes.Buffer{}, false)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &got))
	assert.Equal(t, map[string]any{
		"n": -1500.0,
		"s": "hello world",
		"q": `say "hi"`,
		"x": "[1,2]",
	}, got)
}

func TestRunInvalidLine(t *testing.T) {
	cfg, err := Parse([]string{"-lines", "a=1"}, &bytes.Buffer{})
	require.NoError(t, err)

	var stdout bytes.Buffer
	err = run(cfg, strings.NewReader("oops\n"), &stdout, &bytes.Buffer{}, false)
	require.ErrorIs(t, err, ErrInvalidMember)
	// The object is abandoned, so there is no closing brace.
	assert.Equal(t, `{"a":1`, stdout.String())
}

func TestRunOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json.gz")
	cfg, err := Parse([]string{"-o", path, "-a", "1", "two"}, &bytes.Buffer{})
	require.NoError(t, err)

	var stdout bytes.Buffer
	require.NoError(t, run(cfg, strings.NewReader(""), &stdout, &bytes.Buffer{}, false))
	assert.Empty(t, stdout.String())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	r, err := gzip.NewReader(f)
	require.NoError(t, err)
	var buf bytes.Buffer
	_, err = buf.ReadFrom(r)
	require.NoError(t, err)
	assert.Equal(t, `[1,"two"]`, buf.String())
}

func TestRunDigest(t *testing.T) {
	cfg, err := Parse([]string{"-digest", "-a", "1"}, &bytes.Buffer{})
	require.NoError(t, err)

	var stdout, stderr bytes.Buffer
	require.NoError(t, run(cfg, strings.NewReader(""), &stdout, &stderr, false))
	assert.Equal(t, "[1]\n", stdout.String())
	assert.Regexp(t, `^xxh64:[0-9a-f]{16} bytes:3\n$`, stderr.String())
}

func TestRunVerbose(t *testing.T) {
	cfg, err := Parse([]string{"-v", "a=1"}, &bytes.Buffer{})
	require.NoError(t, err)

	var stdout, stderr bytes.Buffer
	require.NoError(t, run(cfg, strings.NewReader(""), &stdout, &stderr, false))
	assert.Contains(t, stderr.String(), "json stream complete")
	assert.Contains(t, stderr.String(), "json stream closed")
}

func TestRunEncoding(t *testing.T) {
	cfg, err := Parse([]string{"-encoding", "utf-16be", "-a", "1"}, &bytes.Buffer{})
	require.NoError(t, err)

	var stdout bytes.Buffer
	require.NoError(t, run(cfg, strings.NewReader(""), &stdout, &bytes.Buffer{}, false))
	assert.Equal(t, []byte{0, '[', 0, '1', 0, ']', '\n'}, stdout.Bytes())
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in          string
		forceString bool
		expected    any
	}{
		{in: "true", expected: true},
		{in: "false", expected: false},
		{in: "null", expected: nil},
		{in: "12", expected: json.Number("12")},
		{in: "-0.5e10", expected: json.Number("-0.5e10")},
		{in: "12abc", expected: "12abc"},
		{in: "01", expected: "01"},
		{in: "", expected: ""},
		{in: "hello", expected: "hello"},
		{in: "[1]", expected: "[1]"},
		{in: "12", forceString: true, expected: "12"},
		{in: "true", forceString: true, expected: "true"},
	}
	for _, test := range tests {
		t.Run(test.in, func(t *testing.T) {
			assert.Equal(t, test.expected, parseValue(test.in, test.forceString))
		})
	}
}
