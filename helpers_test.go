package jsonwritestream

import (
	"bytes"
	"encoding/json"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bufferSink is an in-memory sink remembering whether it was closed.
type bufferSink struct {
	bytes.Buffer
	closed int
}

func (s *bufferSink) Close() error {
	s.closed++
	return nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// writeStateful writes v with w, recursing into maps and slices.  key is
// nil unless v is an object member.
func writeStateful(t *testing.T, w *StatefulWriter, key []any, v any) {
	t.Helper()
	switch x := v.(type) {
	case map[string]any:
		require.NoError(t, w.OpenObject(key...))
		for _, k := range sortedKeys(x) {
			writeStateful(t, w, []any{k}, x[k])
		}
		require.NoError(t, w.CloseObject())
	case []any:
		require.NoError(t, w.OpenArray(key...))
		for _, e := range x {
			writeStateful(t, w, nil, e)
		}
		require.NoError(t, w.CloseArray())
	default:
		if key != nil {
			require.NoError(t, w.WriteKeyValue(key[0], x))
		} else {
			require.NoError(t, w.WriteElement(x))
		}
	}
}

func writeScopedObject(o *ObjectWriter, m map[string]any) error {
	for _, k := range sortedKeys(m) {
		var err error
		switch x := m[k].(type) {
		case map[string]any:
			err = o.OpenObject(k, func(o *ObjectWriter) error { return writeScopedObject(o, x) })
		case []any:
			err = o.OpenArray(k, func(a *ArrayWriter) error { return writeScopedArray(a, x) })
		default:
			err = o.WriteKeyValue(k, x)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func writeScopedArray(a *ArrayWriter, s []any) error {
	for _, e := range s {
		var err error
		switch x := e.(type) {
		case map[string]any:
			err = a.OpenObject(func(o *ObjectWriter) error { return writeScopedObject(o, x) })
		case []any:
			err = a.OpenArray(func(a *ArrayWriter) error { return writeScopedArray(a, x) })
		default:
			err = a.WriteElement(x)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func writeScoped(w *Writer, v any) error {
	switch x := v.(type) {
	case map[string]any:
		return w.OpenObject(func(o *ObjectWriter) error { return writeScopedObject(o, x) })
	case []any:
		return w.OpenArray(func(a *ArrayWriter) error { return writeScopedArray(a, x) })
	}
	panic("top-level value must be a container")
}

var roundtripTests = []struct {
	name  string
	value any
}{
	{"simple array", []any{"abc"}},
	{"simple object", map[string]any{"foo": "bar"}},
	{"empty array", []any{}},
	{"empty object", map[string]any{}},
	{"array nested first", []any{[]any{"def"}, "abc"}},
	{"array nested last", []any{"abc", []any{"def"}}},
	{"object nesting", map[string]any{"foo": map[string]any{"bar": "baz"}}},
	{"array in object", map[string]any{"foo": []any{"bar", "baz"}}},
	{"object in array", []any{map[string]any{"foo": "bar"}}},
	{"multiple levels", map[string]any{
		"foo": []any{"bar", map[string]any{"baz": "moo", "gaz": []any{"doo"}}, "kal"},
		"jim": []any{"jill", []any{"john"}},
	}},
	{"deep mixed", []any{"foo", map[string]any{"bar": "baz", "moo": []any{"gaz", []any{"jim", []any{"jill"}}, "jam"}}}},
	{"scalars", []any{1.5, -2.0, true, false, nil, "", "tab\there", map[string]any{"n": 0.0, "q": "\"quoted\""}}},
	{"empty containers nested", map[string]any{"a": []any{}, "b": map[string]any{}, "c": []any{[]any{}, map[string]any{}}}},
}

func assertRoundtrip(t *testing.T, expected any, output string) {
	t.Helper()
	require.True(t, json.Valid([]byte(output)), "invalid JSON: %s", output)
	want, err := json.Marshal(expected)
	require.NoError(t, err)
	assert.JSONEq(t, string(want), output)
}
