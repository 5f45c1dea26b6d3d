package token

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
)

// A Token is a piece of JSON text that a writer emits in one go.  Writers
// never buffer structure, so the document
//
//	{"id": 123, "tags": ["important", "new"]}
//
// is produced as the sequence of tokens (in pseudocode for clarity):
//
//	{            -> StartObject
//	"id"         -> Scalar("id", String|Key)
//	:            -> KeyValueSeparator
//	123          -> Scalar(123, Number)
//	,            -> ItemSeparator
//	"tags"       -> Scalar("tags", String|Key)
//	:            -> KeyValueSeparator
//	[            -> StartArray
//	"important"  -> Scalar("important", String)
//	,            -> ItemSeparator
//	"new"        -> Scalar("new", String)
//	]            -> EndArray
//	}            -> EndObject
type Token interface {
	fmt.Stringer
	Text() []byte
}

// A Delim is one of the structural characters of JSON.
type Delim byte

const (
	StartObject       Delim = '{'
	EndObject         Delim = '}'
	StartArray        Delim = '['
	EndArray          Delim = ']'
	ItemSeparator     Delim = ','
	KeyValueSeparator Delim = ':'
)

var delimBytes = [256][]byte{
	'{': []byte("{"),
	'}': []byte("}"),
	'[': []byte("["),
	']': []byte("]"),
	',': []byte(","),
	':': []byte(":"),
}

// Text returns the literal text of the delimiter.
func (d Delim) Text() []byte {
	return delimBytes[d]
}

func (d Delim) String() string {
	switch d {
	case StartObject:
		return "StartObject"
	case EndObject:
		return "EndObject"
	case StartArray:
		return "StartArray"
	case EndArray:
		return "EndArray"
	case ItemSeparator:
		return "ItemSeparator"
	case KeyValueSeparator:
		return "KeyValueSeparator"
	default:
		return fmt.Sprintf("Delim(%q)", byte(d))
	}
}

var _ Token = StartObject

// Scalar is the type used to represent all scalar JSON values, i.e.
// - strings
// - numbers
// - booleans (to values)
// - null (a single value)
//
// The type is encoded in the TypeAndFlags field, while the Bytes fields
// contains the exact JSON text for the value.
type Scalar struct {

	// Literal representation of the value, e.g.
	// - the string "foo" is represented as []byte("\"foo\"")
	// - the number 123.5 is represented as []byte("123.5")
	// - the boolean true is represented as []byte("true")
	Bytes []byte

	// Type of the value
	TypeAndFlags uint8
}

var _ Token = &Scalar{}

func NewScalar(tp ScalarType, bytes []byte) *Scalar {
	return &Scalar{
		Bytes:        bytes,
		TypeAndFlags: uint8(tp),
	}
}

func NewKey(bytes []byte) *Scalar {
	return &Scalar{
		Bytes:        bytes,
		TypeAndFlags: uint8(String) | KeyMask,
	}
}

func (s *Scalar) Type() ScalarType {
	return (ScalarType(s.TypeAndFlags & TypeMask))
}

func (s *Scalar) IsKey() bool {
	return KeyMask&s.TypeAndFlags != 0
}

// Text returns the JSON text of the scalar.
func (s *Scalar) Text() []byte {
	return s.Bytes
}

func (s *Scalar) String() string {
	return fmt.Sprintf("Scalar(%s)", s.Bytes)
}

// ScalarType encodes the four possible JSON scalar types.
type ScalarType uint8

const (
	Null    ScalarType = 0x0 // the type of JSON null
	Boolean ScalarType = 0x1 // a JSON boolean
	Number  ScalarType = 0x2 // a JSON number
	String  ScalarType = 0x3 // a JSON string
)

const (
	TypeMask = 0b00011
	KeyMask  = 0b00100
)

var (
	// ErrUnsupported is returned when a value has no JSON scalar encoding.
	ErrUnsupported = errors.New("unsupported value")

	// ErrInvalidKey is returned when a value cannot be used as an object key.
	ErrInvalidKey = errors.New("invalid key")
)

var (
	trueBytes  = []byte("true")
	falseBytes = []byte("false")
	nullBytes  = []byte("null")
)

var (
	TrueScalar  = NewScalar(Boolean, trueBytes)
	FalseScalar = NewScalar(Boolean, falseBytes)
	NullScalar  = NewScalar(Null, nullBytes)
)

// StringScalar returns the JSON string literal for s.  Invalid UTF-8 is
// replaced with U+FFFD and HTML characters are left as they are.
func StringScalar(s string) *Scalar {
	return NewScalar(String, quote(s))
}

func quote(s string) []byte {
	var b bytes.Buffer
	encoder := json.NewEncoder(&b)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(s); err != nil {
		// Encoding a string cannot fail
		panic(err)
	}
	var encodedBytes = b.Bytes()
	// Remove the new line at the end
	return encodedBytes[:len(encodedBytes)-1]
}

// Float64Scalar returns the shortest JSON number that reads back as x.  It
// returns an error for NaN and infinities.
func Float64Scalar(x float64) (*Scalar, error) {
	return floatScalar(x, 64)
}

func floatScalar(x float64, bits int) (*Scalar, error) {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, strconv.FormatFloat(x, 'g', -1, bits))
	}
	// Same choice of notation as ECMAScript, which most JSON consumers use.
	abs := math.Abs(x)
	format := byte('f')
	if abs != 0 {
		if bits == 64 && (abs < 1e-6 || abs >= 1e21) || bits == 32 && (float32(abs) < 1e-6 || float32(abs) >= 1e21) {
			format = 'e'
		}
	}
	b := strconv.AppendFloat(nil, x, format, -1, bits)
	if format == 'e' {
		// clean up e-09 to e-9
		n := len(b)
		if n >= 4 && b[n-4] == 'e' && b[n-3] == '-' && b[n-2] == '0' {
			b[n-2] = b[n-1]
			b = b[:n-1]
		}
	}
	return NewScalar(Number, b), nil
}

func Int64Scalar(n int64) *Scalar {
	return NewScalar(Number, strconv.AppendInt(nil, n, 10))
}

func Uint64Scalar(n uint64) *Scalar {
	return NewScalar(Number, strconv.AppendUint(nil, n, 10))
}

func BoolScalar(b bool) *Scalar {
	if b {
		return TrueScalar
	}
	return FalseScalar
}

// NumberScalar checks that n is a valid JSON number and returns it as a
// Scalar.
func NumberScalar(n json.Number) (*Scalar, error) {
	s := string(n)
	if s == "" || !(s[0] == '-' || s[0] >= '0' && s[0] <= '9') || !json.Valid([]byte(s)) {
		return nil, fmt.Errorf("%w: invalid number literal %q", ErrUnsupported, s)
	}
	return NewScalar(Number, []byte(s)), nil
}

// ToScalar returns the JSON text for a Go scalar value.  Composite values
// (maps, slices, structs, pointers...) are rejected with ErrUnsupported, so
// callers have to build containers explicitly.
func ToScalar(value any) (*Scalar, error) {
	if value == nil {
		return NullScalar, nil
	}
	switch x := value.(type) {
	case *Scalar:
		if x == nil {
			return NullScalar, nil
		}
		return x, nil
	case string:
		return StringScalar(x), nil
	case bool:
		return BoolScalar(x), nil
	case json.Number:
		return NumberScalar(x)
	case float64:
		return Float64Scalar(x)
	case float32:
		return floatScalar(float64(x), 32)
	case int:
		return Int64Scalar(int64(x)), nil
	case int8:
		return Int64Scalar(int64(x)), nil
	case int16:
		return Int64Scalar(int64(x)), nil
	case int32:
		return Int64Scalar(int64(x)), nil
	case int64:
		return Int64Scalar(x), nil
	case uint:
		return Uint64Scalar(uint64(x)), nil
	case uint8:
		return Uint64Scalar(uint64(x)), nil
	case uint16:
		return Uint64Scalar(uint64(x)), nil
	case uint32:
		return Uint64Scalar(uint64(x)), nil
	case uint64:
		return Uint64Scalar(x), nil
	case uintptr:
		return Uint64Scalar(uint64(x)), nil
	default:
		return nil, fmt.Errorf("%w: %s is not a scalar type", ErrUnsupported, typeName(value))
	}
}

// KeyScalar returns the JSON text for an object key.  When coerce is false
// the key must be a string.  When coerce is true scalar keys and
// fmt.Stringer values are converted to their textual form first, so 123
// becomes "123".
func KeyScalar(key any, coerce bool) (*Scalar, error) {
	if s, ok := key.(string); ok {
		return NewKey(quote(s)), nil
	}
	if !coerce {
		return nil, fmt.Errorf("%w: key must be a string, got %s", ErrInvalidKey, typeName(key))
	}
	scalar, err := ToScalar(key)
	if err != nil {
		if str, ok := key.(fmt.Stringer); ok {
			return NewKey(quote(str.String())), nil
		}
		return nil, fmt.Errorf("%w: %s cannot be used as a key", ErrInvalidKey, typeName(key))
	}
	if scalar.Type() == String {
		return NewKey(scalar.Bytes), nil
	}
	return NewKey(quote(string(scalar.Bytes))), nil
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	return reflect.TypeOf(v).String()
}
