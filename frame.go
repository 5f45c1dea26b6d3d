package jsonwritestream

import "github.com/arnodel/jsonwritestream/token"

// Kind tells whether a container is an object or an array.
type Kind uint8

const (
	Object Kind = iota + 1
	Array
)

func (k Kind) String() string {
	switch k {
	case Object:
		return "object"
	case Array:
		return "array"
	default:
		return "invalid"
	}
}

func (k Kind) openToken() token.Delim {
	if k == Object {
		return token.StartObject
	}
	return token.StartArray
}

func (k Kind) closeToken() token.Delim {
	if k == Object {
		return token.EndObject
	}
	return token.EndArray
}

func (k Kind) notInError() error {
	if k == Object {
		return ErrNotInObject
	}
	return ErrNotInArray
}

// A Frame records one open container.  Count is the number of members or
// elements written directly inside it, a separator is needed before the next
// one when it is positive.
type Frame struct {
	Kind  Kind
	Count int
}
