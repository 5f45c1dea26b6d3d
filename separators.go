package jsonwritestream

// Separators lets scoped writers insert whitespace in the output.  Before is
// written in front of a member or element (after the comma separating it
// from the previous one), Between is written after the colon following a
// key.  Both default to "", which gives compact JSON.
//
// It is up to the caller to only use JSON whitespace in them.
type Separators struct {
	Before  string
	Between string
}

// Indented returns separators putting each member of a container at the
// given nesting depth on its own line, indented by two spaces per level.
func Indented(depth int) Separators {
	before := make([]byte, 1, 1+2*depth)
	before[0] = '\n'
	for i := 0; i < depth; i++ {
		before = append(before, ' ', ' ')
	}
	return Separators{Before: string(before), Between: " "}
}

func pickSeparators(seps []Separators) Separators {
	if len(seps) == 0 {
		return Separators{}
	}
	return seps[0]
}
