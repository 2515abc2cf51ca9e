package token

import "fmt"

// Pos is a position within the conceptual, never-fully-materialized input:
// a character (rune) offset from the start of the stream, plus the 1-based
// line and column derived from it. Unlike an offset into a single buffer,
// Pos survives across feeds because it is tracked cumulatively by the
// Scanner rather than relative to any one chunk.
type Pos struct {
	Offset int // rune offset from the start of input, starting at 0
	Line   int // 1-based line number
	Column int // 1-based column number, in runes
}

// Position is the user-facing rendering of a Pos, used in error values.
type Position = Pos

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// IsValid reports whether p refers to an actual position (as opposed to the
// zero value before any input has been read).
func (p Pos) IsValid() bool {
	return p.Line > 0
}
