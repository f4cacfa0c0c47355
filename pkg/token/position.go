package token

import "fmt"

// Position describes a location in a source unit.
type Position struct {
	File   string // source unit name, "" for synthetic input
	Line   int    // 1-based line number
	Column int    // 1-based column number
	Offset int    // 0-based byte offset
}

func (p Position) String() string {
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// Before reports whether p is strictly before other in the same unit.
func (p Position) Before(other Position) bool {
	return p.Offset < other.Offset
}

// Span is a half-open source range [Start, End).
type Span struct {
	Start Position
	End   Position
}

func (s Span) String() string {
	return s.Start.String()
}

// Union returns the smallest span covering both s and other.
func (s Span) Union(other Span) Span {
	out := s
	if other.Start.Before(out.Start) {
		out.Start = other.Start
	}
	if out.End.Before(other.End) {
		out.End = other.End
	}
	return out
}
