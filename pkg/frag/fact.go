package frag

import (
	"strconv"
	"strings"
)

// Fact is a judgment: an ordered stack of assumption fragments entailing
// one conclusion fragment. The empty-assumption fact asserts the
// conclusion outright.
type Fact struct {
	Assumptions []FragmentID
	Conclusion  FragmentID
}

// BareFact returns a fact with no assumptions.
func BareFact(conclusion FragmentID) Fact {
	return Fact{Conclusion: conclusion}
}

// Under returns the fact extended with one more (innermost) assumption.
func (f Fact) Under(assumption FragmentID) Fact {
	as := make([]FragmentID, 0, len(f.Assumptions)+1)
	as = append(as, f.Assumptions...)
	as = append(as, assumption)
	return Fact{Assumptions: as, Conclusion: f.Conclusion}
}

// Key returns a canonical comparable form of the fact. Because fragments
// are interned, key equality is fact equality.
func (f Fact) Key() string {
	var sb strings.Builder
	for _, a := range f.Assumptions {
		sb.WriteString(strconv.Itoa(int(a)))
		sb.WriteByte('>')
	}
	sb.WriteString(strconv.Itoa(int(f.Conclusion)))
	return sb.String()
}
