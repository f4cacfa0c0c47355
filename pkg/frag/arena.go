package frag

import (
	"strconv"
	"strings"
	"sync"

	"github.com/leapstack-labs/sequent/pkg/grammar"
)

// Arena is the append-only fragment store. Interning is structural: two
// fragments with identical category, head and children collapse to one
// handle, so fragment equality is handle equality.
//
// Entries are never mutated or removed, so handles stay valid for the
// arena's whole life. Appends are guarded by a mutex; concurrent proof
// verification interns instantiated fragments into the shared arena.
type Arena struct {
	mu    sync.RWMutex
	frags []Fragment
	index map[fragKey]FragmentID
}

type fragKey struct {
	cat      int32
	head     Head
	children string
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{index: make(map[fragKey]FragmentID)}
}

func makeKey(f *Fragment) fragKey {
	var sb strings.Builder
	for _, c := range f.Children {
		sb.WriteString(strconv.Itoa(int(c)))
		sb.WriteByte(',')
	}
	return fragKey{cat: int32(f.Cat), head: f.Head, children: sb.String()}
}

// Intern returns the handle of the fragment with the given shape, creating
// it if the arena has not seen the shape before. Construction fails with a
// MalformedError if the shape violates a structural invariant.
func (a *Arena) Intern(cat grammar.CategoryID, head Head, children []FragmentID) (FragmentID, error) {
	return a.intern(Fragment{Cat: cat, Head: head, Children: children})
}

func (a *Arena) intern(f Fragment) (FragmentID, error) {
	switch f.Head.Kind {
	case HeadVar, HeadHole:
		if len(f.Children) != 0 {
			return 0, &MalformedError{Reason: "variable and hole fragments take no children"}
		}
	}
	if f.Head.Kind == HeadVar && f.Head.Index < 0 {
		return 0, &MalformedError{Reason: "negative de Bruijn index"}
	}

	f.hasHole = f.Head.Kind == HeadHole
	f.hasTemplate = f.Head.Kind == HeadTemplateRef
	childUnclosed := 0
	for _, c := range f.Children {
		child := a.Get(c)
		f.hasHole = f.hasHole || child.hasHole
		f.hasTemplate = f.hasTemplate || child.hasTemplate
		if child.unclosed > childUnclosed {
			childUnclosed = child.unclosed
		}
	}
	switch f.Head.Kind {
	case HeadRule:
		f.unclosed = childUnclosed - f.Head.BindingsAdded
		if f.unclosed < 0 {
			f.unclosed = 0
		}
	case HeadVar:
		f.unclosed = f.Head.Index + 1
	default:
		f.unclosed = childUnclosed
	}

	key := makeKey(&f)
	a.mu.Lock()
	defer a.mu.Unlock()
	if id, ok := a.index[key]; ok {
		return id, nil
	}
	id := FragmentID(len(a.frags))
	a.frags = append(a.frags, f)
	a.index[key] = id
	return id, nil
}

// Get returns the fragment behind a handle. The returned pointer must be
// treated as read-only; entries are immutable once interned, so the
// pointer stays valid across later appends.
func (a *Arena) Get(id FragmentID) *Fragment {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return &a.frags[id]
}

// Size returns the number of distinct fragments in the arena.
func (a *Arena) Size() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.frags)
}
