package frag

import (
	"sync"
	"testing"

	"github.com/leapstack-labs/sequent/pkg/grammar"
)

func TestIntern_StructuralSharing(t *testing.T) {
	a := NewArena()
	cat := grammar.CategoryID(0)

	x1, err := a.Intern(cat, VarHead(cat, 0), nil)
	if err != nil {
		t.Fatal(err)
	}
	x2, err := a.Intern(cat, VarHead(cat, 0), nil)
	if err != nil {
		t.Fatal(err)
	}
	if x1 != x2 {
		t.Errorf("equal shapes got distinct handles: %d vs %d", x1, x2)
	}

	y, err := a.Intern(cat, VarHead(cat, 1), nil)
	if err != nil {
		t.Fatal(err)
	}
	if y == x1 {
		t.Error("distinct shapes share a handle")
	}
	if a.Size() != 2 {
		t.Errorf("arena size = %d, want 2", a.Size())
	}
}

func TestIntern_CompositeSharing(t *testing.T) {
	a := NewArena()
	cat := grammar.CategoryID(0)
	rule := grammar.RuleID(7)

	x, _ := a.Intern(cat, VarHead(cat, 0), nil)
	p1, err := a.Intern(cat, RuleHead(rule, 0), []FragmentID{x, x})
	if err != nil {
		t.Fatal(err)
	}
	p2, err := a.Intern(cat, RuleHead(rule, 0), []FragmentID{x, x})
	if err != nil {
		t.Fatal(err)
	}
	if p1 != p2 {
		t.Error("composite fragments with equal children should share a handle")
	}
}

func TestIntern_DerivedProperties(t *testing.T) {
	a := NewArena()
	cat := grammar.CategoryID(0)
	rule := grammar.RuleID(1)

	hole, _ := a.Intern(cat, HoleHead(0), nil)
	if !a.Get(hole).HasHole() {
		t.Error("hole fragment should report HasHole")
	}

	v, _ := a.Intern(cat, VarHead(cat, 2), nil)
	if got := a.Get(v).Unclosed(); got != 3 {
		t.Errorf("var #2 unclosed = %d, want 3", got)
	}

	tref, _ := a.Intern(cat, TemplateRefHead(0), nil)
	if !a.Get(tref).HasTemplate() {
		t.Error("template ref should report HasTemplate")
	}

	// A rule closing one binder level absorbs one level of openness.
	v0, _ := a.Intern(cat, VarHead(cat, 0), nil)
	lam, _ := a.Intern(cat, RuleHead(rule, 1), []FragmentID{v0})
	if got := a.Get(lam).Unclosed(); got != 0 {
		t.Errorf("binder body var #0 should be closed, unclosed = %d", got)
	}

	mixed, _ := a.Intern(cat, RuleHead(rule, 1), []FragmentID{hole})
	if !a.Get(mixed).HasHole() {
		t.Error("hole flag should propagate through parents")
	}
}

func TestIntern_Malformed(t *testing.T) {
	a := NewArena()
	cat := grammar.CategoryID(0)
	x, _ := a.Intern(cat, VarHead(cat, 0), nil)

	if _, err := a.Intern(cat, VarHead(cat, 0), []FragmentID{x}); err == nil {
		t.Error("variable with children should be rejected")
	}
	if _, err := a.Intern(cat, HoleHead(0), []FragmentID{x}); err == nil {
		t.Error("hole with children should be rejected")
	}
	if _, err := a.Intern(cat, VarHead(cat, -1), nil); err == nil {
		t.Error("negative de Bruijn index should be rejected")
	}
}

// Parallel proof verification interns into one shared arena.
func TestIntern_Concurrent(t *testing.T) {
	a := NewArena()
	cat := grammar.CategoryID(0)

	var wg sync.WaitGroup
	ids := make([]FragmentID, 8)
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			var last FragmentID
			for i := 0; i < 100; i++ {
				id, err := a.Intern(cat, VarHead(cat, i%10), nil)
				if err != nil {
					t.Error(err)
					return
				}
				last = id
			}
			ids[w] = last
		}(w)
	}
	wg.Wait()

	if a.Size() != 10 {
		t.Errorf("arena size = %d, want 10 distinct fragments", a.Size())
	}
	for w := 1; w < 8; w++ {
		if ids[w] != ids[0] {
			t.Errorf("worker %d interned a different handle for the same shape", w)
		}
	}
}
