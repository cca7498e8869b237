package deptree

import (
	"errors"
	"testing"
)

func TestSpanOverlaps(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Span
		expected bool
	}{
		{"disjoint", Span{0, 5}, Span{5, 10}, false},
		{"touching is disjoint", Span{0, 5}, Span{5, 6}, false},
		{"overlapping", Span{0, 6}, Span{5, 10}, true},
		{"contained", Span{2, 4}, Span{0, 10}, true},
		{"identical", Span{3, 7}, Span{3, 7}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Overlaps(tt.b); got != tt.expected {
				t.Errorf("Overlaps() = %v, want %v", got, tt.expected)
			}
			if got := tt.b.Overlaps(tt.a); got != tt.expected {
				t.Errorf("Overlaps() not symmetric: = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestSpanMerge(t *testing.T) {
	got := Span{5, 10}.Merge(Span{0, 3})
	if got != (Span{0, 10}) {
		t.Errorf("Merge() = %v, want [0,10)", got)
	}
}

func TestFromUnitsSortsByStart(t *testing.T) {
	units := []Unit{
		{Span: Span{Start: 20, End: 30}},
		{Span: Span{Start: 0, End: 10}},
		{Span: Span{Start: 10, End: 20}},
	}
	tr := FromUnits(units)

	if tr.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", tr.Len())
	}
	for i := 1; i < tr.Len(); i++ {
		if tr.EDUs[i].Num != i {
			t.Errorf("EDUs[%d].Num = %d, want %d", i, tr.EDUs[i].Num, i)
		}
	}
	if tr.EDUs[1].Span.Start != 0 || tr.EDUs[3].Span.Start != 20 {
		t.Errorf("units not sorted by span start: %v", tr.EDUs)
	}
}

func TestAddDependencyRange(t *testing.T) {
	tr := New(3)
	if err := tr.AddDependency(0, 2, "elaboration"); err != nil {
		t.Fatalf("AddDependency error: %v", err)
	}
	if tr.Heads[2] != 0 || tr.Labels[2] != "elaboration" {
		t.Errorf("dependency not recorded: heads=%v labels=%v", tr.Heads, tr.Labels)
	}

	if err := tr.AddDependency(5, 1, "x"); !errors.Is(err, ErrHeadOutOfRange) {
		t.Errorf("AddDependency(5, 1) error = %v, want ErrHeadOutOfRange", err)
	}
	if err := tr.AddDependency(1, 0, "x"); !errors.Is(err, ErrHeadOutOfRange) {
		t.Errorf("AddDependency(1, 0) error = %v, want ErrHeadOutOfRange", err)
	}
}

func TestRealRoot(t *testing.T) {
	tr := New(3)
	_ = tr.AddDependency(0, 2, "root")
	_ = tr.AddDependency(2, 1, "attribution")
	_ = tr.AddDependency(2, 3, "elaboration")

	root, err := tr.RealRoot()
	if err != nil {
		t.Fatalf("RealRoot error: %v", err)
	}
	if root != 2 {
		t.Errorf("RealRoot() = %d, want 2", root)
	}
}

func TestRealRootErrors(t *testing.T) {
	t.Run("no root", func(t *testing.T) {
		tr := New(2)
		_ = tr.AddDependency(2, 1, "x")
		_ = tr.AddDependency(1, 2, "y")
		if _, err := tr.RealRoot(); !errors.Is(err, ErrNoRoot) {
			t.Errorf("RealRoot() error = %v, want ErrNoRoot", err)
		}
	})

	t.Run("multiple roots", func(t *testing.T) {
		tr := New(2)
		// Both nodes attach to the fake root.
		if _, err := tr.RealRoot(); !errors.Is(err, ErrMultipleRoots) {
			t.Errorf("RealRoot() error = %v, want ErrMultipleRoots", err)
		}
	})
}

func TestValidateDetectsCycle(t *testing.T) {
	tr := New(3)
	_ = tr.AddDependency(0, 1, "root")
	_ = tr.AddDependency(3, 2, "x")
	_ = tr.AddDependency(2, 3, "y")

	if err := tr.Validate(); !errors.Is(err, ErrCycle) {
		t.Errorf("Validate() error = %v, want ErrCycle", err)
	}
}

func TestValidateAcceptsWellFormed(t *testing.T) {
	tr := New(4)
	_ = tr.AddDependency(0, 2, "root")
	_ = tr.AddDependency(2, 1, "background")
	_ = tr.AddDependency(2, 3, "elaboration")
	_ = tr.AddDependency(3, 4, "elaboration")

	if err := tr.Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestDepsOrderedByRank(t *testing.T) {
	tr := New(4)
	_ = tr.AddDependency(0, 2, "root")
	_ = tr.AddDependency(2, 1, "a")
	_ = tr.AddDependency(2, 3, "b")
	_ = tr.AddDependency(2, 4, "c")
	tr.Ranks[1] = 2
	tr.Ranks[3] = 0
	tr.Ranks[4] = 1

	got := tr.Deps(2)
	want := []int{3, 4, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Deps(2) = %v, want %v", got, want)
		}
	}
}
