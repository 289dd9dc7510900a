package timetable

import "testing"

func TestIdentifier(t *testing.T) {
	tests := []struct {
		ids  []int
		want string
	}{
		{nil, ""},
		{[]int{8587387}, "18587387"},
		{[]int{1, 2, 3}, "112233"},
	}
	for _, tt := range tests {
		if got := Identifier(tt.ids); got != tt.want {
			t.Errorf("Identifier(%v) = %q, want %q", tt.ids, got, tt.want)
		}
	}
}

func TestShapeIndex(t *testing.T) {
	x := NewShapeIndex()
	a, created := x.Resolve([]int{1, 2, 3})
	if a != 1 || !created {
		t.Fatalf("first Resolve = %d, %v", a, created)
	}
	if again, created := x.Resolve([]int{1, 2, 3}); again != a || created {
		t.Errorf("repeat Resolve = %d, %v, want %d, false", again, created, a)
	}
	if b, created := x.Resolve([]int{1, 3, 2}); b != 2 || !created {
		t.Errorf("reordered Resolve = %d, %v, want 2, true", b, created)
	}
	if n := len(x.ShapeStops()); n != 6 {
		t.Errorf("shape stops = %d, want 6", n)
	}
	for i, s := range x.ShapeStops()[:3] {
		if s.ShapeID != 1 || s.Sequence != i+1 || s.ID != i+1 {
			t.Errorf("shape stop %d = %+v", i, s)
		}
	}
}

// Sequences whose concatenated identifiers are equal must still be told apart.
func TestShapeIndexAmbiguousIdentifier(t *testing.T) {
	x := NewShapeIndex()
	a, _ := x.Resolve([]int{12, 3})
	b, _ := x.Resolve([]int{1, 23})
	if Identifier([]int{12, 3}) != Identifier([]int{1, 23}) {
		t.Fatal("expected colliding identifiers")
	}
	if a == b {
		t.Errorf("distinct sequences share shape %d", a)
	}
}

func TestDirectionIndex(t *testing.T) {
	x := NewDirectionIndex()
	d, created := x.Resolve([]int{5, 6, 7}, 0, 0)
	if !created || d.ID != 1 || d.OriginID != 5 || d.DestinationID != 7 {
		t.Fatalf("Resolve = %+v, %v", d, created)
	}
	// termini of the first journey win
	if again, created := x.Resolve([]int{5, 6, 7}, 9, 9); created || again != d {
		t.Errorf("repeat Resolve = %+v, %v", again, created)
	}
	e, _ := x.Resolve([]int{7, 6, 5}, 70, 50)
	if e.ID != 2 || e.OriginID != 70 || e.DestinationID != 50 {
		t.Errorf("second direction = %+v", e)
	}
	if ids := x.StopIDs(2); len(ids) != 3 || ids[0] != 7 {
		t.Errorf("StopIDs(2) = %v", ids)
	}
	if n := len(x.Directions()); n != 2 {
		t.Errorf("directions = %d, want 2", n)
	}
}
