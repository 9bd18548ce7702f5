// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package bkfdd

import "testing"

// TestApplyAgainstTruthTable checks every one of the ten binary operators
// against a brute-force truth table over two independent literals, the way
// the teacher's own operations_test.go checks apply() against opres.
func TestApplyAgainstTruthTable(t *testing.T) {
	want := map[Operator]func(a, b bool) bool{
		OPand:    func(a, b bool) bool { return a && b },
		OPxor:    func(a, b bool) bool { return a != b },
		OPor:     func(a, b bool) bool { return a || b },
		OPnand:   func(a, b bool) bool { return !(a && b) },
		OPnor:    func(a, b bool) bool { return !(a || b) },
		OPimp:    func(a, b bool) bool { return !a || b },
		OPbiimp:  func(a, b bool) bool { return a == b },
		OPdiff:   func(a, b bool) bool { return a && !b },
		OPless:   func(a, b bool) bool { return !a && b },
		OPinvimp: func(a, b bool) bool { return a || !b },
	}
	for op, fn := range want {
		m := mustNew(t, 2)
		a, _ := m.Ithvar(0)
		b, _ := m.Ithvar(1)
		res, err := m.Apply(a, b, op)
		if err != nil {
			t.Fatalf("Apply(%s): %v", op, err)
		}
		forAllAssignments(2, func(assign []int) {
			got := evalEdge(m, res, assign)
			w := fn(assign[0] != 0, assign[1] != 0)
			if got != w {
				t.Errorf("%s(%v,%v) = %v, want %v", op, assign[0], assign[1], got, w)
			}
		})
	}
}

func TestOperatorHelpers(t *testing.T) {
	m := mustNew(t, 2)
	a, _ := m.Ithvar(0)
	b, _ := m.Ithvar(1)

	cases := []struct {
		name string
		call func() (Edge, error)
		want func(a, b bool) bool
	}{
		{"Or", func() (Edge, error) { return m.Or(a, b) }, func(a, b bool) bool { return a || b }},
		{"Nand", func() (Edge, error) { return m.Nand(a, b) }, func(a, b bool) bool { return !(a && b) }},
		{"Nor", func() (Edge, error) { return m.Nor(a, b) }, func(a, b bool) bool { return !(a || b) }},
		{"Imp", func() (Edge, error) { return m.Imp(a, b) }, func(a, b bool) bool { return !a || b }},
		{"Biimp", func() (Edge, error) { return m.Biimp(a, b) }, func(a, b bool) bool { return a == b }},
		{"Diff", func() (Edge, error) { return m.Diff(a, b) }, func(a, b bool) bool { return a && !b }},
		{"Less", func() (Edge, error) { return m.Less(a, b) }, func(a, b bool) bool { return !a && b }},
		{"Invimp", func() (Edge, error) { return m.Invimp(a, b) }, func(a, b bool) bool { return a || !b }},
	}
	for _, c := range cases {
		res, err := c.call()
		if err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		forAllAssignments(2, func(assign []int) {
			got := evalEdge(m, res, assign)
			w := c.want(assign[0] != 0, assign[1] != 0)
			if got != w {
				t.Errorf("%s(%v,%v) = %v, want %v", c.name, assign[0], assign[1], got, w)
			}
		})
	}
}

func TestApplyBadOperand(t *testing.T) {
	m := mustNew(t, 1)
	if _, err := m.Apply(nilEdge, One, OPor); err == nil {
		t.Error("Apply with an invalid edge should error")
	}
	if _, err := m.And(nilEdge, One); err == nil {
		t.Error("And with an invalid edge should error")
	}
	if _, err := m.Xor(One, nilEdge); err == nil {
		t.Error("Xor with an invalid edge should error")
	}
}

func TestMakesetScansetRoundtrip(t *testing.T) {
	m := mustNew(t, 5)
	varset := []int{1, 3, 4}
	cube, err := m.Makeset(varset)
	if err != nil {
		t.Fatal(err)
	}
	got, err := m.Scanset(cube)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(varset) {
		t.Fatalf("Scanset(Makeset(%v)) = %v, length mismatch", varset, got)
	}
	seen := make(map[int]bool)
	for _, v := range got {
		seen[v] = true
	}
	for _, v := range varset {
		if !seen[v] {
			t.Errorf("Scanset(Makeset(%v)) = %v, missing %d", varset, got, v)
		}
	}
}

func TestScansetRejectsNonCube(t *testing.T) {
	m := mustNew(t, 2)
	a, _ := m.Ithvar(0)
	b, _ := m.Ithvar(1)
	notACube, err := m.Or(a, b)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Scanset(notACube); err == nil {
		t.Error("Scanset on a non-cube function should error")
	}
}
