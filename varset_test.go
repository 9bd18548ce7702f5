// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package bkfdd

import (
	"math/big"
	"testing"
)

// countViaAllsat sums, over every profile Allsat reports, 2^(number of
// don't-care entries), giving an independent model count to check Satcount
// against.
func countViaAllsat(t *testing.T, m *Manager, n Edge) *big.Int {
	t.Helper()
	total := big.NewInt(0)
	err := m.Allsat(n, func(prof []int) error {
		dontcares := 0
		for _, v := range prof {
			if v == -1 {
				dontcares++
			}
		}
		term := big.NewInt(0)
		term.SetBit(term, dontcares, 1)
		total.Add(total, term)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return total
}

func TestSatcountAgainstAllsat(t *testing.T) {
	const n = 5
	m := mustNew(t, n)
	lits := make([]Edge, n)
	for i := range lits {
		lits[i], _ = m.Ithvar(i)
	}
	f, err := m.And(lits[0], lits[2])
	if err != nil {
		t.Fatal(err)
	}
	f, err = m.Or(f, lits[4])
	if err != nil {
		t.Fatal(err)
	}

	want := countViaAllsat(t, m, f)
	got, err := m.Satcount(f)
	if err != nil {
		t.Fatal(err)
	}
	if got.Cmp(want) != 0 {
		t.Errorf("Satcount = %s, want %s (from Allsat)", got, want)
	}

	// Cross-check against brute force over every assignment.
	bruteforce := 0
	forAllAssignments(n, func(assign []int) {
		if evalEdge(m, f, assign) {
			bruteforce++
		}
	})
	if got.Cmp(big.NewInt(int64(bruteforce))) != 0 {
		t.Errorf("Satcount = %s, want %d (brute force)", got, bruteforce)
	}
}

func TestSatcountConstants(t *testing.T) {
	m := mustNew(t, 3)
	if got, err := m.Satcount(One); err != nil || got.Cmp(big.NewInt(8)) != 0 {
		t.Errorf("Satcount(One) = %v, %v; want 8", got, err)
	}
	if got, err := m.Satcount(Zero); err != nil || got.Sign() != 0 {
		t.Errorf("Satcount(Zero) = %v, %v; want 0", got, err)
	}
}

func TestAllsatProfileConsistency(t *testing.T) {
	const n = 4
	m := mustNew(t, n)
	lits := make([]Edge, n)
	for i := range lits {
		lits[i], _ = m.Ithvar(i)
	}
	f, err := m.Xor(lits[0], lits[1])
	if err != nil {
		t.Fatal(err)
	}

	seen := 0
	err = m.Allsat(f, func(prof []int) error {
		if len(prof) != n {
			t.Fatalf("profile length = %d, want %d", len(prof), n)
		}
		for bit := 0; bit < 1<<uint(n); bit++ {
			assign := make([]int, n)
			match := true
			for i := 0; i < n; i++ {
				assign[i] = (bit >> uint(i)) & 1
				if prof[i] != -1 && prof[i] != assign[i] {
					match = false
				}
			}
			if !match {
				continue
			}
			if !evalEdge(m, f, assign) {
				t.Fatalf("profile %v matches assignment %v, which does not satisfy f", prof, assign)
			}
		}
		seen++
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if seen == 0 {
		t.Error("Allsat reported no satisfying profile for x0 xor x1")
	}
}

func TestAllnodesWalksWholeManagerWhenNoRoots(t *testing.T) {
	m := mustNew(t, 3)
	a, _ := m.Ithvar(0)
	b, _ := m.Ithvar(1)
	if _, err := m.And(a, b); err != nil {
		t.Fatal(err)
	}
	whole := 0
	if err := m.Allnodes(func(int32, int32, Edge, Edge) error { whole++; return nil }); err != nil {
		t.Fatal(err)
	}
	if whole == 0 {
		t.Error("Allnodes with no roots should walk every live node in the manager")
	}
}

func TestAllnodesStopsOnError(t *testing.T) {
	m := mustNew(t, 3)
	a, _ := m.Ithvar(0)
	b, _ := m.Ithvar(1)
	res, err := m.And(a, b)
	if err != nil {
		t.Fatal(err)
	}
	sentinel := newError(InvariantViolation, "test", nil)
	count := 0
	err = m.Allnodes(func(int32, int32, Edge, Edge) error {
		count++
		return sentinel
	}, res)
	if err != sentinel {
		t.Errorf("Allnodes did not propagate the callback's error: got %v", err)
	}
	if count != 1 {
		t.Errorf("Allnodes should have stopped after the first node, visited %d", count)
	}
}
