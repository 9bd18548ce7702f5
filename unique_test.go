// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package bkfdd

import "testing"

// TestMakeNodeAtHashConsing checks that two calls building the same
// (level, f0, f1) triple return the identical node address, and that the
// second call allocates nothing.
func TestMakeNodeAtHashConsing(t *testing.T) {
	m := mustNew(t, 3)
	b, _ := m.Ithvar(1)
	c, _ := m.Ithvar(2)

	before := len(m.nodes) - int(m.freenum)
	e1, err := m.makeNodeAt(0, b, c)
	if err != nil {
		t.Fatal(err)
	}
	afterFirst := len(m.nodes) - int(m.freenum)
	if afterFirst != before+1 {
		t.Fatalf("first makeNodeAt should allocate exactly one node, pool went from %d to %d", before, afterFirst)
	}

	e2, err := m.makeNodeAt(0, b, c)
	if err != nil {
		t.Fatal(err)
	}
	afterSecond := len(m.nodes) - int(m.freenum)
	if afterSecond != afterFirst {
		t.Errorf("second makeNodeAt with the same cofactors allocated a node: pool went from %d to %d", afterFirst, afterSecond)
	}
	if e1 != e2 {
		t.Errorf("makeNodeAt(0, b, c) called twice returned different edges: %v vs %v", e1, e2)
	}
}

// TestMakeNodeAtRegularLowNormalization builds a Shannon node whose low
// cofactor is complemented and checks that the stored node's low edge comes
// out regular (invariant 3, §3.2), with the complement pushed onto the
// returned edge instead.
func TestMakeNodeAtRegularLowNormalization(t *testing.T) {
	m := mustNew(t, 2)
	// NIthvar returns the regular projection edge, so b.Not() is complemented.
	b, _ := m.NIthvar(1)

	res, err := m.makeNodeAt(0, b.Not(), One)
	if err != nil {
		t.Fatal(err)
	}
	if !res.isCompl() {
		t.Error("makeNodeAt should have pushed the complement onto the returned edge")
	}
	nd := m.nodes[res.node()]
	if nd.low.isCompl() {
		t.Errorf("stored low edge is complemented: %v", nd.low)
	}
	if nd.low != b || nd.high != Zero {
		t.Errorf("stored (low, high) = (%v, %v), want (%v, %v) after pushing the complement out", nd.low, nd.high, b, Zero)
	}
	m.Ref(res)
	checkLiveInvariants(t, m)
}

// TestMakeNodeAtShannonReduction checks that f0 == f1 under a Shannon level
// returns f0 directly without allocating a node.
func TestMakeNodeAtShannonReduction(t *testing.T) {
	m := mustNew(t, 2)
	b, _ := m.Ithvar(1)

	before := len(m.nodes) - int(m.freenum)
	res, err := m.makeNodeAt(0, b, b)
	if err != nil {
		t.Fatal(err)
	}
	if res != b {
		t.Errorf("makeNodeAt(0, b, b) = %v, want b itself (%v)", res, b)
	}
	after := len(m.nodes) - int(m.freenum)
	if after != before {
		t.Errorf("redundant Shannon node should not allocate: pool went from %d to %d", before, after)
	}
}

// TestMakeNodeAtDavioReduction checks the Davio-axis reduction rule: once
// level 0 is switched to negative-Davio, a node whose coefficient
// (f0 xor f1) is Zero reduces to f0 without allocating.
func TestMakeNodeAtDavioReduction(t *testing.T) {
	m := mustNew(t, 2)
	if err := m.ChangeExpansion(0, CND); err != nil {
		t.Fatal(err)
	}
	b, _ := m.Ithvar(1)

	before := len(m.nodes) - int(m.freenum)
	res, err := m.makeNodeAt(0, b, b)
	if err != nil {
		t.Fatal(err)
	}
	if res != b {
		t.Errorf("makeNodeAt(0, b, b) under CND = %v, want b itself (%v)", res, b)
	}
	after := len(m.nodes) - int(m.freenum)
	if after != before {
		t.Errorf("redundant Davio node should not allocate: pool went from %d to %d", before, after)
	}
}

// TestMakeNodeAtDavioCoefficient checks a non-redundant negative-Davio
// node: f0 = One, f1 = b, giving coefficient d = one xor b = not(b), stored
// as (low, high) = (One, not(b)) before regular-low normalization, which
// leaves it untouched since One is already regular.
func TestMakeNodeAtDavioCoefficient(t *testing.T) {
	m := mustNew(t, 2)
	if err := m.ChangeExpansion(0, CND); err != nil {
		t.Fatal(err)
	}
	b, _ := m.Ithvar(1)

	res, err := m.makeNodeAt(0, One, b)
	if err != nil {
		t.Fatal(err)
	}
	f0, f1, err := m.cofactors(res)
	if err != nil {
		t.Fatal(err)
	}
	if f0 != One || f1 != b {
		t.Errorf("cofactors(makeNodeAt(0, One, b)) = (%v, %v), want (%v, %v)", f0, f1, One, b)
	}
	m.Ref(res)
	checkLiveInvariants(t, m)
}

// TestUniqueLookupOrCreateFindsExistingChain exercises uniqueLookupOrCreate
// directly: inserting the same (index, low, high) key twice must return
// the same address and leave the subtable's key count unchanged after the
// second call, while a different key at the same level grows it.
func TestUniqueLookupOrCreateFindsExistingChain(t *testing.T) {
	const n = 6
	m := mustNew(t, n)
	lits := make([]Edge, n)
	for i := range lits {
		lits[i], _ = m.Ithvar(i)
	}
	idx := int32(0)
	lvl := m.level(idx)
	st := m.subtables[lvl]
	keysBefore := st.keys

	e1, err := m.uniqueLookupOrCreate(idx, lits[2], lits[3])
	if err != nil {
		t.Fatal(err)
	}
	if st.keys != keysBefore+1 {
		t.Fatalf("first insertion should grow the subtable by one key: got %d, want %d", st.keys, keysBefore+1)
	}

	e2, err := m.uniqueLookupOrCreate(idx, lits[2], lits[3])
	if err != nil {
		t.Fatal(err)
	}
	if e1 != e2 {
		t.Errorf("repeated uniqueLookupOrCreate(idx, lits[2], lits[3]) returned different edges: %v vs %v", e1, e2)
	}
	if st.keys != keysBefore+1 {
		t.Errorf("repeated insertion should not grow the subtable further: got %d, want %d", st.keys, keysBefore+1)
	}

	e3, err := m.uniqueLookupOrCreate(idx, lits[4], lits[5])
	if err != nil {
		t.Fatal(err)
	}
	if e3 == e1 {
		t.Error("a distinct (low, high) pair must not collide with an unrelated node")
	}
	if st.keys != keysBefore+2 {
		t.Errorf("a genuinely new key should grow the subtable: got %d, want %d", st.keys, keysBefore+2)
	}
}

// TestSubtableGrowsPastDensityCap drives one level's subtable past
// densityCap*slots by inserting enough distinct (low, high) pairs built
// from other variables' projections and constants, and checks the bucket
// array doubled (at least once) while every previously inserted key
// remains findable by its original address afterward.
func TestSubtableGrowsPastDensityCap(t *testing.T) {
	const n = 10
	m := mustNew(t, n)
	lits := make([]Edge, n)
	for i := range lits {
		lits[i], _ = m.Ithvar(i)
	}
	pool := []Edge{Zero, One}
	for _, l := range lits[1:] {
		pool = append(pool, l, l.Not())
	}

	idx := int32(0)
	lvl := m.level(idx)
	st := m.subtables[lvl]
	initialShift := st.shift

	// densityCap*initial slots = 16: the pool gives len(pool)*(len(pool)-1)
	// ordered pairs, comfortably past that, so the loop always crosses the
	// threshold well before exhausting it.
	type key struct{ low, high Edge }
	var inserted []key
	addrs := make(map[key]Edge)
outer:
	for i := 0; i < len(pool); i++ {
		for j := 0; j < len(pool); j++ {
			if pool[i] == pool[j] {
				continue
			}
			e, err := m.uniqueLookupOrCreate(idx, pool[i], pool[j])
			if err != nil {
				t.Fatal(err)
			}
			k := key{pool[i], pool[j]}
			inserted = append(inserted, k)
			addrs[k] = e
			if st.shift > initialShift && st.keys >= densityCap*(1<<initialShift) {
				break outer
			}
		}
	}

	if st.shift <= initialShift {
		t.Fatalf("subtable never grew past its initial %d slots despite %d keys", 1<<initialShift, st.keys)
	}

	for _, k := range inserted {
		got, err := m.uniqueLookupOrCreate(idx, k.low, k.high)
		if err != nil {
			t.Fatal(err)
		}
		if want := addrs[k]; got != want {
			t.Errorf("after resize, uniqueLookupOrCreate(idx, %v, %v) = %v, want the original %v", k.low, k.high, got, want)
		}
	}
}

// TestHalveSubtableRelinksChains checks that halveSubtable, called directly
// on a level whose shift is already above the floor, preserves every
// existing key's findability under the smaller bucket array.
func TestHalveSubtableRelinksChains(t *testing.T) {
	const n = 6
	m := mustNew(t, n)
	lits := make([]Edge, n)
	for i := range lits {
		lits[i], _ = m.Ithvar(i)
	}
	idx := int32(0)
	lvl := m.level(idx)
	st := m.subtables[lvl]

	for st.shift < 4 {
		m.resizeSubtable(lvl)
	}
	type key struct{ low, high Edge }
	pairs := []key{
		{lits[1], lits[2]},
		{lits[2], lits[3]},
		{lits[3], lits[4]},
		{lits[4], lits[5]},
	}
	addrs := make(map[key]Edge, len(pairs))
	for _, k := range pairs {
		e, err := m.uniqueLookupOrCreate(idx, k.low, k.high)
		if err != nil {
			t.Fatal(err)
		}
		addrs[k] = e
	}

	shiftBefore := st.shift
	m.halveSubtable(lvl)
	if st.shift != shiftBefore-1 {
		t.Fatalf("halveSubtable should drop shift by one: got %d, want %d", st.shift, shiftBefore-1)
	}
	for _, k := range pairs {
		got, err := m.uniqueLookupOrCreate(idx, k.low, k.high)
		if err != nil {
			t.Fatal(err)
		}
		if want := addrs[k]; got != want {
			t.Errorf("after halveSubtable, (%v, %v) resolved to %v, want the original %v", k.low, k.high, got, want)
		}
	}
}

// TestHalveSubtableRespectsFloor checks that halveSubtable is a no-op once
// shift has reached the floor of 2 (the initial 4-slot size), matching
// §4.1's "never shrink below the initial allocation".
func TestHalveSubtableRespectsFloor(t *testing.T) {
	m := mustNew(t, 2)
	st := m.subtables[m.level(0)]
	if st.shift != 2 {
		t.Fatalf("a freshly created subtable should start at shift 2, got %d", st.shift)
	}
	m.halveSubtable(m.level(0))
	if st.shift != 2 {
		t.Errorf("halveSubtable should refuse to shrink below the initial floor: shift = %d", st.shift)
	}
}
