// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package bkfdd

// _MINFREENODES is the default percentage of free nodes that must remain
// after a garbage-collection pass before the manager decides to grow the
// node pool instead of relying on the reclaimed space (mirrors the
// teacher's kernel.go constant of the same name).
const _MINFREENODES = 20

// _DEFAULTMAXNODEINC bounds how many nodes a single pool resize may add.
const _DEFAULTMAXNODEINC = 1 << 20

// _NODEBYTES estimates the footprint of one node struct, the unit maxMemory
// is translated through: there is no separate byte-level accounting
// anywhere else in the manager, so a byte budget can only ever be enforced
// as a node-count cap derived from this constant, alongside the already
// node-counted maxnodesize.
const _NODEBYTES = 32

// freeSlot threads pool slot k onto the free list.
func (m *Manager) freeSlot(k int32) {
	m.nodes[k] = node{index: -1, low: nilEdge, high: nilEdge, ref: 0, next: m.freepos}
	m.freepos = k
}

// allocate pops a node address off the free list, growing the pool first if
// it is empty and a garbage-collection pass didn't free enough room.
// Budgets are, per §7, "evaluated lazily at allocation points": maxLive is
// only checked once GC already had a chance to shrink the live set, right
// before the pool would actually be grown to admit more of them.
func (m *Manager) allocate() (int32, error) {
	if m.freepos == -1 {
		if err := m.gc("allocate"); err != nil {
			return -1, err
		}
	}
	if m.freepos == -1 {
		if m.maxLive > 0 && m.liveNodeCount() >= m.maxLive {
			return -1, newError(Memory, "allocate", errMemoryBudget)
		}
		if err := m.growPool(); err != nil {
			return -1, err
		}
	}
	if m.freepos == -1 {
		return -1, newError(Memory, "allocate", errOutOfNodes)
	}
	addr := m.freepos
	m.freepos = m.nodes[addr].next
	m.freenum--
	return addr, nil
}

// growPool extends the node pool, respecting maxnodesize, maxnodeincrease
// and maxMemory (translated to a node-count cap via _NODEBYTES), and
// threads every new slot onto the free list.
func (m *Manager) growPool() error {
	old := len(m.nodes)
	inc := old
	if m.maxnodeincrease > 0 && inc > m.maxnodeincrease {
		inc = m.maxnodeincrease
	}
	if inc < 1 {
		inc = 1
	}
	newsize := old + inc
	if m.maxnodesize > 0 && newsize > m.maxnodesize {
		newsize = m.maxnodesize
	}
	if m.maxMemory > 0 {
		if memCap := m.maxMemory / _NODEBYTES; memCap > 0 && newsize > memCap {
			newsize = memCap
		}
	}
	if newsize <= old {
		return nil
	}
	grown := make([]node, newsize)
	copy(grown, m.nodes)
	m.nodes = grown
	for k := newsize - 1; k >= old; k-- {
		m.freeSlot(int32(k))
	}
	m.freenum += int32(newsize - old)
	return nil
}

// uniqueLookupOrCreate implements §4.1's core contract: find the node at
// level index decomposing on (low, high), creating it if absent, and return
// a regular Edge to it. Both reduction-rule preconditions (low != high for
// Shannon, high != Zero for Davio) are the caller's responsibility, since
// they depend on the expansion type in force, which varies by call site
// (operations.go, swap.go, expansionchange.go).
func (m *Manager) uniqueLookupOrCreate(index int32, low, high Edge) (Edge, error) {
	lvl := m.level(index)
	st := m.subtables[lvl]
	bucket := st.bucketOf(low, high)

	var prev int32 = -1
	cur := st.buckets[bucket]
	for cur != -1 {
		nd := &m.nodes[cur]
		if nd.low == low && nd.high == high {
			return mkedge(cur, false), nil
		}
		if less(nd.low, nd.high, low, high) {
			break
		}
		prev = cur
		cur = nd.next
	}

	addr, err := m.allocate()
	if err != nil {
		return nilEdge, err
	}
	m.nodes[addr] = node{index: index, low: low, high: high, ref: 0, next: cur}
	if prev == -1 {
		st.buckets[bucket] = addr
	} else {
		m.nodes[prev].next = addr
	}
	st.keys++
	if st.keys > st.maxKeys {
		st.maxKeys = st.keys
	}
	m.produced++

	m.Ref(low)
	m.Ref(high)
	m.interact.record(index, m.indexOf(low), m.indexOf(high))

	if st.keys > densityCap*st.slots() {
		m.resizeSubtable(lvl)
	}
	return mkedge(addr, false), nil
}

// indexOf returns the variable index a (possibly constant) edge decomposes
// on, or varnum for a constant, used only to feed the interaction matrix.
func (m *Manager) indexOf(e Edge) int32 {
	if e.isConst() {
		return m.varnum
	}
	return m.nodes[e.node()].index
}

// less orders two (low, high) keys the same way insertion does, so that a
// collision chain stays sorted and lookups can stop early on a miss.
func less(alow, ahigh, blow, bhigh Edge) bool {
	if alow != blow {
		return alow < blow
	}
	return ahigh < bhigh
}

// resizeSubtable doubles the bucket array for level lvl and reinserts every
// live node's chain entry, recomputing bucket index and chain position from
// scratch (the new bucket count changes the hash mask).
func (m *Manager) resizeSubtable(lvl int32) {
	st := m.subtables[lvl]
	old := st.buckets
	st.shift++
	st.buckets = make([]int32, 1<<st.shift)
	for i := range st.buckets {
		st.buckets[i] = -1
	}
	for _, head := range old {
		for cur := head; cur != -1; {
			nd := &m.nodes[cur]
			next := nd.next
			m.insertSorted(st, cur)
			cur = next
		}
	}
}

// halveSubtable is the mirror image, used when a GC pass leaves a level
// sparsely populated (gc calls it once the level has more than the initial
// slots and fewer keys than a quarter of them).
func (m *Manager) halveSubtable(lvl int32) {
	st := m.subtables[lvl]
	if st.shift <= 2 {
		return
	}
	old := st.buckets
	st.shift--
	st.buckets = make([]int32, 1<<st.shift)
	for i := range st.buckets {
		st.buckets[i] = -1
	}
	for _, head := range old {
		for cur := head; cur != -1; {
			nd := &m.nodes[cur]
			next := nd.next
			m.insertSorted(st, cur)
			cur = next
		}
	}
}

// insertSorted re-threads node addr, already populated with its (low, high,
// index), into subtable st at its sorted chain position. Used by resize
// and by the swap/expansion-change rewrites that relocate a node into a
// different subtable outright.
func (m *Manager) insertSorted(st *subtable, addr int32) {
	nd := &m.nodes[addr]
	bucket := st.bucketOf(nd.low, nd.high)
	var prev int32 = -1
	cur := st.buckets[bucket]
	for cur != -1 && !less(m.nodes[cur].low, m.nodes[cur].high, nd.low, nd.high) {
		prev = cur
		cur = m.nodes[cur].next
	}
	nd.next = cur
	if prev == -1 {
		st.buckets[bucket] = addr
	} else {
		m.nodes[prev].next = addr
	}
}

// removeFromChain unlinks node addr from subtable st's collision chain
// without freeing it; used during GC sweep and during a swap's teardown of
// the nodes it is about to rebuild.
func (m *Manager) removeFromChain(st *subtable, addr int32) {
	nd := &m.nodes[addr]
	bucket := st.bucketOf(nd.low, nd.high)
	cur := st.buckets[bucket]
	if cur == addr {
		st.buckets[bucket] = nd.next
		return
	}
	for cur != -1 {
		next := m.nodes[cur].next
		if next == addr {
			m.nodes[cur].next = nd.next
			return
		}
		cur = next
	}
}
