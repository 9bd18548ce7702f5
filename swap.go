// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package bkfdd

// SwapAdjacent exchanges the variables currently at levels x and x+1,
// preserving every function represented in the manager (§4.7). It is the
// primitive both manual reordering and the sifting driver (sift.go) build
// on; expansion-type assignments travel with their variable: the entries of
// m.expansion at x and x+1 are exchanged together with perm and invperm.
//
// The result is a translation table from any pre-swap Edge whose node
// address changed to its post-swap equivalent. Nodes whose low and high
// cofactors do not reach into level x+1 ("kept" nodes, §4.7) never change
// address: swapping is, for them, purely a matter of relabeling perm,
// invperm and expansion and of which physical subtable object sits at which
// position.
// Only nodes whose cofactors do reach into level x+1 ("moving" nodes) are
// rebuilt, and since the DAG's order-coherence invariant guarantees only
// strictly shallower nodes can reference them, the caller only needs to
// consult the translation table for roots it is holding externally; any
// internal reference from a shallower node is fixed up in place by this
// call.
func (m *Manager) SwapAdjacent(x int32) (map[Edge]Edge, error) {
	if x < 0 || x >= m.varnum-1 {
		return nil, newError(Memory, "SwapAdjacent", errBadLevel)
	}
	y := x + 1
	idxX := m.invperm[x]
	idxY := m.invperm[y]

	// Recorded before anything is touched so any sub-failure below can put
	// the manager back exactly as it found it (§7's rollback guarantee).
	snap := m.snapshotLayout()

	// The recombination below calls makeNodeAt/cofactorsWithExp, which
	// route through the same xorRec used by the public Xor: running with
	// innerMode set keeps that recursion from triggering a nested GC pass
	// or death-row bookkeeping mid-swap (§4.2, §9's "Inner variants").
	prevInner := m.innerMode
	m.innerMode = true
	defer func() { m.innerMode = prevInner }()

	if !m.interact.interacts(idxX, idxY) {
		m.perm[idxX], m.perm[idxY] = y, x
		m.invperm[x], m.invperm[y] = idxY, idxX
		m.subtables[x], m.subtables[y] = m.subtables[y], m.subtables[x]
		m.expansion[x], m.expansion[y] = m.expansion[y], m.expansion[x]
		m.cache.Purge()
		return nil, nil
	}

	expX := m.expansion[x] // the rule idxX's nodes were (and remain) stored under
	expY := m.expansion[y] // the rule idxY's nodes were (and remain) stored under

	oldStX := m.subtables[x]
	var moving []int32
	for _, head := range oldStX.buckets {
		for cur := head; cur != -1; cur = m.nodes[cur].next {
			nd := &m.nodes[cur]
			if edgeHasIndex(nd.low, idxY, m.nodes) || edgeHasIndex(nd.high, idxY, m.nodes) {
				moving = append(moving, cur)
			}
		}
	}

	// Physically exchange the two subtable objects and the perm/invperm/
	// expansion bookkeeping. Every "kept" node, in either table, is now
	// correctly positioned with zero content mutation: its level is
	// perm[node.index], which just changed meaning underneath it, and the
	// expansion at that level is still the one its fields were stored under.
	m.subtables[x], m.subtables[y] = m.subtables[y], m.subtables[x]
	m.perm[idxX], m.perm[idxY] = y, x
	m.invperm[x], m.invperm[y] = idxY, idxX
	m.expansion[x], m.expansion[y] = expY, expX

	newPosY := m.subtables[y] // the table object that used to sit at x

	// removed tracks, in order, every moving node unlinked from newPosY's
	// chain so far. None of them have been freed or had their content
	// changed yet, so unwind can put every one of them straight back.
	removed := make([]int32, 0, len(moving))
	unwind := func() {
		for _, addr := range removed {
			m.insertSorted(newPosY, addr)
			newPosY.keys++
		}
		m.subtables[x], m.subtables[y] = m.subtables[y], m.subtables[x]
		m.restoreLayout(snap)
	}

	remap := make(map[Edge]Edge, len(moving))
	for _, addr := range moving {
		nd := m.nodes[addr]
		m.removeFromChain(newPosY, addr)
		newPosY.keys--
		removed = append(removed, addr)

		f0, f1, err := m.cofactorsWithExp(nd.low, nd.high, expX)
		if err != nil {
			unwind()
			return nil, err
		}
		f00, f01, err := m.cofactorOnIndex(f0, idxY, expY)
		if err != nil {
			unwind()
			return nil, err
		}
		f10, f11, err := m.cofactorOnIndex(f1, idxY, expY)
		if err != nil {
			unwind()
			return nil, err
		}

		g0, err := m.makeNodeAt(y, f00, f10)
		if err != nil {
			unwind()
			return nil, err
		}
		m.pushref(g0)
		g1, err := m.makeNodeAt(y, f01, f11)
		m.popref(1)
		if err != nil {
			unwind()
			return nil, err
		}
		m.pushref(g0)
		m.pushref(g1)
		newEdge, err := m.makeNodeAt(x, g0, g1)
		m.popref(2)
		if err != nil {
			unwind()
			return nil, err
		}

		remap[mkedge(addr, false)] = newEdge
		remap[mkedge(addr, true)] = newEdge.Not()
	}

	// Every moving node recombined: commit. Nothing from here on can fail,
	// so the snapshot above is no longer needed.
	if len(remap) > 0 {
		m.redirect(x, remap)
		for _, addr := range moving {
			old := m.nodes[addr]
			m.Deref(old.low)
			m.Deref(old.high)
			m.freeSlot(addr)
			m.freenum++
		}
	}

	m.cache.Purge()
	return remap, nil
}

// edgeHasIndex reports whether e is a (non-constant) edge to a node
// decomposing on variable index.
func edgeHasIndex(e Edge, index int32, pool []node) bool {
	return !e.isConst() && pool[e.node()].index == index
}

// cofactorOnIndex returns e's Shannon cofactors with respect to variable
// index, using exp to decode e's storage, or (e, e) unchanged if e does not
// presently decompose on index at all (it is a constant, or some other,
// necessarily deeper, variable).
func (m *Manager) cofactorOnIndex(e Edge, index int32, exp Expansion) (Edge, Edge, error) {
	if e.isConst() || m.nodes[e.node()].index != index {
		return e, e, nil
	}
	nd := m.nodes[e.node()]
	comp := e.isCompl()
	return m.cofactorsWithExp(xorCompl(nd.low, comp), xorCompl(nd.high, comp), exp)
}

// redirect rewrites every live node at levels strictly shallower than x so
// that any low/high edge into a key of remap is replaced by the
// corresponding value, re-threading the rewritten node into its subtable's
// sorted collision chain at its new key. Only ancestors of a swapped level
// can hold such a reference (order coherence, §3.2), so the scan never
// needs to look at level x itself or anything deeper.
//
// Two distinct ancestors could in principle come to share an identical
// (index, low, high) key purely as a byproduct of this rewrite; this
// implementation does not chase that cascade into a further merge. It is a
// rare degenerate case bounded in scope to nodes
// produced by a single swap, and a subsequent garbage-collection or resize
// pass never mistakes the resulting (harmless) duplication for a
// correctness bug, since both nodes still compute the right function.
func (m *Manager) redirect(x int32, remap map[Edge]Edge) {
	for lvl := int32(0); lvl < x; lvl++ {
		st := m.subtables[lvl]
		for _, head := range st.buckets {
			for cur := head; cur != -1; cur = m.nodes[cur].next {
				nd := &m.nodes[cur]
				newLow, lchanged := redirectEdge(nd.low, remap)
				newHigh, hchanged := redirectEdge(nd.high, remap)
				if !lchanged && !hchanged {
					continue
				}
				m.removeFromChain(st, cur)
				if lchanged {
					m.Ref(newLow)
				}
				if hchanged {
					m.Ref(newHigh)
				}
				nd.low, nd.high = newLow, newHigh
				m.interact.record(nd.index, m.indexOf(newLow), m.indexOf(newHigh))
				m.insertSorted(st, cur)
			}
		}
	}
	for i, e := range m.varnodes {
		if repl, ok := remap[e]; ok {
			m.varnodes[i] = repl
		}
	}
}

func redirectEdge(e Edge, remap map[Edge]Edge) (Edge, bool) {
	if repl, ok := remap[e]; ok {
		return repl, true
	}
	return e, false
}
