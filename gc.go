// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package bkfdd

// gc runs a mark-and-sweep collection pass (§3.3, §4.1). Plain reference
// counting would be enough on its own if every intermediate edge a
// recursive operation builds were counted, but pushref/popref protect
// results that are still under construction without paying for a Ref/Deref
// pair on every one of them, so a sweep has to walk from two root sets: (1)
// nodes whose external ref count is nonzero, and (2) whatever is currently
// sitting on the refstack. Anything else reachable only through dead chains
// is reclaimed and threaded back onto the free list.
//
// The DAG can never contain a cycle (invariant: a node's level is strictly
// below every descendant's level, §3.2), so a single depth-first mark
// terminates without needing cycle detection.
func (m *Manager) gc(op string) error {
	if m.innerMode {
		return nil
	}
	marked := make([]bool, len(m.nodes))
	marked[constAddr] = true

	var mark func(e Edge)
	mark = func(e Edge) {
		if e.isConst() || !e.valid() {
			return
		}
		addr := e.node()
		if marked[addr] {
			return
		}
		marked[addr] = true
		nd := &m.nodes[addr]
		mark(nd.low)
		mark(nd.high)
	}

	for lvl := range m.subtables {
		st := m.subtables[lvl]
		for _, head := range st.buckets {
			for cur := head; cur != -1; cur = m.nodes[cur].next {
				if m.nodes[cur].ref > 0 {
					marked[cur] = true
					mark(m.nodes[cur].low)
					mark(m.nodes[cur].high)
				}
			}
		}
	}
	for _, e := range m.refstack {
		mark(e)
	}

	reclaimed := 0
	for lvl := range m.subtables {
		st := m.subtables[lvl]
		for _, head := range st.buckets {
			for cur := head; cur != -1; {
				next := m.nodes[cur].next
				if !marked[cur] {
					m.removeFromChain(st, cur)
					m.freeSlot(cur)
					st.keys--
					reclaimed++
				}
				cur = next
			}
		}
		st.dead = 0
		if st.shift > 2 && st.keys < st.slots()>>2 {
			m.halveSubtable(int32(lvl))
		}
	}
	m.deathrow = m.deathrow[:0]
	m.freenum += int32(reclaimed)
	if reclaimed > 0 {
		// Cached results may name the slots just freed.
		m.cache.Purge()
	}

	m.gcstat.history = append(m.gcstat.history, gcpoint{
		nodes:     len(m.nodes),
		freenodes: int(m.freenum),
		reclaimed: reclaimed,
	})
	if m.log != nil {
		m.log.Debugw("gc pass", "op", op, "reclaimed", reclaimed, "free", m.freenum)
	}

	if int(m.freenum)*100 < m.minfreenodes*len(m.nodes) {
		return m.growPool()
	}
	return nil
}
