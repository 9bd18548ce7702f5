// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package bkfdd

// Ite computes if-then-else: the function that equals g wherever f is true
// and h wherever f is false, i.e. (f & g) | (!f & h), in one recursion
// instead of three Apply calls (§4.6). Like And/Xor/Apply, the result is
// returned already Ref'd (§6.1); the caller derefs it when done.
func (m *Manager) Ite(f, g, h Edge) (Edge, error) {
	if !f.valid() || !g.valid() || !h.valid() {
		return nilEdge, newError(Memory, "Ite", errBadOperand)
	}
	m.initref()
	m.pushref(f)
	m.pushref(g)
	m.pushref(h)
	res, err := m.iteRec(f, g, h)
	m.popref(3)
	if err != nil {
		return nilEdge, err
	}
	return m.Ref(res), nil
}

func (m *Manager) iteRec(f, g, h Edge) (Edge, error) {
	switch {
	case f == One:
		return g, nil
	case f == Zero:
		return h, nil
	case g == h:
		return g, nil
	case g == One && h == Zero:
		return f, nil
	case g == Zero && h == One:
		return m.notRec(f)
	}

	// A dozen standard triples (Brace/Rudell/Bryant's ITE reduction table)
	// collapse the call to AND or XOR, up to a free complement, whenever two
	// of the three operands are related by equality, complementation, or a
	// constant, without descending a single level.
	switch {
	case f == g: // ite(f,f,h) = f | h = !(!f & !h)
		r, err := m.andRec(f.Not(), h.Not())
		if err != nil {
			return nilEdge, err
		}
		return m.notRec(r)
	case f == g.Not(): // ite(f,!f,h) = !f & h
		return m.andRec(f.Not(), h)
	case f == h: // ite(f,g,f) = f & g
		return m.andRec(f, g)
	case f == h.Not(): // ite(f,g,!f) = !f | g = !(f & !g)
		r, err := m.andRec(f, g.Not())
		if err != nil {
			return nilEdge, err
		}
		return m.notRec(r)
	case g == h.Not(): // ite(f,g,!g) = f<=>g; equivalently ite(f,!h,h) = f xor h
		r, err := m.xorRec(f, g)
		if err != nil {
			return nilEdge, err
		}
		return m.notRec(r)
	case g == One: // ite(f,1,h) = f | h = !(!f & !h)
		r, err := m.andRec(f.Not(), h.Not())
		if err != nil {
			return nilEdge, err
		}
		return m.notRec(r)
	case h == Zero: // ite(f,g,0) = f & g
		return m.andRec(f, g)
	case g == Zero: // ite(f,0,h) = !f & h
		return m.andRec(f.Not(), h)
	case h == One: // ite(f,g,1) = !f | g = !(f & !g)
		r, err := m.andRec(f, g.Not())
		if err != nil {
			return nilEdge, err
		}
		return m.notRec(r)
	}

	if m.checkDeadline() {
		return nilEdge, newError(TimeoutExpired, "ite", nil)
	}

	// Canonicalization (§4.6): force f regular first, swapping g and h to
	// compensate (ite(!f,g,h) = ite(f,h,g)); then force g regular, folding
	// its complement into h instead and remembering an output complement
	// (ite(f,g,h) = !ite(f,!g,!h)). Every one of the (up to four) ways a
	// caller could have phrased the same underlying call now reaches the
	// cache under one key.
	compl := false
	if f.isCompl() {
		f, g, h = f.Not(), h, g
	}
	if g.isCompl() {
		g, h = g.Not(), h.Not()
		compl = true
	}

	if res, ok := m.cache.lookup(tagIte, f, g, h); ok {
		if compl {
			return res.Not(), nil
		}
		return res, nil
	}

	// Every error return from here down must be recognized by checking the
	// returned error value itself, never by comparing an edge to a
	// placeholder "no result" constant: an earlier revision of this
	// recursion (and the C implementation it was translated from) kept a
	// second local alongside the cofactor result and compared that second
	// local to nil instead of checking the error that the cofactor
	// extraction itself had already produced, which let a failed Davio
	// cofactor extraction silently read as success. Threading a proper
	// (Edge, error) pair through cofactors, split and makeNodeAt removes
	// that whole bug class by construction.

	// Fast path (§4.6): when f sits strictly above both g and h (v = the
	// shallower of their two levels) and f's true cofactors are (1, 0) —
	// f is nothing but a cube over its own variable — the low and high
	// branches of the result are just g and h themselves, with no need to
	// cofactor g or h at all or to recurse: makeNodeAt already encodes the
	// pair (g, h) under f's level the right way for whichever expansion
	// (Shannon or either Davio polarity) is in force there.
	v := m.topLevel(g, h)
	fLvl := m.edgeLevel(f)
	if fLvl < v {
		f0, f1, err := m.cofactors(f)
		if err != nil {
			return nilEdge, err
		}
		if f0 == One && f1 == Zero {
			res, err := m.makeNodeAt(fLvl, g, h)
			if err != nil {
				return nilEdge, err
			}
			if compl {
				return res.Not(), nil
			}
			return res, nil
		}
	}

	lvl := min3(m.edgeLevel(f), m.edgeLevel(g), m.edgeLevel(h))
	exp := m.expansion[lvl]

	var res Edge
	if exp.IsShannon() {
		f0, f1, err := m.split(f, lvl)
		if err != nil {
			return nilEdge, err
		}
		g0, g1, err := m.split(g, lvl)
		if err != nil {
			return nilEdge, err
		}
		h0, h1, err := m.split(h, lvl)
		if err != nil {
			return nilEdge, err
		}

		lo, err := m.iteRec(f0, g0, h0)
		if err != nil {
			return nilEdge, err
		}
		m.pushref(lo)
		hi, err := m.iteRec(f1, g1, h1)
		m.popref(1)
		if err != nil {
			return nilEdge, err
		}
		m.pushref(lo)
		m.pushref(hi)
		res, err = m.makeNodeAt(lvl, lo, hi)
		m.popref(2)
		if err != nil {
			return nilEdge, err
		}
	} else {
		// Davio level: the cofactor-recursion split above doesn't carry a
		// natural Davio reduction the way AND and XOR's own do, so instead
		// use the definitional identity ite(f,g,h) = (f.g) xor (!f.h)
		// directly, routing through the dedicated And/Xor recursions (§4.6).
		notF, _ := m.notRec(f)

		t1, err := m.andRec(f, g)
		if err != nil {
			return nilEdge, err
		}
		m.pushref(t1)
		t2, err := m.andRec(notF, h)
		m.popref(1)
		if err != nil {
			return nilEdge, err
		}
		m.pushref(t1)
		m.pushref(t2)
		res, err = m.xorRec(t1, t2)
		m.popref(2)
		if err != nil {
			return nilEdge, err
		}
	}

	if m.cacheable(f, g, h) {
		m.cache.insert(tagIte, f, g, h, res)
	}
	if compl {
		return res.Not(), nil
	}
	return res, nil
}

// min3 returns the shallowest (numerically smallest) of three levels.
func min3(p, q, r int32) int32 {
	if p <= q {
		if p <= r {
			return p
		}
		return r
	}
	if q <= r {
		return q
	}
	return r
}
