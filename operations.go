// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package bkfdd

// cofactors returns the true Shannon cofactors (f|x=0, f|x=1) of f, where x
// is the variable at f's level, regardless of which of the six expansion
// types that level actually stores f under (§4.4, §4.5). For a Shannon
// level the stored low/high edges already are the cofactors. For a
// negative-Davio level the stored high edge is the Davio coefficient
// d = f0 xor f1, so f1 is recovered as f0 xor d; for a positive-Davio level
// it is the dual (low stores d, high stores f1).
//
// For a biconditional level, x is not a single program variable but the
// pair predicate (the paired variable's literal compared for equality); the
// coefficient algebra is identical once that pseudo-variable is fixed, so
// IsBi is not consulted here at all, only the function axis is.
func (m *Manager) cofactors(f Edge) (Edge, Edge, error) {
	if f.isConst() {
		return f, f, nil
	}
	addr := f.node()
	nd := m.nodes[addr]
	comp := f.isCompl()
	low := xorCompl(nd.low, comp)
	high := xorCompl(nd.high, comp)
	exp := m.expansion[m.level(nd.index)]
	return m.cofactorsWithExp(low, high, exp)
}

// cofactorsWithExp is the expansion-parametrized core of cofactors, split
// out so swap.go and expansionchange.go can decode a node's stored fields
// under an expansion type captured on entry, independently of what
// m.expansion reports while the layout is being changed.
func (m *Manager) cofactorsWithExp(low, high Edge, exp Expansion) (Edge, Edge, error) {
	switch {
	case exp.IsShannon():
		return low, high, nil
	case exp.IsNDavio():
		f1, err := m.xorRec(low, high)
		if err != nil {
			return nilEdge, nilEdge, err
		}
		return low, f1, nil
	default: // IsPDavio
		f0, err := m.xorRec(high, low)
		if err != nil {
			return nilEdge, nilEdge, err
		}
		return f0, high, nil
	}
}

// makeNodeAt builds (or retrieves, through hash-consing) the node at level
// lvl whose true Shannon cofactors are (f0, f1), storing them in whatever
// form that level's fixed expansion type requires, applying the matching
// reduction rule, and normalizing so the stored low edge is always regular
// (invariant 3, §3.2). It returns f0 itself, with no node created, whenever
// the reduction rule says the level is redundant.
func (m *Manager) makeNodeAt(lvl int32, f0, f1 Edge) (Edge, error) {
	index := m.invperm[lvl]
	exp := m.expansion[lvl]

	var low, high Edge
	switch {
	case exp.IsShannon():
		if f0 == f1 {
			return f0, nil
		}
		low, high = f0, f1
	case exp.IsNDavio():
		d, err := m.xorRec(f0, f1)
		if err != nil {
			return nilEdge, err
		}
		if d == Zero {
			return f0, nil
		}
		low, high = f0, d
	default: // IsPDavio
		d, err := m.xorRec(f0, f1)
		if err != nil {
			return nilEdge, err
		}
		if d == Zero {
			return f1, nil
		}
		low, high = d, f1
	}

	compl := low.isCompl()
	if compl {
		low, high = low.Not(), high.Not()
	}
	res, err := m.uniqueLookupOrCreate(index, low, high)
	if err != nil {
		return nilEdge, err
	}
	return xorCompl(res, compl), nil
}

// topLevel returns the shallower (closer to the root) of f and g's levels,
// treating a constant as infinitely deep so it never drives the split.
func (m *Manager) topLevel(f, g Edge) int32 {
	lf := m.edgeLevel(f)
	lg := m.edgeLevel(g)
	if lf < lg {
		return lf
	}
	return lg
}

func (m *Manager) edgeLevel(e Edge) int32 {
	if e.isConst() {
		return m.varnum
	}
	return m.level(m.nodes[e.node()].index)
}

// split returns the cofactor of e with respect to the variable at level
// lvl: e's own cofactors if e currently sits at lvl, or (e, e) unchanged if
// e's level is deeper (e does not yet depend on that variable).
func (m *Manager) split(e Edge, lvl int32) (Edge, Edge, error) {
	if m.edgeLevel(e) != lvl {
		return e, e, nil
	}
	return m.cofactors(e)
}

// And computes the conjunction of f and g. Following the teacher's retnode
// convention (every handle returned across the public API boundary carries
// its own unit of external reference, §6.1), the result is returned already
// Ref'd: the caller must Deref it when done.
func (m *Manager) And(f, g Edge) (Edge, error) {
	if !f.valid() || !g.valid() {
		return nilEdge, newError(Memory, "And", errBadOperand)
	}
	m.initref()
	m.pushref(f)
	m.pushref(g)
	res, err := m.andRec(f, g)
	m.popref(2)
	if err != nil {
		return nilEdge, err
	}
	return m.Ref(res), nil
}

func (m *Manager) andRec(f, g Edge) (Edge, error) {
	switch {
	case f == g:
		return f, nil
	case f == Zero || g == Zero:
		return Zero, nil
	case f == One:
		return g, nil
	case g == One:
		return f, nil
	}
	if m.checkDeadline() {
		return nilEdge, newError(TimeoutExpired, "and", nil)
	}
	key1, key2 := f, g
	if key1 > key2 {
		key1, key2 = key2, key1
	}
	if res, ok := m.cache.lookup(tagAnd, key1, key2, nilEdge); ok {
		return res, nil
	}

	lvl := m.topLevel(f, g)
	f0, f1, err := m.split(f, lvl)
	if err != nil {
		return nilEdge, err
	}
	g0, g1, err := m.split(g, lvl)
	if err != nil {
		return nilEdge, err
	}
	lo, err := m.andRec(f0, g0)
	if err != nil {
		return nilEdge, err
	}
	m.pushref(lo)
	hi, err := m.andRec(f1, g1)
	m.popref(1)
	if err != nil {
		return nilEdge, err
	}
	m.pushref(lo)
	m.pushref(hi)
	res, err := m.makeNodeAt(lvl, lo, hi)
	m.popref(2)
	if err != nil {
		return nilEdge, err
	}
	if m.cacheable(f, g) {
		m.cache.insert(tagAnd, key1, key2, nilEdge, res)
	}
	return res, nil
}

// Xor computes the exclusive-or of f and g. The result is returned already
// Ref'd, same as And (§6.1).
func (m *Manager) Xor(f, g Edge) (Edge, error) {
	if !f.valid() || !g.valid() {
		return nilEdge, newError(Memory, "Xor", errBadOperand)
	}
	m.initref()
	m.pushref(f)
	m.pushref(g)
	res, err := m.xorRec(f, g)
	m.popref(2)
	if err != nil {
		return nilEdge, err
	}
	return m.Ref(res), nil
}

func (m *Manager) xorRec(f, g Edge) (Edge, error) {
	switch {
	case f == g:
		return Zero, nil
	case f == Zero:
		return g, nil
	case g == Zero:
		return f, nil
	case f == One:
		return m.notRec(g)
	case g == One:
		return m.notRec(f)
	case f.regular() == g.regular():
		// f and g denote the same node with opposite complement tags.
		return One, nil
	}
	if m.checkDeadline() {
		return nilEdge, newError(TimeoutExpired, "xor", nil)
	}
	key1, key2 := f, g
	if key1 > key2 {
		key1, key2 = key2, key1
	}
	if res, ok := m.cache.lookup(tagXor, key1, key2, nilEdge); ok {
		return res, nil
	}

	lvl := m.topLevel(f, g)
	f0, f1, err := m.split(f, lvl)
	if err != nil {
		return nilEdge, err
	}
	g0, g1, err := m.split(g, lvl)
	if err != nil {
		return nilEdge, err
	}
	lo, err := m.xorRec(f0, g0)
	if err != nil {
		return nilEdge, err
	}
	m.pushref(lo)
	hi, err := m.xorRec(f1, g1)
	m.popref(1)
	if err != nil {
		return nilEdge, err
	}
	m.pushref(lo)
	m.pushref(hi)
	res, err := m.makeNodeAt(lvl, lo, hi)
	m.popref(2)
	if err != nil {
		return nilEdge, err
	}
	if m.cacheable(f, g) {
		m.cache.insert(tagXor, key1, key2, nilEdge, res)
	}
	return res, nil
}

// Not returns the negation of f: the same node, complement tag flipped, so
// it never allocates or recurses. The returned handle still carries its own
// unit of external reference (§6.1): f's node now has one more external
// root pointing at it than before, even though no new node was created.
func (m *Manager) Not(f Edge) (Edge, error) {
	if !f.valid() {
		return nilEdge, newError(Memory, "Not", errBadOperand)
	}
	res, err := m.notRec(f)
	if err != nil {
		return nilEdge, err
	}
	return m.Ref(res), nil
}

func (m *Manager) notRec(f Edge) (Edge, error) { return f.Not(), nil }

// Apply performs any of the ten binary Boolean operators in Operator, the
// way the teacher's Apply shares one apply() body across all of them
// instead of special-casing each: And and Xor keep their own dedicated,
// heavily short-circuited recursions (§4.3-§4.5), but the rest fall
// through to the generic recursion below, using opres the same way the
// teacher's apply() does for the all-constant base case.
func (m *Manager) Apply(f, g Edge, op Operator) (Edge, error) {
	switch op {
	case OPand:
		return m.And(f, g)
	case OPxor:
		return m.Xor(f, g)
	}
	if !f.valid() || !g.valid() {
		return nilEdge, newError(Memory, "Apply", errBadOperand)
	}
	m.initref()
	m.pushref(f)
	m.pushref(g)
	res, err := m.applyRec(f, g, op)
	m.popref(2)
	if err != nil {
		return nilEdge, err
	}
	return m.Ref(res), nil
}

// tagApplyBase offsets an Operator into opCache's tag space, past the three
// reserved tags dedicated recursions use.
const tagApplyBase = opTag(16)

func (m *Manager) applyRec(f, g Edge, op Operator) (Edge, error) {
	if f.isConst() && g.isConst() {
		fb, gb := 0, 0
		if f == One {
			fb = 1
		}
		if g == One {
			gb = 1
		}
		if opres[op][fb][gb] == 1 {
			return One, nil
		}
		return Zero, nil
	}
	if m.checkDeadline() {
		return nilEdge, newError(TimeoutExpired, "apply", nil)
	}
	tag := tagApplyBase + opTag(op)
	key1, key2 := f, g
	// Only symmetric operators may share one entry for (f, g) and (g, f).
	if key1 > key2 && (op == OPor || op == OPnand || op == OPnor || op == OPbiimp) {
		key1, key2 = key2, key1
	}
	if res, ok := m.cache.lookup(tag, key1, key2, nilEdge); ok {
		return res, nil
	}

	lvl := m.topLevel(f, g)
	f0, f1, err := m.split(f, lvl)
	if err != nil {
		return nilEdge, err
	}
	g0, g1, err := m.split(g, lvl)
	if err != nil {
		return nilEdge, err
	}
	lo, err := m.applyRec(f0, g0, op)
	if err != nil {
		return nilEdge, err
	}
	m.pushref(lo)
	hi, err := m.applyRec(f1, g1, op)
	m.popref(1)
	if err != nil {
		return nilEdge, err
	}
	m.pushref(lo)
	m.pushref(hi)
	res, err := m.makeNodeAt(lvl, lo, hi)
	m.popref(2)
	if err != nil {
		return nilEdge, err
	}
	if m.cacheable(f, g) {
		m.cache.insert(tag, key1, key2, nilEdge, res)
	}
	return res, nil
}

// Or, Nand, Nor, Imp, Biimp, Diff, Less and Invimp are thin names over
// Apply, following the same ten-operator table the teacher's Apply
// documents.
func (m *Manager) Or(f, g Edge) (Edge, error)     { return m.Apply(f, g, OPor) }
func (m *Manager) Nand(f, g Edge) (Edge, error)   { return m.Apply(f, g, OPnand) }
func (m *Manager) Nor(f, g Edge) (Edge, error)    { return m.Apply(f, g, OPnor) }
func (m *Manager) Imp(f, g Edge) (Edge, error)    { return m.Apply(f, g, OPimp) }
func (m *Manager) Biimp(f, g Edge) (Edge, error)  { return m.Apply(f, g, OPbiimp) }
func (m *Manager) Diff(f, g Edge) (Edge, error)   { return m.Apply(f, g, OPdiff) }
func (m *Manager) Less(f, g Edge) (Edge, error)   { return m.Apply(f, g, OPless) }
func (m *Manager) Invimp(f, g Edge) (Edge, error) { return m.Apply(f, g, OPinvimp) }
