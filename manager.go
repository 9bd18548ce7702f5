// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package bkfdd

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Manager owns every piece of mutable state behind a BKFDD forest: the node
// pool, the per-level unique tables, the operation cache, the current
// variable order, and the per-level expansion-type vector. Only one
// goroutine may call into a Manager at a time (§5): the engine is reentrant
// across independent Manager instances, never within one.
type Manager struct {
	nodes   []node
	freepos int32 // head of the free list, -1 if none
	freenum int32

	subtables []*subtable  // indexed by level
	perm      []int32      // perm[index] = level
	invperm   []int32      // invperm[level] = index
	expansion []Expansion  // indexed by level
	pair      []int32      // pair[index] = paired variable's index, for biconditional levels, or -1

	varnum   int32
	varnodes []Edge // [index] = positive-literal projection edge, ref-pinned forever; NIthvar derives the negation via Not()

	isolated    int32           // isolated-projection counter (§3.2 invariant 5)
	isolatedIdx map[int32]int32 // node address -> variable index, present while that projection is still isolated

	cache *opCache

	interact *interactMatrix

	refstack []Edge // protects in-flight intermediates from a concurrent GC pass

	reordered bool // never set: no automatic reorder runs mid-recursion
	innerMode bool // disables GC/reorder/death-row bookkeeping (§4.2, §9)
	deathrow  []int32

	err error

	deadline time.Time
	cancel   func() bool

	produced int64
	gcstat

	configs
	log *zap.SugaredLogger
}

type gcstat struct {
	history []gcpoint
}

type gcpoint struct {
	nodes     int
	freenodes int
	reclaimed int
}

// New returns a Manager for varnum variables, all initially at Shannon
// classical expansion and in index order (perm is the identity). Functional
// options configure the initial table sizes and the §6.4 restructuring
// thresholds; see Nodesize, Cachesize, MaxGrowth, TimeLimit and friends.
func New(varnum int, options ...func(*configs)) (*Manager, error) {
	if varnum < 1 || varnum > int(_MAXVAR) {
		return nil, newError(Memory, "New", fmt.Errorf("bad number of variables (%d)", varnum))
	}
	cfg := makeconfigs(varnum)
	for _, f := range options {
		f(cfg)
	}

	m := &Manager{
		configs: *cfg,
		log:     cfg.logger,
	}
	m.freepos = -1
	nodesize := cfg.nodesize
	if nodesize < 1 {
		nodesize = 1
	}
	m.nodes = make([]node, nodesize)
	m.nodes[constAddr] = node{index: int32(varnum), low: One, high: One, ref: _MAXREFCOUNT, next: -1}
	for k := nodesize - 1; k >= 1; k-- {
		m.freeSlot(int32(k))
	}
	m.freenum = int32(nodesize) - 1

	m.varnum = int32(varnum)
	m.perm = make([]int32, varnum)
	m.invperm = make([]int32, varnum)
	m.expansion = make([]Expansion, varnum)
	m.pair = make([]int32, varnum)
	m.subtables = make([]*subtable, varnum)
	m.varnodes = make([]Edge, varnum)
	for lvl := 0; lvl < varnum; lvl++ {
		m.perm[lvl] = int32(lvl)
		m.invperm[lvl] = int32(lvl)
		m.expansion[lvl] = CS
		m.pair[lvl] = -1
		m.subtables[lvl] = newSubtable()
	}
	m.interact = newInteractMatrix(varnum)
	m.refstack = make([]Edge, 0, 2*varnum+4)
	m.cache = newOpCache(cfg.cachesize)
	m.isolatedIdx = make(map[int32]int32, varnum)

	for idx := 0; idx < varnum; idx++ {
		// The positive literal x has Shannon cofactors f0=0, f1=1; routing
		// through makeNodeAt (rather than calling uniqueLookupOrCreate
		// directly with those cofactors as low/high) gets the invariant-3
		// regular-low normalization for free, the same way any other
		// Shannon-level node does. Its negation is the same node with the
		// complement bit flipped, never a second physical node, so
		// Not(Ithvar(i)) and NIthvar(i) are the same Edge value (§8).
		pos, err := m.makeNodeAt(int32(idx), Zero, One)
		if err != nil {
			return nil, newError(Memory, "New", err)
		}
		m.nodes[pos.node()].ref = _MAXREFCOUNT
		m.varnodes[idx] = pos
		m.isolatedIdx[pos.node()] = int32(idx)
		m.isolated++
	}
	return m, nil
}

// Varnum returns the number of variables declared in the manager.
func (m *Manager) Varnum() int { return int(m.varnum) }

// Error returns a description of the last error encountered, or an empty
// string if none occurred.
func (m *Manager) Error() string {
	if m.err == nil {
		return ""
	}
	return m.err.Error()
}

// Errored reports whether the manager is carrying a sticky error.
func (m *Manager) Errored() bool { return m.err != nil }

func (m *Manager) seterror(kind ErrorKind, op string, cause error) {
	e := newError(kind, op, cause)
	if m.err == nil {
		m.err = e
	}
	if m.log != nil {
		m.log.Debugw("bkfdd error", "op", op, "kind", kind.String(), "cause", cause)
	}
}

// level returns the current level of variable index.
func (m *Manager) level(index int32) int32 { return m.perm[index] }

// NewVar returns the projection edge (the positive literal) for a fresh
// variable, appended at the deepest level of the current order, and grows
// every per-level structure to match (§6.1's new_var).
func (m *Manager) NewVar() (Edge, error) {
	idx := m.varnum
	if idx >= _MAXVAR {
		return nilEdge, newError(Memory, "NewVar", fmt.Errorf("too many variables"))
	}
	lvl := m.varnum
	m.varnum++
	m.perm = append(m.perm, lvl)
	m.invperm = append(m.invperm, idx)
	m.expansion = append(m.expansion, CS)
	m.pair = append(m.pair, -1)
	m.subtables = append(m.subtables, newSubtable())
	m.varnodes = append(m.varnodes, nilEdge)
	m.interact.grow(int(m.varnum))

	pos, err := m.makeNodeAt(lvl, Zero, One)
	if err != nil {
		return nilEdge, newError(Memory, "NewVar", err)
	}
	m.nodes[pos.node()].ref = _MAXREFCOUNT
	m.varnodes[idx] = pos
	if m.isolatedIdx == nil {
		m.isolatedIdx = make(map[int32]int32)
	}
	m.isolatedIdx[pos.node()] = idx
	m.isolated++
	return pos, nil
}

// Ithvar returns the projection edge for the variable currently holding
// index i.
func (m *Manager) Ithvar(i int) (Edge, error) {
	if i < 0 || i >= int(m.varnum) {
		return nilEdge, newError(Memory, "Ithvar", fmt.Errorf("out of range variable %d", i))
	}
	return m.varnodes[i], nil
}

// NIthvar returns the negated projection edge for variable i: the same
// node as Ithvar, complement tag flipped, never a separately allocated
// node (see New's doc comment).
func (m *Manager) NIthvar(i int) (Edge, error) {
	if i < 0 || i >= int(m.varnum) {
		return nilEdge, newError(Memory, "NIthvar", fmt.Errorf("out of range variable %d", i))
	}
	return m.varnodes[i].Not(), nil
}

// Low returns the low (then-) cofactor of n, following the decomposition of
// the level n sits at, with n's own complement tag pushed down.
func (m *Manager) Low(n Edge) Edge {
	if n.isConst() {
		return n
	}
	nd := m.nodes[n.node()]
	return xorCompl(nd.low, n.isCompl())
}

// High returns the high (or "correction", for Davio levels) cofactor of n.
func (m *Manager) High(n Edge) Edge {
	if n.isConst() {
		return n
	}
	nd := m.nodes[n.node()]
	return xorCompl(nd.high, n.isCompl())
}

// refstack handling, mirroring the teacher's initref/pushref/popref: these
// protect intermediate results that a recursive operation is still holding,
// so a garbage-collection pass triggered mid-recursion does not reclaim
// them.

func (m *Manager) initref() { m.refstack = m.refstack[:0] }

func (m *Manager) pushref(e Edge) Edge {
	m.refstack = append(m.refstack, e)
	return e
}

func (m *Manager) popref(n int) {
	m.refstack = m.refstack[:len(m.refstack)-n]
}

// Ref increments the external reference count on e and returns e so calls
// can be chained; it is a no-op on the constants. A variable projection
// node's own ref count is pinned to _MAXREFCOUNT at creation and so never
// moves here, but the first time any *other* edge reaches it — whether
// because uniqueLookupOrCreate just wired it in as a child, or because a
// caller pins it directly as a root — it stops being isolated (§3.2
// invariant 5): it now has a live reference beyond the manager's own
// variable table.
func (m *Manager) Ref(e Edge) Edge {
	if e.isConst() {
		return e
	}
	addr := e.node()
	nd := &m.nodes[addr]
	if nd.ref < _MAXREFCOUNT {
		nd.ref++
	}
	if _, ok := m.isolatedIdx[addr]; ok {
		delete(m.isolatedIdx, addr)
		m.isolated--
	}
	return e
}

// Deref decrements the external reference count on e; once it reaches zero
// the node becomes eligible for the next garbage-collection pass.
func (m *Manager) Deref(e Edge) {
	if e.isConst() {
		return
	}
	addr := e.node()
	nd := &m.nodes[addr]
	if nd.ref == 0 || nd.ref == _MAXREFCOUNT {
		return
	}
	nd.ref--
	if nd.ref == 0 && !m.innerMode {
		st := m.subtables[m.level(nd.index)]
		st.dead++
		m.deathrow = append(m.deathrow, addr)
	}
}

// checkDeadline reports whether the manager's wall-clock budget or external
// cancellation callback has fired; it is consulted at each cache lookup in a
// recursive operation (§5's "suspension points").
func (m *Manager) checkDeadline() bool {
	if !m.deadline.IsZero() && time.Now().After(m.deadline) {
		return true
	}
	if m.cancel != nil && m.cancel() {
		return true
	}
	return false
}

func (m *Manager) armDeadline() {
	if m.timeLimitMillis > 0 {
		m.deadline = time.Now().Add(time.Duration(m.timeLimitMillis) * time.Millisecond)
	} else {
		m.deadline = time.Time{}
	}
}

// layoutSnapshot captures the variable order and per-level expansion vector
// a restructuring primitive is about to disturb, so that a sub-failure part
// way through can put the manager back exactly as it found it: "Sifting and
// expansion-change primitives additionally guarantee rollback: on any
// sub-failure, they return the manager to the configuration they observed
// on entry" (§7). ChangeExpansion only touches expansion after every
// fallible step has succeeded, so restoring this snapshot on an earlier
// error is a correct (if redundant) undo. SwapAdjacent exchanges perm,
// invperm, expansion and the two subtables before its fallible
// recombination step, so on failure it re-links the nodes it unlinked,
// swaps the subtables back and then restores this snapshot; siftVariable instead
// unwinds through the swap/ChangeExpansion primitives themselves, since by
// the time it can fail some of those calls have already committed real node
// rebuilds that copying arrays back cannot undo.
type layoutSnapshot struct {
	perm      []int32
	invperm   []int32
	expansion []Expansion
}

func (m *Manager) snapshotLayout() layoutSnapshot {
	return layoutSnapshot{
		perm:      append([]int32(nil), m.perm...),
		invperm:   append([]int32(nil), m.invperm...),
		expansion: append([]Expansion(nil), m.expansion...),
	}
}

func (m *Manager) restoreLayout(s layoutSnapshot) {
	copy(m.perm, s.perm)
	copy(m.invperm, s.invperm)
	copy(m.expansion, s.expansion)
}

// cacheable reports whether the operation cache is allowed to admit a result
// keyed on these operands, per §4.3: "only argument pairs where both
// operands have ref != 1 are cached" (a ref of exactly one usually means the
// edge is a throwaway intermediate the caller is about to drop, not worth a
// cache slot). Constants are pinned at _MAXREFCOUNT and so always pass.
func (m *Manager) cacheable(edges ...Edge) bool {
	for _, e := range edges {
		if m.nodes[e.node()].ref == 1 {
			return false
		}
	}
	return true
}
