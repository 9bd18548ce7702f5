// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package bkfdd

import "math/big"

// Makeset returns the conjunction of the positive literals of every
// variable index in varset: the cube such that Scanset(Makeset(a)) == a.
// It mirrors the teacher's Makeset, generalized to build the cube through
// And instead of assuming a single fixed Shannon Apply.
func (m *Manager) Makeset(varset []int) (Edge, error) {
	res := One
	for _, idx := range varset {
		lit, err := m.Ithvar(idx)
		if err != nil {
			return nilEdge, err
		}
		res, err = m.And(res, lit)
		if err != nil {
			return nilEdge, err
		}
	}
	return res, nil
}

// Scanset is the dual of Makeset: it recovers the list of variable indices
// appearing (positively) in the cube n, by walking whichever cofactor is
// not the constant Zero at each level. Unlike the teacher's Scanset, which
// can assume every node's high edge directly is the "variable present"
// branch because rudd only ever uses Shannon expansion, here every level's
// cofactors are recovered through cofactors() so the walk works regardless
// of which expansion type produced the node.
func (m *Manager) Scanset(n Edge) ([]int, error) {
	res := []int{}
	cur := n
	for !cur.isConst() {
		f0, f1, err := m.cofactors(cur)
		if err != nil {
			return nil, err
		}
		idx := m.nodes[cur.node()].index
		switch {
		case f0 == Zero:
			res = append(res, int(idx))
			cur = f1
		case f1 == Zero:
			res = append(res, int(idx))
			cur = f0
		default:
			return nil, newError(InvariantViolation, "Scanset", errNotACube)
		}
	}
	return res, nil
}

// Satcount returns the number of satisfying assignments of n, computed
// with arbitrary-precision arithmetic to avoid overflow on functions over
// many variables (mirrors the teacher's Satcount, generalized to cofactors
// rather than low/high directly).
func (m *Manager) Satcount(n Edge) (*big.Int, error) {
	if !n.valid() {
		return big.NewInt(0), newError(Memory, "Satcount", errBadOperand)
	}
	res := big.NewInt(0)
	res.SetBit(res, int(m.edgeLevel(n)), 1)
	memo := make(map[Edge]*big.Int)
	v, err := m.satcount(n, memo)
	if err != nil {
		return big.NewInt(0), err
	}
	return res.Mul(res, v), nil
}

func (m *Manager) satcount(n Edge, memo map[Edge]*big.Int) (*big.Int, error) {
	if n == Zero {
		return big.NewInt(0), nil
	}
	if n == One {
		return big.NewInt(1), nil
	}
	if v, ok := memo[n]; ok {
		return v, nil
	}
	f0, f1, err := m.cofactors(n)
	if err != nil {
		return nil, err
	}
	lvl := m.edgeLevel(n)
	c0, err := m.satcount(f0, memo)
	if err != nil {
		return nil, err
	}
	c1, err := m.satcount(f1, memo)
	if err != nil {
		return nil, err
	}
	res := big.NewInt(0)
	two := big.NewInt(0)
	two.SetBit(two, int(m.edgeLevel(f0)-lvl-1), 1)
	res.Add(res, two.Mul(two, c0))
	two = big.NewInt(0)
	two.SetBit(two, int(m.edgeLevel(f1)-lvl-1), 1)
	res.Add(res, two.Mul(two, c1))
	memo[n] = res
	return res, nil
}

// Allsat iterates every satisfying assignment of n, calling f with a
// len(Varnum()) profile where each entry is 0, 1 or -1 (don't care). It
// stops and returns the first non-nil error f reports.
func (m *Manager) Allsat(n Edge, f func([]int) error) error {
	if !n.valid() {
		return newError(Memory, "Allsat", errBadOperand)
	}
	prof := make([]int, m.varnum)
	for i := range prof {
		prof[i] = -1
	}
	return m.allsat(n, prof, f)
}

func (m *Manager) allsat(n Edge, prof []int, f func([]int) error) error {
	if n == One {
		return f(prof)
	}
	if n == Zero {
		return nil
	}
	f0, f1, err := m.cofactors(n)
	if err != nil {
		return err
	}
	lvl := m.edgeLevel(n)
	if f0 != Zero {
		prof[lvl] = 0
		for v := m.edgeLevel(f0) - 1; v > lvl; v-- {
			prof[v] = -1
		}
		if err := m.allsat(f0, prof, f); err != nil {
			return err
		}
	}
	if f1 != Zero {
		prof[lvl] = 1
		for v := m.edgeLevel(f1) - 1; v > lvl; v-- {
			prof[v] = -1
		}
		if err := m.allsat(f1, prof, f); err != nil {
			return err
		}
	}
	return nil
}

// Allnodes calls f for every live node reachable from roots (or every live
// node in the manager, if roots is empty), passing its address, current
// level, and raw low/high edges. The order nodes are visited in is
// unspecified.
func (m *Manager) Allnodes(f func(addr int32, level int32, low, high Edge) error, roots ...Edge) error {
	visited := make(map[int32]bool)
	var walk func(e Edge) error
	walk = func(e Edge) error {
		if e.isConst() || !e.valid() {
			return nil
		}
		addr := e.node()
		if visited[addr] {
			return nil
		}
		visited[addr] = true
		nd := m.nodes[addr]
		if err := f(addr, m.level(nd.index), nd.low, nd.high); err != nil {
			return err
		}
		if err := walk(nd.low); err != nil {
			return err
		}
		return walk(nd.high)
	}
	if len(roots) == 0 {
		for _, st := range m.subtables {
			for _, head := range st.buckets {
				for cur := head; cur != -1; cur = m.nodes[cur].next {
					if err := walk(mkedge(cur, false)); err != nil {
						return err
					}
				}
			}
		}
		return nil
	}
	for _, r := range roots {
		if err := walk(r); err != nil {
			return err
		}
	}
	return nil
}
