// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package bkfdd

import (
	"slices"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Sift runs one dynamic-reordering sweep (§4.9, §6.4): every variable is
// visited, in decreasing order of how large its subtable currently is, and
// moved through the level range via SwapAdjacent, trying each classical
// function-axis expansion at every position it passes through, before
// settling at whichever (level, expansion) pair gave the smallest live
// node count seen along the way.
//
// The teacher never reorders, so this has no direct rudd ancestor; it is
// grounded on the corpus's retry-with-backoff idiom instead (as seen
// wiring github.com/cenkalti/backoff/v4 elsewhere in the example pack): a
// sweep that aborts on Memory gets one more chance after an explicit GC
// pass, since a sift sweep's own churn (building and discarding trial
// encodings) is exactly the kind of transient pressure a collection can
// relieve.
// Sift also returns a translation table, with the same contract as
// SwapAdjacent's: any Edge a caller held before the call that named a node
// address the sweep reclaimed maps to its post-sift equivalent. A sweep
// performs many swaps internally and none of them individually know about
// edges a caller is holding outside the manager, so the per-swap tables are
// composed into one across the whole sweep instead of being discarded.
// The time limit is armed on entry and disarmed again on return.
func (m *Manager) Sift() (map[Edge]Edge, error) {
	m.armDeadline()
	defer func() { m.deadline = time.Time{} }()
	bo := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 1)
	var remap map[Edge]Edge
	err := backoff.Retry(func() error {
		r, err := m.siftOnce()
		remap = composeRemap(remap, r)
		if err == nil {
			return nil
		}
		if IsMemory(err) {
			if gcErr := m.gc("sift-retry"); gcErr != nil {
				return backoff.Permanent(gcErr)
			}
			return err
		}
		return backoff.Permanent(err)
	}, bo)
	return remap, err
}

func (m *Manager) siftOnce() (map[Edge]Edge, error) {
	order := make([]int32, m.varnum)
	for i := range order {
		order[i] = int32(i)
	}
	slices.SortFunc(order, func(a, b int32) int {
		return int(m.subtables[m.level(b)].keys) - int(m.subtables[m.level(a)].keys)
	})

	var remap map[Edge]Edge
	visited := 0
	for _, idx := range order {
		if visited >= m.siftMaxVar {
			break
		}
		if m.checkDeadline() {
			return remap, newError(TimeoutExpired, "sift", nil)
		}
		r, err := m.siftVariable(idx)
		remap = composeRemap(remap, r)
		if err != nil {
			return remap, err
		}
		visited++
	}
	return remap, nil
}

// composeRemap merges two successive swap/sweep translation tables into one
// that maps a pre-first-swap Edge directly to its post-second-swap
// equivalent, following any key through both steps when present in both.
func composeRemap(acc, next map[Edge]Edge) map[Edge]Edge {
	if acc == nil {
		return next
	}
	if next == nil {
		return acc
	}
	out := make(map[Edge]Edge, len(acc)+len(next))
	for k, v := range acc {
		if v2, ok := next[v]; ok {
			out[k] = v2
		} else {
			out[k] = v
		}
	}
	for k, v := range next {
		if _, already := out[k]; !already {
			out[k] = v
		}
	}
	return out
}

// siftVariable moves variable idx to the bottom of the order, then to the
// top, recording the best (level, expansion) seen, and finally returns it
// to that best position. A sweep direction is abandoned early once the
// live node count has grown past maxGrowth times the best size found so
// far (§6.4's max_growth).
func (m *Manager) siftVariable(idx int32) (map[Edge]Edge, error) {
	lvl := m.level(idx)
	startLvl := lvl
	startExp := m.expansion[lvl]
	bestLvl := lvl
	bestExp := startExp
	bestSize := m.liveNodeCount()
	swaps := 0

	// Recorded before the first swap so unwind below can assert the sweep
	// ended up back where it started (§7's rollback guarantee). A raw
	// array copy cannot by itself undo a SwapAdjacent that already
	// succeeded, since real nodes were rebuilt to match it; unwind instead
	// walks idx back to startLvl through the same swap primitive, which is
	// its own inverse, and only then restores the snapshot as a final
	// consistency check.
	snap := m.snapshotLayout()

	var remap map[Edge]Edge
	swap := func(at int32) error {
		r, err := m.SwapAdjacent(at)
		remap = composeRemap(remap, r)
		return err
	}

	unwind := func() (map[Edge]Edge, error) {
		cur := m.level(idx)
		for cur < startLvl {
			if err := swap(cur); err != nil {
				return remap, err
			}
			cur++
		}
		for cur > startLvl {
			if err := swap(cur - 1); err != nil {
				return remap, err
			}
			cur--
		}
		if err := m.ChangeExpansion(startLvl, startExp); err != nil {
			return remap, err
		}
		m.restoreLayout(snap)
		return remap, nil
	}

	// tryTotal/tryFailed count how many alternate expansions tryExpansions
	// has rejected across this whole sweep; once that failure ratio passes
	// chooseFailBoundFactor, further restructuring is unlikely to pay off
	// and the sweep direction is abandoned early (§6.4's
	// choose_fail_bound_factor), the same way a growth blow-up already
	// does via maxGrowth.
	tryTotal, tryFailed := 0, 0

	for lvl < m.varnum-1 && swaps < m.siftMaxSwap {
		if err := swap(lvl); err != nil {
			return unwind()
		}
		swaps++
		lvl++
		if err := m.tryExpansions(lvl, &bestLvl, &bestExp, &bestSize, &tryTotal, &tryFailed); err != nil {
			return unwind()
		}
		if float64(m.liveNodeCount()) > m.maxGrowth*float64(bestSize) {
			break
		}
		if tryTotal > 0 && float64(tryFailed)/float64(tryTotal) > m.chooseFailBoundFactor {
			break
		}
	}
	for lvl > 0 && swaps < m.siftMaxSwap {
		if err := swap(lvl - 1); err != nil {
			return unwind()
		}
		swaps++
		lvl--
		if err := m.tryExpansions(lvl, &bestLvl, &bestExp, &bestSize, &tryTotal, &tryFailed); err != nil {
			return unwind()
		}
		if float64(m.liveNodeCount()) > m.maxGrowth*float64(bestSize) {
			break
		}
		if tryTotal > 0 && float64(tryFailed)/float64(tryTotal) > m.chooseFailBoundFactor {
			break
		}
	}
	for lvl < bestLvl {
		if err := swap(lvl); err != nil {
			return unwind()
		}
		lvl++
	}
	for lvl > bestLvl {
		if err := swap(lvl - 1); err != nil {
			return unwind()
		}
		lvl--
	}
	if err := m.ChangeExpansion(bestLvl, bestExp); err != nil {
		return unwind()
	}
	return remap, nil
}

// tryExpansions measures the live node count under each classical
// function-axis expansion at lvl, restoring lvl's original expansion before
// returning, and updates (bestLvl, bestExp, bestSize) if a candidate beats
// the best seen so far by enough to be worth the churn. Biconditional
// candidates are not tried automatically: they need a partner variable
// chosen deliberately (ChangeVariant), which is left to an explicit caller
// rather than something a generic sweep can discover on its own.
//
// The acceptance bar is not "any improvement": introducing a Davio encoding
// must clear a strictly higher bar than staying on the Shannon axis
// (chooseDavBoundFactor vs chooseNewBoundFactor, both expressed as "the
// candidate's size times this factor must still undercut the best size seen
// so far" — a factor above 1 demands a real margin, not a tie), a Davio
// candidate is only even tried while davioExistFactor's cap on the fraction
// of Davio levels hasn't already been reached, and a candidate that doesn't
// bring the manager's total live node count down to at most
// chooseLowerBoundFactor of that count on entry is rejected even if it would otherwise have counted as an improvement
// (§6.4). tryTotal/tryFailed accumulate how many candidates were tried and
// rejected, for the caller's chooseFailBoundFactor check.
func (m *Manager) tryExpansions(lvl int32, bestLvl *int32, bestExp *Expansion, bestSize *int, tryTotal, tryFailed *int) error {
	orig := m.expansion[lvl]
	origSize := m.liveNodeCount()
	floor := float64(origSize) * m.chooseLowerBoundFactor

	for _, cand := range [...]Expansion{CS, CND, CPD} {
		if cand == orig {
			continue
		}
		if cand != CS && !m.davioRoomAvailable() {
			continue
		}
		*tryTotal++
		if err := m.ChangeExpansion(lvl, cand); err != nil {
			return err
		}
		size := m.liveNodeCount()
		bound := m.chooseNewBoundFactor
		if cand != CS {
			bound = m.chooseDavBoundFactor
		}
		if size < *bestSize && float64(size)*bound < float64(*bestSize) && float64(size) <= floor {
			*bestSize, *bestLvl, *bestExp = size, lvl, cand
		} else {
			*tryFailed++
		}
		if err := m.ChangeExpansion(lvl, orig); err != nil {
			return err
		}
	}
	if size := m.liveNodeCount(); size < *bestSize {
		*bestSize, *bestLvl, *bestExp = size, lvl, orig
	}
	return nil
}

// davioRoomAvailable reports whether fewer than davioExistFactor of the
// manager's levels currently hold a Davio function-axis expansion, the cap
// tryExpansions enforces before even trying a Davio candidate (§6.4's
// davio_exist_factor: "fraction of levels allowed to hold Davio
// expansions").
func (m *Manager) davioRoomAvailable() bool {
	davio := 0
	for _, exp := range m.expansion {
		if !exp.IsShannon() {
			davio++
		}
	}
	return float64(davio) < m.davioExistFactor*float64(len(m.expansion))
}

// liveNodeCount returns the total number of live interior nodes across
// every level, plus one for the shared constant.
func (m *Manager) liveNodeCount() int {
	n := 1
	for _, st := range m.subtables {
		n += int(st.keys)
	}
	return n
}
