// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package bkfdd

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// interactMatrix tracks, for each variable index, the set of other variable
// indices that appear as a direct child of some node decomposing on it, or
// as the parent of such a node (the relation is recorded symmetrically).
// Deeper descendants are not recorded. The
// swap primitive (§4.7) consults this to recognize the degenerate case
// where two adjacent variables never interact and a swap can be done by
// just exchanging perm/invperm entries, without touching a single node.
//
// The teacher has no equivalent (rudd never reorders), so this is grounded
// on the bitset-per-row idiom common across the example pack; we use a
// roaring bitmap per row instead of a fixed-width bitset since the number
// of variables can grow at runtime via NewVar.
type interactMatrix struct {
	rows []*roaring.Bitmap
}

func newInteractMatrix(varnum int) *interactMatrix {
	im := &interactMatrix{rows: make([]*roaring.Bitmap, varnum)}
	for i := range im.rows {
		im.rows[i] = roaring.New()
	}
	return im
}

func (im *interactMatrix) grow(varnum int) {
	for len(im.rows) < varnum {
		im.rows = append(im.rows, roaring.New())
	}
}

// record notes that a node on variable parent has low/high cofactors
// touching variables lowIdx/highIdx (varnum denotes "no variable", i.e. a
// constant child, and is ignored).
func (im *interactMatrix) record(parent, lowIdx, highIdx int32) {
	n := int32(len(im.rows))
	if parent < n {
		if lowIdx < n {
			im.rows[parent].Add(uint32(lowIdx))
			im.rows[lowIdx].Add(uint32(parent))
		}
		if highIdx < n {
			im.rows[parent].Add(uint32(highIdx))
			im.rows[highIdx].Add(uint32(parent))
		}
	}
}

// interacts reports whether variables a and b ever appeared as a node and
// one of its direct children.
func (im *interactMatrix) interacts(a, b int32) bool {
	return im.rows[a].Contains(uint32(b))
}

// swap exchanges the bookkeeping rows for two variable indices after their
// levels have been swapped; the interaction relationship itself (which
// variables' functions depend on which) does not change, only which row we
// index it at is mechanically unaffected, so swap is in fact a no-op here.
// Nothing calls it; SwapAdjacent leaves the matrix as it is.
func (im *interactMatrix) swap(int32, int32) {}
