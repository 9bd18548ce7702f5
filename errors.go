// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package bkfdd

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind classifies the errors a Manager can raise, following §7 of the
// design notes. Memory, TimeoutExpired and InvariantViolation can all reach
// caller code; Reordered is declared but no code path raises it.
type ErrorKind int

const (
	// Memory signals that allocation failed: the unique table could not grow
	// a node and garbage collection did not free enough space. The same kind
	// is also returned for invalid arguments (a bad edge operand, a level or
	// variable out of range, an expansion change across the variant axis, a
	// bad biconditional partner); the wrapped cause tells them apart.
	Memory ErrorKind = iota
	// TimeoutExpired signals that the configured time limit or an external
	// cancellation fired during a recursive operation.
	TimeoutExpired
	// Reordered names an interruption of a recursive operation by an
	// automatic reorder. Nothing in the package raises it: reordering only
	// happens through explicit SwapAdjacent, ChangeExpansion, ChangeVariant
	// or Sift calls, and no operation is wrapped in a restart loop.
	Reordered
	// InvariantViolation means the manager or an argument was found in a
	// state the operation cannot accept: a debug assertion caught broken
	// reduction, uniqueness, order coherence or ref accounting, or Scanset
	// was given an edge that is not a cube.
	InvariantViolation
)

func (k ErrorKind) String() string {
	switch k {
	case Memory:
		return "memory"
	case TimeoutExpired:
		return "timeout"
	case Reordered:
		return "reordered"
	case InvariantViolation:
		return "invariant violation"
	default:
		return "unknown"
	}
}

// Error wraps an ErrorKind with the operation that raised it and, where
// applicable, an underlying cause. It mirrors the coded AppError pattern used
// throughout junjiewwang-perf-analysis's pkg/errors, adapted to the four
// kinds fixed by §7 instead of an open string code, and wrapped with
// github.com/pkg/errors so a Memory or InvariantViolation failure keeps a
// stack trace from the point it was first raised.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("bkfdd: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("bkfdd: %s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is a *Error with the same Kind, so callers can
// write errors.Is(err, bkfdd.ErrMemory) instead of type-asserting.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func newError(kind ErrorKind, op string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Err: errors.WithStack(cause)}
}

// Sentinel instances for use with errors.Is; they carry no Op or cause of
// their own and only serve as comparison targets.
var (
	ErrMemory             = &Error{Kind: Memory}
	ErrTimeoutExpired     = &Error{Kind: TimeoutExpired}
	errReordered          = &Error{Kind: Reordered}
	ErrInvariantViolation = &Error{Kind: InvariantViolation}

	errOutOfNodes = fmt.Errorf("node pool exhausted and no node could be reclaimed")
	errBadOperand = fmt.Errorf("invalid edge operand")
	errBadLevel     = fmt.Errorf("level out of range")
	errAxisMismatch = fmt.Errorf("expansion change crosses the variant axis; use ChangeVariant")
	errNotACube     = fmt.Errorf("node does not denote a literal cube")
	errBadPartner   = fmt.Errorf("invalid biconditional partner variable")

	errMemoryBudget = fmt.Errorf("configured memory or live-node budget exceeded")
)

// IsMemory reports whether err ultimately denotes an allocation failure.
func IsMemory(err error) bool { return errors.Is(err, ErrMemory) }

// IsTimeout reports whether err ultimately denotes a timeout or external
// cancellation.
func IsTimeout(err error) bool { return errors.Is(err, ErrTimeoutExpired) }
