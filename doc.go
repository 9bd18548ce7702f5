// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

/*
Package bkfdd defines a concrete type for Biconditional Kronecker Functional
Decision Diagrams (BKFDD), a generalization of ordinary Binary Decision
Diagrams in which every level of the diagram independently chooses one of six
decomposition rules: Shannon or positive/negative Davio, each either in its
classical form or in a biconditional form taken with respect to a paired
variable.

Basics

Each diagram is owned by a Manager, created with New, which fixes the initial
number of variables (Varnum). Variables are identified by a stable index
assigned at creation; their current position in the order (their level) can
change over the lifetime of the manager, through SwapAdjacent or through a sifting
sweep.

Most operations return an Edge: a tagged reference to a node that encodes both
the addressed node and a complement bit, following the complemented-edge
convention of the BuDDy/CUDD family of packages. Two edges denote the same
Boolean function if and only if they are equal as Go values; this is the
canonicity property the whole package is built to preserve.

Lineage

The data structures and algorithms in this package are a direct descendant of
github.com/dalzilio/rudd, a pure-Go reimplementation of the BuDDy BDD library.
We keep rudd's general shape (a hash-consed node pool, complemented edges,
reference counting piggy-backing on nothing but explicit Ref/Deref calls, a
family of operation caches) and generalize every piece that rudd hard-codes to
Shannon expansion so that it instead consults a per-level decomposition table.

Automatic memory management

Like rudd, the package is written in pure Go. Unlike rudd, external references
are not tracked through runtime finalizers: a swap or an expansion-type change
can invalidate node addresses outright, so the manager asks callers to Ref and
Deref explicitly (see §5 of the design notes) rather than relying on the Go
garbage collector to notice when an external slice of Nodes goes out of scope.
*/
package bkfdd
