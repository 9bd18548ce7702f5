// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package bkfdd

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// Stats reports a snapshot of the manager's internal sizing, in the same
// tabwriter-formatted shape the teacher's Stats()/String() use, extended
// with a per-level row naming the variable and expansion type in force at
// that position, since that assignment is exactly what a BKFDD adds over
// an ordinary BDD.
type Stats struct {
	Nodesize   int
	Freenodes  int
	Produced   int64
	Varnum     int
	Cachesize  int
	GCCount    int
	Levels     []LevelStats
}

// LevelStats describes one level of the variable order.
type LevelStats struct {
	Level     int
	Index     int
	Expansion Expansion
	Keys      int32
	Slots     int32
}

// Stats gathers a Stats snapshot of the manager.
func (m *Manager) Stats() Stats {
	s := Stats{
		Nodesize:  len(m.nodes),
		Freenodes: int(m.freenum),
		Produced:  m.produced,
		Varnum:    int(m.varnum),
		Cachesize: m.cachesize,
		GCCount:   len(m.gcstat.history),
		Levels:    make([]LevelStats, m.varnum),
	}
	for lvl := int32(0); lvl < m.varnum; lvl++ {
		st := m.subtables[lvl]
		s.Levels[lvl] = LevelStats{
			Level:     int(lvl),
			Index:     int(m.invperm[lvl]),
			Expansion: m.expansion[lvl],
			Keys:      st.keys,
			Slots:     st.slots(),
		}
	}
	return s
}

// String renders a human-readable report, in the tabwriter-aligned style
// of the teacher's reporting helpers.
func (s Stats) String() string {
	var buf writerBuf
	w := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "nodesize:\t%d\n", s.Nodesize)
	fmt.Fprintf(w, "freenodes:\t%d\n", s.Freenodes)
	fmt.Fprintf(w, "produced:\t%d\n", s.Produced)
	fmt.Fprintf(w, "varnum:\t%d\n", s.Varnum)
	fmt.Fprintf(w, "cachesize:\t%d\n", s.Cachesize)
	fmt.Fprintf(w, "gccount:\t%d\n", s.GCCount)
	fmt.Fprintf(w, "level\tindex\texpansion\tkeys\tslots\n")
	for _, l := range s.Levels {
		fmt.Fprintf(w, "%d\t%d\t%s\t%d\t%d\n", l.Level, l.Index, l.Expansion, l.Keys, l.Slots)
	}
	w.Flush()
	return buf.String()
}

// writerBuf is a tiny io.Writer over a string builder, kept local so
// stats.go does not need to import strings/bytes for a single use.
type writerBuf struct{ b []byte }

func (w *writerBuf) Write(p []byte) (int, error) {
	w.b = append(w.b, p...)
	return len(p), nil
}

func (w *writerBuf) String() string { return string(w.b) }

var _ io.Writer = (*writerBuf)(nil)
