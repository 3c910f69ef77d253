// cmd/uamsim/stats.go
// Copyright(c) 2022-2025 uamsim contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"cmp"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"

	"github.com/uamsim/uamsim/record"
	"github.com/uamsim/uamsim/sim"
)

// Stats collects counts of what happened over a run, either from the
// sim's event stream or from a recording.
type Stats struct {
	ticks  int
	counts [sim.NumEventTypes]int
	// Distinct pairs that came within NMAC range at some point.
	nmacPairs      map[[2]uint64]int
	collisionPairs map[[2]uint64]int
}

func addPair(m map[[2]uint64]int, a, b uint64) map[[2]uint64]int {
	if m == nil {
		m = make(map[[2]uint64]int)
	}
	m[[2]uint64{a, b}]++
	return m
}

func (st *Stats) Add(events []sim.Event) {
	for _, ev := range events {
		st.counts[ev.Type]++
		st.ticks = max(st.ticks, ev.Tick+1)
		switch ev.Type {
		case sim.NMACEvent:
			st.nmacPairs = addPair(st.nmacPairs, uint64(ev.Aircraft), uint64(ev.Other))
		case sim.CollisionEvent:
			st.collisionPairs = addPair(st.collisionPairs, uint64(ev.Aircraft), uint64(ev.Other))
		}
	}
}

// AddRecording derives the same counts from a recording. Departures and
// arrivals are found from changes in each aircraft's flags; reassignment
// and obstacle events aren't recorded.
func (st *Stats) AddRecording(r *record.Recording) {
	type flags struct{ departed, arrived bool }
	prev := make(map[uint64]flags)

	for _, fr := range r.Frames {
		st.ticks = max(st.ticks, fr.Tick+1)
		for _, ac := range fr.Aircraft {
			p := prev[ac.ID]
			if ac.Departed && !p.departed {
				st.counts[sim.DepartedEvent]++
			}
			if ac.Arrived && !p.arrived {
				st.counts[sim.ArrivedEvent]++
			}
			prev[ac.ID] = flags{ac.Departed, ac.Arrived}

			if ac.Command != [2]float64{} {
				st.counts[sim.AvoidanceEvent]++
			}
		}
		for _, p := range fr.NMAC {
			st.counts[sim.NMACEvent]++
			st.nmacPairs = addPair(st.nmacPairs, p[0], p[1])
		}
		for _, p := range fr.Collisions {
			st.counts[sim.CollisionEvent]++
			st.collisionPairs = addPair(st.collisionPairs, p[0], p[1])
		}
	}
}

func (st *Stats) Count(t sim.EventType) int { return st.counts[t] }

func (st *Stats) Print(w io.Writer) {
	fmt.Fprintf(w, "%d ticks\n", st.ticks)
	for t := range sim.NumEventTypes {
		fmt.Fprintf(w, "  %-12s %d\n", t.String()+":", st.counts[t])
	}
	fmt.Fprintf(w, "  %d distinct NMAC pairs, %d distinct colliding pairs\n", len(st.nmacPairs),
		len(st.collisionPairs))

	for _, p := range slices.SortedFunc(maps.Keys(st.collisionPairs), comparePairs) {
		fmt.Fprintf(w, "  collision: UAV%d and UAV%d for %d ticks\n", p[0], p[1], st.collisionPairs[p])
	}
}

func comparePairs(a, b [2]uint64) int {
	if c := cmp.Compare(a[0], b[0]); c != 0 {
		return c
	}
	return cmp.Compare(a[1], b[1])
}

func (st *Stats) LogValue() slog.Value {
	attrs := []slog.Attr{slog.Int("ticks", st.ticks)}
	for t := range sim.NumEventTypes {
		attrs = append(attrs, slog.Int(t.String(), st.counts[t]))
	}
	return slog.GroupValue(attrs...)
}
