// das/detect.go
// Copyright(c) 2022-2025 uamsim contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package das implements detect-and-avoid: per-tick intruder detection
// over a population of aircraft and the controllers that turn an intruder
// into an avoidance command.
package das

import (
	"cmp"
	"log/slog"
	"slices"

	"github.com/uamsim/uamsim/math"
)

type AgentID uint64

// Track is the pre-tick view of an aircraft that detection works from.
type Track struct {
	ID              AgentID
	Position        math.Point2
	Heading         float64
	Speed           float64
	FootprintRadius float64
	NMACRadius      float64
	DetectionRadius float64
}

// Intruder is another aircraft whose detection circle overlaps ours,
// with metrics relative to the observing aircraft.
type Intruder struct {
	ID       AgentID
	Position math.Point2
	Heading  float64
	Speed    float64

	Distance   float64
	SpeedDelta float64
	// HeadingDelta is the raw absolute difference of the two headings;
	// it isn't wrapped, so 179 and -179 are 358 apart.
	HeadingDelta float64
}

func (in Intruder) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("id", uint64(in.ID)),
		slog.Float64("distance", in.Distance),
		slog.Float64("speed_delta", in.SpeedDelta),
		slog.Float64("heading_delta", in.HeadingDelta))
}

// Intruders is ordered by increasing distance, ties broken by id.
type Intruders []Intruder

// Nearest returns the closest intruder or nil if there are none.
func (in Intruders) Nearest() *Intruder {
	if len(in) == 0 {
		return nil
	}
	return &in[0]
}

func (in Intruders) IDs() []AgentID {
	return collect(in, func(i Intruder) AgentID { return i.ID })
}

func (in Intruders) Distances() []float64 {
	return collect(in, func(i Intruder) float64 { return i.Distance })
}

func (in Intruders) SpeedDeltas() []float64 {
	return collect(in, func(i Intruder) float64 { return i.SpeedDelta })
}

func (in Intruders) HeadingDeltas() []float64 {
	return collect(in, func(i Intruder) float64 { return i.HeadingDelta })
}

func collect[T any](in Intruders, f func(Intruder) T) []T {
	r := make([]T, len(in))
	for i, intr := range in {
		r[i] = f(intr)
	}
	return r
}

func makeIntruder(own, other Track) Intruder {
	return Intruder{
		ID:           other.ID,
		Position:     other.Position,
		Heading:      other.Heading,
		Speed:        other.Speed,
		Distance:     math.Distance2(own.Position, other.Position),
		SpeedDelta:   math.Abs(own.Speed - other.Speed),
		HeadingDelta: math.Abs(own.Heading - other.Heading),
	}
}

func sortIntruders(in Intruders) {
	slices.SortFunc(in, func(a, b Intruder) int {
		if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// InConflict reports whether the detection circles of the two tracks
// overlap. Swapping the arguments never changes the result.
func InConflict(a, b Track) bool {
	return a.ID != b.ID && math.CirclesIntersect(a.Position, a.DetectionRadius, b.Position, b.DetectionRadius)
}

// InNMAC is the same test using the near mid-air collision radii.
func InNMAC(a, b Track) bool {
	return a.ID != b.ID && math.CirclesIntersect(a.Position, a.NMACRadius, b.Position, b.NMACRadius)
}

// Detect returns the intruders of |own| among |population|, which may
// include |own| itself.
func Detect(own Track, population []Track) Intruders {
	var in Intruders
	for _, other := range population {
		if InConflict(own, other) {
			in = append(in, makeIntruder(own, other))
		}
	}
	sortIntruders(in)
	return in
}

// DetectAll returns the intruders of every aircraft in the population,
// keyed by id. Each unordered pair is tested once and a hit is recorded
// for both aircraft. Every aircraft has an entry, possibly empty.
func DetectAll(population []Track) map[AgentID]Intruders {
	result := make(map[AgentID]Intruders, len(population))
	for _, t := range population {
		result[t.ID] = nil
	}

	ix := NewIndex(population)
	ix.Pairs(func(t Track) float64 { return t.DetectionRadius }, func(i, j int) {
		a, b := population[i], population[j]
		if InConflict(a, b) {
			result[a.ID] = append(result[a.ID], makeIntruder(a, b))
			result[b.ID] = append(result[b.ID], makeIntruder(b, a))
		}
	})

	for _, in := range result {
		sortIntruders(in)
	}
	return result
}

// NMAC returns the ids of the aircraft in near mid-air collision with
// |own|, in increasing id order. It is used only for alerting.
func NMAC(own Track, population []Track) []AgentID {
	var ids []AgentID
	for _, other := range population {
		if InNMAC(own, other) {
			ids = append(ids, other.ID)
		}
	}
	slices.Sort(ids)
	return ids
}

// NMACPairs returns every pair of aircraft in near mid-air collision,
// lower id first, sorted.
func NMACPairs(population []Track) [][2]AgentID {
	return closePairs(population, func(t Track) float64 { return t.NMACRadius })
}

// CollisionPairs returns every pair of aircraft whose footprints overlap,
// lower id first, sorted.
func CollisionPairs(population []Track) [][2]AgentID {
	return closePairs(population, func(t Track) float64 { return t.FootprintRadius })
}

func closePairs(population []Track, radius func(Track) float64) [][2]AgentID {
	var pairs [][2]AgentID
	ix := NewIndex(population)
	ix.Pairs(radius, func(i, j int) {
		a, b := population[i], population[j]
		if a.ID != b.ID && math.CirclesIntersect(a.Position, radius(a), b.Position, radius(b)) {
			pairs = append(pairs, [2]AgentID{min(a.ID, b.ID), max(a.ID, b.ID)})
		}
	})
	slices.SortFunc(pairs, func(a, b [2]AgentID) int {
		if c := cmp.Compare(a[0], b[0]); c != 0 {
			return c
		}
		return cmp.Compare(a[1], b[1])
	})
	return pairs
}
