// rand/rand.go
// Copyright(c) 2022-2025 uamsim contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package rand

import (
	"github.com/MichaelTJones/pcg"
)

///////////////////////////////////////////////////////////////////////////
// Random numbers.

// Rand is a seedable PCG32 generator. Runs with the same seed draw the same
// sequence, which is what makes simulations reproducible.
type Rand struct {
	r *pcg.PCG32
}

func New() *Rand {
	return &Rand{r: pcg.NewPCG32()}
}

// Make returns a generator that has already been seeded with |s|.
func Make(s int64) *Rand {
	r := New()
	r.Seed(s)
	return r
}

func (r *Rand) Seed(s int64) {
	r.r.Seed(uint64(s), 0xda3e39cb94b95bdb)
}

func (r *Rand) Intn(n int) int {
	return int(r.r.Bounded(uint32(n)))
}

func (r *Rand) Uint32() uint32 {
	return r.r.Random()
}

// Float64 returns a value in [0,1).
func (r *Rand) Float64() float64 {
	return float64(r.r.Random()) / (1 << 32)
}

// SampleSlice uniformly randomly samples an element of a non-empty slice.
func SampleSlice[T any](r *Rand, slice []T) T {
	return slice[r.Intn(len(slice))]
}
