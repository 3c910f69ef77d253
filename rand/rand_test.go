// rand/rand_test.go
// Copyright(c) 2022-2025 uamsim contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package rand

import (
	"testing"
)

func TestSeedReproducible(t *testing.T) {
	a, b := Make(1234), Make(1234)
	for i := range 100 {
		if va, vb := a.Float64(), b.Float64(); va != vb {
			t.Fatalf("draw %d: %v != %v with the same seed", i, va, vb)
		}
	}

	c := Make(4321)
	same := 0
	a.Seed(1234)
	for range 100 {
		if a.Uint32() == c.Uint32() {
			same++
		}
	}
	if same > 5 {
		t.Errorf("different seeds gave %d identical draws out of 100", same)
	}
}

func TestFloat64Range(t *testing.T) {
	r := Make(7)
	var sum float64
	const n = 10000
	for range n {
		v := r.Float64()
		if v < 0 || v >= 1 {
			t.Fatalf("Float64 gave %v", v)
		}
		sum += v
	}
	if mean := sum / n; mean < 0.45 || mean > 0.55 {
		t.Errorf("mean %v far from 0.5", mean)
	}
}

func TestIntnAndSample(t *testing.T) {
	r := Make(99)
	counts := make([]int, 4)
	for range 4000 {
		counts[r.Intn(4)]++
	}
	for i, c := range counts {
		if c < 800 || c > 1200 {
			t.Errorf("bucket %d got %d of 4000 draws", i, c)
		}
	}

	s := []string{"a", "b", "c"}
	for range 50 {
		v := SampleSlice(r, s)
		if v != "a" && v != "b" && v != "c" {
			t.Errorf("SampleSlice returned %q", v)
		}
	}
}
