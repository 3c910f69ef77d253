// das/avoid_test.go
// Copyright(c) 2022-2025 uamsim contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package das

import (
	"errors"
	"testing"

	"github.com/uamsim/uamsim/math"
)

// A representative heading in each quadrant.
var quadrantHeadings = map[int]float64{1: 45, 2: 135, 3: -45, 4: -135}

func TestRuleControllerNoIntruder(t *testing.T) {
	rc := NewRuleController(nil)
	cmd, err := rc.Action(nil)
	if err != nil || !cmd.IsZero() {
		t.Errorf("got (%+v, %v), expected zero command", cmd, err)
	}
}

func TestRuleControllerConflict(t *testing.T) {
	rc := NewRuleController(nil)
	obs := &Observation{
		OwnPosition:      math.Point2{0, 0},
		OwnHeading:       45,
		IntruderPosition: math.Point2{100, 100},
		IntruderHeading:  -135,
	}
	cmd, err := rc.Action(obs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd != (Command{Acceleration: -1, Heading: 25}) {
		t.Errorf("got %+v, expected (-1, 25)", cmd)
	}
}

func TestRuleControllerTable(t *testing.T) {
	displacements := map[GeometryCase]math.Point2{
		NorthEast: {100, 100},
		NorthWest: {-100, 100},
		SouthWest: {-100, -100},
		SouthEast: {100, -100},
	}
	expected := map[GeometryCase]struct {
		own, intr int
		cmd       Command
	}{
		NorthEast: {1, 4, Command{-1, 25}},
		NorthWest: {2, 3, Command{-1, -25}},
		SouthWest: {4, 1, Command{-1, 25}},
		SouthEast: {3, 2, Command{-1, -25}},
	}

	rc := NewRuleController(nil)
	for g, d := range displacements {
		for own := 1; own <= 4; own++ {
			for intr := 1; intr <= 4; intr++ {
				obs := &Observation{
					OwnPosition:      math.Point2{500, -200},
					OwnHeading:       quadrantHeadings[own],
					IntruderPosition: math.Add2(math.Point2{500, -200}, d),
					IntruderHeading:  quadrantHeadings[intr],
				}
				cmd, err := rc.Action(obs)
				if err != nil {
					t.Fatalf("%s own Q%d intruder Q%d: unexpected error: %v", g, own, intr, err)
				}

				var want Command
				if e := expected[g]; e.own == own && e.intr == intr {
					want = e.cmd
				}
				if cmd != want {
					t.Errorf("%s own Q%d intruder Q%d: got %+v, expected %+v", g, own, intr, cmd, want)
				}
			}
		}
	}
}

func TestRuleControllerOnAxis(t *testing.T) {
	rc := NewRuleController(nil)
	for _, d := range []math.Point2{{100, 0}, {-100, 0}, {0, 100}, {0, -100}} {
		for own := 1; own <= 4; own++ {
			for intr := 1; intr <= 4; intr++ {
				cmd, err := rc.Action(&Observation{
					OwnHeading:       quadrantHeadings[own],
					IntruderPosition: d,
					IntruderHeading:  quadrantHeadings[intr],
				})
				var dg *DegenerateGeometryError
				if !errors.As(err, &dg) || dg.Position != d {
					t.Errorf("displacement %s: got %v, expected a DegenerateGeometryError", d, err)
				}
				if !errors.Is(err, ErrDegenerateGeometry) || !cmd.IsZero() {
					t.Errorf("displacement %s: got (%+v, %v), expected ErrDegenerateGeometry", d, cmd, err)
				}
			}
		}
	}

	// Own at the origin heading northeast, intruder due north heading
	// southwest.
	_, err := rc.Action(&Observation{OwnHeading: 45, IntruderPosition: math.Point2{0, 100}, IntruderHeading: -135})
	if !errors.Is(err, ErrDegenerateGeometry) {
		t.Errorf("got %v, expected ErrDegenerateGeometry", err)
	}
}

func TestRuleControllerErrors(t *testing.T) {
	rc := NewRuleController(nil)

	_, err := rc.Action(&Observation{
		OwnPosition:      math.Point2{10, 10},
		OwnHeading:       45,
		IntruderPosition: math.Point2{10, 10},
		IntruderHeading:  -135,
	})
	if !errors.Is(err, ErrDegenerateGeometry) {
		t.Errorf("coincident: got %v, expected ErrDegenerateGeometry", err)
	}

	_, err = rc.Action(&Observation{
		IntruderPosition: math.Point2{10, 10},
		OwnHeading:       270,
		IntruderHeading:  -135,
	})
	if !errors.Is(err, math.ErrInvalidHeading) {
		t.Errorf("own heading 270: got %v, expected ErrInvalidHeading", err)
	}

	_, err = rc.Action(&Observation{
		IntruderPosition: math.Point2{10, 10},
		OwnHeading:       45,
		IntruderHeading:  -180,
	})
	if !errors.Is(err, math.ErrInvalidHeading) {
		t.Errorf("intruder heading -180: got %v, expected ErrInvalidHeading", err)
	}
}

func TestZeroController(t *testing.T) {
	var zc ZeroController
	for _, obs := range []*Observation{
		nil,
		{OwnHeading: 45, IntruderPosition: math.Point2{100, 100}, IntruderHeading: -135},
		{OwnHeading: 45, IntruderHeading: -135}, // coincident
	} {
		if cmd, err := zc.Action(obs); err != nil || !cmd.IsZero() {
			t.Errorf("got (%+v, %v), expected zero command", cmd, err)
		}
	}
}

func TestNewController(t *testing.T) {
	for _, tc := range []struct {
		name, expected string
	}{
		{"", "rule"}, {"rule", "rule"}, {"zero", "zero"},
	} {
		c, err := NewController(tc.name, nil)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", tc.name, err)
		}
		if c.Name() != tc.expected {
			t.Errorf("%q: got controller %q, expected %q", tc.name, c.Name(), tc.expected)
		}
	}

	if _, err := NewController("ppo", nil); !errors.Is(err, ErrUnknownController) {
		t.Errorf("got %v, expected ErrUnknownController", err)
	}
}

func TestMakeObservation(t *testing.T) {
	own := Track{ID: 1, Position: math.Point2{1, 2}, Heading: 30}
	if obs := MakeObservation(own, nil); obs != nil {
		t.Errorf("got %+v for no intruder, expected nil", obs)
	}
	in := Intruder{ID: 2, Position: math.Point2{5, 6}, Heading: -60}
	obs := MakeObservation(own, &in)
	if obs == nil || obs.OwnPosition != own.Position || obs.IntruderPosition != in.Position ||
		obs.OwnHeading != 30 || obs.IntruderHeading != -60 {
		t.Errorf("got %+v", obs)
	}
}
