// sim/scenario_test.go
// Copyright(c) 2022-2025 uamsim contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"slices"
	"strings"
	"testing"

	"github.com/uamsim/uamsim/math"
	"github.com/uamsim/uamsim/util"
)

const testScenario = `{
  "seed": 42,
  "steps": 500,
  "controller": "rule",
  "constants": { "detection_radius": 300 },
  "vertiports": {
    "north": [0, 4000],
    "south": [100, -4000],
    "east": [5000, 50]
  },
  "flights": [
    { "from": "north", "to": "south", "count": 3 },
    { "from": "south", "to": "east", "constants": { "max_speed": 60 } }
  ]
}`

func loadTestScenario(t *testing.T, s string) (*Scenario, *util.ErrorLogger) {
	t.Helper()
	var e util.ErrorLogger
	sc := LoadScenario([]byte(s), &e)
	if sc != nil {
		sc.Validate(&e)
	}
	return sc, &e
}

func TestLoadScenario(t *testing.T) {
	sc, e := loadTestScenario(t, testScenario)
	if e.HaveErrors() {
		t.Fatalf("unexpected errors: %s", e.String())
	}

	if sc.Seed != 42 || sc.Steps != 500 || sc.DT != 1 {
		t.Errorf("got seed %d steps %d dt %g", sc.Seed, sc.Steps, sc.DT)
	}
	if names := sc.Locations().Names(); !slices.Equal(names, []string{"north", "south", "east"}) {
		t.Errorf("got vertiports %v, expected declaration order", names)
	}
	if p, err := sc.Locations().Location("south"); err != nil || p != (math.Point2{100, -4000}) {
		t.Errorf("got %s, %v for south", p, err)
	}

	if sc.Flights[0].Count != 3 || sc.Flights[1].Count != 1 {
		t.Errorf("got counts %d and %d, expected 3 and 1", sc.Flights[0].Count, sc.Flights[1].Count)
	}
	c0, c1 := sc.Flights[0].constants, sc.Flights[1].constants
	if c0.DetectionRadius != 300 || c0.MaxSpeed != 79 {
		t.Errorf("scenario constants not applied: %+v", c0)
	}
	if c1.DetectionRadius != 300 || c1.MaxSpeed != 60 {
		t.Errorf("flight constants not applied: %+v", c1)
	}

	s, err := sc.NewSim("", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.Aircraft) != 4 || s.Controller.Name() != "rule" {
		t.Errorf("got %d aircraft with %q, expected 4 with \"rule\"", len(s.Aircraft), s.Controller.Name())
	}
	slow := 0
	for _, ac := range s.Aircraft {
		if ac.Constants.MaxSpeed == 60 {
			slow++
			if ac.From != "south" || ac.To != "east" || ac.Start != (math.Point2{100, -4000}) {
				t.Errorf("got %s-%s from %s", ac.From, ac.To, ac.Start)
			}
		}
	}
	if slow != 1 {
		t.Errorf("got %d aircraft with the flight's constants, expected 1", slow)
	}

	if s, err := sc.NewSim("zero", nil, nil); err != nil || s.Controller.Name() != "zero" {
		t.Errorf("controller override not applied: %v", err)
	}
}

func TestScenarioErrors(t *testing.T) {
	for _, test := range []struct {
		name, json, expected string
	}{
		{"repeated key", `{"seed": 1, "seed": 2, "vertiports": {"a": [0, 0]}}`, "key is repeated"},
		{"misspelled", `{"vertports": {}}`, "Is it misspelled?"},
		{"bad type", `{"steps": "many"}`, "invalid for type int"},
		{"bad vertiport", `{"vertiports": {"a": [0]}, "flights": []}`, "vertiport a: expected"},
		{"bad dt", `{"dt": -1}`, "\"dt\" must be positive"},
		{"bad constants", `{"constants": {"nmac_radius": 500}}`, "Radii must satisfy"},
		{"no flights", `{"vertiports": {"a": [0, 0]}}`, "no flights"},
		{"no vertiports", `{"flights": [{"from": "a", "to": "b"}]}`, "no vertiports"},
		{"unknown vertiport", `{"vertiports": {"a": [0, 0]}, "flights": [{"from": "a", "to": "b"}]}`,
			"b: Unknown location"},
		{"negative count", `{"vertiports": {"a": [0, 0], "b": [0, 9000]}, "flights": [{"from": "a", "to": "b", "count": -2}]}`,
			"\"count\" must be positive"},
		{"short leg", `{"vertiports": {"a": [0, 0], "b": [1000, 100]}, "flights": [{"from": "a", "to": "b"}]}`,
			"never arrive"},
		{"stalling leg", `{"vertiports": {"a": [0, 0], "b": [0, 1562]}, "flights": [{"from": "a", "to": "b"}]}`,
			"never arrive"},
		{"due east", `{"vertiports": {"a": [0, 0], "b": [9000, 0]}, "flights": [{"from": "a", "to": "b"}]}`,
			"due east"},
		{"reassign", `{"auto_reassign": true, "vertiports": {"a": [0, 0]}, "flights": [{"from": "a", "to": "a"}]}`,
			"at least two vertiports"},
	} {
		t.Run(test.name, func(t *testing.T) {
			_, e := loadTestScenario(t, test.json)
			if !e.HaveErrors() {
				t.Fatalf("expected an error")
			}
			if !strings.Contains(e.String(), test.expected) {
				t.Errorf("got %q, expected it to contain %q", e.String(), test.expected)
			}
		})
	}
}

func TestScenarioDueWest(t *testing.T) {
	// Only eastbound legs along the x axis are a problem.
	_, e := loadTestScenario(t, `{"vertiports": {"a": [9000, 0], "b": [0, 0]}, "flights": [{"from": "a", "to": "b"}]}`)
	if e.HaveErrors() {
		t.Errorf("unexpected errors: %s", e.String())
	}
}

const testGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    { "type": "Feature", "properties": { "name": "west" },
      "geometry": { "type": "Point", "coordinates": [-5000, 200] } },
    { "type": "Feature", "properties": { "height": 120 },
      "geometry": { "type": "Polygon", "coordinates": [[[1000, 1000], [2000, 1000], [2000, 2000], [1000, 2000], [1000, 1000]]] } },
    { "type": "Feature", "properties": {},
      "geometry": { "type": "MultiPolygon", "coordinates": [
        [[[-100, -100], [100, -100], [100, 100], [-100, 100], [-100, -100]]],
        [[[3000, 3000], [3100, 3000], [3100, 3100], [3000, 3000]]] ] } }
  ]
}`

func TestScenarioGeoJSON(t *testing.T) {
	var e util.ErrorLogger
	sc := LoadScenario([]byte(`{"vertiports": {"east": [5000, 300]}, "flights": [{"from": "west", "to": "east"}]}`), &e)
	if sc == nil {
		t.Fatalf("unexpected errors: %s", e.String())
	}
	sc.AddGeoJSON([]byte(testGeoJSON), &e)
	sc.Validate(&e)
	if e.HaveErrors() {
		t.Fatalf("unexpected errors: %s", e.String())
	}

	if p, err := sc.Locations().Location("west"); err != nil || p != (math.Point2{-5000, 200}) {
		t.Errorf("got %s, %v for west", p, err)
	}
	if n := len(sc.Obstacles()); n != 3 {
		t.Errorf("got %d obstacles, expected 3", n)
	}

	s, err := sc.NewSim("", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if s.Obstacles == nil {
		t.Fatalf("obstacles not passed to the sim")
	}
	if idx := s.Obstacles.Intersecting(math.Point2{0, 0}, 17); !slices.Equal(idx, []int{1}) {
		t.Errorf("got obstacles %v at the origin, expected [1]", idx)
	}
}

func TestScenarioGeoJSONErrors(t *testing.T) {
	for _, test := range []struct {
		name, json, expected string
	}{
		{"unnamed", `{"type": "FeatureCollection", "features": [{"type": "Feature", "properties": {},
			"geometry": {"type": "Point", "coordinates": [0, 0]}}]}`, "no \"name\""},
		{"repeated", `{"type": "FeatureCollection", "features": [{"type": "Feature", "properties": {"name": "east"},
			"geometry": {"type": "Point", "coordinates": [0, 0]}}]}`, "more than once"},
		{"line", `{"type": "FeatureCollection", "features": [{"type": "Feature", "properties": {},
			"geometry": {"type": "LineString", "coordinates": [[0, 0], [1, 1]]}}]}`, "unsupported geometry"},
		{"garbage", `{"type": `, ""},
	} {
		t.Run(test.name, func(t *testing.T) {
			var e util.ErrorLogger
			sc := LoadScenario([]byte(`{"vertiports": {"east": [5000, 300]}}`), &e)
			if sc == nil {
				t.Fatalf("unexpected errors: %s", e.String())
			}
			sc.AddGeoJSON([]byte(test.json), &e)
			if !e.HaveErrors() {
				t.Fatalf("expected an error")
			}
			if !strings.Contains(e.String(), test.expected) {
				t.Errorf("got %q, expected it to contain %q", e.String(), test.expected)
			}
		})
	}
}

func TestFlyLeg(t *testing.T) {
	c := DefaultConstants()
	for _, test := range []struct {
		end     math.Point2
		arrives bool
	}{
		{math.Point2{0, 1000}, false},
		{math.Point2{0, 1562}, false},
		{math.Point2{-1562, 0}, false},
		{math.Point2{0, 8000}, true},
		{math.Point2{-9000, 0}, true},
		{math.Point2{3000, -4000}, false},
		{math.Point2{6000, -8000}, true},
	} {
		d := flyLeg(math.Point2{}, test.end, c, 1)
		if arrived := d <= c.LandingProximity; arrived != test.arrives {
			t.Errorf("%s: stopped %.1fm from the end; expected arrival %v", test.end, d, test.arrives)
		}
	}

	// Stalls well short of the end, as an aircraft in the sim does.
	if d := flyLeg(math.Point2{}, math.Point2{0, 1562}, c, 1); d < 1400 {
		t.Errorf("got %.1fm remaining, expected the aircraft to stop soon after braking starts", d)
	}
}
