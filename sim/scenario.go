// sim/scenario.go
// Copyright(c) 2022-2025 uamsim contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/uamsim/uamsim/log"
	"github.com/uamsim/uamsim/math"
	"github.com/uamsim/uamsim/nav"
	"github.com/uamsim/uamsim/record"
	"github.com/uamsim/uamsim/util"

	"github.com/iancoleman/orderedmap"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Scenario is the JSON description of a simulation run.
type Scenario struct {
	Seed         int64                  `json:"seed"`
	DT           float64                `json:"dt"`
	Steps        int                    `json:"steps"`
	Controller   string                 `json:"controller"`
	AutoReassign bool                   `json:"auto_reassign"`
	Constants    json.RawMessage        `json:"constants"`
	Vertiports   *orderedmap.OrderedMap `json:"vertiports"`
	Flights      []ScenarioFlight       `json:"flights"`

	// Set up by PostDeserialize and AddGeoJSON.
	locations *MapLocations
	obstacles orb.MultiPolygon
	constants Constants
}

type ScenarioFlight struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Count int    `json:"count"`
	// Overrides for the scenario's constants for these aircraft.
	Constants json.RawMessage `json:"constants"`

	constants Constants
}

// LoadScenario parses and validates a scenario, reporting every problem
// to |e|. It returns nil if there were errors.
func LoadScenario(data []byte, e *util.ErrorLogger) *Scenario {
	defer e.CheckDepth(e.CurrentDepth())

	for _, dup := range util.FindDuplicateJSONKeys(data) {
		e.ErrorString("%s: key is repeated", dup)
	}
	util.CheckJSON[Scenario](data, e)
	if e.HaveErrors() {
		return nil
	}

	var sc Scenario
	if err := util.UnmarshalJSONBytes(data, &sc); err != nil {
		e.Error(err)
		return nil
	}

	sc.PostDeserialize(e)
	if e.HaveErrors() {
		return nil
	}
	return &sc
}

// PostDeserialize resolves the vertiports and constants. Flights are
// validated by Validate, since vertiports may still be added from
// GeoJSON.
func (sc *Scenario) PostDeserialize(e *util.ErrorLogger) {
	defer e.CheckDepth(e.CurrentDepth())

	if sc.DT == 0 {
		sc.DT = 1
	} else if !(sc.DT > 0) {
		e.ErrorString("\"dt\" must be positive")
	}
	if sc.Steps < 0 {
		e.ErrorString("\"steps\" must not be negative")
	}

	sc.constants = DefaultConstants()
	if len(sc.Constants) > 0 {
		e.Push("constants")
		sc.constants = parseConstants(sc.Constants, sc.constants, e)
		e.Pop()
	}

	sc.locations = NewMapLocations()
	if sc.Vertiports != nil {
		for _, name := range sc.Vertiports.Keys() {
			e.Push("vertiport " + name)
			v, _ := sc.Vertiports.Get(name)
			if p, ok := parsePoint(v); ok {
				sc.locations.Add(name, p)
			} else {
				e.ErrorString("expected an [x, y] array of numbers")
			}
			e.Pop()
		}
	}
}

func parseConstants(raw json.RawMessage, base Constants, e *util.ErrorLogger) Constants {
	c := base
	if err := util.UnmarshalJSONBytes(raw, &c); err != nil {
		e.Error(err)
		return base
	}
	if err := c.Validate(); err != nil {
		e.Error(err)
	}
	return c
}

func parsePoint(v any) (math.Point2, bool) {
	a, ok := v.([]any)
	if !ok || len(a) != 2 {
		return math.Point2{}, false
	}
	x, xok := a[0].(float64)
	y, yok := a[1].(float64)
	return math.Point2{x, y}, xok && yok
}

// AddGeoJSON adds vertiports from named point features and obstacles
// from polygon features.
func (sc *Scenario) AddGeoJSON(data []byte, e *util.ErrorLogger) {
	defer e.CheckDepth(e.CurrentDepth())

	if sc.locations == nil {
		sc.locations = NewMapLocations()
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		e.Error(err)
		return
	}

	for i, f := range fc.Features {
		e.Push("feature " + strconv.Itoa(i))
		switch g := f.Geometry.(type) {
		case orb.Point:
			if name := f.Properties.MustString("name", ""); name == "" {
				e.ErrorString("point feature has no \"name\" property")
			} else if _, err := sc.locations.Location(name); err == nil {
				e.ErrorString("%s: vertiport is defined more than once", name)
			} else {
				sc.locations.Add(name, math.Point2(g))
			}
		case orb.Polygon:
			sc.obstacles = append(sc.obstacles, g)
		case orb.MultiPolygon:
			sc.obstacles = append(sc.obstacles, g...)
		default:
			e.ErrorString("unsupported geometry type %q", f.Geometry.GeoJSONType())
		}
		e.Pop()
	}
}

// Validate checks the flights against the known vertiports.
func (sc *Scenario) Validate(e *util.ErrorLogger) {
	defer e.CheckDepth(e.CurrentDepth())

	if sc.locations == nil || sc.locations.Len() == 0 {
		e.ErrorString("no vertiports were specified")
	}
	if sc.AutoReassign && sc.locations != nil && sc.locations.Len() < 2 {
		e.ErrorString("\"auto_reassign\" requires at least two vertiports")
	}
	if len(sc.Flights) == 0 {
		e.ErrorString("no flights were specified")
	}

	for i := range sc.Flights {
		f := &sc.Flights[i]
		e.Push(fmt.Sprintf("flight %d (%s-%s)", i, f.From, f.To))

		if f.Count == 0 {
			f.Count = 1
		} else if f.Count < 0 {
			e.ErrorString("\"count\" must be positive")
		}

		f.constants = sc.constants
		if len(f.Constants) > 0 {
			e.Push("constants")
			f.constants = parseConstants(f.Constants, sc.constants, e)
			e.Pop()
		}

		start, serr := sc.locations.Location(f.From)
		if serr != nil {
			e.Error(serr)
		}
		end, eerr := sc.locations.Location(f.To)
		if eerr != nil {
			e.Error(eerr)
		}
		if serr == nil && eerr == nil && f.constants.Validate() == nil {
			dt := sc.DT
			if dt == 0 {
				dt = 1
			}
			checkLeg(start, end, f.constants, dt, e)
		}

		e.Pop()
	}
}

// checkLeg reports legs the flight model can't fly.
func checkLeg(start, end math.Point2, c Constants, dt float64, e *util.ErrorLogger) {
	if start[1] == end[1] && start[0] < end[0] {
		// Aircraft start at rest, so the bearing stays exactly 0 and the
		// heading controller can't pick a turn direction.
		e.ErrorString("leg is due east; offset one of the vertiports")
		return
	}

	if d := flyLeg(start, end, c, dt); d > c.LandingProximity {
		e.ErrorString("vertiports are %.0fm apart; aircraft starting from rest stop %.1fm short and never arrive",
			math.Distance2(start, end), d)
	}
}

// maxLegTicks bounds flyLeg for legs that are never completed.
const maxLegTicks = 100000

// flyLeg runs the speed envelope for a leg flown from rest in a straight
// line at the end point, without avoidance, until the aircraft arrives or
// comes to a stop. It returns the distance remaining to the end point at
// that time.
func flyLeg(start, end math.Point2, c Constants, dt float64) float64 {
	n := nav.MakeNav(start, end, math.Bearing(start, end),
		nav.Performance{MaxSpeed: c.MaxSpeed, MaxAcceleration: c.MaxAcceleration})
	fs := &n.FlightState

	for range maxLegTicks {
		n.UpdatePosition(dt)
		n.UpdateSpeed(dt, 0)
		if d := fs.DistanceToEnd(); d <= c.LandingProximity || fs.Speed == 0 {
			return d
		}
	}
	return fs.DistanceToEnd()
}

func (sc *Scenario) Locations() *MapLocations { return sc.locations }

func (sc *Scenario) Obstacles() orb.MultiPolygon { return sc.obstacles }

// NewSim creates a Sim with all of the scenario's aircraft. The scenario
// must have been validated.
func (sc *Scenario) NewSim(controller string, rec *record.Recorder, lg *log.Logger) (*Sim, error) {
	if controller == "" {
		controller = sc.Controller
	}

	config := NewSimConfiguration{
		Locations:    sc.locations,
		Controller:   controller,
		DT:           sc.DT,
		Seed:         sc.Seed,
		AutoReassign: sc.AutoReassign,
		Recorder:     rec,
	}
	if len(sc.obstacles) > 0 {
		config.Obstacles = NewStaticObstacles(sc.obstacles)
	}

	s, err := NewSim(config, lg)
	if err != nil {
		return nil, err
	}

	for _, f := range sc.Flights {
		for range f.Count {
			if _, err := s.AddAircraft(f.From, f.To, f.constants); err != nil {
				return nil, err
			}
		}
	}
	lg.Info("created sim", slog.Any("sim", s))
	return s, nil
}
