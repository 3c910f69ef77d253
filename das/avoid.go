// das/avoid.go
// Copyright(c) 2022-2025 uamsim contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package das

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/uamsim/uamsim/log"
	"github.com/uamsim/uamsim/math"
)

var ErrUnknownController = errors.New("Unknown avoidance controller")

// Command is an adjustment applied on top of the flight model for one
// tick: Acceleration is added to the acceleration envelope's value and
// Heading is added after the heading controller has run.
type Command struct {
	Acceleration float64
	Heading      float64
}

func (c Command) IsZero() bool { return c == Command{} }

func (c Command) LogValue() slog.Value {
	return slog.GroupValue(slog.Float64("acceleration", c.Acceleration),
		slog.Float64("heading", c.Heading))
}

// Observation is what a controller sees of one aircraft and its chosen
// intruder.
type Observation struct {
	OwnPosition      math.Point2
	OwnHeading       float64
	IntruderPosition math.Point2
	IntruderHeading  float64
}

// MakeObservation returns nil if there's no intruder.
func MakeObservation(own Track, in *Intruder) *Observation {
	if in == nil {
		return nil
	}
	return &Observation{
		OwnPosition:      own.Position,
		OwnHeading:       own.Heading,
		IntruderPosition: in.Position,
		IntruderHeading:  in.Heading,
	}
}

// Controller decides how an aircraft should respond to an intruder. A nil
// observation means there is no intruder. Implementations must be safe to
// call concurrently.
type Controller interface {
	Action(obs *Observation) (Command, error)
	Name() string
}

var controllers = map[string]func(lg *log.Logger) Controller{
	"rule": func(lg *log.Logger) Controller { return NewRuleController(lg) },
	"zero": func(*log.Logger) Controller { return ZeroController{} },
}

// DefaultController is used when no controller is named.
const DefaultController = "rule"

// NewController returns the controller registered with the given name.
func NewController(name string, lg *log.Logger) (Controller, error) {
	if name == "" {
		name = DefaultController
	}
	if f, ok := controllers[name]; ok {
		return f(lg), nil
	}
	return nil, fmt.Errorf("%s: %w", name, ErrUnknownController)
}

// RuleController issues a fixed slow-and-turn command for the heading
// quadrant pairings in the avoidance rule table.
type RuleController struct {
	lg *log.Logger
}

func NewRuleController(lg *log.Logger) *RuleController {
	return &RuleController{lg: lg}
}

func (rc *RuleController) Name() string { return "rule" }

func (rc *RuleController) Action(obs *Observation) (Command, error) {
	if obs == nil {
		return Command{}, nil
	}

	g, err := ClassifyGeometry(math.Sub2(obs.IntruderPosition, obs.OwnPosition))
	if err != nil {
		return Command{}, err
	}
	own, err := math.Quadrant(obs.OwnHeading)
	if err != nil {
		return Command{}, fmt.Errorf("own heading: %w", err)
	}
	intr, err := math.Quadrant(obs.IntruderHeading)
	if err != nil {
		return Command{}, fmt.Errorf("intruder heading: %w", err)
	}

	cmd, ok := LookupRule(g, own, intr)
	if ok {
		rc.lg.Debug("avoidance rule matched", slog.String("geometry", g.String()),
			slog.Int("own_quadrant", own), slog.Int("intruder_quadrant", intr),
			slog.Any("command", cmd))
	}
	return cmd, nil
}

// ZeroController never commands anything; it's the baseline with
// avoidance turned off.
type ZeroController struct{}

func (ZeroController) Name() string { return "zero" }

func (ZeroController) Action(*Observation) (Command, error) { return Command{}, nil }
