// sim/sim.go
// Copyright(c) 2022-2025 uamsim contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"runtime"
	"slices"
	"time"

	"github.com/uamsim/uamsim/das"
	"github.com/uamsim/uamsim/log"
	"github.com/uamsim/uamsim/math"
	"github.com/uamsim/uamsim/rand"
	"github.com/uamsim/uamsim/record"
	"github.com/uamsim/uamsim/util"

	"github.com/brunoga/deep"
	"golang.org/x/sync/errgroup"
)

type NewSimConfiguration struct {
	Locations LocationProvider
	Obstacles ObstacleSource // may be nil
	// Controller is the name of the avoidance controller; see
	// das.NewController.
	Controller string
	DT         float64
	Seed       int64
	// AutoReassign sends arrived aircraft to a random other location on
	// the following tick.
	AutoReassign bool
	Recorder     *record.Recorder // may be nil
}

// LocationCacheSize is the number of location lookups a Sim keeps.
const LocationCacheSize = 256

type Sim struct {
	mu util.LoggingMutex

	Aircraft map[AgentID]*Aircraft
	Tick     int
	DT       float64

	Controller   das.Controller
	Locations    LocationProvider
	Obstacles    ObstacleSource
	AutoReassign bool

	Rand *rand.Rand

	eventStream *EventStream
	recorder    *record.Recorder
	lg          *log.Logger
}

// TickReport summarizes one call to Step. The maps are keyed by the
// aircraft that were advanced.
type TickReport struct {
	Tick       int
	Intruders  map[AgentID]das.Intruders
	Commands   map[AgentID]das.Command
	NMAC       [][2]AgentID
	Collisions [][2]AgentID
	Departed   []AgentID
	Arrived    []AgentID
}

func NewSim(config NewSimConfiguration, lg *log.Logger) (*Sim, error) {
	if config.DT == 0 {
		config.DT = 1
	}
	if !(config.DT > 0) || !math.IsFinite(config.DT) {
		return nil, fmt.Errorf("dt %g: %w", config.DT, ErrInvalidTimestep)
	}
	ctrl, err := das.NewController(config.Controller, lg)
	if err != nil {
		return nil, err
	}
	if config.Locations == nil {
		config.Locations = NewMapLocations()
	}
	if _, ok := config.Locations.(*CachedLocations); !ok {
		cl, err := NewCachedLocations(config.Locations, LocationCacheSize)
		if err != nil {
			return nil, err
		}
		config.Locations = cl
	}

	s := &Sim{
		Aircraft:     make(map[AgentID]*Aircraft),
		DT:           config.DT,
		Controller:   ctrl,
		Locations:    config.Locations,
		Obstacles:    config.Obstacles,
		AutoReassign: config.AutoReassign,
		Rand:         rand.Make(config.Seed),
		eventStream:  NewEventStream(lg),
		recorder:     config.Recorder,
		lg:           lg,
	}
	return s, nil
}

func (s *Sim) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("tick", s.Tick),
		slog.Float64("dt", s.DT),
		slog.String("controller", s.Controller.Name()),
		slog.Int("aircraft", len(s.Aircraft)),
		slog.Any("event_stream", s.eventStream))
}

func (s *Sim) Subscribe() *EventsSubscription {
	return s.eventStream.Subscribe()
}

// AddAircraft creates an aircraft flying between two named locations.
func (s *Sim) AddAircraft(from, to string, c Constants) (*Aircraft, error) {
	start, err := s.Locations.Location(from)
	if err != nil {
		return nil, err
	}
	end, err := s.Locations.Location(to)
	if err != nil {
		return nil, err
	}

	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)

	ac, err := NewAircraft(start, end, c, s.Rand)
	if err != nil {
		return nil, fmt.Errorf("%s-%s: %w", from, to, err)
	}
	ac.From, ac.To = from, to
	s.Aircraft[ac.ID] = ac
	s.lg.Info("added aircraft", slog.Any("aircraft", ac))
	return ac, nil
}

// Add adds an existing aircraft to the simulation.
func (s *Sim) Add(ac *Aircraft) {
	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)

	s.Aircraft[ac.ID] = ac
}

// sortedAircraft returns the aircraft in id order.
func (s *Sim) sortedAircraft() []*Aircraft {
	ids := slices.Sorted(maps.Keys(s.Aircraft))
	ac := make([]*Aircraft, len(ids))
	for i, id := range ids {
		ac[i] = s.Aircraft[id]
	}
	return ac
}

// tracks returns the aircraft that are still flying.
func (s *Sim) tracks() []das.Track {
	var t []das.Track
	for _, ac := range s.sortedAircraft() {
		if !ac.Arrived {
			t = append(t, ac.Track())
		}
	}
	return t
}

// Step advances every aircraft that hasn't arrived by one tick. All of
// them see each other's state from before the tick. An aircraft whose
// update fails keeps its pre-tick state; the others still advance and
// the errors are returned together.
func (s *Sim) Step() (TickReport, error) {
	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)

	return s.step()
}

func (s *Sim) step() (TickReport, error) {
	start := time.Now()
	report := TickReport{
		Tick:      s.Tick,
		Intruders: make(map[AgentID]das.Intruders),
		Commands:  make(map[AgentID]das.Command),
	}

	if s.AutoReassign {
		for _, ac := range s.sortedAircraft() {
			if ac.Arrived {
				if err := s.reassignRandom(ac); err != nil {
					s.lg.Warn("unable to reassign", slog.Any("aircraft", ac), slog.Any("error", err))
				}
			}
		}
	}

	var active []*Aircraft
	for _, ac := range s.sortedAircraft() {
		if !ac.Arrived {
			active = append(active, ac)
		}
	}

	population := make([]das.Track, len(active))
	for i, ac := range active {
		population[i] = ac.Track()
	}
	intruders := das.DetectAll(population)
	report.NMAC = das.NMACPairs(population)
	report.Collisions = das.CollisionPairs(population)

	// Each aircraft's next state is computed from the snapshot and
	// written to its own slot; nothing is committed until all are done.
	results := make([]StepResult, len(active))
	errs := make([]error, len(active))
	var eg errgroup.Group
	eg.SetLimit(runtime.NumCPU())
	for i, ac := range active {
		eg.Go(func() error {
			results[i], errs[i] = StepAgent(ac, intruders[ac.ID], s.DT, s.Controller)
			return nil
		})
	}
	eg.Wait()

	frame := record.Frame{Tick: s.Tick}
	for i, ac := range active {
		report.Intruders[ac.ID] = intruders[ac.ID]
		if errs[i] != nil {
			s.lg.Warn("aircraft update failed", slog.Any("aircraft", ac), slog.Any("error", errs[i]))
			frame.Aircraft = append(frame.Aircraft, s.frameState(ac, len(intruders[ac.ID]), das.Command{}))
			continue
		}

		res := results[i]
		ac.Nav = res.Nav
		ac.Age++
		report.Commands[ac.ID] = res.Command

		if !res.Command.IsZero() && res.Intruder != nil {
			s.eventStream.Post(Event{
				Type:     AvoidanceEvent,
				Tick:     s.Tick,
				Aircraft: ac.ID,
				Other:    res.Intruder.ID,
				Position: ac.Position(),
				Command:  res.Command,
			})
		}

		departed, arrived := ac.updateFlags()
		if departed {
			report.Departed = append(report.Departed, ac.ID)
			s.eventStream.Post(Event{Type: DepartedEvent, Tick: s.Tick, Aircraft: ac.ID,
				Position: ac.Position(), Location: ac.From})
		}
		if arrived {
			report.Arrived = append(report.Arrived, ac.ID)
			s.eventStream.Post(Event{Type: ArrivedEvent, Tick: s.Tick, Aircraft: ac.ID,
				Position: ac.Position(), Location: ac.To})
			s.lg.Info("aircraft arrived", slog.Any("aircraft", ac))
		}

		if s.Obstacles != nil {
			for _, idx := range s.Obstacles.Intersecting(ac.Position(), ac.Constants.FootprintRadius) {
				s.eventStream.Post(Event{Type: ObstacleEvent, Tick: s.Tick, Aircraft: ac.ID,
					Position: ac.Position()})
				s.lg.Warn("aircraft footprint overlaps obstacle", slog.Uint64("id", uint64(ac.ID)),
					slog.Int("obstacle", idx))
			}
		}

		ac.Check(s.lg)
		frame.Aircraft = append(frame.Aircraft, s.frameState(ac, len(intruders[ac.ID]), res.Command))
	}

	for _, p := range report.NMAC {
		s.eventStream.Post(Event{Type: NMACEvent, Tick: s.Tick, Aircraft: p[0], Other: p[1]})
		s.lg.Warn("near mid-air collision", slog.Int("tick", s.Tick), slog.Uint64("aircraft", uint64(p[0])),
			slog.Uint64("other", uint64(p[1])))
		frame.NMAC = append(frame.NMAC, [2]uint64{uint64(p[0]), uint64(p[1])})
	}
	for _, p := range report.Collisions {
		s.eventStream.Post(Event{Type: CollisionEvent, Tick: s.Tick, Aircraft: p[0], Other: p[1]})
		s.lg.Error("collision", slog.Int("tick", s.Tick), slog.Uint64("aircraft", uint64(p[0])),
			slog.Uint64("other", uint64(p[1])))
		frame.Collisions = append(frame.Collisions, [2]uint64{uint64(p[0]), uint64(p[1])})
	}

	s.recorder.Record(frame)
	s.Tick++

	if d := time.Since(start); d > 200*time.Millisecond {
		s.lg.Warn("unexpectedly long Sim Step() call", slog.Duration("duration", d), slog.Any("sim", s))
	}

	return report, errors.Join(errs...)
}

func (s *Sim) frameState(ac *Aircraft, intruders int, cmd das.Command) record.AircraftState {
	fs := &ac.Nav.FlightState
	return record.AircraftState{
		ID:        uint64(ac.ID),
		Position:  fs.Position,
		Heading:   fs.Heading,
		Speed:     fs.Speed,
		Intruders: intruders,
		Command:   [2]float64{cmd.Acceleration, cmd.Heading},
		Departed:  ac.Departed,
		Arrived:   ac.Arrived,
	}
}

// Run calls Step up to n times, stopping early if the context is
// canceled, if a step returns an error, or if every aircraft has
// arrived and none will be reassigned. It returns the number of steps
// taken.
func (s *Sim) Run(ctx context.Context, n int) (int, error) {
	for i := range n {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if !s.AutoReassign && s.AllArrived() {
			return i, nil
		}
		if _, err := s.Step(); err != nil {
			return i + 1, err
		}
	}
	return n, nil
}

func (s *Sim) AllArrived() bool {
	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)

	for _, ac := range s.Aircraft {
		if !ac.Arrived {
			return false
		}
	}
	return true
}

// GetState returns the observation for an aircraft against the current
// state of the others.
func (s *Sim) GetState(id AgentID) (Observation, error) {
	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)

	ac, ok := s.Aircraft[id]
	if !ok {
		return Observation{}, fmt.Errorf("%d: %w", id, ErrUnknownAircraft)
	}
	return ac.GetState(s.tracks()), nil
}

// Reassign starts a new leg for the aircraft to the named location.
func (s *Sim) Reassign(id AgentID, to string) error {
	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)

	ac, ok := s.Aircraft[id]
	if !ok {
		return fmt.Errorf("%d: %w", id, ErrUnknownAircraft)
	}
	return s.reassign(ac, to)
}

func (s *Sim) reassign(ac *Aircraft, to string) error {
	end, err := s.Locations.Location(to)
	if err != nil {
		return err
	}

	ac.Reset(end)
	ac.From, ac.To = ac.To, to

	s.eventStream.Post(Event{Type: ReassignedEvent, Tick: s.Tick, Aircraft: ac.ID,
		Position: ac.Position(), Location: to})
	s.lg.Info("reassigned aircraft", slog.Any("aircraft", ac))
	return nil
}

// ReassignRandom starts a new leg for the aircraft to a random location
// other than the one it was bound for.
func (s *Sim) ReassignRandom(id AgentID) error {
	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)

	ac, ok := s.Aircraft[id]
	if !ok {
		return fmt.Errorf("%d: %w", id, ErrUnknownAircraft)
	}
	return s.reassignRandom(ac)
}

func (s *Sim) reassignRandom(ac *Aircraft) error {
	names := slices.DeleteFunc(s.Locations.Names(), func(n string) bool { return n == ac.To })
	if len(names) == 0 {
		return ErrNoLocations
	}
	return s.reassign(ac, rand.SampleSlice(s.Rand, names))
}

// Snapshot returns a deep copy of the aircraft, in id order, for readers
// outside the simulation.
func (s *Sim) Snapshot() []Aircraft {
	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)

	var snap []Aircraft
	for _, ac := range s.sortedAircraft() {
		snap = append(snap, *ac)
	}
	return deep.MustCopy(snap)
}
