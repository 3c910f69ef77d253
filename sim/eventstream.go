// sim/eventstream.go
// Copyright(c) 2022-2025 uamsim contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"sync"

	"github.com/uamsim/uamsim/das"
	"github.com/uamsim/uamsim/log"
	"github.com/uamsim/uamsim/math"
)

// EventStream provides a basic pub/sub event interface: the Sim posts
// lifecycle and separation events to it and any number of subscribers
// can consume them at their own pace.
type EventStream struct {
	mu            sync.Mutex
	events        []Event
	subscriptions map[*EventsSubscription]any
	warnedLong    bool
	lg            *log.Logger
}

type EventsSubscription struct {
	stream *EventStream
	// offset is offset in the EventStream stream array up to which the
	// subscriber has consumed events so far.
	offset int
	source string
}

func (e *EventsSubscription) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("offset", e.offset),
		slog.String("source", e.source))
}

func NewEventStream(lg *log.Logger) *EventStream {
	return &EventStream{
		subscriptions: make(map[*EventsSubscription]any),
		lg:            lg,
	}
}

// Subscribe registers a new subscriber to the stream. Events posted
// before the call are not reported to it.
func (e *EventStream) Subscribe() *EventsSubscription {
	// Record the subscriber's callsite, so that we can more easily debug
	// subscribers that aren't consuming events.
	_, fn, line, _ := runtime.Caller(1)

	e.mu.Lock()
	defer e.mu.Unlock()

	sub := &EventsSubscription{
		stream: e,
		offset: len(e.events),
		source: fmt.Sprintf("%s:%d", fn, line),
	}
	e.subscriptions[sub] = nil
	return sub
}

// Unsubscribe removes a subscriber from the subscriber list. Calling it
// more than once is harmless.
func (e *EventsSubscription) Unsubscribe() {
	if e.stream == nil {
		return
	}
	e.stream.mu.Lock()
	defer e.stream.mu.Unlock()

	if _, ok := e.stream.subscriptions[e]; !ok {
		e.stream.lg.Errorf("Attempted to unsubscribe invalid subscription: %+v", e)
	}
	delete(e.stream.subscriptions, e)
	e.stream = nil
}

// Post adds an event to the event stream.
func (e *EventStream) Post(event Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.lg.Debug("posted event", slog.Any("event", event))

	// Ignore the event if no one's paying attention.
	if len(e.subscriptions) > 0 {
		e.events = append(e.events, event)
	}

	if len(e.events) > 10000 && !e.warnedLong {
		// It's likely that one of the subscribers is out to lunch if
		// the stream has grown this long.
		e.lg.Warn("Long EventStream", slog.Int("length", len(e.events)))
		e.warnedLong = true
	}
}

// Get returns all of the events from the stream since the last time Get
// was called for the subscription; nil once it has been unsubscribed.
func (e *EventsSubscription) Get() []Event {
	if e.stream == nil {
		return nil
	}
	e.stream.mu.Lock()
	defer e.stream.mu.Unlock()

	if _, ok := e.stream.subscriptions[e]; !ok {
		e.stream.lg.Errorf("Attempted to get with unregistered subscription: %+v", e)
		return nil
	}

	events := slices.Clone(e.stream.events[e.offset:])
	e.offset = len(e.stream.events)
	e.stream.compact()

	return events
}

// compact reclaims storage for events that all subscribers have seen so
// that memory use doesn't grow without bound over a long run. The caller
// must hold the mutex.
func (e *EventStream) compact() {
	minOffset := len(e.events)
	for sub := range e.subscriptions {
		minOffset = min(minOffset, sub.offset)
	}

	if minOffset == len(e.events) {
		// Everyone is caught up.
		e.events = e.events[:0]
		for sub := range e.subscriptions {
			sub.offset = 0
		}
		e.warnedLong = false
		return
	}

	if minOffset > cap(e.events)/2 {
		n := len(e.events) - minOffset

		copy(e.events, e.events[minOffset:])
		e.events = e.events[:n]

		for sub := range e.subscriptions {
			sub.offset -= minOffset
		}

		e.warnedLong = false // reset this after a successful compact.
	}
}

// implements slog.LogValuer
func (e *EventStream) LogValue() slog.Value {
	e.mu.Lock()
	defer e.mu.Unlock()

	items := []slog.Attr{slog.Int("len", len(e.events)), slog.Int("cap", cap(e.events)),
		slog.Int("subscriptions", len(e.subscriptions))}
	if len(e.events) > 0 {
		items = append(items, slog.Any("last_element", e.events[len(e.events)-1]))
	}
	return slog.GroupValue(items...)
}

///////////////////////////////////////////////////////////////////////////

type EventType int

const (
	DepartedEvent EventType = iota
	ArrivedEvent
	ReassignedEvent
	AvoidanceEvent
	NMACEvent
	CollisionEvent
	ObstacleEvent
	NumEventTypes
)

func (t EventType) String() string {
	return []string{"Departed", "Arrived", "Reassigned", "Avoidance", "NMAC", "Collision",
		"Obstacle"}[t]
}

type Event struct {
	Type     EventType
	Tick     int
	Aircraft AgentID
	Other    AgentID // the other aircraft for avoidance, NMAC and collision events
	Position math.Point2
	Command  das.Command // AvoidanceEvent
	Location string      // ArrivedEvent, ReassignedEvent
}

func (e *Event) String() string {
	switch e.Type {
	case AvoidanceEvent:
		return fmt.Sprintf("%s: tick %d aircraft %d intruder %d command (%+.0f, %+.0f)", e.Type, e.Tick,
			e.Aircraft, e.Other, e.Command.Acceleration, e.Command.Heading)
	case NMACEvent, CollisionEvent:
		return fmt.Sprintf("%s: tick %d aircraft %d and %d", e.Type, e.Tick, e.Aircraft, e.Other)
	default:
		return fmt.Sprintf("%s: tick %d aircraft %d at %s %q", e.Type, e.Tick, e.Aircraft, e.Position, e.Location)
	}
}

func (e Event) LogValue() slog.Value {
	attrs := []slog.Attr{slog.String("type", e.Type.String()), slog.Int("tick", e.Tick),
		slog.Uint64("aircraft", uint64(e.Aircraft))}
	if e.Other != 0 {
		attrs = append(attrs, slog.Uint64("other", uint64(e.Other)))
	}
	if e.Type == AvoidanceEvent {
		attrs = append(attrs, slog.Any("command", e.Command))
	}
	if e.Location != "" {
		attrs = append(attrs, slog.String("location", e.Location))
	}
	return slog.GroupValue(attrs...)
}
