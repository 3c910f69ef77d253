// sim/locations.go
// Copyright(c) 2022-2025 uamsim contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"fmt"
	"slices"

	"github.com/uamsim/uamsim/math"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/iancoleman/orderedmap"
)

// LocationProvider resolves named vertiports to positions.
type LocationProvider interface {
	Location(name string) (math.Point2, error)
	// Names returns all of the known locations in a stable order.
	Names() []string
}

// MapLocations is a LocationProvider backed by an ordered map, so Names
// returns locations in the order they were declared.
type MapLocations struct {
	m *orderedmap.OrderedMap
}

func NewMapLocations() *MapLocations {
	return &MapLocations{m: orderedmap.New()}
}

func (ml *MapLocations) Add(name string, p math.Point2) {
	ml.m.Set(name, p)
}

func (ml *MapLocations) Location(name string) (math.Point2, error) {
	if v, ok := ml.m.Get(name); ok {
		return v.(math.Point2), nil
	}
	return math.Point2{}, fmt.Errorf("%s: %w", name, ErrUnknownLocation)
}

func (ml *MapLocations) Names() []string {
	return slices.Clone(ml.m.Keys())
}

func (ml *MapLocations) Len() int { return len(ml.m.Keys()) }

// CachedLocations memoizes lookups from a slower LocationProvider.
// Failed lookups are not cached.
type CachedLocations struct {
	LocationProvider
	cache *lru.Cache[string, math.Point2]
}

func NewCachedLocations(lp LocationProvider, size int) (*CachedLocations, error) {
	c, err := lru.New[string, math.Point2](size)
	if err != nil {
		return nil, err
	}
	return &CachedLocations{LocationProvider: lp, cache: c}, nil
}

func (cl *CachedLocations) Location(name string) (math.Point2, error) {
	if p, ok := cl.cache.Get(name); ok {
		return p, nil
	}
	p, err := cl.LocationProvider.Location(name)
	if err == nil {
		cl.cache.Add(name, p)
	}
	return p, err
}
