// Copyright 2025 The FilmLoc Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jcodagnone/filmloc/spatial"
	"golang.org/x/time/rate"
)

// DefaultMinDelay is the minimum interval between two provider calls.
const DefaultMinDelay = time.Second

// Status tags the outcome of resolving a location.
type Status int

const (
	// StatusUnresolved the provider had no usable answer.
	StatusUnresolved Status = iota
	// StatusResolved Point holds the coordinates.
	StatusResolved
	// StatusUnavailable the provider could not be used at all.
	StatusUnavailable
)

func (s Status) String() string {
	switch s {
	case StatusResolved:
		return "resolved"
	case StatusUnavailable:
		return "unavailable"
	default:
		return "unresolved"
	}
}

// Outcome is the result of resolving one location string.
type Outcome struct {
	Status      Status
	Point       spatial.Point
	Provider    string
	DisplayName string
}

// Resolved reports whether Point is meaningful.
func (o Outcome) Resolved() bool {
	return o.Status == StatusResolved
}

// CacheStore persists outcomes across runs.
type CacheStore interface {
	LoadAll() (map[string]Outcome, error)
	Save(location string, outcome Outcome) error
}

// ResolverOptions configures a Resolver.
type ResolverOptions struct {
	// MinDelay between provider calls. Zero disables throttling.
	MinDelay time.Duration
	// Store, when set, receives new outcomes except transient failures.
	Store CacheStore
}

// ResolverMetrics counts what a Resolver did.
type ResolverMetrics struct {
	Lookups    int // provider calls
	CacheHits  int
	Resolved   int
	Unresolved int
}

// Merge adds the values of another metrics object to this one.
func (m *ResolverMetrics) Merge(other *ResolverMetrics) *ResolverMetrics {
	if other == nil {
		return m
	}

	m.Lookups += other.Lookups
	m.CacheHits += other.CacheHits
	m.Resolved += other.Resolved
	m.Unresolved += other.Unresolved

	return m
}

// Resolver maps location strings to coordinates. Each distinct string
// reaches the provider at most once per Resolver; failures are remembered
// too. A Resolver is not safe for concurrent use.
type Resolver struct {
	geocoder Geocoder
	limiter  *rate.Limiter
	store    CacheStore
	cache    map[string]Outcome
	metrics  ResolverMetrics
}

// NewResolver creates a resolver around geocoder. A nil options value means
// DefaultMinDelay and no persistent store.
func NewResolver(geocoder Geocoder, options *ResolverOptions) *Resolver {
	if options == nil {
		options = &ResolverOptions{MinDelay: DefaultMinDelay}
	}

	limit := rate.Inf
	if options.MinDelay > 0 {
		limit = rate.Every(options.MinDelay)
	}

	return &Resolver{
		geocoder: geocoder,
		limiter:  rate.NewLimiter(limit, 1),
		store:    options.Store,
		cache:    make(map[string]Outcome),
	}
}

// Seed loads the outcomes persisted in store. Locations already in the
// cache keep their current outcome. It returns the number of entries added.
func (r *Resolver) Seed(store CacheStore) (int, error) {
	outcomes, err := store.LoadAll()
	if err != nil {
		return 0, fmt.Errorf("loading cached outcomes: %w", err)
	}

	added := 0

	for location, outcome := range outcomes {
		if _, ok := r.cache[location]; ok {
			continue
		}

		r.cache[location] = outcome
		added++
	}

	return added, nil
}

// Lookup returns the cached outcome for location without calling the provider.
func (r *Resolver) Lookup(location string) (Outcome, bool) {
	outcome, ok := r.cache[location]

	return outcome, ok
}

// Metrics returns a copy of the counters.
func (r *Resolver) Metrics() ResolverMetrics {
	return r.metrics
}

// Resolve returns the outcome for location. Provider failures yield an
// unresolved outcome and a nil error; the error is only set, wrapping
// ErrServiceUnavailable, when the provider can't be used at all.
func (r *Resolver) Resolve(location string) (Outcome, error) {
	if outcome, ok := r.cache[location]; ok {
		r.metrics.CacheHits++
		r.count(outcome)

		return outcome, nil
	}

	if err := r.limiter.Wait(context.Background()); err != nil {
		return Outcome{Status: StatusUnavailable}, fmt.Errorf("waiting for the geocoding throttle: %w", err)
	}

	r.metrics.Lookups++

	result, err := r.geocoder.Geocode(location)
	if err != nil && IsFatalError(err) {
		return Outcome{Status: StatusUnavailable}, fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}

	outcome := Outcome{Status: StatusUnresolved}
	persist := true

	switch {
	case err != nil:
		persist = IsPermanentError(err)

		if IsRateLimitError(err) {
			log.Printf("Geocoding of %q was rate limited: %v", location, err)
		} else if IsTimeoutError(err) {
			log.Printf("Geocoding of %q timed out: %v", location, err)
		}
	case result != nil:
		p := spatial.Point{Lat: result.Latitude, Lng: result.Longitude}
		if verr := p.Validate(); verr != nil {
			log.Printf("Discarding coordinates for %q: %v", location, verr)

			break
		}

		outcome = Outcome{
			Status:      StatusResolved,
			Point:       p,
			Provider:    result.Provider,
			DisplayName: result.DisplayName,
		}
	}

	r.cache[location] = outcome
	r.count(outcome)

	// transient failures stay in memory only, a later run asks again
	if r.store != nil && persist {
		if err := r.store.Save(location, outcome); err != nil {
			log.Printf("Failed to persist geocode for %q: %v", location, err)
		}
	}

	return outcome, nil
}

func (r *Resolver) count(outcome Outcome) {
	if outcome.Resolved() {
		r.metrics.Resolved++
	} else {
		r.metrics.Unresolved++
	}
}
