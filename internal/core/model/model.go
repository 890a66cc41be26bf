// Package model defines core domain types shared across the service.
package model

import (
	"slices"
	"strings"
)

// Airport is one dataset row. Lat/Lon are NaN when the source value was
// missing or not numeric.
type Airport struct {
	IATA    string
	Name    string
	City    string
	Country string
	Lat     float64
	Lon     float64
}

type RankedAirport struct {
	IATA       string  `json:"iata_code"`
	Name       string  `json:"name"`
	City       string  `json:"city"`
	Country    string  `json:"country"`
	Lat        float64 `json:"latitude"`
	Lon        float64 `json:"longitude"`
	DistanceKm float64 `json:"distance_km"`
}

// CountryAllowList is a fixed set of country names matched exactly.
type CountryAllowList struct {
	names map[string]struct{}
}

func NewCountryAllowList(names ...string) CountryAllowList {
	m := make(map[string]struct{}, len(names))
	for _, n := range names {
		if n == "" {
			continue
		}
		m[n] = struct{}{}
	}
	return CountryAllowList{names: m}
}

func (l CountryAllowList) Contains(country string) bool {
	_, ok := l.names[country]
	return ok
}

// Allow reports whether a is from an allowed country.
func (l CountryAllowList) Allow(a Airport) bool {
	return l.Contains(a.Country)
}

func (l CountryAllowList) Len() int { return len(l.names) }

// Names returns the members sorted.
func (l CountryAllowList) Names() []string {
	out := make([]string, 0, len(l.names))
	for n := range l.names {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}

func (l CountryAllowList) String() string {
	return strings.Join(l.Names(), ",")
}

// FilterMode selects the candidate inclusion policy of a query.
type FilterMode string

const (
	FilterNone     FilterMode = "none"
	FilterFriendly FilterMode = "friendly"
)

// ResponseKind selects how a query result is rendered.
type ResponseKind string

const (
	KindNearest ResponseKind = "nearest"
	KindMap     ResponseKind = "map"
)

type QueryRequest struct {
	Kind   ResponseKind
	Code   string
	Filter FilterMode
}
