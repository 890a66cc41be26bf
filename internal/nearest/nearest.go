// Package nearest ranks the airports closest to an origin airport.
package nearest

import (
	"errors"
	"slices"

	"github.com/mohammed-shakir/airport-proximity/internal/airports"
	"github.com/mohammed-shakir/airport-proximity/internal/core/model"
	"github.com/mohammed-shakir/airport-proximity/internal/geo"
)

// Limit is the number of ranked airports returned per query.
const Limit = 5

var (
	ErrAirportNotFound         = errors.New("airport not found")
	ErrNoCandidatesAfterFilter = errors.New("no airports left after country filter")
)

// Filter decides whether a candidate may be ranked. A nil Filter admits
// every airport.
type Filter interface {
	Allow(a model.Airport) bool
}

type Result struct {
	Origin  model.Airport
	Nearest []model.RankedAirport
	// Skipped counts admitted candidates without usable coordinates.
	Skipped int
	// Excluded counts candidates rejected by the filter.
	Excluded int
}

// Resolve maps user input to the first airport carrying that code.
func Resolve(code string, ds *airports.Dataset) (model.Airport, error) {
	a, ok := ds.Lookup(code)
	if !ok {
		return model.Airport{}, ErrAirportNotFound
	}
	return a, nil
}

// FindNearest returns up to Limit airports closest to the airport with the
// given code, nearest first. Every record sharing the origin's code is
// excluded. Distances are rounded to two decimals before sorting and ties
// keep dataset order.
//
// With a non-nil filter and nothing left to rank it returns
// ErrNoCandidatesAfterFilter together with a Result holding the origin.
func FindNearest(code string, ds *airports.Dataset, filter Filter) (Result, error) {
	origin, err := Resolve(code, ds)
	if err != nil {
		return Result{}, err
	}
	res := Result{Origin: origin}
	from := geo.Point{Lat: origin.Lat, Lon: origin.Lon}

	var ranked []model.RankedAirport
	for i := range ds.Len() {
		a := ds.At(i)
		if a.IATA == origin.IATA {
			continue
		}
		if filter != nil && !filter.Allow(a) {
			res.Excluded++
			continue
		}
		km, ok := geo.Distance(from, geo.Point{Lat: a.Lat, Lon: a.Lon})
		if !ok {
			res.Skipped++
			continue
		}
		ranked = append(ranked, model.RankedAirport{
			IATA:       a.IATA,
			Name:       a.Name,
			City:       a.City,
			Country:    a.Country,
			Lat:        a.Lat,
			Lon:        a.Lon,
			DistanceKm: geo.Round2(km),
		})
	}

	slices.SortStableFunc(ranked, func(x, y model.RankedAirport) int {
		switch {
		case x.DistanceKm < y.DistanceKm:
			return -1
		case x.DistanceKm > y.DistanceKm:
			return 1
		}
		return 0
	})
	if len(ranked) > Limit {
		ranked = ranked[:Limit]
	}
	res.Nearest = ranked

	if filter != nil && len(ranked) == 0 {
		return res, ErrNoCandidatesAfterFilter
	}
	return res, nil
}
