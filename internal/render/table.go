// Package render turns ranking results into tables and map layers.
package render

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"github.com/mohammed-shakir/airport-proximity/internal/core/model"
	"github.com/mohammed-shakir/airport-proximity/internal/nearest"
)

// Table writes a tab-aligned table of the ranked airports.
func Table(w io.Writer, res nearest.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "#\tIATA\tNAME\tCITY\tCOUNTRY\tDISTANCE_KM\n")
	for i, r := range res.Nearest {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%.2f\n", i+1, r.IATA, r.Name, r.City, r.Country, r.DistanceKm)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flush table: %w", err)
	}
	return nil
}

type Origin struct {
	IATA    string   `json:"iata_code"`
	Name    string   `json:"name"`
	City    string   `json:"city"`
	Country string   `json:"country"`
	Lat     *float64 `json:"latitude"`
	Lon     *float64 `json:"longitude"`
}

// Response is the JSON body of a nearest-airports query.
type Response struct {
	Origin  Origin                `json:"origin"`
	Filter  model.FilterMode      `json:"filter"`
	Nearest []model.RankedAirport `json:"nearest"`
	Message string                `json:"message,omitempty"`
}

func NewResponse(res nearest.Result, filter model.FilterMode, message string) Response {
	rows := res.Nearest
	if rows == nil {
		rows = []model.RankedAirport{}
	}
	return Response{
		Origin:  originOf(res.Origin),
		Filter:  filter,
		Nearest: rows,
		Message: message,
	}
}

func originOf(a model.Airport) Origin {
	return Origin{
		IATA:    a.IATA,
		Name:    a.Name,
		City:    a.City,
		Country: a.Country,
		Lat:     finite(a.Lat),
		Lon:     finite(a.Lon),
	}
}

// NaN has no JSON encoding
func finite(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
