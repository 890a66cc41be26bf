package render

import (
	"github.com/mohammed-shakir/airport-proximity/internal/geo"
	h3mapper "github.com/mohammed-shakir/airport-proximity/internal/mapper/h3"
	"github.com/mohammed-shakir/airport-proximity/internal/nearest"
)

// Marker styles. The origin is drawn larger and in a different color than
// the nearest airports.
var (
	OriginColor   = [4]int{0, 0, 255, 160}
	NearestColor  = [4]int{255, 0, 0, 160}
	OriginRadius  = 70000
	NearestRadius = 50000
	DefaultZoom   = 3
)

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
	View     *View     `json:"view,omitempty"`
}

type Feature struct {
	Type       string         `json:"type"`
	ID         string         `json:"id,omitempty"`
	Geometry   PointGeometry  `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

type PointGeometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"` // lon,lat
}

// View is the initial camera position for the map.
type View struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Zoom      int     `json:"zoom"`
	Pitch     int     `json:"pitch"`
	Cell      string  `json:"h3_cell,omitempty"`
}

// Map builds marker features for res. The origin marker and view are left
// out when the origin has no usable coordinates. With no nearest airports
// the collection holds only the origin.
func Map(res nearest.Result, m *h3mapper.Mapper) FeatureCollection {
	fc := FeatureCollection{Type: "FeatureCollection", Features: []Feature{}}

	o := res.Origin
	op := geo.Point{Lat: o.Lat, Lon: o.Lon}
	if geo.Valid(op) {
		cell := cellFor(m, op)
		fc.View = &View{Latitude: o.Lat, Longitude: o.Lon, Zoom: DefaultZoom, Cell: cell}
		fc.Features = append(fc.Features, marker(o.IATA, op, cell, map[string]any{
			"role":    "origin",
			"name":    o.Name,
			"city":    o.City,
			"country": o.Country,
			"color":   OriginColor,
			"radius":  OriginRadius,
		}))
	}

	for i, r := range res.Nearest {
		p := geo.Point{Lat: r.Lat, Lon: r.Lon}
		fc.Features = append(fc.Features, marker(r.IATA, p, cellFor(m, p), map[string]any{
			"role":        "nearest",
			"rank":        i + 1,
			"name":        r.Name,
			"city":        r.City,
			"country":     r.Country,
			"distance_km": r.DistanceKm,
			"color":       NearestColor,
			"radius":      NearestRadius,
		}))
	}
	return fc
}

func marker(id string, p geo.Point, cell string, props map[string]any) Feature {
	if cell != "" {
		props["h3_cell"] = cell
	}
	return Feature{
		Type:       "Feature",
		ID:         id,
		Geometry:   PointGeometry{Type: "Point", Coordinates: [2]float64{p.Lon, p.Lat}},
		Properties: props,
	}
}

func cellFor(m *h3mapper.Mapper, p geo.Point) string {
	if m == nil {
		return ""
	}
	c, err := m.CellFor(p)
	if err != nil {
		return ""
	}
	return c
}
