package h3mapper

import (
	"errors"
	"fmt"

	h3 "github.com/uber/h3-go/v4"

	"github.com/mohammed-shakir/airport-proximity/internal/geo"
)

var ErrInvalidPoint = errors.New("point has no valid coordinates")

type Mapper struct {
	res int
}

func New(res int) (*Mapper, error) {
	if err := validateRes(res); err != nil {
		return nil, err
	}
	return &Mapper{res: res}, nil
}

func (m *Mapper) Res() int { return m.res }

// CellFor returns the H3 cell containing p at the mapper resolution.
func (m *Mapper) CellFor(p geo.Point) (string, error) {
	if !geo.Valid(p) {
		return "", ErrInvalidPoint
	}
	c, err := h3.LatLngToCell(h3.NewLatLng(p.Lat, p.Lon), m.res)
	if err != nil {
		return "", fmt.Errorf("h3 cell: %w", err)
	}
	return c.String(), nil
}

func validateRes(res int) error {
	if res < 0 || res > 15 {
		return fmt.Errorf("invalid H3 resolution %d (must be 0..15)", res)
	}
	return nil
}
