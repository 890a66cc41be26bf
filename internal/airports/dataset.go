// Package airports loads the read-only airport dataset.
package airports

import (
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/mohammed-shakir/airport-proximity/internal/core/model"
)

// Dataset is immutable after Load and safe for concurrent readers.
type Dataset struct {
	rows        []model.Airport
	fingerprint uint64
}

func NewDataset(rows []model.Airport) *Dataset {
	cp := make([]model.Airport, len(rows))
	copy(cp, rows)
	for i := range cp {
		cp[i].IATA = NormalizeCode(cp[i].IATA)
	}
	return &Dataset{rows: cp, fingerprint: fingerprint(cp)}
}

// NormalizeCode maps free-text input to the form codes are stored in.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.rows)
}

// At returns the i-th record in load order.
func (d *Dataset) At(i int) model.Airport { return d.rows[i] }

// Lookup returns the first record with the given code. Duplicates later in
// the file are never returned.
func (d *Dataset) Lookup(code string) (model.Airport, bool) {
	if d == nil {
		return model.Airport{}, false
	}
	code = NormalizeCode(code)
	if code == "" {
		return model.Airport{}, false
	}
	for _, a := range d.rows {
		if a.IATA == code {
			return a, true
		}
	}
	return model.Airport{}, false
}

// Codes returns every distinct non-empty code in load order.
func (d *Dataset) Codes() []string {
	seen := make(map[string]struct{}, d.Len())
	out := make([]string, 0, d.Len())
	for _, a := range d.rows {
		if a.IATA == "" {
			continue
		}
		if _, ok := seen[a.IATA]; ok {
			continue
		}
		seen[a.IATA] = struct{}{}
		out = append(out, a.IATA)
	}
	return out
}

// Fingerprint identifies the dataset contents; cache keys embed it so a
// reload with different data never serves stale results.
func (d *Dataset) Fingerprint() uint64 {
	if d == nil {
		return 0
	}
	return d.fingerprint
}

func fingerprint(rows []model.Airport) uint64 {
	h := xxhash.New()
	for _, a := range rows {
		_, _ = h.WriteString(a.IATA)
		_, _ = h.WriteString("|")
		_, _ = h.WriteString(a.Country)
		_, _ = h.WriteString("|")
		_, _ = h.WriteString(formatCoord(a.Lat))
		_, _ = h.WriteString(",")
		_, _ = h.WriteString(formatCoord(a.Lon))
		_, _ = h.WriteString("\n")
	}
	return h.Sum64()
}
