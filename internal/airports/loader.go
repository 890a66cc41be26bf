package airports

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/mohammed-shakir/airport-proximity/internal/core/model"
)

// Column names of the source file header.
const (
	ColCode    = "iata_code"
	ColName    = "name_eng"
	ColCity    = "city_eng"
	ColCountry = "country_rus"
	ColLat     = "latitude"
	ColLon     = "longitude"
)

var ErrMissingColumn = errors.New("missing required column")

type Options struct {
	Separator rune
	// Encoding is "iso-8859-1" (default) or "utf-8".
	Encoding string
	Logger   *slog.Logger
}

// Stats describes data-quality problems seen while loading.
type Stats struct {
	Rows          int
	Malformed     int
	NoCoordinates int
}

func LoadFile(path string, opts Options) (*Dataset, Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("open dataset: %w", err)
	}
	defer func() { _ = f.Close() }()

	ds, st, err := Load(f, opts)
	if err != nil {
		return nil, st, fmt.Errorf("load %s: %w", path, err)
	}
	return ds, st, nil
}

// Load parses a delimited file with a header row. Rows with the wrong
// number of fields are dropped and counted. Rows whose coordinates are
// missing or not numeric are kept with NaN coordinates.
func Load(r io.Reader, opts Options) (*Dataset, Stats, error) {
	var st Stats

	dec, err := decoder(r, opts.Encoding)
	if err != nil {
		return nil, st, err
	}

	cr := csv.NewReader(dec)
	cr.Comma = '|'
	if opts.Separator != 0 {
		cr.Comma = opts.Separator
	}
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, st, fmt.Errorf("read header: %w", err)
	}
	idx, err := columnIndex(header)
	if err != nil {
		return nil, st, err
	}

	var rows []model.Airport
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				st.Malformed++
				logDebug(opts.Logger, "skipping malformed row", "line", pe.Line, "err", pe.Err)
				continue
			}
			return nil, st, fmt.Errorf("read row: %w", err)
		}
		if len(rec) != len(header) {
			st.Malformed++
			logDebug(opts.Logger, "skipping row with wrong field count", "fields", len(rec), "want", len(header))
			continue
		}

		a := model.Airport{
			IATA:    strings.TrimSpace(rec[idx[ColCode]]),
			Name:    strings.TrimSpace(rec[idx[ColName]]),
			City:    strings.TrimSpace(rec[idx[ColCity]]),
			Country: strings.TrimSpace(rec[idx[ColCountry]]),
			Lat:     parseCoord(rec[idx[ColLat]]),
			Lon:     parseCoord(rec[idx[ColLon]]),
		}
		if math.IsNaN(a.Lat) || math.IsNaN(a.Lon) {
			st.NoCoordinates++
		}
		rows = append(rows, a)
	}
	st.Rows = len(rows)

	if opts.Logger != nil {
		opts.Logger.Info("airport dataset loaded",
			"rows", st.Rows,
			"malformed", st.Malformed,
			"no_coordinates", st.NoCoordinates)
	}
	return NewDataset(rows), st, nil
}

func decoder(r io.Reader, enc string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(enc)) {
	case "", "iso-8859-1", "latin1", "latin-1":
		return charmap.ISO8859_1.NewDecoder().Reader(r), nil
	case "windows-1251", "cp1251":
		return charmap.Windows1251.NewDecoder().Reader(r), nil
	case "utf-8", "utf8":
		return r, nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", enc)
	}
}

func columnIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}
	for _, c := range []string{ColCode, ColName, ColCity, ColCountry, ColLat, ColLon} {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, c)
		}
	}
	return idx, nil
}

// parseCoord returns NaN for anything that is not a number.
func parseCoord(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	// some exports use a decimal comma
	s = strings.Replace(s, ",", ".", 1)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

func formatCoord(f float64) string {
	if math.IsNaN(f) {
		return "nan"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func logDebug(l *slog.Logger, msg string, args ...any) {
	if l != nil {
		l.Debug(msg, args...)
	}
}
