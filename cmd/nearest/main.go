// Command nearest prints the airports closest to a given IATA code.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mohammed-shakir/airport-proximity/internal/airports"
	"github.com/mohammed-shakir/airport-proximity/internal/core/config"
	"github.com/mohammed-shakir/airport-proximity/internal/core/model"
	"github.com/mohammed-shakir/airport-proximity/internal/logger"
	h3mapper "github.com/mohammed-shakir/airport-proximity/internal/mapper/h3"
	"github.com/mohammed-shakir/airport-proximity/internal/nearest"
	"github.com/mohammed-shakir/airport-proximity/internal/render"
)

const (
	exitOK       = 0
	exitError    = 1
	exitNotFound = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg := config.FromEnv()

	fs := flag.NewFlagSet("nearest", flag.ContinueOnError)
	fs.SetOutput(stderr)
	data := fs.String("data", cfg.Dataset.Path, "airport dataset path")
	code := fs.String("code", "", "origin IATA code")
	friendly := fs.Bool("friendly", false, "only rank airports in allow-listed countries")
	countries := fs.String("countries", "", "comma-separated allow-list (overrides FRIENDLY_COUNTRIES)")
	encoding := fs.String("encoding", cfg.Dataset.Encoding, "dataset text encoding")
	geojson := fs.String("geojson", "", "also write the map layer as GeoJSON to this file")
	if err := fs.Parse(args); err != nil {
		return exitError
	}
	if *code == "" && fs.NArg() > 0 {
		*code = fs.Arg(0)
	}
	if strings.TrimSpace(*code) == "" {
		fmt.Fprintln(stderr, "nearest: -code is required")
		fs.Usage()
		return exitError
	}

	level := cfg.LogLevel
	if os.Getenv("LOG_LEVEL") == "" {
		level = "warn"
	}
	zl := logger.Build(logger.Config{Level: level, Console: true, Component: "nearest"}, stderr)
	log := logger.NewSlog(&zl)

	ds, _, err := airports.LoadFile(*data, airports.Options{
		Separator: cfg.Dataset.Separator,
		Encoding:  *encoding,
		Logger:    log,
	})
	if err != nil {
		fmt.Fprintf(stderr, "nearest: %v\n", err)
		return exitError
	}

	var filter nearest.Filter
	if *friendly {
		names := cfg.FriendlyCountries
		if *countries != "" {
			names = splitList(*countries)
		}
		filter = model.NewCountryAllowList(names...)
	}

	res, err := nearest.FindNearest(*code, ds, filter)
	switch {
	case errors.Is(err, nearest.ErrAirportNotFound):
		fmt.Fprintf(stderr, "airport not found: %s\n", airports.NormalizeCode(*code))
		return exitNotFound
	case errors.Is(err, nearest.ErrNoCandidatesAfterFilter):
		fmt.Fprintf(stdout, "%s (%s, %s): no airports in allowed countries\n", res.Origin.IATA, res.Origin.City, res.Origin.Country)
	case err != nil:
		fmt.Fprintf(stderr, "nearest: %v\n", err)
		return exitError
	default:
		fmt.Fprintf(stdout, "Nearest airports to %s (%s, %s):\n", res.Origin.IATA, res.Origin.City, res.Origin.Country)
		if err := render.Table(stdout, res); err != nil {
			fmt.Fprintf(stderr, "nearest: %v\n", err)
			return exitError
		}
	}

	if *geojson != "" {
		if err := writeMap(*geojson, res, cfg.H3Res); err != nil {
			fmt.Fprintf(stderr, "nearest: %v\n", err)
			return exitError
		}
	}
	return exitOK
}

func writeMap(path string, res nearest.Result, h3Res int) error {
	m, err := h3mapper.New(h3Res)
	if err != nil {
		return fmt.Errorf("h3 mapper: %w", err)
	}
	b, err := json.MarshalIndent(render.Map(res, m), "", "  ")
	if err != nil {
		return fmt.Errorf("encode map: %w", err)
	}
	if err := os.WriteFile(filepath.Clean(path), b, 0o600); err != nil {
		return fmt.Errorf("write map: %w", err)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
