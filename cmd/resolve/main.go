// Command resolve resolves a single itinerary JSON file offline and writes the
// resolved coordinates together with the map view. Geocoding uses the same
// environment configuration as the service; without credentials only the
// gazetteer and the geographic center are used.
//
// Usage:
//
//	go run ./cmd/resolve \
//	  -in testdata/itinerary_agra.json \
//	  -out agra_view.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/couchcryptid/trip-geo-resolver/internal/adapter/provider"
	"github.com/couchcryptid/trip-geo-resolver/internal/config"
	"github.com/couchcryptid/trip-geo-resolver/internal/domain"
	"github.com/couchcryptid/trip-geo-resolver/internal/mapview"
	"github.com/couchcryptid/trip-geo-resolver/internal/observability"
	"github.com/couchcryptid/trip-geo-resolver/internal/resolver"
	"github.com/jonboulle/clockwork"
)

type output struct {
	Itinerary domain.ResolvedItinerary `json:"itinerary"`
	View      mapview.View             `json:"view"`
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	in := flag.String("in", "", "path to an itinerary request JSON file")
	out := flag.String("out", "", "output path for the resolved itinerary and map view (default stdout)")
	at := flag.String("at", "", "fixed RFC3339 resolved_at timestamp for reproducible output")
	flag.Parse()

	if *in == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -in")
	}

	if *at != "" {
		ts, err := time.Parse(time.RFC3339, *at)
		if err != nil {
			return fmt.Errorf("parse -at: %w", err)
		}
		domain.SetClock(clockwork.NewFakeClockAt(ts))
		defer domain.SetClock(nil)
	}

	data, err := os.ReadFile(*in)
	if err != nil {
		return fmt.Errorf("read itinerary: %w", err)
	}
	req, err := domain.DecodeItineraryRequest(data)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := observability.NewLogger(cfg)
	metrics := observability.NewUnregisteredMetrics()

	geocoder, err := provider.New(cfg, logger, metrics)
	if err != nil {
		return err
	}
	cache, err := resolver.NewCache(cfg.VenueCacheSize, nil)
	if err != nil {
		return err
	}
	res := resolver.New(geocoder, domain.DefaultGazetteer(), cache, resolver.Options{
		BatchSize:  cfg.ResolveBatchSize,
		BatchDelay: cfg.ResolveBatchDelay,
		Fallback:   domain.Geo{Lat: cfg.FallbackLat, Lng: cfg.FallbackLng},
	}, logger, metrics)
	defer res.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	coords := res.ResolveAll(ctx, req.Requests())
	result := output{
		Itinerary: domain.NewResolvedItinerary(req, coords),
		View:      mapview.Build(coords),
	}

	if err := writeJSON(*out, result); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	printStats(coords)
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func printStats(coords []domain.ResolvedCoordinate) {
	byStrategy := map[domain.Strategy]int{}
	for _, c := range coords {
		byStrategy[c.Strategy]++
	}
	strategies := make([]string, 0, len(byStrategy))
	for s := range byStrategy {
		strategies = append(strategies, string(s))
	}
	sort.Strings(strategies)

	log.Printf("resolved %d nodes", len(coords))
	for _, s := range strategies {
		log.Printf("  %-18s %d", s, byStrategy[domain.Strategy(s)])
	}
}
