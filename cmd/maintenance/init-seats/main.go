// Command init-seats initializes seats for every route in the fixture. With
// -missing-only it skips routes that already have seats.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/smarttransit/route-ledger/internal/app"
	"github.com/smarttransit/route-ledger/internal/config"
	"github.com/smarttransit/route-ledger/internal/models"
	"github.com/smarttransit/route-ledger/internal/processor"
)

type options struct {
	seats       int
	missingOnly bool
	dataDir     string
}

func main() {
	var opts options
	flag.IntVar(&opts.seats, "seats", 0, "seats per route (0 uses DEFAULT_SEATS_PER_ROUTE)")
	flag.BoolVar(&opts.missingOnly, "missing-only", false, "only initialize routes that have no seats")
	flag.StringVar(&opts.dataDir, "data-dir", "", "data directory (overrides DATA_DIR)")
	flag.Parse()

	// Try loading .env from current working directory (optional)
	_ = godotenv.Load()

	cfg := config.FromEnv()
	if opts.dataDir != "" {
		cfg.Store.DataDir = opts.dataDir
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger := app.NewLogger(cfg.Server.LogLevel, os.Stderr)
	rt, err := app.Build(context.Background(), cfg, logger)
	if err != nil {
		log.Fatalf("failed to initialize ledger runtime: %v", err)
	}
	defer rt.Close()

	if err := initSeats(context.Background(), rt.Processor, opts, os.Stdout); err != nil {
		rt.Close()
		log.Fatal(err)
	}
}

func initSeats(ctx context.Context, proc *processor.Processor, opts options, out io.Writer) error {
	res := proc.Execute(ctx, processor.Request{Cmd: processor.CmdListRoutes})
	if !res.OK() {
		return fmt.Errorf("failed to list routes: %w", res.Err)
	}
	routes := res.Body.([]*models.RouteSegment)
	if len(routes) == 0 {
		fmt.Fprintln(out, "No routes found in the route fixture.")
		return nil
	}

	initialized := 0
	for _, route := range routes {
		routeID := models.NewFlexNumber(float64(route.RouteID))

		if opts.missingOnly {
			res := proc.Execute(ctx, processor.Request{Cmd: processor.CmdGetSeatStats, RouteID: routeID})
			if !res.OK() {
				return fmt.Errorf("failed to read seats of route %d: %w", route.RouteID, res.Err)
			}
			if stats := res.Body.(models.SeatStats); stats.Total > 0 {
				fmt.Fprintf(out, "Route %d (%s): %d seats already present, skipped\n", route.RouteID, route.DisplayName(), stats.Total)
				continue
			}
		}

		req := processor.Request{Cmd: processor.CmdInitSeats, RouteID: routeID}
		if opts.seats > 0 {
			req.TotalSeats = models.NewFlexNumber(float64(opts.seats))
		}
		res := proc.Execute(ctx, req)
		if !res.OK() {
			return fmt.Errorf("failed to initialize route %d: %w", route.RouteID, res.Err)
		}
		stats := res.Body.(map[string]interface{})["stats"].(models.SeatStats)
		fmt.Fprintf(out, "Route %d (%s): %d seats initialized\n", route.RouteID, route.DisplayName(), stats.Total)
		initialized++
	}

	fmt.Fprintf(out, "Initialized %d of %d routes.\n", initialized, len(routes))
	return nil
}
