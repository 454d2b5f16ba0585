// Command observe prints the latest NWS observation for a coordinate as JSON.
//
// Usage:
//
//	go run ./cmd/observe -lat 42.7892 -lon -85.5167
//
// NWS_BASE_URL, NWS_USER_AGENT and NWS_TIMEOUT (or a .env file) supply the
// defaults of the matching flags.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/couchcryptid/nws-observation-service/internal/adapter/nws"
	"github.com/couchcryptid/nws-observation-service/internal/config"
	"github.com/couchcryptid/nws-observation-service/internal/domain"
	"github.com/couchcryptid/nws-observation-service/internal/observability"
	"github.com/couchcryptid/nws-observation-service/internal/pipeline"
)

const (
	exitOK    = 0
	exitFetch = 1
	exitUsage = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "observe: %v\n", err)
		return exitUsage
	}

	fs := flag.NewFlagSet("observe", flag.ContinueOnError)
	fs.SetOutput(stderr)
	lat := fs.Float64("lat", 0, "latitude in decimal degrees (required)")
	lon := fs.Float64("lon", 0, "longitude in decimal degrees (required)")
	name := fs.String("name", "", "optional label copied into the report")
	baseURL := fs.String("base-url", cfg.NWSBaseURL, "NWS API base URL")
	userAgent := fs.String("user-agent", cfg.NWSUserAgent, "User-Agent sent to the NWS API")
	timeout := fs.Duration("timeout", cfg.NWSTimeout, "per-request timeout")
	verbose := fs.Bool("v", false, "log each lookup stage to stderr")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	coord := domain.Coordinate{Latitude: *lat, Longitude: *lon}
	if !flagSet(fs, "lat") || !flagSet(fs, "lon") {
		fmt.Fprintln(stderr, "observe: -lat and -lon are required")
		fs.Usage()
		return exitUsage
	}
	if *lat < -90 || *lat > 90 || *lon < -180 || *lon > 180 {
		fmt.Fprintf(stderr, "observe: coordinate %s out of range\n", coord)
		return exitUsage
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := observability.NewLoggerTo(stderr, "text", level)
	metrics := observability.NewMetricsWith(prometheus.NewRegistry())

	client := nws.NewClient(&http.Client{Timeout: *timeout}, *baseURL, *userAgent, logger, metrics)
	fetcher := pipeline.NewFetcher(client, client, client, pipeline.NewNormalizer(logger), logger, metrics)

	start := time.Now()
	report, err := fetcher.FetchReport(ctx, *name, coord)
	if err != nil {
		fmt.Fprintf(stderr, "observe: %s: %v\n", domain.ErrorKind(err), err)
		return exitFetch
	}
	logger.Debug("done", "duration", time.Since(start))

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		fmt.Fprintf(stderr, "observe: write report: %v\n", err)
		return exitFetch
	}
	return exitOK
}

func flagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}
