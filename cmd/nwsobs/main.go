package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/nws-observation-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/nws-observation-service/internal/adapter/kafka"
	mqttadapter "github.com/couchcryptid/nws-observation-service/internal/adapter/mqtt"
	"github.com/couchcryptid/nws-observation-service/internal/adapter/nws"
	"github.com/couchcryptid/nws-observation-service/internal/config"
	"github.com/couchcryptid/nws-observation-service/internal/observability"
	"github.com/couchcryptid/nws-observation-service/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	client := nws.NewClient(&http.Client{Timeout: cfg.NWSTimeout}, cfg.NWSBaseURL, cfg.NWSUserAgent, logger, metrics)
	fetcher := pipeline.NewFetcher(client, client, client, pipeline.NewNormalizer(logger), logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var ready httpadapter.ReadinessChecker = httpadapter.AlwaysReady{}
	var poller *pipeline.Poller
	var sink io.Closer

	if cfg.PollEnabled {
		publisher, closer, err := newPublisher(ctx, cfg, logger)
		if err != nil {
			logger.Error("failed to create report sink", "sink", cfg.Sink, "error", err)
			os.Exit(1)
		}
		sink = closer

		poller = pipeline.NewPoller(fetcher, publisher, cfg.PollLocations, cfg.PollSchedule, logger, metrics)
		if err := poller.Start(ctx); err != nil {
			logger.Error("failed to start poller", "error", err)
			os.Exit(1)
		}
		ready = poller

		// First round now rather than one interval from now.
		poller.PollNow()
	} else {
		logger.Info("scheduled polling disabled")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, ready, fetcher, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if poller != nil {
		poller.Stop(shutdownCtx)
	}
	if sink != nil {
		if err := sink.Close(); err != nil {
			logger.Error("report sink close error", "sink", cfg.Sink, "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// newPublisher builds the report sink selected by SINK.
func newPublisher(ctx context.Context, cfg *config.Config, logger *slog.Logger) (pipeline.Publisher, io.Closer, error) {
	switch cfg.Sink {
	case config.SinkKafka:
		w := kafkaadapter.NewWriter(cfg, logger)
		logger.Info("publishing reports to kafka", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
		return w, w, nil
	case config.SinkMQTT:
		p := mqttadapter.NewPublisher(cfg, logger)
		if err := p.Connect(ctx); err != nil {
			_ = p.Close()
			return nil, nil, err
		}
		logger.Info("publishing reports to mqtt", "broker", cfg.MQTTBroker, "prefix", cfg.MQTTTopicPrefix)
		return p, p, nil
	default:
		return pipeline.NewLogPublisher(logger), nil, nil
	}
}
