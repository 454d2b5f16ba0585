// Package mqtt publishes observation reports to an MQTT broker.
package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/couchcryptid/nws-observation-service/internal/config"
	"github.com/couchcryptid/nws-observation-service/internal/domain"
)

const (
	qosAtLeastOnce = 1
	publishTimeout = 5 * time.Second
	connectTimeout = 15 * time.Second
	tokenPoll      = 200 * time.Millisecond
)

var errNotConnected = errors.New("mqtt client not connected")

// Publisher implements pipeline.Publisher over MQTT.
type Publisher struct {
	client         mqtt.Client
	topicPrefix    string
	connectTimeout time.Duration
	logger         *slog.Logger
}

// NewPublisher configures a client for cfg.MQTTBroker. Call Connect before publishing.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.MQTTBroker)
	opts.SetClientID(cfg.MQTTClientID)
	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)

	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		logger.Info("mqtt connected", "broker", cfg.MQTTBroker)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("mqtt connection lost", "error", err)
	})

	return newPublisher(mqtt.NewClient(opts), cfg.MQTTTopicPrefix, logger)
}

func newPublisher(client mqtt.Client, topicPrefix string, logger *slog.Logger) *Publisher {
	return &Publisher{client: client, topicPrefix: topicPrefix, connectTimeout: connectTimeout, logger: logger}
}

// Connect waits for the initial broker connection. It gives up when ctx ends
// or the connect timeout elapses; the client keeps retrying in the background
// until Close.
func (p *Publisher) Connect(ctx context.Context) error {
	if p.client.IsConnected() {
		return nil
	}
	if err := wait(ctx, p.client.Connect(), p.connectTimeout); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	return nil
}

// Publish sends the report as JSON to {prefix}/{station}/observation with
// QoS 1, not retained.
func (p *Publisher) Publish(ctx context.Context, report domain.Report) error {
	if !p.client.IsConnected() {
		return errNotConnected
	}

	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal observation report: %w", err)
	}

	topic := Topic(p.topicPrefix, report.Station.Identifier)
	if err := wait(ctx, p.client.Publish(topic, qosAtLeastOnce, false, data), publishTimeout); err != nil {
		p.logger.Error("failed to publish report", "topic", topic, "error", err)
		return fmt.Errorf("publish %s: %w", topic, err)
	}

	p.logger.Debug("report published", "topic", topic, "station", report.Station.Identifier)
	return nil
}

// Close disconnects, allowing in-flight messages 250ms to complete.
func (p *Publisher) Close() error {
	p.client.Disconnect(250)
	return nil
}

// Topic returns the topic a station's reports are published to.
func Topic(prefix, stationID string) string {
	if prefix == "" {
		return stationID + "/observation"
	}
	return prefix + "/" + stationID + "/observation"
}

// wait blocks until token completes, ctx ends or timeout elapses. A zero
// timeout waits for ctx only.
func wait(ctx context.Context, token mqtt.Token, timeout time.Duration) error {
	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		if token.WaitTimeout(tokenPoll) {
			return token.Error()
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline:
			return fmt.Errorf("timed out after %s", timeout)
		default:
		}
	}
}
