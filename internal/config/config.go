package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/couchcryptid/nws-observation-service/internal/domain"
)

// Sink names accepted by SINK.
const (
	SinkNone  = "none"
	SinkKafka = "kafka"
	SinkMQTT  = "mqtt"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        slog.Level
	LogFormat       string
	ShutdownTimeout time.Duration

	// NWS API client configuration.
	NWSBaseURL   string
	NWSUserAgent string
	NWSTimeout   time.Duration

	// Scheduled polling of fixed locations.
	PollEnabled   bool
	PollSchedule  string
	PollLocations []domain.Location

	Sink string

	KafkaBrokers []string
	KafkaTopic   string

	MQTTBroker      string
	MQTTClientID    string
	MQTTTopicPrefix string
}

// Load reads configuration from environment variables, applying defaults
// where unset. A .env file in the working directory is loaded first if
// present; variables already set in the environment win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	logLevel, err := parseLogLevel(envOrDefault("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}

	logFormat := envOrDefault("LOG_FORMAT", "json")
	if logFormat != "json" && logFormat != "text" {
		return nil, fmt.Errorf("invalid LOG_FORMAT %q: want json or text", logFormat)
	}

	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	nwsTimeout, err := parseDuration("NWS_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	baseURL := strings.TrimRight(envOrDefault("NWS_BASE_URL", "https://api.weather.gov"), "/")
	if u, err := url.Parse(baseURL); err != nil || !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("invalid NWS_BASE_URL %q", baseURL)
	}

	pollEnabled, err := parseBool("POLL_ENABLED", false)
	if err != nil {
		return nil, err
	}

	locations, err := ParseLocations(os.Getenv("POLL_LOCATIONS"))
	if err != nil {
		return nil, fmt.Errorf("invalid POLL_LOCATIONS: %w", err)
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        logLevel,
		LogFormat:       logFormat,
		ShutdownTimeout: shutdownTimeout,

		NWSBaseURL:   baseURL,
		NWSUserAgent: envOrDefault("NWS_USER_AGENT", "(nws-observation-service, ops@example.com)"),
		NWSTimeout:   nwsTimeout,

		PollEnabled:   pollEnabled,
		PollSchedule:  envOrDefault("POLL_SCHEDULE", "@every 15m"),
		PollLocations: locations,

		Sink: envOrDefault("SINK", SinkNone),

		KafkaBrokers: parseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   envOrDefault("KAFKA_TOPIC", "nws-observations"),

		MQTTBroker:      envOrDefault("MQTT_BROKER", "tcp://localhost:1883"),
		MQTTClientID:    envOrDefault("MQTT_CLIENT_ID", "nws-observation-service"),
		MQTTTopicPrefix: strings.Trim(envOrDefault("MQTT_TOPIC_PREFIX", "nws"), "/"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.NWSUserAgent == "" {
		return errors.New("NWS_USER_AGENT is required")
	}
	if c.PollEnabled && len(c.PollLocations) == 0 {
		return errors.New("POLL_ENABLED is true but POLL_LOCATIONS is empty")
	}

	switch c.Sink {
	case SinkNone:
	case SinkKafka:
		if len(c.KafkaBrokers) == 0 {
			return errors.New("SINK is kafka but KAFKA_BROKERS is not set")
		}
		if c.KafkaTopic == "" {
			return errors.New("KAFKA_TOPIC is required")
		}
	case SinkMQTT:
		if c.MQTTBroker == "" {
			return errors.New("SINK is mqtt but MQTT_BROKER is not set")
		}
	default:
		return fmt.Errorf("invalid SINK %q: want none, kafka or mqtt", c.Sink)
	}
	return nil
}

// ParseLocations parses "name=lat,lon;name=lat,lon". Whitespace around
// entries is ignored and an empty string yields no locations.
func ParseLocations(s string) ([]domain.Location, error) {
	var locations []domain.Location
	for _, entry := range strings.Split(s, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, coord, ok := strings.Cut(entry, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("entry %q: want name=lat,lon", entry)
		}
		c, err := ParseCoordinate(coord)
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", entry, err)
		}
		locations = append(locations, domain.Location{Name: strings.TrimSpace(name), Coordinate: c})
	}
	return locations, nil
}

// ParseCoordinate parses "lat,lon" in decimal degrees and checks the range.
func ParseCoordinate(s string) (domain.Coordinate, error) {
	latStr, lonStr, ok := strings.Cut(s, ",")
	if !ok {
		return domain.Coordinate{}, fmt.Errorf("coordinate %q: want lat,lon", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil || lat < -90 || lat > 90 {
		return domain.Coordinate{}, fmt.Errorf("coordinate %q: invalid latitude", s)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil || lon < -180 || lon > 180 {
		return domain.Coordinate{}, fmt.Errorf("coordinate %q: invalid longitude", s)
	}
	return domain.Coordinate{Latitude: lat, Longitude: lon}, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q", key, v)
	}
	return b, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid LOG_LEVEL %q", s)
	}
}

func parseBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
