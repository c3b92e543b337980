package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all service settings, populated from environment variables
// and an optional config.yaml.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Feed settings.
	EarthquakeFeedURL string
	PlatesFeedURL     string
	FeedTimeout       time.Duration
	FeedCacheTTL      time.Duration
	FeedCacheSize     int
	ValkeyAddr        string

	// Map presentation.
	MapPreset       string
	DisplayTimezone *time.Location

	// Mapbox tiles and reverse geocoding.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int

	// Marker event stream.
	KafkaEnabled     bool
	KafkaBrokers     []string
	KafkaMarkerTopic string
}

const (
	defaultEarthquakeFeed = "https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/all_day.geojson"
	defaultPlatesFeed     = "https://raw.githubusercontent.com/fraxen/tectonicplates/master/GeoJSON/PB2002_boundaries.json"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("shutdown_timeout", "10s")
	v.SetDefault("earthquake_feed_url", defaultEarthquakeFeed)
	v.SetDefault("plates_feed_url", defaultPlatesFeed)
	v.SetDefault("feed_timeout", "15s")
	v.SetDefault("feed_cache_ttl", "1m")
	v.SetDefault("feed_cache_size", 16)
	v.SetDefault("valkey_addr", "")
	v.SetDefault("map_preset", "global")
	v.SetDefault("display_timezone", "UTC")
	v.SetDefault("mapbox_token", "")
	v.SetDefault("mapbox_enabled", "")
	v.SetDefault("mapbox_timeout", "5s")
	v.SetDefault("mapbox_cache_size", 1000)
	v.SetDefault("kafka_enabled", false)
	v.SetDefault("kafka_brokers", "localhost:9092")
	v.SetDefault("kafka_marker_topic", "earthquake-markers")
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // optional

	// HTTP_ADDR -> http_addr
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	shutdownTimeout, err := parsePositiveDuration(v, "shutdown_timeout")
	if err != nil {
		return nil, err
	}
	feedTimeout, err := parsePositiveDuration(v, "feed_timeout")
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parseDuration(v, "feed_cache_ttl")
	if err != nil {
		return nil, err
	}
	mapboxTimeout, err := parsePositiveDuration(v, "mapbox_timeout")
	if err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(v.GetString("display_timezone"))
	if err != nil {
		return nil, fmt.Errorf("invalid DISPLAY_TIMEZONE: %w", err)
	}

	mapboxToken := v.GetString("mapbox_token")
	mapboxEnabled := mapboxToken != ""
	if s := v.GetString("mapbox_enabled"); s != "" {
		mapboxEnabled = s == "true"
	}

	cfg := &Config{
		HTTPAddr:        v.GetString("http_addr"),
		LogLevel:        v.GetString("log_level"),
		LogFormat:       v.GetString("log_format"),
		ShutdownTimeout: shutdownTimeout,

		EarthquakeFeedURL: v.GetString("earthquake_feed_url"),
		PlatesFeedURL:     v.GetString("plates_feed_url"),
		FeedTimeout:       feedTimeout,
		FeedCacheTTL:      cacheTTL,
		FeedCacheSize:     positiveIntOr(v.GetInt("feed_cache_size"), 16),
		ValkeyAddr:        v.GetString("valkey_addr"),

		MapPreset:       v.GetString("map_preset"),
		DisplayTimezone: loc,

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: positiveIntOr(v.GetInt("mapbox_cache_size"), 1000),

		KafkaEnabled:     v.GetBool("kafka_enabled"),
		KafkaBrokers:     parseBrokers(v.GetString("kafka_brokers")),
		KafkaMarkerTopic: v.GetString("kafka_marker_topic"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	if c.EarthquakeFeedURL == "" {
		return errors.New("EARTHQUAKE_FEED_URL is required")
	}
	if c.PlatesFeedURL == "" {
		return errors.New("PLATES_FEED_URL is required")
	}
	if c.MapboxEnabled && c.MapboxToken == "" {
		return errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	if c.KafkaEnabled {
		if len(c.KafkaBrokers) == 0 {
			return errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if c.KafkaMarkerTopic == "" {
			return errors.New("KAFKA_MARKER_TOPIC is required when KAFKA_ENABLED is true")
		}
	}
	return nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s", strings.ToUpper(key))
	}
	return d, nil
}

func parsePositiveDuration(v *viper.Viper, key string) (time.Duration, error) {
	d, err := parseDuration(v, key)
	if err != nil {
		return 0, err
	}
	if d == 0 {
		return 0, fmt.Errorf("invalid %s", strings.ToUpper(key))
	}
	return d, nil
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

func positiveIntOr(n, fallback int) int {
	if n > 0 {
		return n
	}
	return fallback
}
