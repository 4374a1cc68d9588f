package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// Listing is one SYMBOLS entry.
type Listing struct {
	Symbol       string
	OpeningPrice float64
}

// Config holds all runtime configuration for the trading simulator.
type Config struct {
	Port            int
	LogLevel        string
	InitialCash     float64
	Listings        []Listing
	Seed            int64
	Volatility      string
	Feed            string
	TickInterval    time.Duration
	SessionDuration time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

const defaultSymbols = "FYNX:102.45,ZORD:87.12,MERA:134.67"

// Load reads configuration from environment variables, applies defaults,
// and validates values. It returns an error for any invalid value.
func Load() (*Config, error) {
	port, err := getInt("PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	logLevel := getStr("LOG_LEVEL", "info")
	if !isValidLogLevel(logLevel) {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %q, must be one of: debug, info, warn, error", logLevel)
	}

	initialCash, err := getFloat("INITIAL_CASH", 10000)
	if err != nil {
		return nil, fmt.Errorf("invalid INITIAL_CASH: %w", err)
	}
	if math.IsNaN(initialCash) || math.IsInf(initialCash, 0) || initialCash <= 0 {
		return nil, fmt.Errorf("invalid INITIAL_CASH: %v, must be a positive number", initialCash)
	}

	listings, err := parseListings(getStr("SYMBOLS", defaultSymbols))
	if err != nil {
		return nil, fmt.Errorf("invalid SYMBOLS: %w", err)
	}

	seed, err := getInt64("SEED", 42)
	if err != nil {
		return nil, fmt.Errorf("invalid SEED: %w", err)
	}

	volatility := getStr("VOLATILITY", "medium")
	if !isOneOf(volatility, "low", "medium", "high") {
		return nil, fmt.Errorf("invalid VOLATILITY: %q, must be one of: low, medium, high", volatility)
	}

	feedKind := getStr("FEED", "gbm")
	if !isOneOf(feedKind, "gbm", "walk") {
		return nil, fmt.Errorf("invalid FEED: %q, must be one of: gbm, walk", feedKind)
	}

	tickInterval, err := getPositiveDuration("TICK_INTERVAL", 500*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("invalid TICK_INTERVAL: %w", err)
	}

	sessionDuration, err := getPositiveDuration("SESSION_DURATION", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_DURATION: %w", err)
	}

	readTimeout, err := getDuration("READ_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid READ_TIMEOUT: %w", err)
	}

	writeTimeout, err := getDuration("WRITE_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid WRITE_TIMEOUT: %w", err)
	}

	idleTimeout, err := getDuration("IDLE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid IDLE_TIMEOUT: %w", err)
	}

	shutdownTimeout, err := getDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
	}

	return &Config{
		Port:            port,
		LogLevel:        logLevel,
		InitialCash:     initialCash,
		Listings:        listings,
		Seed:            seed,
		Volatility:      volatility,
		Feed:            feedKind,
		TickInterval:    tickInterval,
		SessionDuration: sessionDuration,
		ReadTimeout:     readTimeout,
		WriteTimeout:    writeTimeout,
		IdleTimeout:     idleTimeout,
		ShutdownTimeout: shutdownTimeout,
	}, nil
}

// parseListings parses "SYM:PRICE,SYM:PRICE". Symbol format and
// uniqueness are checked by the session.
func parseListings(s string) ([]Listing, error) {
	var listings []Listing
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		sym, priceStr, ok := strings.Cut(entry, ":")
		if !ok {
			return nil, fmt.Errorf("entry %q must be SYMBOL:PRICE", entry)
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(priceStr), 64)
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", entry, err)
		}
		if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
			return nil, fmt.Errorf("entry %q: price must be positive", entry)
		}
		listings = append(listings, Listing{Symbol: strings.TrimSpace(sym), OpeningPrice: price})
	}
	if len(listings) == 0 {
		return nil, fmt.Errorf("at least one symbol is required")
	}
	return listings, nil
}

func getStr(key, defaultVal string) string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v
}

func getInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(v)
}

func getInt64(key string, defaultVal int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.ParseInt(v, 10, 64)
}

func getFloat(key string, defaultVal float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.ParseFloat(v, 64)
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return time.ParseDuration(v)
}

func getPositiveDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	d, err := getDuration(key, defaultVal)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("%v must be positive", d)
	}
	return d, nil
}

func isValidLogLevel(level string) bool {
	return isOneOf(level, "debug", "info", "warn", "error")
}

func isOneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
