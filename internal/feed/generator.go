// Package feed produces synthetic price paths for the simulation.
package feed

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/efreitasn/simtrade/internal/rng"
)

const (
	// MinPrice is the floor every generated price is clamped to.
	MinPrice = 0.01

	// 252 trading days of 6.5 hours.
	millisPerTradingYear = 252 * 6.5 * 60 * 60 * 1000
)

// ErrInvalidConfig is wrapped by every constructor validation failure.
var ErrInvalidConfig = errors.New("invalid_feed_config")

// PriceTick is one simulated price observation.
type PriceTick struct {
	Timestamp     int64 // ms since epoch
	Price         float64
	Change        float64 // absolute change from the previous tick
	ChangePercent float64
}

// State is a read-only snapshot of a generator.
type State struct {
	CurrentPrice float64
	CurrentTime  int64 // ms since epoch
	TickCount    int
}

// Config configures a Generator. A zero StartTime means the wall clock at
// construction (and again at every Reset).
type Config struct {
	InitialPrice float64
	Preset       Preset
	Seed         int64
	TickInterval time.Duration
	StartTime    time.Time
}

func (c Config) validate() error {
	if math.IsNaN(c.InitialPrice) || math.IsInf(c.InitialPrice, 0) || c.InitialPrice <= 0 {
		return fmt.Errorf("%w: initial price must be a positive number, got %v", ErrInvalidConfig, c.InitialPrice)
	}
	if c.TickInterval.Milliseconds() <= 0 {
		return fmt.Errorf("%w: tick interval must be at least 1ms, got %v", ErrInvalidConfig, c.TickInterval)
	}
	if _, ok := Volatility(c.Preset); !ok {
		return fmt.Errorf("%w: unknown volatility preset %q", ErrInvalidConfig, c.Preset)
	}
	return nil
}

func (c Config) startMillis() int64 {
	if c.StartTime.IsZero() {
		return time.Now().UnixMilli()
	}
	return c.StartTime.UnixMilli()
}

// Generator walks a price under geometric Brownian motion:
//
//	P(t+1) = P(t) * exp((mu - sigma^2/2)*dt + sigma*sqrt(dt)*eps)
//
// with eps ~ N(0,1) from its own seeded source. Two generators built from
// the same Config emit identical ticks. A Generator is not safe for
// concurrent use.
type Generator struct {
	cfg           Config
	vol           VolatilityConfig
	src           *rng.Source
	currentPrice  float64
	previousPrice float64
	currentTime   int64
	tickCount     int
}

// New validates cfg and creates a Generator positioned at its initial price.
func New(cfg Config) (*Generator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	vol, _ := Volatility(cfg.Preset)
	return &Generator{
		cfg:           cfg,
		vol:           vol,
		src:           rng.New(cfg.Seed),
		currentPrice:  cfg.InitialPrice,
		previousPrice: cfg.InitialPrice,
		currentTime:   cfg.startMillis(),
	}, nil
}

// NextTick advances the generator by one interval.
func (g *Generator) NextTick() PriceTick {
	intervalMs := g.cfg.TickInterval.Milliseconds()
	dt := float64(intervalMs) / millisPerTradingYear
	eps := g.src.NextGaussian()

	// Explicit conversions keep the compiler from fusing multiply-adds, so
	// seeded paths are identical on every architecture.
	drift := float64((g.vol.Mu - float64(0.5*g.vol.Sigma*g.vol.Sigma)) * dt)
	shock := float64(g.vol.Sigma*math.Sqrt(dt)) * eps
	factor := math.Exp(drift + shock)

	g.previousPrice = g.currentPrice
	g.currentPrice = math.Max(MinPrice, g.currentPrice*factor)

	change := g.currentPrice - g.previousPrice
	var changePercent float64
	if g.previousPrice > 0 {
		changePercent = change / g.previousPrice * 100
	}

	g.currentTime += intervalMs
	g.tickCount++

	return PriceTick{
		Timestamp:     g.currentTime,
		Price:         g.currentPrice,
		Change:        change,
		ChangePercent: changePercent,
	}
}

// GenerateTicks returns the next n ticks in order.
func (g *Generator) GenerateTicks(n int) []PriceTick {
	return collect(g, n)
}

// State returns the generator's current position.
func (g *Generator) State() State {
	return State{
		CurrentPrice: g.currentPrice,
		CurrentTime:  g.currentTime,
		TickCount:    g.tickCount,
	}
}

// Reset restores the initial price, time and tick count. A non-nil seed
// reseeds the source and replaces the configured seed for later resets;
// nil replays the configured seed.
func (g *Generator) Reset(seed *int64) {
	if seed != nil {
		g.cfg.Seed = *seed
	}
	g.src.Reset(g.cfg.Seed)
	g.currentPrice = g.cfg.InitialPrice
	g.previousPrice = g.cfg.InitialPrice
	g.currentTime = g.cfg.startMillis()
	g.tickCount = 0
}

// Config returns the generator's current configuration.
func (g *Generator) Config() Config {
	return g.cfg
}

func collect(t Ticker, n int) []PriceTick {
	if n <= 0 {
		return []PriceTick{}
	}
	ticks := make([]PriceTick, 0, n)
	for i := 0; i < n; i++ {
		ticks = append(ticks, t.NextTick())
	}
	return ticks
}
