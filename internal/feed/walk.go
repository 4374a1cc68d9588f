package feed

import (
	"fmt"
	"math"

	"github.com/efreitasn/simtrade/internal/domain"
	"github.com/efreitasn/simtrade/internal/rng"
)

// walkStep bounds each Walk move to ±0.2% of the current price.
const walkStep = 0.002

// Walk is a lightweight mock feed: every tick moves the price by a uniform
// factor within ±0.2% and reports change relative to the opening price.
// Prices and changes are rounded to cents after the change is taken. It ignores the volatility preset.
type Walk struct {
	cfg         Config
	src         *rng.Source
	price       float64
	currentTime int64
	tickCount   int
}

// NewWalk creates a Walk from cfg. Only InitialPrice, Seed, TickInterval
// and StartTime are used.
func NewWalk(cfg Config) (*Walk, error) {
	if cfg.Preset == "" {
		cfg.Preset = PresetMedium
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Walk{
		cfg:         cfg,
		src:         rng.New(cfg.Seed),
		price:       cfg.InitialPrice,
		currentTime: cfg.startMillis(),
	}, nil
}

// NextTick advances the walk by one interval.
func (w *Walk) NextTick() PriceTick {
	move := (w.src.Next() - 0.5) * 2 * walkStep
	next := w.price * (1 + move)

	// Change is measured on the unrounded price; only the stored price is
	// snapped to cents.
	opening := w.cfg.InitialPrice
	change := next - opening
	w.price = math.Max(MinPrice, domain.RoundCents(next))

	w.currentTime += w.cfg.TickInterval.Milliseconds()
	w.tickCount++

	return PriceTick{
		Timestamp:     w.currentTime,
		Price:         w.price,
		Change:        domain.RoundCents(change),
		ChangePercent: domain.RoundCents(change / opening * 100),
	}
}

// GenerateTicks returns the next n ticks in order.
func (w *Walk) GenerateTicks(n int) []PriceTick {
	return collect(w, n)
}

// State returns the walk's current position.
func (w *Walk) State() State {
	return State{
		CurrentPrice: w.price,
		CurrentTime:  w.currentTime,
		TickCount:    w.tickCount,
	}
}

// Reset behaves like Generator.Reset.
func (w *Walk) Reset(seed *int64) {
	if seed != nil {
		w.cfg.Seed = *seed
	}
	w.src.Reset(w.cfg.Seed)
	w.price = w.cfg.InitialPrice
	w.currentTime = w.cfg.startMillis()
	w.tickCount = 0
}

// Ticker is the stepping interface shared by every feed.
type Ticker interface {
	NextTick() PriceTick
	GenerateTicks(n int) []PriceTick
	State() State
	Reset(seed *int64)
}

// Kind selects a feed implementation.
type Kind string

const (
	KindGBM  Kind = "gbm"
	KindWalk Kind = "walk"
)

// ParseKind converts a config string into a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindGBM, KindWalk:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown feed %q, must be one of: gbm, walk", s)
}

// NewTicker builds the feed named by kind.
func NewTicker(kind Kind, cfg Config) (Ticker, error) {
	switch kind {
	case KindGBM:
		g, err := New(cfg)
		if err != nil {
			return nil, err
		}
		return g, nil
	case KindWalk:
		w, err := NewWalk(cfg)
		if err != nil {
			return nil, err
		}
		return w, nil
	}
	return nil, fmt.Errorf("%w: unknown feed %q", ErrInvalidConfig, kind)
}

var (
	_ Ticker = (*Generator)(nil)
	_ Ticker = (*Walk)(nil)
)
