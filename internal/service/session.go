package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/efreitasn/simtrade/internal/domain"
	"github.com/efreitasn/simtrade/internal/engine"
	"github.com/efreitasn/simtrade/internal/feed"
)

var symbolRegex = regexp.MustCompile(`^[A-Z]{1,10}$`)

// Listing is a tradable symbol and its opening price.
type Listing struct {
	Symbol       string
	OpeningPrice float64
}

// SessionConfig configures a trading session.
type SessionConfig struct {
	InitialCash  float64
	Listings     []Listing
	Seed         int64 // listing i is seeded with Seed+i
	Preset       feed.Preset
	Feed         feed.Kind
	TickInterval time.Duration
	Duration     time.Duration
	Now          func() time.Time // defaults to time.Now
}

// SessionStatus is either active or ended.
type SessionStatus string

const (
	SessionStatusActive SessionStatus = "active"
	SessionStatusEnded  SessionStatus = "ended"
)

// Quote is the latest tick of one symbol.
type Quote struct {
	Symbol        string
	Price         float64
	Change        float64
	ChangePercent float64
	Timestamp     int64 // ms since epoch
}

// Snapshot is a point-in-time view of the session for rendering.
type Snapshot struct {
	SessionID  string
	Status     SessionStatus
	StartedAt  time.Time
	EndsAt     time.Time
	Remaining  time.Duration
	Ticks      int
	Quotes     []Quote
	Valuation  domain.Valuation
	OrderCount int
}

// Session drives one player's simulation: it owns a price feed per listing
// and the engine State, serializes every event into engine.Reduce, and
// stops accepting orders once the session window closes.
type Session struct {
	cfg    SessionConfig
	logger *slog.Logger
	hub    *Hub[Snapshot]

	mu        sync.Mutex
	id        string
	state     engine.State
	tickers   []feed.Ticker // aligned with cfg.Listings
	quotes    []Quote
	startedAt time.Time
	ticks     int
	ended     bool
}

// NewSession validates cfg and opens a session at the opening prices.
func NewSession(cfg SessionConfig, logger *slog.Logger) (*Session, error) {
	if err := validateSessionConfig(cfg); err != nil {
		return nil, err
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Feed == "" {
		cfg.Feed = feed.KindGBM
	}
	if logger == nil {
		logger = slog.Default()
	}

	start := cfg.Now()
	tickers, err := newTickers(cfg, start)
	if err != nil {
		return nil, err
	}

	s := &Session{
		cfg:     cfg,
		logger:  logger,
		hub:     NewHub[Snapshot](),
		tickers: tickers,
	}
	s.open(start)
	return s, nil
}

func newTickers(cfg SessionConfig, start time.Time) ([]feed.Ticker, error) {
	tickers := make([]feed.Ticker, len(cfg.Listings))
	for i, l := range cfg.Listings {
		t, err := feed.NewTicker(cfg.Feed, feed.Config{
			InitialPrice: l.OpeningPrice,
			Preset:       cfg.Preset,
			Seed:         cfg.Seed + int64(i),
			TickInterval: cfg.TickInterval,
			StartTime:    start,
		})
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", l.Symbol, err)
		}
		tickers[i] = t
	}
	return tickers, nil
}

func validateSessionConfig(cfg SessionConfig) error {
	if math.IsNaN(cfg.InitialCash) || math.IsInf(cfg.InitialCash, 0) || cfg.InitialCash <= 0 {
		return &domain.ValidationError{Message: "initial cash must be a positive number"}
	}
	if len(cfg.Listings) == 0 {
		return &domain.ValidationError{Message: "at least one listing is required"}
	}
	seen := make(map[string]bool, len(cfg.Listings))
	for _, l := range cfg.Listings {
		if !symbolRegex.MatchString(l.Symbol) {
			return &domain.ValidationError{Message: fmt.Sprintf("symbol %q must be 1-10 uppercase letters", l.Symbol)}
		}
		if seen[l.Symbol] {
			return &domain.ValidationError{Message: fmt.Sprintf("duplicate symbol %s", l.Symbol)}
		}
		seen[l.Symbol] = true
	}
	if cfg.TickInterval <= 0 {
		return &domain.ValidationError{Message: "tick interval must be positive"}
	}
	if cfg.Duration <= 0 {
		return &domain.ValidationError{Message: "session duration must be positive"}
	}
	return nil
}

// open resets the session bookkeeping and prices every listing at its
// opening price. The caller holds s.mu or owns s exclusively.
func (s *Session) open(now time.Time) {
	symbols := make([]string, len(s.cfg.Listings))
	opening := make(map[string]float64, len(s.cfg.Listings))
	s.quotes = make([]Quote, len(s.cfg.Listings))
	for i, l := range s.cfg.Listings {
		symbols[i] = l.Symbol
		opening[l.Symbol] = l.OpeningPrice
		s.quotes[i] = Quote{Symbol: l.Symbol, Price: l.OpeningPrice, Timestamp: now.UnixMilli()}
	}

	s.id = uuid.New().String()
	s.state = engine.Reduce(engine.NewState(s.cfg.InitialCash, symbols), engine.UpdatePrices{Prices: opening})
	s.startedAt = now
	s.ticks = 0
	s.ended = false
}

// Tick advances every feed once and applies the new prices. It reports
// false, and does nothing, once the session has ended.
func (s *Session) Tick() bool {
	s.mu.Lock()
	if s.checkEndedLocked() {
		s.mu.Unlock()
		return false
	}

	prices := make(map[string]float64, len(s.tickers))
	for i, t := range s.tickers {
		tick := t.NextTick()
		sym := s.cfg.Listings[i].Symbol
		prices[sym] = tick.Price
		s.quotes[i] = Quote{
			Symbol:        sym,
			Price:         tick.Price,
			Change:        tick.Change,
			ChangePercent: tick.ChangePercent,
			Timestamp:     tick.Timestamp,
		}
	}
	s.state = engine.Reduce(s.state, engine.UpdatePrices{Prices: prices})
	s.ticks++
	snap := s.snapshotLocked()
	s.hub.Broadcast(snap)
	s.mu.Unlock()

	s.logger.Debug("tick applied",
		slog.String("session_id", snap.SessionID),
		slog.Int("tick", snap.Ticks),
		slog.Float64("total_value", snap.Valuation.TotalValue),
	)
	return true
}

// Run ticks at the configured interval until ctx is cancelled. An ended
// session keeps the loop alive so that Reset can reopen it.
func (s *Session) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}

// Submit places a market order for quantity shares of symbol at the
// latest quote. Rejections are returned as orders with status REJECTED;
// the error is non-nil only when the session has ended.
func (s *Session) Submit(side domain.OrderSide, symbol string, quantity float64) (domain.Order, error) {
	s.mu.Lock()
	if s.checkEndedLocked() {
		s.mu.Unlock()
		return domain.Order{}, domain.ErrSessionEnded
	}

	var quoted float64
	for _, q := range s.quotes {
		if q.Symbol == symbol {
			quoted = q.Price
			break
		}
	}
	in := engine.OrderIntent{
		ID:          uuid.New().String(),
		Side:        side,
		Symbol:      symbol,
		Quantity:    quantity,
		Price:       quoted,
		SubmittedAt: s.cfg.Now(),
	}
	s.state = engine.Reduce(s.state, engine.ExecuteOrder{Order: in})
	order, _ := s.state.LastOrder()
	s.hub.Broadcast(s.snapshotLocked())
	s.mu.Unlock()

	if order.Status == domain.OrderStatusRejected {
		s.logger.Info("order rejected",
			slog.String("order_id", order.ID),
			slog.String("side", string(order.Side)),
			slog.String("symbol", order.Symbol),
			slog.String("reason", order.RejectionCode),
		)
	} else {
		s.logger.Info("order filled",
			slog.String("order_id", order.ID),
			slog.String("side", string(order.Side)),
			slog.String("symbol", order.Symbol),
			slog.Float64("quantity", order.Quantity),
			slog.Float64("price", *order.ExecutionPrice),
		)
	}
	return order, nil
}

// Order returns the order with the given ID.
func (s *Session) Order(id string) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range s.state.Orders {
		if o.ID == id {
			return o, nil
		}
	}
	return domain.Order{}, domain.ErrOrderNotFound
}

// Orders returns orders newest first. If status is non-nil, only orders
// with that status are included. Pagination is 1-based. It returns the
// requested page and the total count of matching orders.
func (s *Session) Orders(status *domain.OrderStatus, page, limit int) ([]domain.Order, int) {
	s.mu.Lock()
	all := s.state.Orders
	s.mu.Unlock()

	// all is never written in place, so it is safe to read unlocked.
	filtered := make([]domain.Order, 0)
	for i := len(all) - 1; i >= 0; i-- {
		if status != nil && all[i].Status != *status {
			continue
		}
		filtered = append(filtered, all[i])
	}

	total := len(filtered)
	if page < 1 || limit < 1 {
		return []domain.Order{}, total
	}

	start := (page - 1) * limit
	if start >= total {
		return []domain.Order{}, total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return filtered[start:end], total
}

// Snapshot returns the current view of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkEndedLocked()
	return s.snapshotLocked()
}

// State returns the current engine state.
func (s *Session) State() engine.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Reset reopens the session with a fresh portfolio and new feeds starting
// at the opening prices. A non-nil seed replaces the base seed for this and
// later resets.
func (s *Session) Reset(seed *int64) (Snapshot, error) {
	s.mu.Lock()
	cfg := s.cfg
	if seed != nil {
		cfg.Seed = *seed
	}
	now := cfg.Now()
	tickers, err := newTickers(cfg, now)
	if err != nil {
		s.mu.Unlock()
		return Snapshot{}, err
	}
	s.cfg = cfg
	s.tickers = tickers
	s.open(now)
	snap := s.snapshotLocked()
	s.hub.Broadcast(snap)
	s.mu.Unlock()

	s.logger.Info("session reset",
		slog.String("session_id", snap.SessionID),
		slog.Int64("seed", cfg.Seed),
	)
	return snap, nil
}

// Subscribe registers for a Snapshot after every tick, order and reset.
// Snapshots are broadcast under the session lock, so each subscriber sees
// them in the order the changes were applied.
func (s *Session) Subscribe(buffer int) *Subscription[Snapshot] {
	return s.hub.Subscribe(buffer)
}

// Unsubscribe stops delivery to sub and closes its channel.
func (s *Session) Unsubscribe(sub *Subscription[Snapshot]) {
	s.hub.Unsubscribe(sub)
}

// checkEndedLocked marks the session ended once its window has elapsed and
// reports whether it has ended.
func (s *Session) checkEndedLocked() bool {
	if s.ended {
		return true
	}
	if !s.cfg.Now().Before(s.startedAt.Add(s.cfg.Duration)) {
		s.ended = true
		s.logger.Info("session ended",
			slog.String("session_id", s.id),
			slog.Int("ticks", s.ticks),
			slog.Int("orders", len(s.state.Orders)),
			slog.Float64("total_value", s.state.Portfolio.TotalValue),
		)
	}
	return s.ended
}

func (s *Session) snapshotLocked() Snapshot {
	endsAt := s.startedAt.Add(s.cfg.Duration)
	status := SessionStatusActive
	remaining := endsAt.Sub(s.cfg.Now())
	if s.ended {
		status = SessionStatusEnded
		remaining = 0
	}
	if remaining < 0 {
		remaining = 0
	}

	quotes := make([]Quote, len(s.quotes))
	copy(quotes, s.quotes)

	return Snapshot{
		SessionID:  s.id,
		Status:     status,
		StartedAt:  s.startedAt,
		EndsAt:     endsAt,
		Remaining:  remaining,
		Ticks:      s.ticks,
		Quotes:     quotes,
		Valuation:  domain.Value(s.state.Portfolio, s.state.Prices, s.cfg.InitialCash),
		OrderCount: len(s.state.Orders),
	}
}
