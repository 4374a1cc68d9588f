// Package engine applies orders and price updates to a portfolio. Reduce is
// a pure function: it never mutates the State it is given, and the same
// (State, Event) pair always yields the same result.
package engine

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/efreitasn/simtrade/internal/domain"
)

// PlaceholderPrice seeds every symbol of a new State until the first
// UpdatePrices arrives.
const PlaceholderPrice = 100

// State is the whole simulation account: portfolio, order log and the
// latest known price per symbol. Treat it as a value; Reduce returns a new
// State and shares unchanged parts with the old one.
type State struct {
	Portfolio domain.Portfolio
	Orders    []domain.Order // submission order, append-only
	Prices    map[string]float64
}

// NewState creates a State with initialCash, no positions, an empty order
// log and every symbol priced at PlaceholderPrice.
func NewState(initialCash float64, symbols []string) State {
	prices := make(map[string]float64, len(symbols))
	for _, s := range symbols {
		prices[s] = PlaceholderPrice
	}
	return State{
		Portfolio: domain.Portfolio{
			Cash:       initialCash,
			Holdings:   domain.NewHoldings(),
			TotalValue: initialCash,
		},
		Orders: []domain.Order{},
		Prices: prices,
	}
}

// Price returns the known market price for symbol.
func (s State) Price(symbol string) (float64, bool) {
	return domain.LivePrice(s.Prices, symbol)
}

// LastOrder returns the most recently appended order.
func (s State) LastOrder() (domain.Order, bool) {
	if len(s.Orders) == 0 {
		return domain.Order{}, false
	}
	return s.Orders[len(s.Orders)-1], true
}

// OrderIntent is an order as submitted. ID and SubmittedAt are assigned by
// the caller so that Reduce stays deterministic. Price is informational:
// fills always use the engine's current price.
type OrderIntent struct {
	ID          string
	Side        domain.OrderSide
	Symbol      string
	Quantity    float64
	Price       float64
	SubmittedAt time.Time
}

// NewOrderIntent stamps a fresh UUID and the current time.
func NewOrderIntent(side domain.OrderSide, symbol string, quantity, price float64) OrderIntent {
	return OrderIntent{
		ID:          uuid.New().String(),
		Side:        side,
		Symbol:      symbol,
		Quantity:    quantity,
		Price:       price,
		SubmittedAt: time.Now(),
	}
}

// Event is the closed set of inputs Reduce accepts: ExecuteOrder and
// UpdatePrices. The unexported method keeps other packages from adding
// variants.
type Event interface {
	event()
}

// ExecuteOrder submits one order. Every ExecuteOrder appends exactly one
// resolved order to the log.
type ExecuteOrder struct {
	Order OrderIntent
}

// UpdatePrices merges Prices into the known prices and revalues the
// portfolio.
type UpdatePrices struct {
	Prices map[string]float64
}

func (ExecuteOrder) event() {}
func (UpdatePrices) event() {}

// Reduce applies ev to s and returns the resulting State. A nil event
// leaves s unchanged.
func Reduce(s State, ev Event) State {
	switch ev := ev.(type) {
	case ExecuteOrder:
		return executeOrder(s, ev.Order)
	case UpdatePrices:
		return updatePrices(s, ev.Prices)
	default:
		// Only a nil Event gets here; the interface is sealed.
		return s
	}
}

// TotalValue is cash plus every position at its live price, or at its
// average cost when no live price is known.
func TotalValue(cash float64, holdings domain.Holdings, prices map[string]float64) float64 {
	return domain.TotalValue(cash, holdings, prices)
}

func executeOrder(s State, in OrderIntent) State {
	price, ok := s.Price(in.Symbol)
	if !ok {
		return s.withRejected(in, &domain.RejectionError{
			Err:     domain.ErrSymbolNotFound,
			Message: fmt.Sprintf("Symbol %s not found", in.Symbol),
		})
	}

	switch in.Side {
	case domain.OrderSideBuy:
		return buy(s, in, price)
	case domain.OrderSideSell:
		return sell(s, in, price)
	default:
		return s.withRejected(in, &domain.RejectionError{
			Err:     domain.ErrInvalidSide,
			Message: fmt.Sprintf("Unknown order side %q", in.Side),
		})
	}
}

func buy(s State, in OrderIntent, price float64) State {
	if err := domain.ValidateBuyOrder(in.Symbol, in.Quantity, price, s.Portfolio); err != nil {
		return s.withRejected(in, err)
	}

	qty := int64(in.Quantity)
	cash := s.Portfolio.Cash - in.Quantity*price

	pos := domain.Position{Symbol: in.Symbol, Quantity: qty, AverageCost: price}
	if prev, held := s.Portfolio.Position(in.Symbol); held {
		total := prev.Quantity + qty
		pos.Quantity = total
		pos.AverageCost = (float64(prev.Quantity)*prev.AverageCost + in.Quantity*price) / float64(total)
	}

	return s.withFilled(in, price, cash, s.Portfolio.Holdings.With(pos))
}

func sell(s State, in OrderIntent, price float64) State {
	if err := domain.ValidateSellOrder(in.Symbol, in.Quantity, s.Portfolio); err != nil {
		return s.withRejected(in, err)
	}

	qty := int64(in.Quantity)
	cash := s.Portfolio.Cash + in.Quantity*price

	prev, _ := s.Portfolio.Position(in.Symbol)
	var holdings domain.Holdings
	if remaining := prev.Quantity - qty; remaining == 0 {
		holdings = s.Portfolio.Holdings.Without(in.Symbol)
	} else {
		prev.Quantity = remaining
		holdings = s.Portfolio.Holdings.With(prev)
	}

	return s.withFilled(in, price, cash, holdings)
}

func updatePrices(s State, prices map[string]float64) State {
	merged := maps.Clone(s.Prices)
	if merged == nil {
		merged = make(map[string]float64, len(prices))
	}
	maps.Copy(merged, prices)

	next := s
	next.Prices = merged
	next.Portfolio.TotalValue = TotalValue(s.Portfolio.Cash, s.Portfolio.Holdings, merged)
	return next
}

func (s State) withFilled(in OrderIntent, price, cash float64, holdings domain.Holdings) State {
	executedAt := in.SubmittedAt
	executionPrice := price
	order := newOrder(in, domain.OrderStatusFilled)
	order.ExecutedAt = &executedAt
	order.ExecutionPrice = &executionPrice

	next := s
	next.Portfolio = domain.Portfolio{
		Cash:       cash,
		Holdings:   holdings,
		TotalValue: TotalValue(cash, holdings, s.Prices),
	}
	next.Orders = appendOrder(s.Orders, order)
	return next
}

func (s State) withRejected(in OrderIntent, err error) State {
	order := newOrder(in, domain.OrderStatusRejected)
	order.RejectionReason = err.Error()
	var rej *domain.RejectionError
	if errors.As(err, &rej) {
		order.RejectionCode = rej.Code()
	}

	next := s
	next.Orders = appendOrder(s.Orders, order)
	return next
}

func newOrder(in OrderIntent, status domain.OrderStatus) domain.Order {
	return domain.Order{
		ID:        in.ID,
		Symbol:    in.Symbol,
		Side:      in.Side,
		Quantity:  in.Quantity,
		Price:     in.Price,
		Status:    status,
		CreatedAt: in.SubmittedAt,
	}
}

// appendOrder never writes into the backing array of orders, so earlier
// States keep their logs.
func appendOrder(orders []domain.Order, o domain.Order) []domain.Order {
	return append(slices.Clip(orders), o)
}
