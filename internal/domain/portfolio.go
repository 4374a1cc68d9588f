package domain

import "math"

// Portfolio is the player's account. TotalValue is always derived from
// Cash, Holdings and market prices; nothing adjusts it directly.
type Portfolio struct {
	Cash       float64
	Holdings   Holdings
	TotalValue float64
}

// Position returns the held position for symbol, if any.
func (p Portfolio) Position(symbol string) (Position, bool) {
	return p.Holdings.Get(symbol)
}

// LivePrice looks up a usable market price. A missing, zero or NaN entry
// counts as unknown.
func LivePrice(prices map[string]float64, symbol string) (float64, bool) {
	v, ok := prices[symbol]
	if !ok || v == 0 || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// MarkPrice is the best available price for a position: the live price if
// known, else the position's average cost.
func MarkPrice(prices map[string]float64, p Position) float64 {
	if v, ok := LivePrice(prices, p.Symbol); ok {
		return v
	}
	return p.AverageCost
}

// TotalValue is cash plus every position marked at MarkPrice. Positions
// are summed in symbol order, so equal inputs give bit-identical totals.
func TotalValue(cash float64, holdings Holdings, prices map[string]float64) float64 {
	var held float64
	holdings.Ascend(func(p Position) bool {
		held += float64(p.Quantity) * MarkPrice(prices, p)
		return true
	})
	return cash + held
}

// PositionValuation is a position marked to market.
type PositionValuation struct {
	Position
	CurrentPrice         float64
	MarketValue          float64
	UnrealizedPnL        float64
	UnrealizedPnLPercent float64
}

// Valuation summarizes a portfolio against its starting cash.
type Valuation struct {
	Cash            float64
	InitialCash     float64
	Positions       []PositionValuation
	PositionsValue  float64
	TotalValue      float64
	TotalPnL        float64
	TotalPnLPercent float64
}

// Value marks every position of p to market and computes profit and loss
// relative to initialCash.
func Value(p Portfolio, prices map[string]float64, initialCash float64) Valuation {
	v := Valuation{
		Cash:        p.Cash,
		InitialCash: initialCash,
		Positions:   make([]PositionValuation, 0, p.Holdings.Len()),
	}
	p.Holdings.Ascend(func(pos Position) bool {
		price := MarkPrice(prices, pos)
		market := float64(pos.Quantity) * price
		cost := float64(pos.Quantity) * pos.AverageCost
		v.Positions = append(v.Positions, PositionValuation{
			Position:             pos,
			CurrentPrice:         price,
			MarketValue:          market,
			UnrealizedPnL:        market - cost,
			UnrealizedPnLPercent: Percent(market-cost, cost),
		})
		v.PositionsValue += market
		return true
	})
	v.TotalValue = p.Cash + v.PositionsValue
	v.TotalPnL = v.TotalValue - initialCash
	v.TotalPnLPercent = Percent(v.TotalPnL, initialCash)
	return v
}
