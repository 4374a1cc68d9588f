package engine

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"

	"github.com/efreitasn/simtrade/internal/domain"
)

var propSymbols = []string{"FYNX", "ZORD", "MERA"}

// genEvent draws either an order (sometimes for an unknown symbol or with a
// bad quantity) or a price update.
func genEvent(seq int) *rapid.Generator[Event] {
	return rapid.Custom(func(t *rapid.T) Event {
		if rapid.IntRange(0, 3).Draw(t, "kind") == 0 {
			prices := map[string]float64{}
			for _, s := range propSymbols {
				if rapid.Bool().Draw(t, "update-"+s) {
					prices[s] = rapid.Float64Range(0.01, 500).Draw(t, "price-"+s)
				}
			}
			return UpdatePrices{Prices: prices}
		}

		symbol := rapid.SampledFrom(append([]string{"NOPE"}, propSymbols...)).Draw(t, "symbol")
		qty := float64(rapid.IntRange(-2, 60).Draw(t, "qty"))
		if rapid.IntRange(0, 9).Draw(t, "fractional") == 0 {
			qty += 0.5
		}
		return ExecuteOrder{Order: OrderIntent{
			ID:          fmt.Sprintf("order-%d", seq),
			Side:        rapid.SampledFrom([]domain.OrderSide{domain.OrderSideBuy, domain.OrderSideSell}).Draw(t, "side"),
			Symbol:      symbol,
			Quantity:    qty,
			Price:       rapid.Float64Range(1, 200).Draw(t, "intentPrice"),
			SubmittedAt: submittedAt,
		}}
	})
}

func drawEvents(t *rapid.T) []Event {
	n := rapid.IntRange(1, 80).Draw(t, "numEvents")
	events := make([]Event, n)
	for i := range events {
		events[i] = genEvent(i).Draw(t, fmt.Sprintf("event-%d", i))
	}
	return events
}

func TestProperty_ReduceInvariants(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cash := rapid.Float64Range(0, 50_000).Draw(t, "cash")
		s := NewState(cash, propSymbols)
		shares := map[string]int64{}

		for i, ev := range drawEvents(t) {
			prev := s
			s = Reduce(s, ev)

			switch ev := ev.(type) {
			case ExecuteOrder:
				if len(s.Orders) != len(prev.Orders)+1 {
					t.Fatalf("event %d: order log grew by %d, want 1", i, len(s.Orders)-len(prev.Orders))
				}
				o := s.Orders[len(s.Orders)-1]
				switch o.Status {
				case domain.OrderStatusFilled:
					if ev.Order.Side == domain.OrderSideBuy {
						shares[o.Symbol] += int64(o.Quantity)
					} else {
						shares[o.Symbol] -= int64(o.Quantity)
					}
				case domain.OrderStatusRejected:
					if o.RejectionReason == "" || o.RejectionCode == "" {
						t.Fatalf("event %d: rejected order without reason: %+v", i, o)
					}
					if s.Portfolio.Cash != prev.Portfolio.Cash || s.Portfolio.Holdings.Len() != prev.Portfolio.Holdings.Len() {
						t.Fatalf("event %d: rejected order changed the portfolio", i)
					}
				default:
					t.Fatalf("event %d: unexpected status %s", i, o.Status)
				}
			case UpdatePrices:
				if len(s.Orders) != len(prev.Orders) {
					t.Fatalf("event %d: price update touched the order log", i)
				}
			}

			if s.Portfolio.Cash < -1e-6 {
				t.Fatalf("event %d: cash went negative: %v", i, s.Portfolio.Cash)
			}
			if want := TotalValue(s.Portfolio.Cash, s.Portfolio.Holdings, s.Prices); s.Portfolio.TotalValue != want {
				t.Fatalf("event %d: total value %v, recomputed %v", i, s.Portfolio.TotalValue, want)
			}
			s.Portfolio.Holdings.Ascend(func(p domain.Position) bool {
				if p.Quantity <= 0 {
					t.Fatalf("event %d: non-positive position kept: %+v", i, p)
				}
				return true
			})
			for sym, n := range shares {
				p, held := s.Portfolio.Position(sym)
				if n == 0 && held {
					t.Fatalf("event %d: closed position %s still held", i, sym)
				}
				if n > 0 && (!held || p.Quantity != n) {
					t.Fatalf("event %d: %s quantity %d, want %d", i, sym, p.Quantity, n)
				}
			}
		}
	})
}

func TestProperty_ReduceIsDeterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		events := drawEvents(t)

		a := NewState(10_000, propSymbols)
		b := NewState(10_000, propSymbols)
		for _, ev := range events {
			a = Reduce(a, ev)
			b = Reduce(b, ev)
		}

		if a.Portfolio.Cash != b.Portfolio.Cash || a.Portfolio.TotalValue != b.Portfolio.TotalValue {
			t.Fatalf("portfolios differ: %+v vs %+v", a.Portfolio, b.Portfolio)
		}
		pa, pb := a.Portfolio.Holdings.Positions(), b.Portfolio.Holdings.Positions()
		if len(pa) != len(pb) {
			t.Fatalf("holdings differ: %v vs %v", pa, pb)
		}
		for i := range pa {
			if pa[i] != pb[i] {
				t.Fatalf("position %d differs: %+v vs %+v", i, pa[i], pb[i])
			}
		}
		if len(a.Orders) != len(b.Orders) {
			t.Fatalf("order logs differ in length")
		}
		for i := range a.Orders {
			if a.Orders[i].ID != b.Orders[i].ID || a.Orders[i].Status != b.Orders[i].Status {
				t.Fatalf("order %d differs: %+v vs %+v", i, a.Orders[i], b.Orders[i])
			}
		}
	})
}

func TestProperty_ReduceLeavesInputUntouched(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := NewState(10_000, propSymbols)
		for _, ev := range drawEvents(t) {
			cash := s.Portfolio.Cash
			orders := len(s.Orders)
			positions := s.Portfolio.Holdings.Positions()
			prices := make(map[string]float64, len(s.Prices))
			for k, v := range s.Prices {
				prices[k] = v
			}

			next := Reduce(s, ev)

			if s.Portfolio.Cash != cash || len(s.Orders) != orders {
				t.Fatalf("input state mutated")
			}
			after := s.Portfolio.Holdings.Positions()
			if len(after) != len(positions) {
				t.Fatalf("input holdings mutated")
			}
			for i := range after {
				if after[i] != positions[i] {
					t.Fatalf("input position mutated: %+v -> %+v", positions[i], after[i])
				}
			}
			for k, v := range prices {
				if s.Prices[k] != v {
					t.Fatalf("input price %s mutated: %v -> %v", k, v, s.Prices[k])
				}
			}
			s = next
		}
	})
}
