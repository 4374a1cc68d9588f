package domain

import "github.com/google/btree"

// Position is a held quantity of one symbol. AverageCost is the
// quantity-weighted cost basis; only buys change it.
type Position struct {
	Symbol      string
	Quantity    int64
	AverageCost float64
}

func positionLess(a, b Position) bool {
	return a.Symbol < b.Symbol
}

// Holdings is a persistent symbol → Position map ordered by symbol. With
// and Without return new Holdings and leave the receiver untouched; the
// underlying B-tree is shared copy-on-write. The zero value is empty and
// ready to use.
//
// Deriving two Holdings from the same parent must not happen concurrently,
// since cloning marks the parent's nodes as shared.
type Holdings struct {
	tree *btree.BTreeG[Position]
}

const holdingsDegree = 8

// NewHoldings builds Holdings from positions; later duplicates win.
func NewHoldings(positions ...Position) Holdings {
	tree := btree.NewG[Position](holdingsDegree, positionLess)
	for _, p := range positions {
		tree.ReplaceOrInsert(p)
	}
	return Holdings{tree: tree}
}

// Get returns the position for symbol, if held.
func (h Holdings) Get(symbol string) (Position, bool) {
	if h.tree == nil {
		return Position{}, false
	}
	return h.tree.Get(Position{Symbol: symbol})
}

// With returns Holdings where p replaces any existing position for p.Symbol.
func (h Holdings) With(p Position) Holdings {
	next := h.clone()
	next.tree.ReplaceOrInsert(p)
	return next
}

// Without returns Holdings with symbol removed.
func (h Holdings) Without(symbol string) Holdings {
	next := h.clone()
	next.tree.Delete(Position{Symbol: symbol})
	return next
}

// Len returns the number of held symbols.
func (h Holdings) Len() int {
	if h.tree == nil {
		return 0
	}
	return h.tree.Len()
}

// Ascend calls fn for each position in symbol order until fn returns false.
func (h Holdings) Ascend(fn func(Position) bool) {
	if h.tree == nil {
		return
	}
	h.tree.Ascend(fn)
}

// Positions returns all positions in symbol order.
func (h Holdings) Positions() []Position {
	out := make([]Position, 0, h.Len())
	h.Ascend(func(p Position) bool {
		out = append(out, p)
		return true
	})
	return out
}

func (h Holdings) clone() Holdings {
	if h.tree == nil {
		return NewHoldings()
	}
	return Holdings{tree: h.tree.Clone()}
}
