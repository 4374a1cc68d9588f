package domain

import (
	"fmt"
	"math"
)

// quantityLimit is 2^63, the first float64 that no longer fits an int64
// share count. Every whole number below it is accepted.
const quantityLimit = 1 << 63

// ValidateOrderQuantity reports whether q is a positive whole number small
// enough to be held as an int64 share count.
func ValidateOrderQuantity(q float64) error {
	if math.IsNaN(q) || math.IsInf(q, 0) || q != math.Trunc(q) {
		return reject(ErrNotWholeNumber, "Quantity must be a whole number")
	}
	if q <= 0 {
		return reject(ErrNotPositive, "Quantity must be greater than zero")
	}
	if q >= quantityLimit {
		return reject(ErrQuantityTooLarge, fmt.Sprintf("Quantity must be less than %d", uint64(quantityLimit)))
	}
	return nil
}

// ValidateBuyOrder checks the quantity and that the portfolio's cash covers
// quantity × price. The symbol is not consulted.
func ValidateBuyOrder(symbol string, quantity, price float64, portfolio Portfolio) error {
	if err := ValidateOrderQuantity(quantity); err != nil {
		return err
	}

	cost := quantity * price
	if portfolio.Cash < cost {
		return reject(ErrInsufficientFunds, fmt.Sprintf("Insufficient funds. Need %s, have %s",
			FormatMoney(cost), FormatMoney(portfolio.Cash)))
	}
	return nil
}

// ValidateSellOrder checks the quantity and that the portfolio holds at
// least that many shares of symbol.
func ValidateSellOrder(symbol string, quantity float64, portfolio Portfolio) error {
	if err := ValidateOrderQuantity(quantity); err != nil {
		return err
	}

	pos, ok := portfolio.Position(symbol)
	if !ok || float64(pos.Quantity) < quantity {
		var available int64
		if ok {
			available = pos.Quantity
		}
		return reject(ErrInsufficientHoldings, fmt.Sprintf("Insufficient holdings. You have %d shares of %s",
			available, symbol))
	}
	return nil
}
