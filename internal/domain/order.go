package domain

import (
	"fmt"
	"strings"
	"time"
)

// OrderSide indicates whether an order buys or sells.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// ParseOrderSide accepts "buy"/"sell" in any case.
func ParseOrderSide(s string) (OrderSide, error) {
	switch side := OrderSide(strings.ToUpper(s)); side {
	case OrderSideBuy, OrderSideSell:
		return side, nil
	}
	return "", fmt.Errorf("side must be one of: BUY, SELL")
}

// OrderStatus represents the lifecycle state of an order. Orders resolve
// once: PENDING becomes FILLED or REJECTED and never changes again.
// CANCELLED is part of the vocabulary but nothing produces it.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusFilled    OrderStatus = "FILLED"
	OrderStatusRejected  OrderStatus = "REJECTED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// ParseOrderStatus accepts a status name in any case.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch st := OrderStatus(strings.ToUpper(s)); st {
	case OrderStatusPending, OrderStatusFilled, OrderStatusRejected, OrderStatusCancelled:
		return st, nil
	}
	return "", fmt.Errorf("status must be one of: PENDING, FILLED, REJECTED, CANCELLED")
}

// Order is an immutable record of one buy or sell request and its outcome.
type Order struct {
	ID              string
	Symbol          string
	Side            OrderSide
	Quantity        float64 // as requested, before validation
	Price           float64 // requested price; informational only
	Status          OrderStatus
	CreatedAt       time.Time
	ExecutedAt      *time.Time // nil unless filled
	ExecutionPrice  *float64   // nil unless filled
	RejectionReason string
	RejectionCode   string
}

// Notional returns quantity × execution price for a filled order, or
// (0, false) for any other status.
func (o Order) Notional() (float64, bool) {
	if o.Status != OrderStatusFilled || o.ExecutionPrice == nil {
		return 0, false
	}
	return o.Quantity * *o.ExecutionPrice, true
}
