package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/efreitasn/simtrade/internal/domain"
	"github.com/efreitasn/simtrade/internal/service"
)

const timeFormat = "2006-01-02T15:04:05.000Z"

// OrderHandler handles HTTP requests for order endpoints.
type OrderHandler struct {
	session *service.Session
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(session *service.Session) *OrderHandler {
	return &OrderHandler{session: session}
}

// submitOrderRequest is the JSON request body for POST /orders. Quantity is
// a JSON number so that fractional or non-positive values reach the engine
// and come back as rejected orders.
type submitOrderRequest struct {
	Side     string  `json:"side"`
	Symbol   string  `json:"symbol"`
	Quantity float64 `json:"quantity"`
}

// orderResponse is the JSON response for a single order.
// Nullable fields use pointers and are always present.
type orderResponse struct {
	OrderID         string   `json:"order_id"`
	Symbol          string   `json:"symbol"`
	Side            string   `json:"side"`
	Quantity        float64  `json:"quantity"`
	Price           float64  `json:"price"`
	Status          string   `json:"status"`
	CreatedAt       string   `json:"created_at"`
	ExecutedAt      *string  `json:"executed_at"`
	ExecutionPrice  *float64 `json:"execution_price"`
	Total           *float64 `json:"total"`
	RejectionCode   *string  `json:"rejection_code"`
	RejectionReason *string  `json:"rejection_reason"`
}

// orderListResponse is the JSON response for GET /orders.
type orderListResponse struct {
	Orders []orderResponse `json:"orders"`
	Total  int             `json:"total"`
	Page   int             `json:"page"`
	Limit  int             `json:"limit"`
}

// SubmitOrder handles POST /orders.
func (h *OrderHandler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req submitOrderRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteRequestError(w, err)
		return
	}

	side, err := domain.ParseOrderSide(req.Side)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	order, err := h.session.Submit(side, req.Symbol, req.Quantity)
	if err != nil {
		mapOrderError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, buildOrderResponse(order))
}

// GetOrder handles GET /orders/{order_id}.
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.session.Order(chi.URLParam(r, "order_id"))
	if err != nil {
		mapOrderError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, buildOrderResponse(order))
}

// ListOrders handles GET /orders.
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	var statusFilter *domain.OrderStatus
	if s := r.URL.Query().Get("status"); s != "" {
		status, err := domain.ParseOrderStatus(s)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "validation_error", err.Error())
			return
		}
		statusFilter = &status
	}

	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		var err error
		page, err = strconv.Atoi(p)
		if err != nil || page < 1 {
			WriteError(w, http.StatusBadRequest, "validation_error", "page must be a positive integer")
			return
		}
	}

	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		var err error
		limit, err = strconv.Atoi(l)
		if err != nil || limit < 1 || limit > 100 {
			WriteError(w, http.StatusBadRequest, "validation_error", "limit must be an integer between 1 and 100")
			return
		}
	}

	orders, total := h.session.Orders(statusFilter, page, limit)

	resp := orderListResponse{
		Orders: make([]orderResponse, len(orders)),
		Total:  total,
		Page:   page,
		Limit:  limit,
	}
	for i, o := range orders {
		resp.Orders[i] = buildOrderResponse(o)
	}

	WriteJSON(w, http.StatusOK, resp)
}

func buildOrderResponse(o domain.Order) orderResponse {
	resp := orderResponse{
		OrderID:   o.ID,
		Symbol:    o.Symbol,
		Side:      string(o.Side),
		Quantity:  o.Quantity,
		Price:     o.Price,
		Status:    string(o.Status),
		CreatedAt: o.CreatedAt.UTC().Format(timeFormat),
	}

	if o.ExecutedAt != nil {
		s := o.ExecutedAt.UTC().Format(timeFormat)
		resp.ExecutedAt = &s
	}
	resp.ExecutionPrice = o.ExecutionPrice
	if total, ok := o.Notional(); ok {
		resp.Total = &total
	}
	if o.Status == domain.OrderStatusRejected {
		code, reason := o.RejectionCode, o.RejectionReason
		resp.RejectionCode = &code
		resp.RejectionReason = &reason
	}

	return resp
}

// mapOrderError maps domain errors to HTTP responses for order endpoints.
func mapOrderError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		WriteError(w, http.StatusBadRequest, "validation_error", validationErr.Message)
		return
	}

	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		WriteError(w, http.StatusNotFound, "order_not_found", "Order not found")
	case errors.Is(err, domain.ErrSessionEnded):
		WriteError(w, http.StatusConflict, "session_ended", "The trading session has ended")
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}
