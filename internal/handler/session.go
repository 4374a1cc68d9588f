package handler

import (
	"net/http"

	"github.com/efreitasn/simtrade/internal/domain"
	"github.com/efreitasn/simtrade/internal/service"
)

// SessionHandler handles HTTP requests for the session and its quotes.
type SessionHandler struct {
	session *service.Session
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(session *service.Session) *SessionHandler {
	return &SessionHandler{session: session}
}

// resetRequest is the optional JSON body for POST /session/reset.
type resetRequest struct {
	Seed *int64 `json:"seed"`
}

type quoteResponse struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
	Timestamp     int64   `json:"timestamp"`
}

type positionResponse struct {
	Symbol               string  `json:"symbol"`
	Quantity             int64   `json:"quantity"`
	AverageCost          float64 `json:"average_cost"`
	CurrentPrice         float64 `json:"current_price"`
	MarketValue          float64 `json:"market_value"`
	UnrealizedPnL        float64 `json:"unrealized_pnl"`
	UnrealizedPnLPercent float64 `json:"unrealized_pnl_percent"`
}

type portfolioResponse struct {
	Cash            float64            `json:"cash"`
	InitialCash     float64            `json:"initial_cash"`
	Positions       []positionResponse `json:"positions"`
	PositionsValue  float64            `json:"positions_value"`
	TotalValue      float64            `json:"total_value"`
	TotalValueText  string             `json:"total_value_text"`
	TotalPnL        float64            `json:"total_pnl"`
	TotalPnLPercent float64            `json:"total_pnl_percent"`
}

// snapshotResponse is the JSON form of service.Snapshot, used by
// GET /session and the stream.
type snapshotResponse struct {
	SessionID   string            `json:"session_id"`
	Status      string            `json:"status"`
	StartedAt   string            `json:"started_at"`
	EndsAt      string            `json:"ends_at"`
	RemainingMs int64             `json:"remaining_ms"`
	Ticks       int               `json:"ticks"`
	Quotes      []quoteResponse   `json:"quotes"`
	Portfolio   portfolioResponse `json:"portfolio"`
	OrderCount  int               `json:"order_count"`
}

// GetSession handles GET /session.
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, buildSnapshotResponse(h.session.Snapshot()))
}

// Reset handles POST /session/reset. The body may be empty.
func (h *SessionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if r.ContentLength != 0 {
		if err := ParseJSON(r, &req); err != nil {
			WriteRequestError(w, err)
			return
		}
	}

	snap, err := h.session.Reset(req.Seed)
	if err != nil {
		mapOrderError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, buildSnapshotResponse(snap))
}

// GetQuotes handles GET /quotes.
func (h *SessionHandler) GetQuotes(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, buildQuoteResponses(h.session.Snapshot().Quotes))
}

func buildQuoteResponses(quotes []service.Quote) []quoteResponse {
	result := make([]quoteResponse, len(quotes))
	for i, q := range quotes {
		result[i] = quoteResponse{
			Symbol:        q.Symbol,
			Price:         q.Price,
			Change:        q.Change,
			ChangePercent: q.ChangePercent,
			Timestamp:     q.Timestamp,
		}
	}
	return result
}

func buildPortfolioResponse(v domain.Valuation) portfolioResponse {
	positions := make([]positionResponse, len(v.Positions))
	for i, p := range v.Positions {
		positions[i] = positionResponse{
			Symbol:               p.Symbol,
			Quantity:             p.Quantity,
			AverageCost:          p.AverageCost,
			CurrentPrice:         p.CurrentPrice,
			MarketValue:          p.MarketValue,
			UnrealizedPnL:        p.UnrealizedPnL,
			UnrealizedPnLPercent: p.UnrealizedPnLPercent,
		}
	}
	return portfolioResponse{
		Cash:            v.Cash,
		InitialCash:     v.InitialCash,
		Positions:       positions,
		PositionsValue:  v.PositionsValue,
		TotalValue:      v.TotalValue,
		TotalValueText:  domain.FormatMoney(v.TotalValue),
		TotalPnL:        v.TotalPnL,
		TotalPnLPercent: v.TotalPnLPercent,
	}
}

func buildSnapshotResponse(s service.Snapshot) snapshotResponse {
	return snapshotResponse{
		SessionID:   s.SessionID,
		Status:      string(s.Status),
		StartedAt:   s.StartedAt.UTC().Format(timeFormat),
		EndsAt:      s.EndsAt.UTC().Format(timeFormat),
		RemainingMs: s.Remaining.Milliseconds(),
		Ticks:       s.Ticks,
		Quotes:      buildQuoteResponses(s.Quotes),
		Portfolio:   buildPortfolioResponse(s.Valuation),
		OrderCount:  s.OrderCount,
	}
}
