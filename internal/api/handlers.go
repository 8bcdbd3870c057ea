package api

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/abdoElHodaky/matchbook/internal/matcherr"
	"github.com/abdoElHodaky/matchbook/internal/matching"
	"github.com/abdoElHodaky/matchbook/internal/metrics"
	"github.com/abdoElHodaky/matchbook/internal/types"
)

// OrderHandler exposes the Orderbook over HTTP. Grounded on
// internal/api/handlers/order_handler.go's OrderHandler shape
// (RegisterRoutes, ShouldBindJSON request DTOs, typed JSON error
// responses) — trimmed to the two surfaces this engine has (submit an
// intent, read the spread/depth) since there is no order
// lookup-by-id or listing endpoint without a persistence layer.
type OrderHandler struct {
	book    *matching.Orderbook
	logger  *zap.Logger
	hub     *streamHub
	sampler *metrics.Sampler
	mu      *sync.Mutex
}

// NewOrderHandler constructs a handler around a single Orderbook. mu
// serializes HTTP-originated calls into the engine, the facade's
// equivalent of spec.md §5's "concurrent producers must serialize
// externally". sampler feeds the engine-activity collectors registered
// by NewEngineMetrics.
func NewOrderHandler(book *matching.Orderbook, logger *zap.Logger, hub *streamHub, sampler *metrics.Sampler, mu *sync.Mutex) *OrderHandler {
	return &OrderHandler{book: book, logger: logger, hub: hub, sampler: sampler, mu: mu}
}

// RegisterRoutes wires this handler's endpoints onto router.
func (h *OrderHandler) RegisterRoutes(router gin.IRouter) {
	router.POST("/orders", h.CreateOrder)
	router.GET("/spread", h.GetSpread)
	router.GET("/depth", h.GetDepth)
}

// orderRequest is the wire shape of one intent submission. Type
// discriminates which Intent variant to build; unused fields for a given
// type are ignored, following CreateOrderRequest's binding-tag style.
type orderRequest struct {
	Type  string `json:"type" binding:"required,oneof=market limit amend cancel"`
	ID    string `json:"id"`
	Side  string `json:"side" binding:"required,oneof=bid ask"`
	Price string `json:"price"`
	Qty   string `json:"qty"`
}

// CreateOrder submits one intent and returns the events it produced.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req orderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	intent, err := buildIntent(req, h.book)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.mu.Lock()
	events := h.book.ProcessOrder(intent)
	h.sampler.Observe(h.book.Stats(), h.book.BidDepthCount(), h.book.AskDepthCount())
	h.mu.Unlock()

	for _, e := range events {
		h.hub.broadcast(e)
	}

	payload, err := types.MarshalEvents(events)
	if err != nil {
		h.logger.Error("failed to marshal events", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to marshal events"})
		return
	}
	c.Data(http.StatusOK, "application/json", payload)
}

// GetSpread returns the current (bid, ask) best prices, or 204 if either
// side is empty.
func (h *OrderHandler) GetSpread(c *gin.Context) {
	h.mu.Lock()
	bid, ask, ok := h.book.CurrentSpread()
	h.mu.Unlock()
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bid": bid.String(), "ask": ask.String()})
}

// GetDepth returns aggregated market depth, grounded on the teacher's
// GetDepth handler convention and this repo's supplemented
// Orderbook.GetDepth.
func (h *OrderHandler) GetDepth(c *gin.Context) {
	h.mu.Lock()
	depth := h.book.GetDepth(0)
	h.mu.Unlock()
	c.JSON(http.StatusOK, depth)
}

func buildIntent(req orderRequest, book *matching.Orderbook) (types.Intent, error) {
	side := types.OrderSide(req.Side)
	if side != types.SideBid && side != types.SideAsk {
		return nil, matcherr.New(matcherr.CodeUnknownSide, fmt.Sprintf("unknown side %q", req.Side))
	}

	switch req.Type {
	case "market":
		qty, err := decimal.NewFromString(req.Qty)
		if err != nil {
			return nil, matcherr.Wrap(matcherr.CodeInput, "invalid qty", err)
		}
		return types.NewMarketIntent(book.OrderAsset(), book.PriceAsset(), side, qty, time.Now()), nil

	case "limit":
		price, err := decimal.NewFromString(req.Price)
		if err != nil {
			return nil, matcherr.Wrap(matcherr.CodeInput, "invalid price", err)
		}
		qty, err := decimal.NewFromString(req.Qty)
		if err != nil {
			return nil, matcherr.Wrap(matcherr.CodeInput, "invalid qty", err)
		}
		return types.NewLimitIntent(book.OrderAsset(), book.PriceAsset(), side, price, qty, time.Now()), nil

	case "amend":
		id, err := uuid.Parse(req.ID)
		if err != nil {
			return nil, matcherr.Wrap(matcherr.CodeInput, "invalid order id", err)
		}
		price, err := decimal.NewFromString(req.Price)
		if err != nil {
			return nil, matcherr.Wrap(matcherr.CodeInput, "invalid price", err)
		}
		qty, err := decimal.NewFromString(req.Qty)
		if err != nil {
			return nil, matcherr.Wrap(matcherr.CodeInput, "invalid qty", err)
		}
		return types.AmendIntent(id, side, price, qty, time.Now()), nil

	default: // cancel
		id, err := uuid.Parse(req.ID)
		if err != nil {
			return nil, matcherr.Wrap(matcherr.CodeInput, "invalid order id", err)
		}
		return types.CancelIntent(id, side), nil
	}
}
