// internal/api/handlers/order_handler.go
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/yalgud-dairy/orders-admin/internal/grouping"
	"github.com/yalgud-dairy/orders-admin/internal/orderapi"
	"github.com/yalgud-dairy/orders-admin/internal/service"
)

type OrderHandler struct {
	orders *service.OrderService
}

func NewOrderHandler(orders *service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// GetAccepted returns the grouped accepted-orders view. Query params:
// route (RouteKey.Key), from/to (inclusive YYYY-MM-DD civil dates,
// applied only when both are present).
func (h *OrderHandler) GetAccepted(c *gin.Context) {
	filter := grouping.Filter{
		RouteKey: strings.TrimSpace(c.Query("route")),
		FromDate: strings.TrimSpace(c.Query("from")),
		ToDate:   strings.TrimSpace(c.Query("to")),
	}

	groups, routes, err := h.orders.Grouped(c.Request.Context(), filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to load accepted orders")
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to fetch accepted orders", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"today":      groups.Today,
		"yesterday":  groups.Yesterday,
		"older":      groups.Older,
		"routes":     routes,
		"count":      groups.Count(),
		"fetched_at": h.orders.FetchedAt(),
	})
}

// Refresh re-fetches the upstream order list, cancelling any fetch
// already in flight. A superseded fetch is not an error.
func (h *OrderHandler) Refresh(c *gin.Context) {
	if err := h.orders.Refresh(c.Request.Context()); err != nil {
		if errors.Is(err, orderapi.ErrSuperseded) {
			c.JSON(http.StatusOK, gin.H{"message": "refresh superseded by a newer request"})
			return
		}
		log.Error().Err(err).Msg("order refresh failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to fetch accepted orders", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "order snapshot refreshed", "fetched_at": h.orders.FetchedAt()})
}

// GetRoutes returns the deduplicated route filter list.
func (h *OrderHandler) GetRoutes(c *gin.Context) {
	routes, err := h.orders.Routes(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to fetch routes", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, routes)
}

// Export streams the CSV artifact for one route and civil date.
// route is required; date defaults to today in the fixed offset.
// Precondition violations come back as warnings, not server errors.
func (h *OrderHandler) Export(c *gin.Context) {
	routeKey := strings.TrimSpace(c.Query("route"))
	date := strings.TrimSpace(c.Query("date"))

	payload, filename, err := h.orders.Export(c.Request.Context(), routeKey, date)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRouteRequired),
			errors.Is(err, service.ErrNoOrdersForDate),
			errors.Is(err, service.ErrNothingToExport),
			errors.Is(err, service.ErrUnknownRoute):
			c.JSON(http.StatusBadRequest, gin.H{"warning": err.Error()})
		default:
			log.Error().Err(err).Msg("csv export failed")
			c.JSON(http.StatusBadGateway, gin.H{"error": "failed to export orders", "details": err.Error()})
		}
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", payload)
}
