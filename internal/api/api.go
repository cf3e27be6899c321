// internal/api/api.go
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yalgud-dairy/orders-admin/internal/api/handlers"
	"github.com/yalgud-dairy/orders-admin/internal/api/middleware"
	"github.com/yalgud-dairy/orders-admin/internal/service"
)

// NewRouter assembles the admin API surface.
func NewRouter(orders *service.OrderService, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(
		middleware.Logger(),
		middleware.Recovery(),
	)

	corsConfig := cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalized, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalized) > 0 {
			corsConfig.AllowOrigins = normalized
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		orderHandler := handlers.NewOrderHandler(orders)
		accepted := v1.Group("/orders/accepted")
		{
			accepted.GET("", orderHandler.GetAccepted)
			accepted.POST("/refresh", orderHandler.Refresh)
			accepted.GET("/routes", orderHandler.GetRoutes)
			accepted.GET("/export", orderHandler.Export)
		}
	}

	return router
}

// normalizeAllowedOrigins trims entries and reports whether a wildcard
// makes origin checks moot.
func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	normalized := make([]string, 0, len(origins))
	for _, origin := range origins {
		o := strings.TrimSpace(origin)
		if o == "" {
			continue
		}
		if o == "*" {
			return nil, true
		}
		normalized = append(normalized, strings.TrimRight(o, "/"))
	}
	return normalized, false
}
