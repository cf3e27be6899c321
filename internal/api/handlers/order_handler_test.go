package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yalgud-dairy/orders-admin/internal/domain"
	"github.com/yalgud-dairy/orders-admin/internal/service"
)

var now = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

type fakeFetcher struct {
	raws []map[string]any
	err  error
}

func (f *fakeFetcher) FetchByStatus(context.Context, domain.OrderStatus) ([]map[string]any, error) {
	return f.raws, f.err
}

func testRouter(f service.Fetcher) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := service.NewOrderService(f, domain.StatusAccepted, service.WithClock(func() time.Time { return now }))
	h := NewOrderHandler(svc)

	r := gin.New()
	r.GET("/orders/accepted", h.GetAccepted)
	r.POST("/orders/accepted/refresh", h.Refresh)
	r.GET("/orders/accepted/routes", h.GetRoutes)
	r.GET("/orders/accepted/export", h.Export)
	return r
}

func perform(r *gin.Engine, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	r.ServeHTTP(w, req)
	return w
}

func sampleRaws() []map[string]any {
	return []map[string]any{
		{
			"_id":       "o1",
			"agentCode": "AG1",
			"route":     "R1",
			"routeInfo": map[string]any{"RouteName": "North"},
			"createdAt": now.Add(-time.Hour).Format(time.RFC3339),
			"itemInfo": []any{
				map[string]any{"itemCode": "MILK", "quantity": float64(2), "price": float64(25), "totalPrice": float64(50)},
			},
		},
		{
			"_id":       "o2",
			"agentCode": "AG2",
			"route":     "R2",
			"routeInfo": map[string]any{"RouteName": "South"},
			"createdAt": now.Add(-24 * time.Hour).Format(time.RFC3339),
		},
	}
}

func TestGetAcceptedReturnsGroupedView(t *testing.T) {
	r := testRouter(&fakeFetcher{raws: sampleRaws()})

	w := perform(r, http.MethodGet, "/orders/accepted")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Today     []domain.NormalizedOrder `json:"today"`
		Yesterday []domain.NormalizedOrder `json:"yesterday"`
		Older     []domain.DateGroup       `json:"older"`
		Routes    []domain.RouteKey        `json:"routes"`
		Count     int                      `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	assert.Len(t, body.Today, 1)
	assert.Len(t, body.Yesterday, 1)
	assert.Empty(t, body.Older)
	assert.Len(t, body.Routes, 2)
	assert.Equal(t, 2, body.Count)
}

func TestGetAcceptedRouteFilter(t *testing.T) {
	r := testRouter(&fakeFetcher{raws: sampleRaws()})

	w := perform(r, http.MethodGet, "/orders/accepted?route=North%7C%7CR1")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
}

func TestGetAcceptedUpstreamFailure(t *testing.T) {
	r := testRouter(&fakeFetcher{err: errors.New("connection refused")})

	w := perform(r, http.MethodGet, "/orders/accepted")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "failed to fetch accepted orders")
}

func TestExportDownload(t *testing.T) {
	r := testRouter(&fakeFetcher{raws: sampleRaws()})

	w := perform(r, http.MethodGet, "/orders/accepted/export?route=North%7C%7CR1")
	require.Equal(t, http.StatusOK, w.Code)

	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "accepted_2024-06-15_North_R1.csv")
	assert.Contains(t, w.Body.String(), `"EntryNo"`)
}

func TestExportWithoutRouteIsAWarning(t *testing.T) {
	r := testRouter(&fakeFetcher{raws: sampleRaws()})

	w := perform(r, http.MethodGet, "/orders/accepted/export")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "warning")
}

func TestExportNoMatchingOrdersNamesDate(t *testing.T) {
	r := testRouter(&fakeFetcher{raws: sampleRaws()})

	w := perform(r, http.MethodGet, "/orders/accepted/export?route=North%7C%7CR1&date=2020-01-01")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "2020-01-01")
}

func TestRefreshEndpoint(t *testing.T) {
	r := testRouter(&fakeFetcher{raws: sampleRaws()})

	w := perform(r, http.MethodPost, "/orders/accepted/refresh")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "refreshed")

	w = perform(r, http.MethodGet, "/orders/accepted/routes")
	require.Equal(t, http.StatusOK, w.Code)

	var routes []domain.RouteKey
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &routes))
	assert.Len(t, routes, 2)
}
