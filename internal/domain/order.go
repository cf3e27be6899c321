// internal/domain/order.go
package domain

import "time"

// RouteNameNone is the sentinel route name for orders without route info.
const RouteNameNone = "(No route)"

// AgentNameUnknown is the sentinel agent name for orders without agent info.
const AgentNameUnknown = "Unknown"

// LineItem is a single ordered item within an order.
type LineItem struct {
	Code       string  `json:"code"`
	Quantity   float64 `json:"quantity"`
	DeptCode   string  `json:"dept_code"`
	UnitPrice  float64 `json:"unit_price"`
	TotalPrice float64 `json:"total_price"`
}

// NormalizedOrder is the canonical order shape every downstream component
// consumes. It is produced once by the normalizer and never mutated.
type NormalizedOrder struct {
	ID           string     `json:"id"`
	AgentCode    string     `json:"agent_code"`
	AgentName    string     `json:"agent_name"`
	BankCode     string     `json:"bank_code"`
	SalesmanCode string     `json:"salesman_code"`
	RouteCode    string     `json:"route_code"`
	RouteName    string     `json:"route_name"`
	VehicleNo    string     `json:"vehicle_no"`
	LineItems    []LineItem `json:"line_items"`
	TotalAmount  float64    `json:"total_amount"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`

	// TimestampResolved is false when no creation-time candidate parsed
	// and CreatedAt was substituted with the processing time.
	TimestampResolved bool `json:"timestamp_resolved"`

	// Raw keeps the upstream record as received. Not serialized, so
	// anything a downstream consumer needs must be resolved into a
	// field above at normalize time.
	Raw map[string]any `json:"-"`
}

// RouteKey identifies a delivery route for filtering and deduplication.
// Key is "name||code" when a code exists, else just the name, so two
// routes sharing a name but not a code stay distinct.
type RouteKey struct {
	Name string `json:"name"`
	Code string `json:"code"`
	Key  string `json:"key"`
}

// NewRouteKey derives the RouteKey for an order's route fields.
func NewRouteKey(name, code string) RouteKey {
	if name == "" {
		name = RouteNameNone
	}
	key := name
	if code != "" {
		key = name + "||" + code
	}
	return RouteKey{Name: name, Code: code, Key: key}
}

// Route returns the order's derived route identity.
func (o NormalizedOrder) Route() RouteKey {
	return NewRouteKey(o.RouteName, o.RouteCode)
}

// DateGroup is one "older" display bucket: orders sharing a civil date,
// labelled with that date in DD/MM/YYYY form.
type DateGroup struct {
	Label  string            `json:"label"`
	Orders []NormalizedOrder `json:"orders"`
}

// OrderGroups is the three-way recency partition of a filtered order list.
// Every list is sorted newest-first; Older is ordered by descending date.
type OrderGroups struct {
	Today     []NormalizedOrder `json:"today"`
	Yesterday []NormalizedOrder `json:"yesterday"`
	Older     []DateGroup       `json:"older"`
}

// Count returns the total number of orders across all buckets.
func (g OrderGroups) Count() int {
	n := len(g.Today) + len(g.Yesterday)
	for _, grp := range g.Older {
		n += len(grp.Orders)
	}
	return n
}
