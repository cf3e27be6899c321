// Package normalize converts the upstream API's shape-variable order
// records into the canonical domain.NormalizedOrder. Upstream sources
// disagree on field naming and timestamp encoding (epoch seconds vs
// millis, number vs ISO string), so every logical attribute is resolved
// through an explicit ordered candidate list, first non-empty wins, and
// every attribute has a defined default. Normalization never fails.
package normalize

import (
	"strconv"
	"strings"
	"time"

	"github.com/yalgud-dairy/orders-admin/internal/domain"
)

// createdAtCandidates is the precedence order for creation-time fields,
// checked at the top level and under a nested "raw" record.
var createdAtCandidates = [][]string{
	{"createdAt"},
	{"CreatedAt"},
	{"created_at"},
	{"orderDate"},
	{"date"},
	{"Created_Date"},
	{"raw", "createdAt"},
	{"raw", "CreatedAt"},
	{"raw", "orderDate"},
	{"raw", "date"},
}

// timeLayouts tried, in order, for non-numeric timestamp strings.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006",
}

// Order normalizes one raw upstream record. now is the processing-time
// fallback used when no creation-time candidate parses; callers inject
// it so the fallback branch stays testable.
func Order(raw map[string]any, now time.Time) domain.NormalizedOrder {
	o := domain.NormalizedOrder{
		ID:           firstString(raw, []string{"_id"}, []string{"id"}, []string{"orderId"}, []string{"OrderId"}),
		AgentCode:    firstString(raw, []string{"agentCode"}, []string{"AgentCode"}, []string{"raw", "agentCode"}),
		AgentName:    firstString(raw, []string{"agentDetails", "AgentNameEng"}, []string{"agentDetails", "AgentName"}, []string{"agentName"}),
		BankCode:     firstString(raw, []string{"agentDetails", "BankCode"}, []string{"raw", "agentDetails", "BankCode"}),
		SalesmanCode: firstString(raw, []string{"agentDetails", "SalesmanCode"}, []string{"raw", "agentDetails", "SalesmanCode"}),
		RouteCode:    firstString(raw, []string{"route"}),
		RouteName:    firstString(raw, []string{"routeInfo", "RouteName"}),
		VehicleNo:    firstString(raw, []string{"routeInfo", "VehicleNo"}),
		TotalAmount:  firstNumber(raw, []string{"TotalOrder"}, []string{"totalPrice"}),
		Status:       strings.ToLower(firstString(raw, []string{"status"})),
		Raw:          raw,
	}

	if o.AgentName == "" {
		o.AgentName = domain.AgentNameUnknown
	}
	if o.RouteName == "" {
		o.RouteName = domain.RouteNameNone
	}
	if o.Status == "" {
		o.Status = string(domain.StatusAccepted)
	}

	o.LineItems = lineItems(raw)
	o.CreatedAt, o.TimestampResolved = resolveCreatedAt(raw, now)

	return o
}

// Orders normalizes a whole upstream batch in input order.
func Orders(raws []map[string]any, now time.Time) []domain.NormalizedOrder {
	out := make([]domain.NormalizedOrder, 0, len(raws))
	for _, raw := range raws {
		out = append(out, Order(raw, now))
	}
	return out
}

func lineItems(raw map[string]any) []domain.LineItem {
	list, ok := at(raw, "itemInfo").([]any)
	if !ok {
		list, ok = at(raw, "items").([]any)
	}
	if !ok {
		return nil
	}

	items := make([]domain.LineItem, 0, len(list))
	for _, entry := range list {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}

		item := domain.LineItem{
			Code:       firstString(m, []string{"itemCode"}, []string{"code"}, []string{"itemName"}),
			Quantity:   firstNumber(m, []string{"quantity"}, []string{"qty"}),
			DeptCode:   firstString(m, []string{"deptCode"}),
			UnitPrice:  firstNumber(m, []string{"price"}),
			TotalPrice: firstNumber(m, []string{"totalPrice"}),
		}
		if item.Code == "" {
			item.Code = "UNKNOWN"
		}
		if item.DeptCode == "" {
			item.DeptCode = "null"
		}
		items = append(items, item)
	}
	return items
}

func resolveCreatedAt(raw map[string]any, now time.Time) (time.Time, bool) {
	for _, path := range createdAtCandidates {
		v := at(raw, path...)
		if v == nil {
			continue
		}
		if t, ok := parseInstant(v); ok {
			return t, true
		}
	}
	// Loss of fidelity by contract: an unusable timestamp is silently
	// replaced with the processing time, flagged via the second return.
	return now, false
}

// parseInstant interprets one timestamp candidate. Numbers below 1e12
// are epoch seconds, anything larger epoch milliseconds; numeric strings
// up to 13 characters follow the same rule; everything else goes through
// layout sniffing.
func parseInstant(v any) (time.Time, bool) {
	switch c := v.(type) {
	case float64:
		// Zero is a missing value upstream, not the epoch.
		if c == 0 {
			return time.Time{}, false
		}
		return fromEpoch(c), true
	case int64:
		if c == 0 {
			return time.Time{}, false
		}
		return fromEpoch(float64(c)), true
	case int:
		if c == 0 {
			return time.Time{}, false
		}
		return fromEpoch(float64(c)), true
	case string:
		trimmed := strings.TrimSpace(c)
		if trimmed == "" {
			return time.Time{}, false
		}
		if n, err := strconv.ParseFloat(trimmed, 64); err == nil && len(trimmed) <= 13 {
			return fromEpoch(n), true
		}
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, trimmed); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

func fromEpoch(n float64) time.Time {
	ms := int64(n)
	if n < 1e12 {
		ms = int64(n * 1000)
	}
	return time.UnixMilli(ms).UTC()
}

// at walks a nested map path and returns the value, or nil.
func at(raw map[string]any, path ...string) any {
	var v any = raw
	for _, key := range path {
		m, ok := v.(map[string]any)
		if !ok {
			return nil
		}
		v = m[key]
	}
	return v
}

// firstString returns the first candidate path holding a non-empty
// string (numbers are stringified, matching the loosely-typed source).
func firstString(raw map[string]any, paths ...[]string) string {
	for _, path := range paths {
		switch v := at(raw, path...).(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

// firstNumber returns the first candidate path holding a number or a
// parseable numeric string; defaults to 0.
func firstNumber(raw map[string]any, paths ...[]string) float64 {
	for _, path := range paths {
		switch v := at(raw, path...).(type) {
		case float64:
			return v
		case int:
			return float64(v)
		case string:
			if n, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return n
			}
		}
	}
	return 0
}
