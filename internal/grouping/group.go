// Package grouping partitions a normalized order list into the
// Today / Yesterday / Older-by-date view buckets and derives the route
// filter list. All functions are pure: "now" is an explicit parameter,
// inputs are never mutated, output slices are fresh.
package grouping

import (
	"sort"
	"time"

	"github.com/yalgud-dairy/orders-admin/internal/domain"
	"github.com/yalgud-dairy/orders-admin/internal/timeutil"
)

// Filter narrows a grouping or export request. RouteKey is a
// domain.RouteKey.Key ("" = no route filter). FromDate/ToDate are
// inclusive civil dates (YYYY-MM-DD) and only apply when both are set.
type Filter struct {
	RouteKey string
	FromDate string
	ToDate   string
}

// Group partitions orders into the three recency buckets after applying
// the filter. Classification is strictly by civil-date equality against
// today/yesterday derived from now, never by elapsed duration.
func Group(orders []domain.NormalizedOrder, f Filter, now time.Time) domain.OrderGroups {
	filtered := Apply(orders, f)

	todayStr := timeutil.CivilDate(now)
	yesterdayStr := timeutil.YesterdayOf(now)

	var groups domain.OrderGroups
	olderIndex := map[string]int{}

	for _, o := range filtered {
		switch timeutil.CivilDate(o.CreatedAt) {
		case todayStr:
			groups.Today = append(groups.Today, o)
		case yesterdayStr:
			groups.Yesterday = append(groups.Yesterday, o)
		default:
			label := timeutil.DisplayDate(o.CreatedAt)
			i, ok := olderIndex[label]
			if !ok {
				i = len(groups.Older)
				olderIndex[label] = i
				groups.Older = append(groups.Older, domain.DateGroup{Label: label})
			}
			groups.Older[i].Orders = append(groups.Older[i].Orders, o)
		}
	}

	sortNewestFirst(groups.Today)
	sortNewestFirst(groups.Yesterday)
	for i := range groups.Older {
		sortNewestFirst(groups.Older[i].Orders)
	}
	// Each group's first element is its latest; order groups by that.
	sort.SliceStable(groups.Older, func(i, j int) bool {
		return groups.Older[i].Orders[0].CreatedAt.After(groups.Older[j].Orders[0].CreatedAt)
	})

	return groups
}

// Apply returns the orders passing the route and date-range filters.
func Apply(orders []domain.NormalizedOrder, f Filter) []domain.NormalizedOrder {
	out := make([]domain.NormalizedOrder, 0, len(orders))
	for _, o := range orders {
		if f.RouteKey != "" && o.Route().Key != f.RouteKey {
			continue
		}
		if f.FromDate != "" && f.ToDate != "" {
			d := timeutil.CivilDate(o.CreatedAt)
			if d < f.FromDate || d > f.ToDate {
				continue
			}
		}
		out = append(out, o)
	}
	return out
}

// ForDate returns the orders on the given route whose civil date equals
// the given date. The CSV builder expects its input filtered this way.
func ForDate(orders []domain.NormalizedOrder, routeKey, date string) []domain.NormalizedOrder {
	out := make([]domain.NormalizedOrder, 0, len(orders))
	for _, o := range orders {
		if o.Route().Key == routeKey && timeutil.CivilDate(o.CreatedAt) == date {
			out = append(out, o)
		}
	}
	return out
}

// Routes derives the deduplicated route filter list, sorted by name.
func Routes(orders []domain.NormalizedOrder) []domain.RouteKey {
	seen := map[string]domain.RouteKey{}
	for _, o := range orders {
		rk := o.Route()
		if _, ok := seen[rk.Key]; !ok {
			seen[rk.Key] = rk
		}
	}

	routes := make([]domain.RouteKey, 0, len(seen))
	for _, rk := range seen {
		routes = append(routes, rk)
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Name != routes[j].Name {
			return routes[i].Name < routes[j].Name
		}
		return routes[i].Code < routes[j].Code
	})
	return routes
}

func sortNewestFirst(orders []domain.NormalizedOrder) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}
