package grouping

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yalgud-dairy/orders-admin/internal/domain"
)

// Noon UTC keeps today/yesterday stable on both sides of the +05:30 shift.
var now = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func order(id, routeName, routeCode string, createdAt time.Time) domain.NormalizedOrder {
	return domain.NormalizedOrder{
		ID:        id,
		RouteName: routeName,
		RouteCode: routeCode,
		CreatedAt: createdAt,
	}
}

func TestGroupEmptyInput(t *testing.T) {
	groups := Group(nil, Filter{}, now)

	assert.Empty(t, groups.Today)
	assert.Empty(t, groups.Yesterday)
	assert.Empty(t, groups.Older)
	assert.Zero(t, groups.Count())
}

func TestGroupPartitionIsCompleteAndDisjoint(t *testing.T) {
	orders := []domain.NormalizedOrder{
		order("a", "North", "R1", now),
		order("b", "North", "R1", now.Add(-24*time.Hour)),
		order("c", "South", "R2", now.Add(-10*24*time.Hour)),
		order("d", "South", "R2", now.Add(-10*24*time.Hour).Add(time.Hour)),
		order("e", "East", "R3", now.Add(-3*24*time.Hour)),
	}

	groups := Group(orders, Filter{}, now)
	assert.Equal(t, len(orders), groups.Count())

	seen := map[string]int{}
	for _, o := range groups.Today {
		seen[o.ID]++
	}
	for _, o := range groups.Yesterday {
		seen[o.ID]++
	}
	for _, grp := range groups.Older {
		for _, o := range grp.Orders {
			seen[o.ID]++
		}
	}
	for _, o := range orders {
		assert.Equal(t, 1, seen[o.ID], "order %s must appear exactly once", o.ID)
	}
}

func TestGroupBucketsByCivilDateNotElapsedTime(t *testing.T) {
	// 20:00 UTC yesterday is already "today" at +05:30 when now is
	// 12:00 UTC: only civil-date equality decides the bucket.
	late := now.Add(-16 * time.Hour) // 20:00 UTC previous day = 01:30 IST today
	groups := Group([]domain.NormalizedOrder{order("x", "North", "R1", late)}, Filter{}, now)

	require.Len(t, groups.Today, 1)
	assert.Empty(t, groups.Yesterday)
}

func TestGroupSortsNewestFirst(t *testing.T) {
	orders := []domain.NormalizedOrder{
		order("old", "North", "R1", now.Add(-2*time.Hour)),
		order("new", "North", "R1", now.Add(-1*time.Hour)),
		order("oldest", "North", "R1", now.Add(-3*time.Hour)),
	}

	groups := Group(orders, Filter{}, now)
	require.Len(t, groups.Today, 3)
	assert.Equal(t, []string{"new", "old", "oldest"}, []string{groups.Today[0].ID, groups.Today[1].ID, groups.Today[2].ID})
}

func TestGroupOrdersOlderGroupsByDescendingDate(t *testing.T) {
	orders := []domain.NormalizedOrder{
		order("wk", "North", "R1", now.Add(-7*24*time.Hour)),
		order("mo", "North", "R1", now.Add(-30*24*time.Hour)),
		order("d3", "North", "R1", now.Add(-3*24*time.Hour)),
	}

	groups := Group(orders, Filter{}, now)
	require.Len(t, groups.Older, 3)
	assert.Equal(t, "d3", groups.Older[0].Orders[0].ID)
	assert.Equal(t, "wk", groups.Older[1].Orders[0].ID)
	assert.Equal(t, "mo", groups.Older[2].Orders[0].ID)
}

func TestRouteFilterMatchesDerivedKey(t *testing.T) {
	orders := []domain.NormalizedOrder{
		order("a", "North", "R1", now),
		order("b", "South", "R2", now),
		order("c", "", "", now), // "(No route)"
	}

	groups := Group(orders, Filter{RouteKey: "North||R1"}, now)
	require.Len(t, groups.Today, 1)
	assert.Equal(t, "a", groups.Today[0].ID)

	groups = Group(orders, Filter{RouteKey: domain.RouteNameNone}, now)
	require.Len(t, groups.Today, 1)
	assert.Equal(t, "c", groups.Today[0].ID)
}

func TestDateRangeFilterRequiresBothBounds(t *testing.T) {
	orders := []domain.NormalizedOrder{
		order("in", "North", "R1", time.Date(2024, 6, 10, 6, 0, 0, 0, time.UTC)),
		order("out", "North", "R1", time.Date(2024, 6, 1, 6, 0, 0, 0, time.UTC)),
	}

	// One bound only: no range filter applied.
	groups := Group(orders, Filter{FromDate: "2024-06-09"}, now)
	assert.Equal(t, 2, groups.Count())

	groups = Group(orders, Filter{FromDate: "2024-06-09", ToDate: "2024-06-11"}, now)
	assert.Equal(t, 1, groups.Count())
	require.Len(t, groups.Older, 1)
	assert.Equal(t, "in", groups.Older[0].Orders[0].ID)
}

func TestRoutesDeduplicatesAndSortsByName(t *testing.T) {
	orders := []domain.NormalizedOrder{
		order("a", "South", "R2", now),
		order("b", "North", "R1", now),
		order("c", "North", "R1", now),
		order("d", "", "", now),
	}

	routes := Routes(orders)
	require.Len(t, routes, 3)
	assert.Equal(t, domain.RouteNameNone, routes[0].Name)
	assert.Equal(t, "North", routes[1].Name)
	assert.Equal(t, "South", routes[2].Name)
}

func TestRouteKeyCollisionAvoidance(t *testing.T) {
	a := domain.NewRouteKey("North", "R1")
	b := domain.NewRouteKey("North", "R2")
	c := domain.NewRouteKey("North", "")

	assert.NotEqual(t, a.Key, b.Key)
	assert.NotEqual(t, a.Key, c.Key)
	assert.Equal(t, "North", c.Key)
	assert.Equal(t, "North||R1", a.Key)
}

func TestForDate(t *testing.T) {
	target := time.Date(2024, 6, 5, 6, 0, 0, 0, time.UTC)
	orders := []domain.NormalizedOrder{
		order("hit", "North", "R1", target),
		order("wrong-date", "North", "R1", target.Add(48*time.Hour)),
		order("wrong-route", "South", "R2", target),
	}

	matched := ForDate(orders, "North||R1", "2024-06-05")
	require.Len(t, matched, 1)
	assert.Equal(t, "hit", matched[0].ID)
}
