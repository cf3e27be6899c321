// Package export flattens a day's worth of one route's accepted orders
// into the delimited payload the downstream billing/dispatch system
// imports. The column schema and quoting rules are fixed by that
// consumer and must not drift.
package export

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/yalgud-dairy/orders-admin/internal/domain"
	"github.com/yalgud-dairy/orders-admin/internal/timeutil"
)

// Header is the fixed column order of the export schema.
var Header = []string{
	"EntryNo",
	"agentCode",
	"routeCode",
	"itemCode",
	"qty",
	"deptcode",
	"orderDate",
	"orderTime",
	"Accode",
	"Subaccode",
	"Salesman code",
	"rate",
	"amt",
}

// bom marks the payload as UTF-8 for spreadsheet consumers.
const bom = "\uFEFF"

var whitespaceRun = regexp.MustCompile(`\s+`)

// Build renders the CSV payload for orders already filtered to exactly
// one route and one civil date by the caller. Returns nil when there is
// nothing to render.
//
// Orders are sorted ascending by creation time and each agent receives
// a dense EntryNo (1, 2, 3, ...) in order of first appearance; all rows
// of the same agent share that number. Each line item becomes one row;
// an order with no line items still emits a single sentinel row.
func Build(orders []domain.NormalizedOrder) []byte {
	rows := Rows(orders)
	if len(rows) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString(bom)
	writeRow(&b, Header)
	for _, row := range rows {
		b.WriteByte('\n')
		writeRow(&b, row)
	}
	return []byte(b.String())
}

// Rows builds the data rows without serializing them, in header order.
func Rows(orders []domain.NormalizedOrder) [][]string {
	sorted := make([]domain.NormalizedOrder, len(orders))
	copy(sorted, orders)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	entryNos := map[string]int{}
	next := 1
	for _, o := range sorted {
		if _, ok := entryNos[o.AgentCode]; !ok {
			entryNos[o.AgentCode] = next
			next++
		}
	}

	var rows [][]string
	for _, o := range sorted {
		entryNo := strconv.Itoa(entryNos[o.AgentCode])
		orderDate := timeutil.CivilDate(o.CreatedAt)
		orderTime := timeutil.CivilTime(o.CreatedAt)
		bankCode := o.BankCode
		salesmanCode := o.SalesmanCode

		if len(o.LineItems) == 0 {
			rows = append(rows, []string{
				entryNo, o.AgentCode, o.RouteCode,
				"N/A", "0", "null",
				orderDate, orderTime,
				bankCode, o.AgentCode, salesmanCode,
				"0", "0",
			})
			continue
		}

		for _, it := range o.LineItems {
			rows = append(rows, []string{
				entryNo, o.AgentCode, o.RouteCode,
				it.Code, formatNumber(it.Quantity), it.DeptCode,
				orderDate, orderTime,
				bankCode, o.AgentCode, salesmanCode,
				formatNumber(it.UnitPrice), formatNumber(it.TotalPrice),
			})
		}
	}
	return rows
}

// Filename names the artifact after the target civil date and a
// sanitized route token: accepted_{date}_{RouteName}_{RouteCode}.csv.
func Filename(date string, route domain.RouteKey) string {
	routeToken := whitespaceRun.ReplaceAllString(route.Name, "_") + "_" + route.Code
	return "accepted_" + date + "_" + routeToken + ".csv"
}

// writeRow emits one line with every field quoted and inner quotes
// doubled, the exact form the downstream importer expects.
func writeRow(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(f, `"`, `""`))
		b.WriteByte('"')
	}
}

// formatNumber renders without a trailing ".0" for whole values,
// matching how the upstream admin tooling printed them.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
