package domain

import "strings"

// OrderStatus is the canonical (lowercase) order lifecycle state.
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusAccepted   OrderStatus = "accepted"
	StatusRejected   OrderStatus = "rejected"
	StatusDispatched OrderStatus = "dispatched"
	StatusDelivered  OrderStatus = "delivered"
)

var orderStatusLabels = map[OrderStatus]string{
	StatusPending:    "Pending",
	StatusAccepted:   "Accepted",
	StatusRejected:   "Rejected",
	StatusDispatched: "Dispatched",
	StatusDelivered:  "Delivered",
}

// Label returns the upstream API's capitalized form of the status,
// used as the path segment in /orders/Status/{Label}.
func (s OrderStatus) Label() string {
	if label, ok := orderStatusLabels[s]; ok {
		return label
	}

	return "Pending"
}

// ParseOrderStatus returns the status for a given label (case-insensitive).
func ParseOrderStatus(label string) (OrderStatus, bool) {
	s := OrderStatus(strings.ToLower(strings.TrimSpace(label)))
	_, ok := orderStatusLabels[s]

	return s, ok
}
