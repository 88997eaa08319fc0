package enums

import "fmt"

// OrderStatus tracks the lifecycle of a customer order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusPaid,
	OrderStatusShipped,
	OrderStatusCompleted,
	OrderStatusCancelled,
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// CountsAsRevenue reports whether orders in this status contribute to
// revenue aggregates.
func (s OrderStatus) CountsAsRevenue() bool {
	return s == OrderStatusPaid || s == OrderStatusCompleted
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}

// OrderBranch identifies which store branch took the order.
type OrderBranch string

const (
	OrderBranchPusat    OrderBranch = "pusat"
	OrderBranchBandung  OrderBranch = "bandung"
	OrderBranchSurabaya OrderBranch = "surabaya"
)

var validOrderBranches = []OrderBranch{
	OrderBranchPusat,
	OrderBranchBandung,
	OrderBranchSurabaya,
}

// String implements fmt.Stringer.
func (b OrderBranch) String() string {
	return string(b)
}

// IsValid reports whether the value is a known OrderBranch.
func (b OrderBranch) IsValid() bool {
	for _, candidate := range validOrderBranches {
		if candidate == b {
			return true
		}
	}
	return false
}

// ParseOrderBranch converts raw input into an OrderBranch.
func ParseOrderBranch(value string) (OrderBranch, error) {
	for _, candidate := range validOrderBranches {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order branch %q", value)
}
