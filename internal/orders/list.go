package orders

import (
	"github.com/bagaspradana/tokoadmin-backend/pkg/livequery"
)

// ListInput captures the paging knobs for the order browse endpoint.
// Term prefix-matches the customer name.
type ListInput struct {
	Term       string
	Limit      int
	StartAfter *livequery.Cursor
}

// ListResult is one page of orders plus the probe outcome.
type ListResult struct {
	Items      []OrderDTO        `json:"items"`
	HasMore    bool              `json:"has_more"`
	NextCursor *livequery.Cursor `json:"next_cursor,omitempty"`
}
