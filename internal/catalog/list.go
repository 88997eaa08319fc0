package catalog

import (
	"github.com/bagaspradana/tokoadmin-backend/pkg/livequery"
)

// ListInput captures the paging knobs for the catalog browse endpoint.
// StartAfter resumes strictly after the given (name, id) pair; clients
// keep the cursors of pages they have seen to step backwards.
type ListInput struct {
	Term       string
	Limit      int
	StartAfter *livequery.Cursor
}

// ListResult is one page of entries plus the probe outcome.
type ListResult struct {
	Items      []EntryDTO        `json:"items"`
	HasMore    bool              `json:"has_more"`
	NextCursor *livequery.Cursor `json:"next_cursor,omitempty"`
}
