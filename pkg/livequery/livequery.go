package livequery

import "context"

// PrefixUpperBound is appended to a search term to form the exclusive
// upper bound of a prefix range. It sorts above every code point that
// can appear in stored text.
const PrefixUpperBound = ""

// Cursor identifies the last row of a page. Pagination resumes strictly
// after the (value, id) pair, so rows sharing a search value never
// repeat or vanish between pages.
type Cursor struct {
	Value string `json:"value"`
	ID    string `json:"id"`
}

// Query describes a single page request against a collection.
type Query struct {
	Term       string
	Limit      int
	StartAfter *Cursor
}

// Page is the result of one fetch. HasMore is decided by probing one
// row past the limit, never by a separate count.
type Page[T any] struct {
	Items   []T
	HasMore bool
	Last    *Cursor
}

// Source fetches ordered, prefix-filtered pages from a backing store.
type Source[T any] interface {
	FetchPage(ctx context.Context, q Query) (Page[T], error)
}

// Notifier delivers collection change signals. Subscribe returns a
// channel that receives a tick whenever the collection changes and a
// cancel func that releases the subscription.
type Notifier interface {
	Subscribe(ctx context.Context, collection string) (<-chan struct{}, func(), error)
}
