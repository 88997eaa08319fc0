package livequery

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"
)

type item struct {
	ID   string
	Name string
}

// memorySource implements the page semantics over a slice so
// controller behavior can be exercised without a database.
type memorySource struct {
	mu      sync.Mutex
	items   []item
	queries []Query
	release chan struct{} // when set, each fetch waits for one tick
}

func (s *memorySource) FetchPage(ctx context.Context, q Query) (Page[item], error) {
	if s.release != nil {
		<-s.release
	}

	s.mu.Lock()
	s.queries = append(s.queries, q)
	rows := make([]item, 0, len(s.items))
	for _, it := range s.items {
		if q.Term != "" && !strings.HasPrefix(it.Name, q.Term) {
			continue
		}
		rows = append(rows, it)
	}
	s.mu.Unlock()

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Name != rows[j].Name {
			return rows[i].Name < rows[j].Name
		}
		return rows[i].ID < rows[j].ID
	})

	if q.StartAfter != nil {
		idx := 0
		for idx < len(rows) {
			r := rows[idx]
			if r.Name > q.StartAfter.Value || (r.Name == q.StartAfter.Value && r.ID > q.StartAfter.ID) {
				break
			}
			idx++
		}
		rows = rows[idx:]
	}

	page := Page[item]{HasMore: len(rows) > q.Limit}
	if page.HasMore {
		rows = rows[:q.Limit]
	}
	page.Items = rows
	if len(rows) > 0 {
		last := rows[len(rows)-1]
		page.Last = &Cursor{Value: last.Name, ID: last.ID}
	}
	return page, nil
}

func (s *memorySource) queryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queries)
}

func seedItems(n int) []item {
	items := make([]item, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, item{
			ID:   fmt.Sprintf("id-%03d", i),
			Name: fmt.Sprintf("produk-%03d", i),
		})
	}
	return items
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func newTestController(t *testing.T, source Source[item], notifier Notifier, pageSize int) *Controller[item] {
	t.Helper()
	ctrl, err := NewController[item](source, notifier, Options{
		Collection: "products",
		PageSize:   pageSize,
	})
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	t.Cleanup(ctrl.Stop)
	return ctrl
}

func TestInitialLoadPopulatesFirstPage(t *testing.T) {
	source := &memorySource{items: seedItems(25)}
	ctrl := newTestController(t, source, nil, 10)

	if err := ctrl.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitFor(t, func() bool { return !ctrl.Snapshot().Loading && len(ctrl.Snapshot().Items) > 0 })

	state := ctrl.Snapshot()
	if len(state.Items) != 10 {
		t.Fatalf("expected 10 items, got %d", len(state.Items))
	}
	if !state.HasMore {
		t.Fatal("expected more pages")
	}
	if state.PageIndex != 0 {
		t.Fatalf("expected page 0, got %d", state.PageIndex)
	}
	if state.Items[0].Name != "produk-000" {
		t.Fatalf("unexpected first item %s", state.Items[0].Name)
	}
}

func TestPagingForwardAndBack(t *testing.T) {
	source := &memorySource{items: seedItems(25)}
	ctrl := newTestController(t, source, nil, 10)
	ctx := context.Background()

	if err := ctrl.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitFor(t, func() bool { return !ctrl.Snapshot().Loading && len(ctrl.Snapshot().Items) > 0 })

	ctrl.NextPage(ctx)
	waitFor(t, func() bool { s := ctrl.Snapshot(); return !s.Loading && s.PageIndex == 1 })
	state := ctrl.Snapshot()
	if state.Items[0].Name != "produk-010" {
		t.Fatalf("expected page 1 to start at produk-010, got %s", state.Items[0].Name)
	}
	if !state.HasMore {
		t.Fatal("expected page 1 to have more")
	}

	ctrl.NextPage(ctx)
	waitFor(t, func() bool { s := ctrl.Snapshot(); return !s.Loading && s.PageIndex == 2 })
	state = ctrl.Snapshot()
	if len(state.Items) != 5 {
		t.Fatalf("expected 5 items on last page, got %d", len(state.Items))
	}
	if state.HasMore {
		t.Fatal("last page should not report more")
	}

	// last page: forward is a no-op
	before := source.queryCount()
	ctrl.NextPage(ctx)
	time.Sleep(20 * time.Millisecond)
	if source.queryCount() != before {
		t.Fatal("NextPage on last page should not query")
	}

	ctrl.PrevPage(ctx)
	waitFor(t, func() bool { s := ctrl.Snapshot(); return !s.Loading && s.PageIndex == 1 })
	state = ctrl.Snapshot()
	if state.Items[0].Name != "produk-010" {
		t.Fatalf("expected page 1 again, got %s", state.Items[0].Name)
	}

	ctrl.PrevPage(ctx)
	waitFor(t, func() bool { s := ctrl.Snapshot(); return !s.Loading && s.PageIndex == 0 })

	// first page: back is a no-op
	before = source.queryCount()
	ctrl.PrevPage(ctx)
	time.Sleep(20 * time.Millisecond)
	if source.queryCount() != before {
		t.Fatal("PrevPage on first page should not query")
	}
}

func TestSetTermResetsToFirstPage(t *testing.T) {
	items := seedItems(15)
	items = append(items, item{ID: "id-x1", Name: "teh-botol"}, item{ID: "id-x2", Name: "teh-pucuk"})
	source := &memorySource{items: items}
	ctrl := newTestController(t, source, nil, 10)
	ctx := context.Background()

	if err := ctrl.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitFor(t, func() bool { return !ctrl.Snapshot().Loading && len(ctrl.Snapshot().Items) > 0 })
	ctrl.NextPage(ctx)
	waitFor(t, func() bool { s := ctrl.Snapshot(); return !s.Loading && s.PageIndex == 1 })

	ctrl.SetTerm(ctx, "teh")
	waitFor(t, func() bool { s := ctrl.Snapshot(); return !s.Loading && s.Term == "teh" })

	state := ctrl.Snapshot()
	if state.PageIndex != 0 {
		t.Fatalf("expected reset to page 0, got %d", state.PageIndex)
	}
	if len(state.Items) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(state.Items))
	}
	for _, it := range state.Items {
		if !strings.HasPrefix(it.Name, "teh") {
			t.Fatalf("item %s escaped the prefix filter", it.Name)
		}
	}
	if state.HasMore {
		t.Fatal("filtered result fits one page")
	}
}

func TestStaleFetchDiscarded(t *testing.T) {
	source := &memorySource{
		items:   seedItems(5),
		release: make(chan struct{}),
	}
	ctrl := newTestController(t, source, nil, 10)
	ctx := context.Background()

	if err := ctrl.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	// supersede the in-flight initial fetch before it completes
	ctrl.SetTerm(ctx, "produk-004")

	source.release <- struct{}{}
	source.release <- struct{}{}

	waitFor(t, func() bool { s := ctrl.Snapshot(); return !s.Loading && len(s.Items) > 0 })
	state := ctrl.Snapshot()
	if state.Term != "produk-004" {
		t.Fatalf("expected newest term, got %q", state.Term)
	}
	if len(state.Items) != 1 || state.Items[0].Name != "produk-004" {
		t.Fatalf("stale page overwrote newer result: %+v", state.Items)
	}
}

func TestNextPageWhileLoadingIsNoOp(t *testing.T) {
	source := &memorySource{
		items:   seedItems(25),
		release: make(chan struct{}),
	}
	ctrl := newTestController(t, source, nil, 10)
	ctx := context.Background()

	if err := ctrl.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	ctrl.NextPage(ctx) // still loading the first page
	source.release <- struct{}{}
	waitFor(t, func() bool { return !ctrl.Snapshot().Loading })

	if got := ctrl.Snapshot().PageIndex; got != 0 {
		t.Fatalf("expected to stay on page 0, got %d", got)
	}
}

func TestChangeNotificationRefreshesCurrentPage(t *testing.T) {
	source := &memorySource{items: seedItems(5)}
	notifier := NewLocalNotifier()
	ctrl := newTestController(t, source, notifier, 10)

	if err := ctrl.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitFor(t, func() bool { return !ctrl.Snapshot().Loading && len(ctrl.Snapshot().Items) == 5 })

	source.mu.Lock()
	source.items = append(source.items, item{ID: "id-new", Name: "produk-999"})
	source.mu.Unlock()

	notifier.Publish("products")
	waitFor(t, func() bool { return len(ctrl.Snapshot().Items) == 6 })

	if got := ctrl.Snapshot().PageIndex; got != 0 {
		t.Fatalf("refresh should keep page index, got %d", got)
	}
}

func TestStopPreventsFurtherWork(t *testing.T) {
	source := &memorySource{items: seedItems(5)}
	ctrl, err := NewController[item](source, nil, Options{Collection: "products", PageSize: 10})
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	ctx := context.Background()

	if err := ctrl.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitFor(t, func() bool { return !ctrl.Snapshot().Loading })

	ctrl.Stop()
	before := source.queryCount()
	ctrl.SetTerm(ctx, "x")
	ctrl.NextPage(ctx)
	ctrl.Refresh(ctx)
	time.Sleep(20 * time.Millisecond)
	if source.queryCount() != before {
		t.Fatal("stopped controller should not query")
	}
}

func TestGotoWalksCursorChain(t *testing.T) {
	source := &memorySource{items: seedItems(45)}
	ctrl := newTestController(t, source, nil, 10)
	ctx := context.Background()

	if err := ctrl.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitFor(t, func() bool { return !ctrl.Snapshot().Loading && len(ctrl.Snapshot().Items) > 0 })

	ctrl.Goto(ctx, 3)
	waitFor(t, func() bool { s := ctrl.Snapshot(); return !s.Loading && s.PageIndex == 3 })
	state := ctrl.Snapshot()
	if state.Items[0].Name != "produk-030" {
		t.Fatalf("expected page 3 to start at produk-030, got %s", state.Items[0].Name)
	}
	if !state.HasMore {
		t.Fatal("expected page 3 to have more")
	}

	// cursors for the walked pages are cached, so stepping back is direct
	before := source.queryCount()
	ctrl.Goto(ctx, 1)
	waitFor(t, func() bool { s := ctrl.Snapshot(); return !s.Loading && s.PageIndex == 1 })
	if source.queryCount() != before+1 {
		t.Fatalf("expected a single query for a cached page, got %d", source.queryCount()-before)
	}
	if ctrl.Snapshot().Items[0].Name != "produk-010" {
		t.Fatalf("expected page 1 start, got %s", ctrl.Snapshot().Items[0].Name)
	}
}

func TestGotoPastEndClampsToLastPage(t *testing.T) {
	source := &memorySource{items: seedItems(25)}
	ctrl := newTestController(t, source, nil, 10)
	ctx := context.Background()

	if err := ctrl.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitFor(t, func() bool { return !ctrl.Snapshot().Loading && len(ctrl.Snapshot().Items) > 0 })

	ctrl.Goto(ctx, 9)
	waitFor(t, func() bool { s := ctrl.Snapshot(); return !s.Loading && s.PageIndex == 2 })
	state := ctrl.Snapshot()
	if len(state.Items) != 5 {
		t.Fatalf("expected 5 items on the clamped page, got %d", len(state.Items))
	}
	if state.HasMore {
		t.Fatal("clamped page should be the last one")
	}

	// negative index is a no-op
	before := source.queryCount()
	ctrl.Goto(ctx, -1)
	time.Sleep(20 * time.Millisecond)
	if source.queryCount() != before {
		t.Fatal("Goto with a negative index should not query")
	}
}

func TestGotoPreemptsInFlightLoad(t *testing.T) {
	source := &memorySource{
		items:   seedItems(25),
		release: make(chan struct{}),
	}
	ctrl := newTestController(t, source, nil, 10)
	ctx := context.Background()

	if err := ctrl.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	ctrl.Goto(ctx, 2) // first page load still in flight

	// One fetch for the preempted initial load, three for the walk.
	for i := 0; i < 4; i++ {
		source.release <- struct{}{}
	}
	waitFor(t, func() bool {
		s := ctrl.Snapshot()
		return !s.Loading && s.PageIndex == 2
	})

	state := ctrl.Snapshot()
	if len(state.Items) != 5 {
		t.Fatalf("expected 5 items on the last page, got %d", len(state.Items))
	}
	if state.Items[0].Name != "produk-020" {
		t.Fatalf("expected page 2 to start at produk-020, got %s", state.Items[0].Name)
	}
	if state.HasMore {
		t.Fatal("last page should not report more")
	}
}
