package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/bagaspradana/tokoadmin-backend/api/responses"
	"github.com/bagaspradana/tokoadmin-backend/api/validators"
	"github.com/bagaspradana/tokoadmin-backend/internal/catalog"
	"github.com/bagaspradana/tokoadmin-backend/internal/orders"
	product "github.com/bagaspradana/tokoadmin-backend/internal/products"
	pkgerrors "github.com/bagaspradana/tokoadmin-backend/pkg/errors"
	"github.com/bagaspradana/tokoadmin-backend/pkg/livequery"
	"github.com/bagaspradana/tokoadmin-backend/pkg/logger"
)

// pageEvent is the SSE payload for one live page snapshot.
type pageEvent[D any] struct {
	Items     []D    `json:"items"`
	Term      string `json:"term"`
	PageIndex int    `json:"page_index"`
	HasMore   bool   `json:"has_more"`
	Loading   bool   `json:"loading"`
	Error     string `json:"error,omitempty"`
}

// CatalogWatch holds one live controller per connection and re-sends
// the current page whenever the collection changes. A page query
// parameter jumps the view to that page before streaming; the
// connection context tears the controller down.
func CatalogWatch(svc catalog.Service, defaultPageSize int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		pageSize, page, err := parseWatchParams(r, defaultPageSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctrl, err := svc.Watch(r.Context(), r.URL.Query().Get("term"), pageSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if page > 0 {
			ctrl.Goto(r.Context(), page)
		}

		streamLivePages(w, r, logg, ctrl, catalog.NewEntryDTOs)
	}
}

func ProductWatch(svc product.Service, defaultPageSize int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		pageSize, page, err := parseWatchParams(r, defaultPageSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctrl, err := svc.Watch(r.Context(), r.URL.Query().Get("term"), pageSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if page > 0 {
			ctrl.Goto(r.Context(), page)
		}

		streamLivePages(w, r, logg, ctrl, product.NewProductDTOs)
	}
}

func OrderWatch(svc orders.Service, defaultPageSize int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		pageSize, page, err := parseWatchParams(r, defaultPageSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctrl, err := svc.Watch(r.Context(), r.URL.Query().Get("term"), pageSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if page > 0 {
			ctrl.Goto(r.Context(), page)
		}

		streamLivePages(w, r, logg, ctrl, orders.NewOrderDTOs)
	}
}

// parseWatchParams reads the shared watch query parameters. The page
// parameter, when past the last page, clamps to the last reachable one.
func parseWatchParams(r *http.Request, defaultPageSize int) (pageSize, page int, err error) {
	pageSize, err = validators.ParseQueryInt(r, "page_size", defaultPageSize, 1, 100)
	if err != nil {
		return 0, 0, err
	}
	page, err = validators.ParseQueryInt(r, "page", 0, 0, 10000)
	if err != nil {
		return 0, 0, err
	}
	return pageSize, page, nil
}

// streamLivePages drains controller state updates into SSE events
// until the client disconnects.
func streamLivePages[T any, D any](
	w http.ResponseWriter,
	r *http.Request,
	logg *logger.Logger,
	ctrl *livequery.Controller[T],
	toDTOs func([]T) []D,
) {
	defer ctrl.Stop()

	flusher, ok := w.(http.Flusher)
	if !ok {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "streaming unsupported"))
		return
	}

	writeSSEHeaders(w)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case state, ok := <-ctrl.Updates():
			if !ok {
				return
			}
			event := pageEvent[D]{
				Items:     toDTOs(state.Items),
				Term:      state.Term,
				PageIndex: state.PageIndex,
				HasMore:   state.HasMore,
				Loading:   state.Loading,
			}
			if state.Err != nil {
				event.Error = state.Err.Error()
			}
			if err := writeSSEEvent(w, "page", event); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
}

func writeSSEEvent(w http.ResponseWriter, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}
