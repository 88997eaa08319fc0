package controllers

import (
	"net/http"

	"github.com/bagaspradana/tokoadmin-backend/api/responses"
	"github.com/bagaspradana/tokoadmin-backend/internal/dashboard"
	pkgerrors "github.com/bagaspradana/tokoadmin-backend/pkg/errors"
	"github.com/bagaspradana/tokoadmin-backend/pkg/logger"
)

func DashboardSummary(svc *dashboard.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dashboard service unavailable"))
			return
		}

		summary, err := svc.Summary(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, summary)
	}
}

// DashboardWatch streams a fresh summary over SSE whenever the orders
// collection changes.
func DashboardWatch(svc *dashboard.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dashboard service unavailable"))
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "streaming unsupported"))
			return
		}

		updates, cancel, err := svc.WatchSummary(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer cancel()

		writeSSEHeaders(w)
		flusher.Flush()

		for {
			select {
			case <-r.Context().Done():
				return
			case summary, ok := <-updates:
				if !ok {
					return
				}
				if err := writeSSEEvent(w, "summary", summary); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}
