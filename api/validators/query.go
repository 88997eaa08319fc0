package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/bagaspradana/tokoadmin-backend/pkg/errors"
	"github.com/bagaspradana/tokoadmin-backend/pkg/livequery"
)

func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").WithDetails(map[string]any{"field": key})
	}
	if value < min || value > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter out of range").WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return value, nil
}

// ParseCursor reads the after_value/after_id pair used by list
// endpoints to resume past a previous page. Both must be present
// together or absent together.
func ParseCursor(r *http.Request) (*livequery.Cursor, error) {
	value := r.URL.Query().Get("after_value")
	id := r.URL.Query().Get("after_id")
	if value == "" && id == "" {
		return nil, nil
	}
	if value == "" || id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "after_value and after_id must be supplied together")
	}
	return &livequery.Cursor{Value: value, ID: id}, nil
}
