package httptransport

import (
	"context"
	"net/http"
	"strconv"

	"veilpay/internal/event"
	dErrors "veilpay/pkg/domain-errors"
	"veilpay/pkg/platform/httputil"
)

const defaultEventLimit = 50

// EventSource reads recent committed events. Backed by the event log, or by
// the Redis feed when one is configured.
type EventSource interface {
	ListRecent(ctx context.Context, limit int) ([]*event.Event, error)
}

// EventsResponse wraps the recent activity list.
type EventsResponse struct {
	Events []event.Wire `json:"events"`
}

// HandleListEvents handles GET /v1/events.
func (h *Handlers) HandleListEvents(w http.ResponseWriter, r *http.Request) {
	limit := defaultEventLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "limit must be a positive integer"))
			return
		}
		if parsed < limit {
			limit = parsed
		}
	}

	events, err := h.events.ListRecent(r.Context(), limit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]event.Wire, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.ToWire())
	}
	httputil.WriteJSON(w, http.StatusOK, EventsResponse{Events: out})
}
