package handler

import (
	"context"
	"net/http"

	"github.com/edvin/doctree/internal/api/middleware"
	"github.com/edvin/doctree/internal/api/response"
	"github.com/edvin/doctree/internal/billing"
)

// QuotaReader reports current consumption without mutating the counter.
// *billing.Meter satisfies it.
type QuotaReader interface {
	Quota(ctx context.Context, userID string) (billing.Quota, error)
}

type Usage struct {
	meter QuotaReader
}

func NewUsage(meter QuotaReader) *Usage {
	return &Usage{meter: meter}
}

// Get returns the user's current credit consumption, plan cap, and next
// reset time.
func (h *Usage) Get(w http.ResponseWriter, r *http.Request) {
	quota, err := h.meter.Quota(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, quota)
}
