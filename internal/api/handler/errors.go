package handler

import (
	"errors"
	"net/http"

	"github.com/edvin/doctree/internal/api/response"
	"github.com/edvin/doctree/internal/billing"
	"github.com/edvin/doctree/internal/core"
)

// writeServiceError maps service errors to HTTP responses. Over-cap
// errors carry the quota so clients can show consumption and the next
// reset time.
func writeServiceError(w http.ResponseWriter, err error) {
	var limitErr *billing.LimitExceededError
	if errors.As(err, &limitErr) {
		response.WriteJSON(w, http.StatusPaymentRequired, map[string]any{
			"error": limitErr.Error(),
			"quota": limitErr.Quota,
		})
		return
	}
	if errors.Is(err, core.ErrNotFound) {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	response.WriteError(w, http.StatusInternalServerError, err.Error())
}
