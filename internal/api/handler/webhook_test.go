package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestStripeWebhook_BadSignature(t *testing.T) {
	h := NewStripeWebhook(nil, "whsec_test", zerolog.Nop())
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/webhooks/stripe",
		strings.NewReader(`{"type":"customer.subscription.updated"}`))
	r.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")

	h.Handle(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "signature verification failed")
}

func TestStripeWebhook_MissingSignature(t *testing.T) {
	h := NewStripeWebhook(nil, "whsec_test", zerolog.Nop())
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", nil)

	h.Handle(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
