package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	stripe "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/edvin/doctree/internal/api/response"
	"github.com/edvin/doctree/internal/core"
)

const maxWebhookBodyBytes = int64(65536)

// StripeWebhook ingests subscription lifecycle events from Stripe and
// mirrors them into the subscriptions table.
type StripeWebhook struct {
	svc           *core.SubscriptionService
	webhookSecret string
	logger        zerolog.Logger
}

func NewStripeWebhook(svc *core.SubscriptionService, webhookSecret string, logger zerolog.Logger) *StripeWebhook {
	return &StripeWebhook{
		svc:           svc,
		webhookSecret: webhookSecret,
		logger:        logger.With().Str("component", "stripe-webhook").Logger(),
	}
}

// Handle verifies the event signature and applies subscription
// created/updated/deleted events. Unhandled event types are acknowledged
// and ignored.
func (h *StripeWebhook) Handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodyBytes))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	event, err := webhook.ConstructEventWithOptions(
		body,
		r.Header.Get("Stripe-Signature"),
		h.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		h.logger.Warn().Err(err).Msg("webhook signature verification failed")
		response.WriteError(w, http.StatusBadRequest, "signature verification failed")
		return
	}

	switch event.Type {
	case "customer.subscription.created", "customer.subscription.updated":
		h.applySubscription(w, r, event.Data.Raw, false)
	case "customer.subscription.deleted":
		h.applySubscription(w, r, event.Data.Raw, true)
	default:
		response.WriteJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
	}
}

func (h *StripeWebhook) applySubscription(w http.ResponseWriter, r *http.Request, raw json.RawMessage, deleted bool) {
	var sub stripe.Subscription
	if err := json.Unmarshal(raw, &sub); err != nil {
		response.WriteError(w, http.StatusBadRequest, "invalid subscription payload")
		return
	}
	if sub.Customer == nil || sub.Customer.ID == "" {
		response.WriteError(w, http.StatusBadRequest, "missing customer id")
		return
	}

	userID, err := h.svc.UserIDByStripeCustomer(r.Context(), sub.Customer.ID)
	if err != nil {
		// A customer we don't know is not retryable; acknowledge it.
		h.logger.Warn().Str("customer", sub.Customer.ID).Msg("event for unknown customer")
		response.WriteJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	if deleted {
		if err := h.svc.MarkCanceled(r.Context(), userID); err != nil {
			h.logger.Error().Err(err).Str("user_id", userID).Msg("cancel subscription failed")
			response.WriteError(w, http.StatusInternalServerError, "failed to update subscription")
			return
		}
		response.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}

	err = h.svc.Upsert(r.Context(),
		userID,
		planID(&sub),
		string(sub.Status),
		time.Unix(sub.CurrentPeriodStart, 0).UTC(),
	)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("upsert subscription failed")
		response.WriteError(w, http.StatusInternalServerError, "failed to update subscription")
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// planID resolves the plan from the subscription's price. Lookup keys
// are configured in the Stripe dashboard to match the pricing table
// ("starter", "pro"); the raw price id is the fallback.
func planID(sub *stripe.Subscription) string {
	if sub.Items == nil || len(sub.Items.Data) == 0 || sub.Items.Data[0].Price == nil {
		return ""
	}
	price := sub.Items.Data[0].Price
	if price.LookupKey != "" {
		return price.LookupKey
	}
	return price.ID
}
