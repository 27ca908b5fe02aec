// internal/webhook/handler.go
package webhook

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	stripe "github.com/stripe/stripe-go/v82"
	"go.uber.org/zap"

	"bloom/internal/store"
	"bloom/internal/stripeapi"
	"bloom/pkg/webutil"
)

const maxBodyBytes = int64(65536)

// Handler ingests Stripe webhook events and keeps the subscription records the
// paywall reads in sync with Stripe's state.
type Handler struct {
	log    *zap.SugaredLogger
	store  store.Provider
	secret string
}

func NewHandler(log *zap.SugaredLogger, st store.Provider, secret string) *Handler {
	return &Handler{log: log, store: st, secret: secret}
}

func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		webutil.WriteError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		h.log.Errorw("webhook read", "err", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	event, err := stripeapi.ParseWebhookEvent(payload, r.Header.Get("Stripe-Signature"), h.secret)
	if err != nil {
		h.log.Errorw("webhook signature", "err", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	switch event.Type {
	case "customer.subscription.created", "customer.subscription.updated", "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			h.log.Errorw("webhook decode", "type", event.Type, "err", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if err := h.syncSubscription(r, &sub); err != nil {
			h.log.Errorw("subscription sync", "subscription", sub.ID, "err", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		h.log.Debugw("subscription synced", "subscription", sub.ID, "status", sub.Status)
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) syncSubscription(r *http.Request, sub *stripe.Subscription) error {
	if sub.Customer == nil || sub.Customer.ID == "" {
		return errors.New("subscription event has no customer")
	}
	rec := store.SubscriptionRecord{
		CustomerID:        sub.Customer.ID,
		SubscriptionID:    sub.ID,
		Status:            string(sub.Status),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 {
		item := sub.Items.Data[0]
		if item.Price != nil {
			rec.PriceID = item.Price.ID
		}
		rec.CurrentPeriodStart = time.Unix(item.CurrentPeriodStart, 0)
		rec.CurrentPeriodEnd = time.Unix(item.CurrentPeriodEnd, 0)
	}
	return h.store.UpsertSubscription(r.Context(), rec)
}
