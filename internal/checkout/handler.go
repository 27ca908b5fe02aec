// internal/checkout/handler.go
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	stripe "github.com/stripe/stripe-go/v82"
	"go.uber.org/zap"

	"bloom/internal/store"
	"bloom/internal/stripeapi"
	"bloom/pkg/middleware"
	"bloom/pkg/webutil"
)

// Request is the checkout body; all four fields are mandatory, no defaults.
type Request struct {
	PriceID    string `json:"price_id"`
	SuccessURL string `json:"success_url"`
	CancelURL  string `json:"cancel_url"`
	Mode       string `json:"mode"`
}

// Result is the success shape; failures use {"error": ...}.
type Result struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// SessionCreator is the slice of the Stripe wrapper the handler needs.
type SessionCreator interface {
	CreateCheckoutSession(ctx context.Context, in stripeapi.SessionInput) (*stripe.CheckoutSession, error)
}

// CustomerDirectory creates Stripe customers for the authenticated route.
type CustomerDirectory interface {
	CreateCustomer(ctx context.Context, email, userID string) (*stripe.Customer, error)
}

type Handler struct {
	log       *zap.SugaredLogger
	sessions  SessionCreator
	customers CustomerDirectory
	store     store.Provider
	replays   ReplayStore // nil disables Idempotency-Key replay
}

func NewHandler(log *zap.SugaredLogger, sessions SessionCreator, customers CustomerDirectory, st store.Provider, replays ReplayStore) *Handler {
	return &Handler{log: log, sessions: sessions, customers: customers, store: st, replays: replays}
}

// Anonymous serves the public checkout-session route.
func (h *Handler) Anonymous(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "")
}

// Authenticated serves the signed-in checkout route: the verified Supabase user
// is mapped to a Stripe customer (created on first use) so the resulting
// subscription can be tied back to the account.
func (h *Handler) Authenticated(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		webutil.WriteError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		webutil.WriteError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if h.customers == nil {
		h.log.Error("missing STRIPE_SECRET_KEY environment variable")
		webutil.WriteError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	customerID, err := h.store.CustomerForUser(r.Context(), user.ID)
	if errors.Is(err, store.ErrNotFound) {
		cust, cerr := h.customers.CreateCustomer(r.Context(), user.Email, user.ID)
		if cerr != nil {
			h.log.Errorw("customer create", "user", user.ID, "err", cerr)
			webutil.WriteError(w, "Payment service error. Please try again later.", http.StatusInternalServerError)
			return
		}
		if serr := h.store.SaveCustomer(r.Context(), store.CustomerMapping{
			UserID: user.ID, CustomerID: cust.ID, Email: user.Email,
		}); serr != nil {
			h.log.Errorw("customer save", "user", user.ID, "err", serr)
			webutil.WriteError(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		customerID = cust.ID
	} else if err != nil {
		h.log.Errorw("customer lookup", "user", user.ID, "err", err)
		webutil.WriteError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.serve(w, r, customerID)
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, customerID string) {
	if r.Method != http.MethodPost {
		webutil.WriteError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.sessions == nil {
		h.log.Error("missing STRIPE_SECRET_KEY environment variable")
		webutil.WriteError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		webutil.WriteError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.PriceID == "" || req.SuccessURL == "" || req.CancelURL == "" || req.Mode == "" {
		webutil.WriteError(w, "Missing required parameters: price_id, success_url, cancel_url, mode", http.StatusBadRequest)
		return
	}
	if req.Mode != "payment" && req.Mode != "subscription" {
		webutil.WriteError(w, "Mode must be either 'payment' or 'subscription'", http.StatusBadRequest)
		return
	}

	// Opt-in replay: only when Redis is wired and the client sent a key.
	idemKey := r.Header.Get("Idempotency-Key")
	if h.replays != nil && idemKey != "" {
		if prev, err := h.replays.Get(r.Context(), idemKey); err != nil {
			h.log.Warnw("idempotency lookup", "err", err)
		} else if prev != nil {
			webutil.WriteJSON(w, prev, http.StatusOK)
			return
		}
	}

	sess, err := h.sessions.CreateCheckoutSession(r.Context(), stripeapi.SessionInput{
		PriceID:    req.PriceID,
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
		Mode:       req.Mode,
		CustomerID: customerID,
	})
	if err != nil {
		if msg, ok := stripeapi.InvalidRequestMessage(err); ok {
			webutil.WriteError(w, msg, http.StatusBadRequest)
			return
		}
		h.log.Errorw("stripe session create", "err", err)
		webutil.WriteError(w, "Payment service error. Please try again later.", http.StatusInternalServerError)
		return
	}
	if sess == nil || sess.URL == "" {
		h.log.Error("stripe session created but no URL returned")
		webutil.WriteError(w, "Failed to create checkout session", http.StatusInternalServerError)
		return
	}

	res := Result{SessionID: sess.ID, URL: sess.URL}
	if h.replays != nil && idemKey != "" {
		if err := h.replays.Save(r.Context(), idemKey, res); err != nil {
			h.log.Warnw("idempotency save", "err", err)
		}
	}
	webutil.WriteJSON(w, res, http.StatusOK)
}
