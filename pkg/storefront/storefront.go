// Package storefront is the typed client layer behind the app screens: auth
// against Supabase, the subscription-status read the paywall branches on, and
// the checkout/product calls against the payments service.
package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	jmes "github.com/jmespath/go-jmespath"
	"go.uber.org/zap"

	"bloom/pkg/supabase"
)

// ErrUnexpected replaces failures the screens have no specific copy for.
var ErrUnexpected = errors.New("An unexpected error occurred")

const alreadyRegisteredFriendly = "An account with this email already exists. Please try logging in instead."

type Client struct {
	log          *zap.SugaredLogger
	auth         *supabase.Client
	paymentsBase string
	http         *http.Client
	fallback     map[string]Product
}

func New(log *zap.SugaredLogger, auth *supabase.Client, paymentsBase, fallbackPath string) (*Client, error) {
	fb, err := loadFallbackCatalog(fallbackPath)
	if err != nil {
		return nil, err
	}
	return &Client{
		log:          log,
		auth:         auth,
		paymentsBase: strings.TrimRight(paymentsBase, "/"),
		http:         http.DefaultClient,
		fallback:     fb,
	}, nil
}

// SignUp registers an account. The one GoTrue message with dedicated screen
// copy is the literal "User already registered"; every other auth message is
// shown verbatim, and anything unrecognized becomes ErrUnexpected.
func (c *Client) SignUp(ctx context.Context, email, password string) (*supabase.Session, error) {
	sess, err := c.auth.SignUp(ctx, email, password)
	if err != nil {
		var ae *supabase.AuthError
		if errors.As(err, &ae) {
			if ae.Message == "User already registered" {
				return nil, errors.New(alreadyRegisteredFriendly)
			}
			return nil, err
		}
		c.log.Errorw("sign up", "err", err)
		return nil, ErrUnexpected
	}
	return sess, nil
}

// SignIn passes every auth error message through unchanged.
func (c *Client) SignIn(ctx context.Context, email, password string) (*supabase.Session, error) {
	sess, err := c.auth.SignIn(ctx, email, password)
	if err != nil {
		var ae *supabase.AuthError
		if errors.As(err, &ae) {
			return nil, err
		}
		c.log.Errorw("sign in", "err", err)
		return nil, ErrUnexpected
	}
	return sess, nil
}

// Subscription is what the subscription screen renders.
type Subscription struct {
	Status           string
	PriceID          string
	CurrentPeriodEnd string
}

// Active is the paywall branch: exactly status == "active".
func (s Subscription) Active() bool { return s.Status == "active" }

// SubscriptionStatus reads the user's row from the stripe_user_subscriptions
// view. A user with no subscription yet gets a zero Subscription, not an error.
func (c *Client) SubscriptionStatus(ctx context.Context, sess *supabase.Session) (Subscription, error) {
	raw, err := c.auth.Select(ctx, "stripe_user_subscriptions",
		"select=subscription_status,price_id,current_period_end", sess.AccessToken)
	if err != nil {
		c.log.Errorw("subscription read", "err", err)
		return Subscription{}, ErrUnexpected
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Subscription{}, ErrUnexpected
	}
	return Subscription{
		Status:           searchString(doc, "[0].subscription_status"),
		PriceID:          searchString(doc, "[0].price_id"),
		CurrentPeriodEnd: searchString(doc, "[0].current_period_end"),
	}, nil
}

// searchString plucks one field out of the loosely-typed PostgREST payload.
func searchString(doc any, path string) string {
	v, err := jmes.Search(path, doc)
	if err != nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Product mirrors the payments service's product summary. The yaml tags serve
// the fallback catalog file, which uses the same field names.
type Product struct {
	ID          string            `json:"id" yaml:"id"`
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description" yaml:"description"`
	PriceID     string            `json:"priceId" yaml:"priceId"`
	Price       string            `json:"price" yaml:"price"`
	Currency    string            `json:"currency" yaml:"currency"`
	Mode        string            `json:"mode" yaml:"mode"`
	Interval    *string           `json:"interval" yaml:"interval,omitempty"`
	Metadata    map[string]string `json:"metadata" yaml:"metadata,omitempty"`
	Images      []string          `json:"images" yaml:"images,omitempty"`
}

// Products fetches the catalog keyed by metadata type ("subscription",
// "donation", ...). category narrows the fetch; "all" or "" fetches everything.
// When the fetch fails the fallback catalog is returned so the screens still
// render, with ok=false signalling stale data.
func (c *Client) Products(ctx context.Context, category string) (map[string]Product, bool) {
	endpoint := c.paymentsBase + "/products"
	if category != "" && category != "all" {
		endpoint += "?type=" + url.QueryEscape(category)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return c.fallback, false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Errorw("products fetch", "err", err)
		return c.fallback, false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.log.Errorw("products fetch", "status", resp.StatusCode)
		return c.fallback, false
	}
	var body struct {
		Products []Product `json:"products"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return c.fallback, false
	}
	out := map[string]Product{}
	for _, p := range body.Products {
		t := p.Metadata["type"]
		if t == "" {
			t = "other"
		}
		out[t] = p
	}
	return out, true
}

// CheckoutResult is the redirect target for the platform web view.
type CheckoutResult struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// StartCheckout posts to the checkout-session endpoint and returns the hosted
// page to redirect to. Error messages from the service are shown verbatim.
func (c *Client) StartCheckout(ctx context.Context, priceID, successURL, cancelURL, mode string) (CheckoutResult, error) {
	body, _ := json.Marshal(map[string]string{
		"price_id":    priceID,
		"success_url": successURL,
		"cancel_url":  cancelURL,
		"mode":        mode,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.paymentsBase+"/checkout-session", bytes.NewReader(body))
	if err != nil {
		return CheckoutResult{}, ErrUnexpected
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Errorw("checkout start", "err", err)
		return CheckoutResult{}, ErrUnexpected
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return CheckoutResult{}, ErrUnexpected
	}
	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &e) == nil && e.Error != "" {
			return CheckoutResult{}, errors.New(e.Error)
		}
		return CheckoutResult{}, fmt.Errorf("checkout failed: status %d", resp.StatusCode)
	}
	var res CheckoutResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return CheckoutResult{}, ErrUnexpected
	}
	return res, nil
}
