package storefront

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bloom/pkg/supabase"
)

func newAuthServer(t *testing.T, signupStatus int, signupBody string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/v1/signup", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(signupStatus)
		w.Write([]byte(signupBody))
	})
	mux.HandleFunc("/auth/v1/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid login credentials"}`))
	})
	mux.HandleFunc("/rest/v1/stripe_user_subscriptions", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"subscription_status":"active","price_id":"price_sub","current_period_end":"2026-09-30T00:00:00Z"}]`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newClient(t *testing.T, authURL, paymentsURL string) *Client {
	t.Helper()
	auth, err := supabase.New(supabase.Config{ProjectURL: authURL, AnonKey: "anon-key"})
	require.NoError(t, err)
	c, err := New(zap.NewNop().Sugar(), auth, paymentsURL, "")
	require.NoError(t, err)
	return c
}

func TestSignUpRewritesAlreadyRegistered(t *testing.T) {
	srv := newAuthServer(t, http.StatusBadRequest, `{"code":400,"msg":"User already registered"}`)
	c := newClient(t, srv.URL, "http://unused")

	_, err := c.SignUp(context.Background(), "fern@example.com", "hunter22")
	require.Error(t, err)
	assert.Equal(t, "An account with this email already exists. Please try logging in instead.", err.Error())
}

func TestSignUpPassesOtherMessagesVerbatim(t *testing.T) {
	srv := newAuthServer(t, http.StatusUnprocessableEntity, `{"code":422,"msg":"Password should be at least 6 characters"}`)
	c := newClient(t, srv.URL, "http://unused")

	_, err := c.SignUp(context.Background(), "fern@example.com", "x")
	require.Error(t, err)
	assert.Equal(t, "Password should be at least 6 characters", err.Error())
}

func TestSignInPassesMessageVerbatim(t *testing.T) {
	srv := newAuthServer(t, http.StatusOK, `{}`)
	c := newClient(t, srv.URL, "http://unused")

	_, err := c.SignIn(context.Background(), "fern@example.com", "wrong")
	require.Error(t, err)
	assert.Equal(t, "Invalid login credentials", err.Error())
}

func TestSubscriptionStatusActiveBranch(t *testing.T) {
	srv := newAuthServer(t, http.StatusOK, `{}`)
	c := newClient(t, srv.URL, "http://unused")

	sub, err := c.SubscriptionStatus(context.Background(), &supabase.Session{AccessToken: "token"})
	require.NoError(t, err)
	assert.True(t, sub.Active())
	assert.Equal(t, "price_sub", sub.PriceID)
	assert.Equal(t, "2026-09-30T00:00:00Z", sub.CurrentPeriodEnd)
}

func TestProductsKeyedByType(t *testing.T) {
	payments := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"products":[
			{"id":"prod_sub","name":"Sandbox","priceId":"price_s","price":"$1/month","mode":"subscription","metadata":{"type":"subscription"}},
			{"id":"prod_don","name":"Donation","priceId":"price_d","price":"$4.2","mode":"payment","metadata":{"type":"donation"}}
		]}`))
	}))
	defer payments.Close()

	auth := newAuthServer(t, http.StatusOK, `{}`)
	c := newClient(t, auth.URL, payments.URL)

	products, live := c.Products(context.Background(), "all")
	assert.True(t, live)
	require.Len(t, products, 2)
	assert.Equal(t, "prod_sub", products["subscription"].ID)
	assert.Equal(t, "prod_don", products["donation"].ID)
}

func TestProductsFallsBackOnError(t *testing.T) {
	payments := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"Failed to fetch products"}`, http.StatusInternalServerError)
	}))
	defer payments.Close()

	auth := newAuthServer(t, http.StatusOK, `{}`)
	c := newClient(t, auth.URL, payments.URL)

	products, live := c.Products(context.Background(), "all")
	assert.False(t, live)
	require.NotEmpty(t, products)
	assert.Equal(t, "$4.99/month", products["subscription"].Price)
	assert.Equal(t, "payment", products["donation"].Mode)
}

func TestStartCheckout(t *testing.T) {
	payments := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/checkout-session", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"session_id":"cs_1","url":"https://checkout.stripe.com/c/pay/cs_1"}`))
	}))
	defer payments.Close()

	auth := newAuthServer(t, http.StatusOK, `{}`)
	c := newClient(t, auth.URL, payments.URL)

	res, err := c.StartCheckout(context.Background(), "price_d", "https://a/s", "https://a/c", "payment")
	require.NoError(t, err)
	assert.Equal(t, "cs_1", res.SessionID)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_1", res.URL)
}

func TestStartCheckoutSurfacesServiceError(t *testing.T) {
	payments := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"Mode must be either 'payment' or 'subscription'"}`))
	}))
	defer payments.Close()

	auth := newAuthServer(t, http.StatusOK, `{}`)
	c := newClient(t, auth.URL, payments.URL)

	_, err := c.StartCheckout(context.Background(), "price_d", "https://a/s", "https://a/c", "oops")
	require.Error(t, err)
	assert.Equal(t, "Mode must be either 'payment' or 'subscription'", err.Error())
}
