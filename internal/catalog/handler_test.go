package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	stripe "github.com/stripe/stripe-go/v82"
	"go.uber.org/zap"

	"bloom/pkg/middleware"
)

type fakeSource struct {
	products []*stripe.Product
	prices   map[string][]*stripe.Price
	listErr  error
	priceErr error
}

func (f *fakeSource) ListActiveProducts(context.Context) ([]*stripe.Product, error) {
	return f.products, f.listErr
}

func (f *fakeSource) ListActivePrices(_ context.Context, productID string) ([]*stripe.Price, error) {
	if f.priceErr != nil {
		return nil, f.priceErr
	}
	return f.prices[productID], nil
}

func product(id, name, typ string) *stripe.Product {
	return &stripe.Product{ID: id, Name: name, Metadata: map[string]string{"type": typ}}
}

func catalogSource() *fakeSource {
	return &fakeSource{
		products: []*stripe.Product{
			product("prod_sub", "A nice sandbox to play in", "subscription"),
			product("prod_don", "Donation to the cause", "donation"),
		},
		prices: map[string][]*stripe.Price{
			"prod_sub": {recurring(100, "month", 1)},
			"prod_don": {{ID: "price_don", UnitAmount: 420, Type: stripe.PriceTypeOneTime, Currency: stripe.CurrencyUSD}},
		},
	}
}

func get(h *Handler, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	h.Serve(w, req)
	return w
}

func decodeProducts(t *testing.T, w *httptest.ResponseRecorder) []ProductSummary {
	t.Helper()
	var body struct {
		Products []ProductSummary `json:"products"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Products
}

func TestServeListsAllProducts(t *testing.T) {
	h := NewHandler(zap.NewNop().Sugar(), catalogSource())
	w := get(h, "/products")

	require.Equal(t, http.StatusOK, w.Code)
	products := decodeProducts(t, w)
	require.Len(t, products, 2)

	sub := products[0]
	assert.Equal(t, "prod_sub", sub.ID)
	assert.Equal(t, "subscription", sub.Mode)
	assert.Equal(t, "$1/month", sub.Price)
	require.NotNil(t, sub.Interval)
	assert.Equal(t, "month", *sub.Interval)

	don := products[1]
	assert.Equal(t, "payment", don.Mode)
	assert.Equal(t, "$4.2", don.Price)
	assert.Equal(t, "price_don", don.PriceID)
	assert.Equal(t, "usd", don.Currency)
	assert.Nil(t, don.Interval)
}

func TestServeTypeFilter(t *testing.T) {
	h := NewHandler(zap.NewNop().Sugar(), catalogSource())
	w := get(h, "/products?type=donation")

	require.Equal(t, http.StatusOK, w.Code)
	products := decodeProducts(t, w)
	require.Len(t, products, 1)
	assert.Equal(t, "prod_don", products[0].ID)
}

func TestServeTypeFilterNoMatchesIsEmptyList(t *testing.T) {
	h := NewHandler(zap.NewNop().Sugar(), catalogSource())
	w := get(h, "/products?type=merch")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeProducts(t, w))
	assert.Contains(t, w.Body.String(), `"products":[]`)
}

func TestServeProductWithoutPrices(t *testing.T) {
	src := &fakeSource{
		products: []*stripe.Product{product("prod_bare", "Bare", "donation")},
		prices:   map[string][]*stripe.Price{},
	}
	h := NewHandler(zap.NewNop().Sugar(), src)
	w := get(h, "/products")

	require.Equal(t, http.StatusOK, w.Code)
	products := decodeProducts(t, w)
	require.Len(t, products, 1)
	assert.Empty(t, products[0].PriceID)
	assert.Equal(t, "payment", products[0].Mode)
}

func TestServeProcessorErrorIsOpaque(t *testing.T) {
	for name, src := range map[string]*fakeSource{
		"listing":  {listErr: errors.New("stripe: boom")},
		"pricing":  {products: []*stripe.Product{product("p", "P", "t")}, priceErr: errors.New("stripe: boom")},
	} {
		t.Run(name, func(t *testing.T) {
			h := NewHandler(zap.NewNop().Sugar(), src)
			w := get(h, "/products")

			assert.Equal(t, http.StatusInternalServerError, w.Code)
			assert.Contains(t, w.Body.String(), "Failed to fetch products")
		})
	}
}

func TestServeMissingConfiguration(t *testing.T) {
	h := NewHandler(zap.NewNop().Sugar(), nil)
	w := get(h, "/products")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Internal server error")
}

func TestServeWrongMethod(t *testing.T) {
	h := NewHandler(zap.NewNop().Sugar(), catalogSource())
	req := httptest.NewRequest(http.MethodPost, "/products", nil)
	w := httptest.NewRecorder()
	h.Serve(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestPreflight(t *testing.T) {
	h := NewHandler(zap.NewNop().Sugar(), catalogSource())
	wrapped := middleware.CORS("GET, OPTIONS")(http.HandlerFunc(h.Serve))

	req := httptest.NewRequest(http.MethodOptions, "/products", nil)
	w := httptest.NewRecorder()
	wrapped.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.Bytes())
	assert.Equal(t, "GET, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
}
