// internal/catalog/handler.go
package catalog

import (
	"context"
	"net/http"

	stripe "github.com/stripe/stripe-go/v82"
	"go.uber.org/zap"

	"bloom/pkg/webutil"
)

// ProductSummary is the reshaped product+default-price pair the screens render.
type ProductSummary struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	PriceID     string            `json:"priceId"`
	Price       string            `json:"price"`
	Currency    string            `json:"currency"`
	Mode        string            `json:"mode"`
	Interval    *string           `json:"interval"`
	Metadata    map[string]string `json:"metadata"`
	Images      []string          `json:"images"`
}

// Source is the slice of the Stripe wrapper the listing needs.
type Source interface {
	ListActiveProducts(ctx context.Context) ([]*stripe.Product, error)
	ListActivePrices(ctx context.Context, productID string) ([]*stripe.Price, error)
}

type Handler struct {
	log    *zap.SugaredLogger
	source Source
}

func NewHandler(log *zap.SugaredLogger, source Source) *Handler {
	return &Handler{log: log, source: source}
}

// Serve lists active products, filters on metadata "type" when the query
// parameter is present, and joins in each product's first active price.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		webutil.WriteError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.source == nil {
		h.log.Error("missing STRIPE_SECRET_KEY environment variable")
		webutil.WriteError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	products, err := h.source.ListActiveProducts(r.Context())
	if err != nil {
		h.log.Errorw("stripe product list", "err", err)
		webutil.WriteError(w, "Failed to fetch products", http.StatusInternalServerError)
		return
	}

	productType := r.URL.Query().Get("type")
	out := []ProductSummary{}
	for _, p := range products {
		if productType != "" && p.Metadata["type"] != productType {
			continue
		}
		prices, err := h.source.ListActivePrices(r.Context(), p.ID)
		if err != nil {
			h.log.Errorw("stripe price list", "product", p.ID, "err", err)
			webutil.WriteError(w, "Failed to fetch products", http.StatusInternalServerError)
			return
		}
		out = append(out, summarize(p, prices))
	}

	webutil.WriteJSON(w, map[string]any{"products": out}, http.StatusOK)
}

func summarize(p *stripe.Product, prices []*stripe.Price) ProductSummary {
	s := ProductSummary{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Mode:        "payment",
		Metadata:    p.Metadata,
		Images:      p.Images,
	}
	if len(prices) == 0 {
		return s
	}
	def := prices[0]
	s.PriceID = def.ID
	s.Price = FormatPrice(def)
	s.Currency = string(def.Currency)
	if def.Type == stripe.PriceTypeRecurring {
		s.Mode = "subscription"
		if def.Recurring != nil {
			interval := string(def.Recurring.Interval)
			s.Interval = &interval
		}
	}
	return s
}
