// pkg/storefront/fallback.go
package storefront

import (
	"os"

	"gopkg.in/yaml.v3"
)

// fallbackCatalog is the YAML shape of the offline product map, keyed by the
// same metadata type the live listing is keyed by.
type fallbackCatalog struct {
	Products map[string]Product `yaml:"products"`
}

// loadFallbackCatalog reads the configured catalog file, or returns the
// built-in defaults when no path is set.
func loadFallbackCatalog(path string) (map[string]Product, error) {
	if path == "" {
		return defaultFallback(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cat fallbackCatalog
	if err := yaml.Unmarshal(b, &cat); err != nil {
		return nil, err
	}
	if len(cat.Products) == 0 {
		return defaultFallback(), nil
	}
	for t, p := range cat.Products {
		if p.Metadata == nil {
			p.Metadata = map[string]string{"type": t}
			cat.Products[t] = p
		}
	}
	return cat.Products, nil
}

func defaultFallback() map[string]Product {
	month := "month"
	return map[string]Product{
		"subscription": {
			ID:          "prod_fallback_subscription",
			Name:        "Premium Access",
			Description: "Get full access to all premium features",
			PriceID:     "price_fallback_subscription",
			Price:       "$4.99/month",
			Currency:    "usd",
			Mode:        "subscription",
			Interval:    &month,
			Metadata:    map[string]string{"type": "subscription"},
			Images:      []string{},
		},
		"donation": {
			ID:          "prod_fallback_donation",
			Name:        "Support Our App",
			Description: "Make a one-time donation to support our app development",
			PriceID:     "price_fallback_donation",
			Price:       "Any amount",
			Currency:    "usd",
			Mode:        "payment",
			Metadata:    map[string]string{"type": "donation"},
			Images:      []string{},
		},
	}
}
