// internal/catalog/format.go
package catalog

import (
	"fmt"
	"strconv"

	stripe "github.com/stripe/stripe-go/v82"
)

// FormatPrice renders the human-readable price string. The amount is the
// minor-unit price divided by 100 with no padding, so 420 renders as "4.2"
// (2-decimal currencies assumed).
func FormatPrice(p *stripe.Price) string {
	amount := strconv.FormatFloat(float64(p.UnitAmount)/100, 'f', -1, 64)
	switch {
	case p.Type == stripe.PriceTypeRecurring && p.Recurring != nil:
		if p.Recurring.IntervalCount == 1 {
			return fmt.Sprintf("$%s/%s", amount, p.Recurring.Interval)
		}
		return fmt.Sprintf("$%s every %d %ss", amount, p.Recurring.IntervalCount, p.Recurring.Interval)
	case p.Type == stripe.PriceTypeOneTime:
		return "$" + amount
	default:
		if dp := p.Metadata["display_price"]; dp != "" {
			return dp
		}
		return "$" + amount
	}
}
