package pricing

import (
	"time"

	"github.com/wasteless/marketplace/internal/models"
)

// ppnPermille is the tax surcharge applied to every order subtotal: 0.7%,
// rounded to the nearest rupiah.
const ppnPermille = 7

// Effective returns the unit price actually charged for a product at the given
// time. A discount with a window applies only while the window contains `at`,
// bounds inclusive. A discount without a window always applies.
func Effective(p models.Price, at time.Time) int64 {
	if !p.IsDiscounted {
		return p.BasePrice
	}
	if p.StartDate != nil && p.EndDate != nil {
		if at.Before(*p.StartDate) || at.After(*p.EndDate) {
			return p.BasePrice
		}
	}
	return p.DiscountPrice
}

// DiscountPrice computes the discounted unit price stored by the write path.
// Integer division floors, so historical snapshots never round up.
func DiscountPrice(base int64, percentage int) int64 {
	return base * int64(100-percentage) / 100
}

// Surcharge computes the PPN for an order subtotal, rounding half up.
func Surcharge(subtotal int64) int64 {
	return (subtotal*ppnPermille + 500) / 1000
}
