package order

import (
	"fmt"

	"github.com/storefront/backend/internal/domain/shared"
)

// NumberFormat renders a counter value as an order number, e.g. "EU-00042"
type NumberFormat struct {
	Prefix string
	Width  int
}

// Format returns the order number for n, zero padded to Width digits.
// Values wider than Width are kept whole.
func (f NumberFormat) Format(n int64) (string, error) {
	if n <= 0 {
		return "", shared.NewDomainError("INVALID_ORDER_NUMBER", fmt.Sprintf("order number counter must be positive, got %d", n))
	}
	return fmt.Sprintf("%s%0*d", f.Prefix, f.Width, n), nil
}
