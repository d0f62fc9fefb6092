package pricing

import "strings"

// DiscountMode is the closed set of discount forms a proposal can carry.
type DiscountMode int

const (
	// DiscountNone leaves the price unchanged. Unrecognized mode strings
	// normalize to it, so a typoed form is a no-op rather than an error.
	DiscountNone DiscountMode = iota
	// DiscountPercentage subtracts a percentage of the pre-discount price.
	DiscountPercentage
	// DiscountAbsolute subtracts a fixed amount from the pre-discount price.
	DiscountAbsolute
)

// ParseDiscountMode normalizes the wire value of forma_desconto,
// case-insensitively. "Porcentagem" and "%" select the percentage form,
// "Valor" the absolute form; anything else (including the default
// "Sem Desconto") selects none.
func ParseDiscountMode(s string) DiscountMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "porcentagem", "%":
		return DiscountPercentage
	case "valor":
		return DiscountAbsolute
	default:
		return DiscountNone
	}
}

// Apply returns price after the discount. The discount value is interpreted
// per mode: a percentage in [0,100] for DiscountPercentage, a monetary
// amount for DiscountAbsolute. Values outside those ranges are not clamped;
// the caller is expected to flag negative results.
func (m DiscountMode) Apply(price, value float64) float64 {
	switch m {
	case DiscountPercentage:
		return price * (1 - value/100.0)
	case DiscountAbsolute:
		return price - value
	default:
		return price
	}
}

func (m DiscountMode) String() string {
	switch m {
	case DiscountPercentage:
		return "porcentagem"
	case DiscountAbsolute:
		return "valor"
	default:
		return "sem desconto"
	}
}
