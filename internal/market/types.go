package market

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Listing describes an instrument admitted to trading.
type Listing struct {
	Symbol       string
	Company      string
	OpeningPrice decimal.Decimal
}

func (l Listing) String() string {
	return fmt.Sprintf("%s(%s)@%s", l.Symbol, l.Company, l.OpeningPrice.StringFixed(2))
}

// ParseListings parses "SYM:Company Name:12.50" entries separated by commas.
func ParseListings(s string) ([]Listing, error) {
	var out []Listing
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("listing %q: want SYMBOL:Company:price", entry)
		}
		symbol := strings.TrimSpace(parts[0])
		if symbol == "" {
			return nil, fmt.Errorf("listing %q: empty symbol", entry)
		}
		price, err := decimal.NewFromString(strings.TrimSpace(parts[2]))
		if err != nil {
			return nil, fmt.Errorf("listing %q: %w", entry, err)
		}
		if !price.IsPositive() {
			return nil, fmt.Errorf("listing %q: opening price must be positive", entry)
		}
		out = append(out, Listing{Symbol: symbol, Company: strings.TrimSpace(parts[1]), OpeningPrice: price})
	}
	return out, nil
}
