package domain

import "github.com/shopspring/decimal"

func init() {
	// Prices are JSON numbers on the wire ("10", "10.5").
	decimal.MarshalJSONWithoutQuotes = true
}
