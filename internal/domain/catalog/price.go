package catalog

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var pricePrinter = message.NewPrinter(language.English)

type Price struct {
	Value          float64 `json:"value" validate:"gte=0"`
	CurrencySymbol string  `json:"currency_symbol" validate:"required_with=Value"`
}

// String renders the price as "<symbol> <value>" with two decimals and
// thousands separators, e.g. "€ 1,299.00".
func (p Price) String() string {
	return pricePrinter.Sprintf("%s %.2f", p.CurrencySymbol, p.Value)
}
