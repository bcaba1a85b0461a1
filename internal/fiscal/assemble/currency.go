package assemble

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var currencyPrinter = message.NewPrinter(language.BrazilianPortuguese)

// FormatCurrency renders a monetary value with pt-BR separators and a leading
// marker, e.g. 1234.5 -> "$ 1.234,50".
func FormatCurrency(value float64) string {
	return currencyPrinter.Sprintf("$ %.2f", value)
}
