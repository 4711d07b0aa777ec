package format

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// printer renders locale-aware thousands-separated numbers, replacing the
// teacher's hand-rolled addThousandsSeparators/K-M-B-T suffix logic
// (format/display's formatNumberWithSuffix) with golang.org/x/text/message,
// the ecosystem library the ambient stack carries for this.
var printer = message.NewPrinter(language.English)

// formatNumber renders v with thousands separators and up to two decimal
// places, trimming a trailing ".00".
func formatNumber(v float64) string {
	s := printer.Sprintf("%.2f", number.Decimal(v))
	if len(s) > 3 && s[len(s)-3:] == ".00" {
		return s[:len(s)-3]
	}
	return s
}
