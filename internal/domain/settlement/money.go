package settlement

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var dollarPrinter = message.NewPrinter(language.AmericanEnglish)

// FormatDollar renders an amount as US dollars, dropping cents on whole values:
// 1234 -> "$1,234", 12.5 -> "$12.50", -5 -> "-$5".
func FormatDollar(v float64) string {
	cents := math.Round(math.Abs(v) * 100)
	sign := ""
	if v < 0 && cents != 0 {
		sign = "-"
	}
	amount := cents / 100
	if math.Mod(cents, 100) == 0 {
		return sign + "$" + dollarPrinter.Sprint(number.Decimal(amount, number.MaxFractionDigits(0)))
	}
	return sign + "$" + dollarPrinter.Sprint(number.Decimal(amount, number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}
