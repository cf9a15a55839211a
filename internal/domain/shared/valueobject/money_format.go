package valueobject

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// DisplayLocale is the locale used for money display formatting.
var DisplayLocale = language.BrazilianPortuguese

// ParseLocalizedAmount parses user-typed decimal input that may use either
// the pt-BR convention ("1.234,56") or the en convention ("1,234.56").
//
// Rules:
//   - when both '.' and ',' occur, the separator appearing last is the
//     decimal separator and the other one is a grouping separator
//   - a lone ',' is always a decimal separator
//   - a lone '.' is a decimal separator unless it occurs more than once,
//     in which case every occurrence is a grouping separator
func ParseLocalizedAmount(input string) (decimal.Decimal, error) {
	s := strings.TrimSpace(input)
	s = strings.TrimPrefix(s, "R$")
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			// pt-BR: '.' groups, ',' is decimal
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			// en: ',' groups, '.' is decimal
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case lastDot >= 0:
		if strings.Count(s, ".") > 1 {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", input, err)
	}
	return d, nil
}

// ParseLocalizedMoney parses localized input into Money in the default currency.
func ParseLocalizedMoney(input string) (Money, error) {
	d, err := ParseLocalizedAmount(input)
	if err != nil {
		return Money{}, err
	}
	return NewMoney(d, DefaultCurrency)
}

// FormatLocalized renders the amount using the display locale's separators,
// always with two fraction digits ("1.234,56" for pt-BR).
func (m Money) FormatLocalized() string {
	return FormatAmountLocalized(m.amount)
}

// FormatAmountLocalized formats a bare decimal amount for display.
func FormatAmountLocalized(d decimal.Decimal) string {
	p := message.NewPrinter(DisplayLocale)
	f, _ := d.Round(2).Float64()
	return p.Sprintf("%v", number.Decimal(f,
		number.MinFractionDigits(2),
		number.MaxFractionDigits(2),
	))
}
