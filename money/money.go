/*
Package money parses and formats the monetary amounts and percentages that
users type into the budget.

PURPOSE:
  User input is free text ("1 200,50", "15%", "", "abc"). The engine needs a
  number. Parsing here fails soft: anything that is not a number becomes zero,
  so a half-filled form never blocks a calculation.

PRECISION:
  Values are decimal.Decimal end to end. Formatting happens only at the
  presentation boundary and never feeds back into the engine.

USAGE:
  income := money.ParseAmount("3.000,00")   // 3000
  share  := money.ParsePercent("20%")        // 20
  label  := money.FormatAmount(income)       // "3.000 €"

SEE ALSO:
  - budget/engine.go: consumes parsed amounts
  - api/dto.go: renders formatted amounts next to raw values
*/
package money

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// CurrencySuffix is appended by FormatAmount.
const CurrencySuffix = "€"

// ErrInvalidNumber is returned by the strict parsers.
var ErrInvalidNumber = errors.New("invalid numeric input")

// =============================================================================
// PARSING
// =============================================================================

// ParseAmount converts user input to a decimal. Empty or invalid input is 0.
func ParseAmount(raw string) decimal.Decimal {
	d, err := ParseAmountStrict(raw)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParsePercent is ParseAmount with an optional trailing percent sign.
func ParsePercent(raw string) decimal.Decimal {
	return ParseAmount(strings.TrimSuffix(strings.TrimSpace(raw), "%"))
}

// ParseAmountStrict is the error-returning variant of ParseAmount.
//
// Both "." and "," are accepted as the decimal separator. When both appear,
// the right-most one is the decimal separator and the other is treated as a
// thousands separator ("1.234,56" and "1,234.56" both parse to 1234.56).
func ParseAmountStrict(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(s, CurrencySuffix)
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\u202f', '\'':
			return -1
		}
		return r
	}, s)
	if s == "" {
		return decimal.Zero, ErrInvalidNumber
	}

	dot := strings.LastIndex(s, ".")
	comma := strings.LastIndex(s, ",")
	switch {
	case dot >= 0 && comma >= 0 && comma > dot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case dot >= 0 && comma >= 0:
		s = strings.ReplaceAll(s, ",", "")
	case comma >= 0:
		if strings.Count(s, ",") > 1 {
			return decimal.Zero, ErrInvalidNumber
		}
		s = strings.Replace(s, ",", ".", 1)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidNumber
	}
	return d, nil
}

// =============================================================================
// FORMATTING
// =============================================================================

// Formatter renders amounts for one locale.
type Formatter struct {
	printer *message.Printer
}

// NewFormatter creates a formatter for the given locale.
func NewFormatter(tag language.Tag) *Formatter {
	return &Formatter{printer: message.NewPrinter(tag)}
}

// Format renders v with locale separators, at most two fraction digits and
// the currency suffix.
func (f *Formatter) Format(v decimal.Decimal) string {
	n := number.Decimal(v.InexactFloat64(), number.MaxFractionDigits(2))
	return f.printer.Sprint(n) + " " + CurrencySuffix
}

// DefaultLocale is used when no locale is configured.
var DefaultLocale = language.German

var defaultFormatter = NewFormatter(DefaultLocale)

// FormatAmount renders v with the default (German) locale: 1234.5 -> "1.234,5 €".
func FormatAmount(v decimal.Decimal) string {
	return defaultFormatter.Format(v)
}
