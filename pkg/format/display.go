// Package format renders calculator values for the display.
package format

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/iwvelando/hp12c/pkg/constants"
	"github.com/iwvelando/hp12c/pkg/mathutil"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// RawLocale selects locale-free output: no grouping and a '.' separator.
const RawLocale = "raw"

// Formatter renders a value at a given precision. Values are first rounded
// half away from zero to the requested number of decimal places, then
// grouped according to the configured locale.
type Formatter struct {
	locale  string
	printer *message.Printer
}

// NewFormatter returns a Formatter for a BCP 47 locale such as "en" or
// "pt-BR". An empty locale or RawLocale produces plain output.
func NewFormatter(locale string) (*Formatter, error) {
	trimmed := strings.TrimSpace(locale)
	if trimmed == "" || strings.EqualFold(trimmed, RawLocale) {
		return &Formatter{locale: RawLocale}, nil
	}

	tag, err := language.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid locale %q: %w", locale, err)
	}
	return &Formatter{locale: tag.String(), printer: message.NewPrinter(tag)}, nil
}

// Locale returns the canonical locale name of f.
func (f *Formatter) Locale() string {
	return f.locale
}

// Format renders val with precision decimal places. Non-finite values render
// as the error marker.
func (f *Formatter) Format(val float64, precision int) string {
	if !mathutil.IsFinite(val) {
		return constants.ErrorMarker
	}
	precision = ClampPrecision(precision)

	rounded := decimal.NewFromFloat(val).Round(int32(precision))
	if f == nil || f.printer == nil {
		return rounded.StringFixed(int32(precision))
	}
	return f.printer.Sprintf(fmt.Sprintf("%%.%df", precision), rounded.InexactFloat64())
}

// FormatEntry renders a literal being keyed in, such as "-1234.5", with the
// grouping and decimal separator of the locale. Trailing separators and
// zeros are kept as typed. Raw formatters return the literal unchanged.
func (f *Formatter) FormatEntry(entry string) string {
	if f == nil || f.printer == nil || entry == "" {
		return entry
	}

	sign, body := "", entry
	if strings.HasPrefix(body, "-") {
		sign, body = "-", body[1:]
	}
	whole, fraction, hasPoint := strings.Cut(body, ".")

	n, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return entry
	}
	out := sign + f.printer.Sprintf("%d", n)
	if hasPoint {
		out += f.decimalSeparator() + fraction
	}
	return out
}

func (f *Formatter) decimalSeparator() string {
	sample := f.printer.Sprintf("%.1f", 1.5)
	if len(sample) < 3 {
		return "."
	}
	return sample[1 : len(sample)-1]
}

// Raw renders val with precision decimal places and no locale grouping.
func Raw(val float64, precision int) string {
	var f *Formatter
	return f.Format(val, precision)
}

// ClampPrecision limits precision to the settable range 0-9.
func ClampPrecision(precision int) int {
	if precision < 0 {
		return 0
	}
	if precision > constants.MaxPrecision {
		return constants.MaxPrecision
	}
	return precision
}
