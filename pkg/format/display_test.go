package format

import (
	"math"
	"testing"
)

func TestRaw(t *testing.T) {
	tests := []struct {
		name      string
		value     float64
		precision int
		expected  string
	}{
		{"Two places", 1126.825030131969, 2, "1126.83"},
		{"Half rounds away from zero", 2.5, 0, "3"},
		{"Negative half rounds away from zero", -2.5, 0, "-3"},
		{"Padding", 150, 4, "150.0000"},
		{"Negative zero after rounding", -0.001, 2, "0.00"},
		{"Precision clamped high", 1.0 / 3.0, 12, "0.333333333"},
		{"Precision clamped low", 7.6, -1, "8"},
		{"NaN", math.NaN(), 2, "Error"},
		{"Infinity", math.Inf(-1), 2, "Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Raw(tt.value, tt.precision); got != tt.expected {
				t.Errorf("Raw(%v, %d) = %q, expected %q", tt.value, tt.precision, got, tt.expected)
			}
		})
	}
}

func TestFormatterEnglish(t *testing.T) {
	f, err := NewFormatter("en")
	if err != nil {
		t.Fatalf("NewFormatter() error = %v", err)
	}

	if got := f.Format(1126.825030131969, 2); got != "1,126.83" {
		t.Errorf("Format() = %q, expected %q", got, "1,126.83")
	}
	if got := f.Format(-1000, 2); got != "-1,000.00" {
		t.Errorf("Format() = %q, expected %q", got, "-1,000.00")
	}
	if got := f.Format(math.NaN(), 2); got != "Error" {
		t.Errorf("Format(NaN) = %q, expected Error", got)
	}
}

func TestFormatterBrazilianPortuguese(t *testing.T) {
	f, err := NewFormatter("pt-BR")
	if err != nil {
		t.Fatalf("NewFormatter() error = %v", err)
	}
	if f.Locale() != "pt-BR" {
		t.Errorf("Locale() = %q, expected pt-BR", f.Locale())
	}
	if got := f.Format(1126.825030131969, 2); got != "1.126,83" {
		t.Errorf("Format() = %q, expected %q", got, "1.126,83")
	}
}

func TestFormatEntry(t *testing.T) {
	en, err := NewFormatter("en")
	if err != nil {
		t.Fatalf("NewFormatter(en) error = %v", err)
	}
	ptBR, err := NewFormatter("pt-BR")
	if err != nil {
		t.Fatalf("NewFormatter(pt-BR) error = %v", err)
	}
	raw, err := NewFormatter(RawLocale)
	if err != nil {
		t.Fatalf("NewFormatter(raw) error = %v", err)
	}

	tests := []struct {
		name      string
		formatter *Formatter
		entry     string
		expected  string
	}{
		{"English grouping", en, "1234.5", "1,234.5"},
		{"Portuguese grouping", ptBR, "1234.5", "1.234,5"},
		{"Trailing separator kept", ptBR, "-1234567890.", "-1.234.567.890,"},
		{"Trailing zeros kept", ptBR, "0.50", "0,50"},
		{"Short literal", ptBR, "42", "42"},
		{"Raw locale", raw, "1234.5", "1234.5"},
		{"Nil formatter", nil, "1234.5", "1234.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.formatter.FormatEntry(tt.entry); got != tt.expected {
				t.Errorf("FormatEntry(%q) = %q, expected %q", tt.entry, got, tt.expected)
			}
		})
	}
}

func TestNewFormatterRawAndInvalid(t *testing.T) {
	for _, locale := range []string{"", "raw", "RAW"} {
		f, err := NewFormatter(locale)
		if err != nil {
			t.Fatalf("NewFormatter(%q) error = %v", locale, err)
		}
		if got := f.Format(12345.5, 1); got != "12345.5" {
			t.Errorf("NewFormatter(%q).Format() = %q, expected 12345.5", locale, got)
		}
	}

	if _, err := NewFormatter("not a locale!"); err == nil {
		t.Error("expected error for invalid locale")
	}
}
