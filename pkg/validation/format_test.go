package validation

import "testing"

func TestValidateOutputFormat(t *testing.T) {
	tests := []struct {
		name      string
		format    string
		expectErr bool
	}{
		{
			name:      "Valid pretty format",
			format:    "pretty",
			expectErr: false,
		},
		{
			name:      "Valid json format",
			format:    "json",
			expectErr: false,
		},
		{
			name:      "Invalid format",
			format:    "csv",
			expectErr: true,
		},
		{
			name:      "Empty format",
			format:    "",
			expectErr: true,
		},
		{
			name:      "Case sensitive - uppercase",
			format:    "PRETTY",
			expectErr: true,
		},
		{
			name:      "Leading/trailing spaces",
			format:    " json ",
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputFormat(tt.format)
			if (err != nil) != tt.expectErr {
				t.Errorf("ValidateOutputFormat(%q) error = %v, expectErr %v", tt.format, err, tt.expectErr)
			}
		})
	}
}

func TestValidatePrecision(t *testing.T) {
	for precision := 0; precision <= 9; precision++ {
		if err := ValidatePrecision(precision); err != nil {
			t.Errorf("ValidatePrecision(%d) unexpected error: %v", precision, err)
		}
	}
	for _, precision := range []int{-1, 10, 99} {
		if err := ValidatePrecision(precision); err == nil {
			t.Errorf("ValidatePrecision(%d) expected error", precision)
		}
	}
}

func TestValidateDivideByZero(t *testing.T) {
	if err := ValidateDivideByZero("zero"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateDivideByZero("error"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateDivideByZero("panic"); err == nil {
		t.Error("expected error for unknown policy")
	}
}

func TestValidateLocale(t *testing.T) {
	for _, locale := range []string{"raw", "en", "pt-BR", "de"} {
		if err := ValidateLocale(locale); err != nil {
			t.Errorf("ValidateLocale(%q) unexpected error: %v", locale, err)
		}
	}
	if err := ValidateLocale("??"); err == nil {
		t.Error("expected error for malformed locale")
	}
}

func TestValidateLogLevel(t *testing.T) {
	for _, level := range []string{"", "debug", "info", "warn", "warning", "error"} {
		if err := ValidateLogLevel(level); err != nil {
			t.Errorf("ValidateLogLevel(%q) unexpected error: %v", level, err)
		}
	}
	if err := ValidateLogLevel("trace"); err == nil {
		t.Error("expected error for trace")
	}
}
