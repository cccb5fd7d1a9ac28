// Package validation provides common validation utilities.
package validation

import (
	"fmt"

	"github.com/iwvelando/hp12c/pkg/constants"
	"golang.org/x/text/language"
)

// ValidateOutputFormat checks if the output format is one of the supported formats.
func ValidateOutputFormat(format string) error {
	if format != constants.OutputFormatPretty && format != constants.OutputFormatJSON {
		return fmt.Errorf("expected output format of %s or %s, got %s",
			constants.OutputFormatPretty, constants.OutputFormatJSON, format)
	}
	return nil
}

// ValidatePrecision checks that a display precision is settable with f + digit.
func ValidatePrecision(precision int) error {
	if precision < 0 || precision > constants.MaxPrecision {
		return fmt.Errorf("expected precision between 0 and %d, got %d", constants.MaxPrecision, precision)
	}
	return nil
}

// ValidateDivideByZero checks the divide by zero policy name.
func ValidateDivideByZero(policy string) error {
	if policy != constants.DivideByZeroZero && policy != constants.DivideByZeroError {
		return fmt.Errorf("expected divide by zero policy of %s or %s, got %s",
			constants.DivideByZeroZero, constants.DivideByZeroError, policy)
	}
	return nil
}

// ValidateLocale checks that locale is empty, "raw" or a well formed BCP 47
// tag.
func ValidateLocale(locale string) error {
	if locale == "" || locale == "raw" {
		return nil
	}
	if _, err := language.Parse(locale); err != nil {
		return fmt.Errorf("invalid locale %q: %w", locale, err)
	}
	return nil
}

// ValidateLogLevel checks if the log level is one zap understands here.
func ValidateLogLevel(level string) error {
	switch level {
	case "", "debug", "info", "warn", "warning", "error":
		return nil
	}
	return fmt.Errorf("invalid log level: %s", level)
}
