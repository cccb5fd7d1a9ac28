// Package constants provides shared constants for the hp12c application.
package constants

import "time"

// Calculator defaults
const (
	// StackSize is the number of registers in the RPN stack (X, Y, Z, T).
	StackSize = 4

	// StorageRegisters is the number of STO/RCL registers (R0-R9).
	StorageRegisters = 10

	// DefaultPrecision is the number of decimal places shown at power on.
	DefaultPrecision = 2

	// MaxPrecision is the largest precision settable with f + digit.
	MaxPrecision = 9

	// DefaultMaxEntryDigits caps the digits in a literal being keyed in,
	// matching the ten digit display of the physical calculator.
	DefaultMaxEntryDigits = 10

	// DefaultHistorySize is the number of completed results a session keeps.
	DefaultHistorySize = 50

	// DefaultLocale is the BCP 47 tag used for display grouping.
	DefaultLocale = "en"

	// ErrorMarker is shown in place of X when it holds the error sentinel.
	ErrorMarker = "Error"
)

// Divide by zero policies
const (
	// DivideByZeroZero makes y / 0 yield 0.
	DivideByZeroZero = "zero"

	// DivideByZeroError makes y / 0 yield the error sentinel.
	DivideByZeroError = "error"
)

// Financial constants
const (
	// MonthsPerYear is used by the g n (12x) and g i (12÷) conversions.
	MonthsPerYear = 12

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0
)

// Solver defaults
const (
	// DefaultSolverIterations bounds the Newton-Raphson interest rate solve.
	DefaultSolverIterations = 100

	// DefaultSolverTolerance is the residual of the rate equation, relative to
	// the size of its terms, below which the rate solve stops.
	DefaultSolverTolerance = 1e-10

	// DefaultSolverGuess is the periodic rate the Newton-Raphson solve starts from.
	DefaultSolverGuess = 0.1

	// MaxAmortizationPayments bounds a single amortization preview.
	MaxAmortizationPayments = 9999
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"
)

// Logging constants
const (
	// LogFormatConsole is the human-readable zap development encoding
	LogFormatConsole = "console"

	// LogFormatJSON is the structured zap production encoding
	LogFormatJSON = "json"

	// DefaultLogFormat is used when neither the config nor a flag sets one
	DefaultLogFormat = LogFormatConsole

	// DefaultLogLevel is used when neither the config nor a flag sets one
	DefaultLogLevel = "info"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// ExampleConfigFile is the example configuration file name
	ExampleConfigFile = "config.yaml.example"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// EnvPrefix prefixes environment overrides, e.g. HP12C_CALCULATOR_PRECISION.
	EnvPrefix = "HP12C"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the keypad API
	DefaultServerAddress = "127.0.0.1:8080"

	// DefaultMaxKeysPerRequest bounds the keys a single POST /api/keys may press
	DefaultMaxKeysPerRequest = 256

	// MaxKeyTokenBytes is the body budget per key token, including its JSON
	// quotes, separator and whitespace
	MaxKeyTokenBytes = 16

	// KeysRequestOverheadBytes is the body budget for the JSON envelope
	KeysRequestOverheadBytes = 64

	// DefaultReadTimeout bounds how long the server waits for a request.
	DefaultReadTimeout = 10 * time.Second
)

// Validation constants
const (
	// Tolerance is the default tolerance for floating point comparisons
	Tolerance = 1e-9
)
