// Package config defines the data structures related to configuration and
// includes functions for loading and validating it.
package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/iwvelando/hp12c/internal/calculator"
	"github.com/iwvelando/hp12c/pkg/constants"
	"github.com/iwvelando/hp12c/pkg/format"
	"github.com/iwvelando/hp12c/pkg/tvm"
	"github.com/iwvelando/hp12c/pkg/validation"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Configuration holds all configuration for hp12c.
type Configuration struct {
	Calculator CalculatorConfig `yaml:"calculator,omitempty"`
	Solver     SolverConfig     `yaml:"solver,omitempty"`
	Logging    LoggingConfig    `yaml:"logging,omitempty"`
	Output     OutputConfig     `yaml:"output,omitempty"`
}

// CalculatorConfig holds the keypad engine options.
type CalculatorConfig struct {
	Precision      int    `yaml:"precision,omitempty"`
	MaxEntryDigits int    `yaml:"maxEntryDigits,omitempty"`
	DivideByZero   string `yaml:"divideByZero,omitempty"` // zero, error
	Locale         string `yaml:"locale,omitempty"`       // BCP 47 tag or raw
	HistorySize    int    `yaml:"historySize,omitempty"`
}

// SolverConfig tunes the Newton-Raphson interest rate solve.
type SolverConfig struct {
	Iterations   int     `yaml:"iterations,omitempty"`
	Tolerance    float64 `yaml:"tolerance,omitempty"`
	InitialGuess float64 `yaml:"initialGuess,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, json
}

// Default returns the configuration used when no file is given.
func Default() *Configuration {
	return &Configuration{
		Calculator: CalculatorConfig{
			Precision:      constants.DefaultPrecision,
			MaxEntryDigits: constants.DefaultMaxEntryDigits,
			DivideByZero:   constants.DivideByZeroZero,
			Locale:         constants.DefaultLocale,
			HistorySize:    constants.DefaultHistorySize,
		},
		Solver: SolverConfig{
			Iterations:   constants.DefaultSolverIterations,
			Tolerance:    constants.DefaultSolverTolerance,
			InitialGuess: constants.DefaultSolverGuess,
		},
		Logging: LoggingConfig{Level: constants.DefaultLogLevel, Format: constants.DefaultLogFormat},
		Output:  OutputConfig{Format: constants.OutputFormatPretty},
	}
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. Environment variables such as
// HP12C_CALCULATOR_PRECISION override file values. An empty path yields the
// defaults with environment overrides applied.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file, %w", err)
		}
	}
	return decode(v)
}

// LoadConfigurationFromReader loads YAML configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config, %w", err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := Default()
	v.SetDefault("calculator.precision", d.Calculator.Precision)
	v.SetDefault("calculator.maxEntryDigits", d.Calculator.MaxEntryDigits)
	v.SetDefault("calculator.divideByZero", d.Calculator.DivideByZero)
	v.SetDefault("calculator.locale", d.Calculator.Locale)
	v.SetDefault("calculator.historySize", d.Calculator.HistorySize)
	v.SetDefault("solver.iterations", d.Solver.Iterations)
	v.SetDefault("solver.tolerance", d.Solver.Tolerance)
	v.SetDefault("solver.initialGuess", d.Solver.InitialGuess)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.outputFile", d.Logging.OutputFile)
	v.SetDefault("output.format", d.Output.Format)
	return v
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}
	if err := configuration.Validate(); err != nil {
		return nil, err
	}
	return &configuration, nil
}

// Validate rejects settings the calculator cannot run with.
func (c *Configuration) Validate() error {
	if err := validation.ValidatePrecision(c.Calculator.Precision); err != nil {
		return fmt.Errorf("calculator.precision: %w", err)
	}
	if err := validation.ValidateDivideByZero(c.Calculator.DivideByZero); err != nil {
		return fmt.Errorf("calculator.divideByZero: %w", err)
	}
	if err := validation.ValidateLocale(c.Calculator.Locale); err != nil {
		return fmt.Errorf("calculator.locale: %w", err)
	}
	if err := validation.ValidateOutputFormat(c.Output.Format); err != nil {
		return fmt.Errorf("output.format: %w", err)
	}
	if err := validation.ValidateLogLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	return nil
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string
	if c.Calculator.MaxEntryDigits <= 0 {
		warnings = append(warnings, fmt.Sprintf("calculator.maxEntryDigits %d is not positive; using %d",
			c.Calculator.MaxEntryDigits, constants.DefaultMaxEntryDigits))
	}
	if c.Calculator.HistorySize <= 0 {
		warnings = append(warnings, fmt.Sprintf("calculator.historySize %d is not positive; using %d",
			c.Calculator.HistorySize, constants.DefaultHistorySize))
	}
	if c.Solver.Iterations <= 0 {
		warnings = append(warnings, fmt.Sprintf("solver.iterations %d is not positive; using %d",
			c.Solver.Iterations, constants.DefaultSolverIterations))
	}
	if c.Solver.Tolerance <= 0 {
		warnings = append(warnings, fmt.Sprintf("solver.tolerance %g is not positive; using %g",
			c.Solver.Tolerance, constants.DefaultSolverTolerance))
	}
	if c.Solver.InitialGuess <= -1 {
		warnings = append(warnings, fmt.Sprintf("solver.initialGuess %g is at or below -100%%; rate solves will fail", c.Solver.InitialGuess))
	}
	return warnings
}

// EngineOptions builds the engine options described by the configuration.
func (c *Configuration) EngineOptions(logger *zap.Logger) calculator.Options {
	iterations := c.Solver.Iterations
	if iterations <= 0 {
		iterations = constants.DefaultSolverIterations
	}
	return calculator.Options{
		Precision:      c.Calculator.Precision,
		MaxEntryDigits: c.Calculator.MaxEntryDigits,
		DivideByZero:   c.Calculator.DivideByZero,
		Solver:         tvm.NewSolver(logger, iterations, c.Solver.Tolerance, c.Solver.InitialGuess),
	}
}

// NewSession builds a calculator session wired with the configured engine,
// display locale and history size.
func (c *Configuration) NewSession(logger *zap.Logger) (*calculator.Session, error) {
	formatter, err := format.NewFormatter(c.Calculator.Locale)
	if err != nil {
		return nil, fmt.Errorf("failed to create display formatter: %w", err)
	}
	engine := calculator.NewEngine(logger, c.EngineOptions(logger))
	return calculator.NewSession(logger, engine, formatter, c.Calculator.HistorySize), nil
}
