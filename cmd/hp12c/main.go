package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/iwvelando/hp12c/internal/calculator"
	"github.com/iwvelando/hp12c/internal/config"
	"github.com/iwvelando/hp12c/internal/server"
	"github.com/iwvelando/hp12c/pkg/constants"
	"github.com/iwvelando/hp12c/pkg/output"
	"github.com/iwvelando/hp12c/pkg/validation"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

var dotenvErr error

func init() {
	dotenvErr = godotenv.Load()
}

// resolveLogFormat returns format, or the default encoding when it is unset.
func resolveLogFormat(format string) string {
	if format == "" {
		return constants.DefaultLogFormat
	}
	return format
}

// initializeLogger creates a zap logger based on configuration and CLI override
func initializeLogger(loggingConfig config.LoggingConfig, logLevelOverride string) (*zap.Logger, error) {
	// Determine log level (CLI override takes precedence)
	level := loggingConfig.Level
	if logLevelOverride != "" {
		level = logLevelOverride
	}
	if level == "" {
		level = constants.DefaultLogLevel
	}

	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn", "warning":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("invalid log level: %s", level)
	}

	format := resolveLogFormat(loggingConfig.Format)

	var config zap.Config
	switch format {
	case constants.LogFormatConsole:
		config = zap.NewDevelopmentConfig()
		config.Level = zap.NewAtomicLevelAt(zapLevel)
	case constants.LogFormatJSON:
		config = zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zapLevel)
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}

	// Keep stdout for calculator output.
	config.OutputPaths = []string{"stderr"}

	if loggingConfig.OutputFile != "" {
		if dir := filepath.Dir(loggingConfig.OutputFile); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
			}
		}

		// Test if we can create/write to the file
		file, err := os.OpenFile(loggingConfig.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", loggingConfig.OutputFile, err)
		}
		_ = file.Close()

		config.OutputPaths = []string{loggingConfig.OutputFile}
		config.ErrorOutputPaths = []string{loggingConfig.OutputFile}
	}

	return config.Build()
}

// mergeLogging overlays the non-empty fields of override onto base.
func mergeLogging(base, override config.LoggingConfig) config.LoggingConfig {
	if override.Level != "" {
		base.Level = override.Level
	}
	if override.Format != "" {
		base.Format = override.Format
	}
	if override.OutputFile != "" {
		base.OutputFile = override.OutputFile
	}
	return base
}

// resolveConfigPath returns "" when the default config file is absent so the
// built-in defaults apply. An explicitly named file must exist.
func resolveConfigPath(path string, explicit bool) string {
	if explicit {
		return path
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return ""
	}
	return path
}

// runKeys presses one sequence of key tokens and renders the result.
func runKeys(w io.Writer, session *calculator.Session, tokens []string, outputFormat string) error {
	snap, err := session.PressTokens(tokens...)
	if err != nil {
		return err
	}
	return output.Write(w, outputFormat, snap, session.Formatter())
}

// runInteractive treats each input line as a key sequence until EOF or a
// line reading "quit". A bad line is reported and skipped.
func runInteractive(r io.Reader, w io.Writer, session *calculator.Session, outputFormat string, logger *zap.Logger) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		tokens := strings.Fields(scanner.Text())
		if len(tokens) == 0 {
			continue
		}
		if len(tokens) == 1 && (tokens[0] == "quit" || tokens[0] == "exit") {
			return nil
		}
		if err := runKeys(w, session, tokens, outputFormat); err != nil {
			logger.Warn("rejected key sequence",
				zap.String("op", "main.runInteractive"),
				zap.Error(err),
			)
			_, _ = fmt.Fprintf(w, "error: %v\n", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read keys: %w", err)
	}
	return nil
}

func serve(logger *zap.Logger, session *calculator.Session, srvCfg *server.Config) error {
	srv := &http.Server{
		Addr:              srvCfg.Address,
		Handler:           server.NewHandler(logger, session, srvCfg.MaxKeys, version),
		ReadTimeout:       srvCfg.ReadTimeoutDuration(),
		ReadHeaderTimeout: srvCfg.ReadTimeoutDuration(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("keypad server listening",
			zap.String("op", "main.serve"),
			zap.String("address", srvCfg.Address),
			zap.String("session", session.ID().String()),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger.Info("shutting down keypad server", zap.String("op", "main.serve"))
	return srv.Shutdown(shutdownCtx)
}

func main() {
	// Process command line flags first to get config location
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, json")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	keys := flag.String("keys", "", "space separated key sequence to run, e.g. \"100 enter 50 +\"")
	serveFlag := flag.Bool("serve", false, "serve the keypad HTTP API instead of reading keys")
	serverConfigLocation := flag.String("server-config", constants.DefaultServerConfigFile, "path to server configuration file")
	flag.Parse()

	explicitConfig := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			explicitConfig = true
		}
	})

	conf, err := config.LoadConfiguration(resolveConfigPath(*configLocation, explicitConfig))
	if err != nil {
		fmt.Fprintf(os.Stderr, "{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	var srvCfg *server.Config
	loggingConfig := conf.Logging
	if *serveFlag {
		srvCfg, err = server.LoadConfig(*serverConfigLocation)
		if err != nil {
			fmt.Fprintf(os.Stderr, "{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load server configuration at %s\", \"error\": \"%v\"}\n", *serverConfigLocation, err)
			os.Exit(1)
		}
		loggingConfig = mergeLogging(loggingConfig, srvCfg.Logging)
	}

	logger, err := initializeLogger(loggingConfig, *logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if dotenvErr != nil {
		logger.Debug("no .env file found, relying on environment variables",
			zap.String("op", "main"),
		)
	}

	// Determine output format (CLI override takes precedence over config)
	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}

	err = validation.ValidateOutputFormat(outputFormat)
	if err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	// Validate configuration and display any warnings
	warnings := conf.ValidateConfiguration()
	for _, warning := range warnings {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	session, err := conf.NewSession(logger)
	if err != nil {
		logger.Fatal("failed to create calculator session",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	switch {
	case *serveFlag:
		err = serve(logger, session, srvCfg)
	case *keys != "":
		err = runKeys(os.Stdout, session, strings.Fields(*keys), outputFormat)
	default:
		err = runInteractive(os.Stdin, os.Stdout, session, outputFormat, logger)
	}
	if err != nil {
		logger.Fatal("calculator run failed",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}
