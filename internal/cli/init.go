// Package cli provides common initialization utilities shared by
// cmd/safespend, cmd/safespend-worker and cmd/safespend-cli.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	openaiadv "safespend/internal/advisor/openai"
	"safespend/internal/amqp"
	"safespend/internal/config"
	applog "safespend/internal/log"
	"safespend/internal/ports"
	"safespend/internal/services"
	gsheet "safespend/internal/sheets/google"
	"safespend/internal/storage"
)

// SetupLogger initializes structured logging at the given level and sets it
// as the default logger. A nil out means stdout.
func SetupLogger(level string, out io.Writer) *applog.Logger {
	cfg := applog.DefaultConfig()
	cfg.Level = applog.ParseLevel(level)
	if out != nil {
		cfg.Output = out
	}
	logger := applog.New(cfg)
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it with validate.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *applog.Logger, validate func(*config.Config) error) *config.Config {
	cfg := config.Load()
	if validate == nil {
		validate = (*config.Config).Validate
	}
	if err := validate(cfg); err != nil {
		logger.Error("Configuration validation failed",
			applog.FieldError, err, applog.FieldErrorType, applog.ErrorTypeConfiguration)
		os.Exit(1)
	}
	return cfg
}

// Session bundles a SessionController with the resources it holds open.
type Session struct {
	*services.SessionController
	Store *storage.CSVStore
	close []func() error
}

// Close releases the notifier connection, if any.
func (s *Session) Close() error {
	var errs []error
	for _, fn := range s.close {
		errs = append(errs, fn())
	}
	return errors.Join(errs...)
}

// NewSession wires the record store, the advisor and the optional event
// notifier. A broker that cannot be reached only disables notifications.
func NewSession(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*Session, error) {
	store := NewStore(cfg, logger)

	adv, err := NewAdvisor(cfg, logger)
	if err != nil {
		return nil, err
	}

	sess := &Session{Store: store}
	opts := services.Options{
		Logger:        logger.WithComponent(applog.ComponentSession).Slog(),
		AdviceTimeout: cfg.AdviceTimeout,
	}
	if cfg.AMQPEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger.WithComponent(applog.ComponentAMQP).Slog())
		if err != nil {
			logger.Warn("AMQP unavailable, snapshot events disabled", applog.FieldError, err)
		} else {
			opts.Notifier = client
			sess.close = append(sess.close, client.Close)
			logger.Info("Publishing snapshot events", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	var advisor ports.Advisor
	if adv != nil {
		advisor = adv
	}
	sess.SessionController = services.NewSessionController(ctx, store, advisor, opts)
	return sess, nil
}

// NewStore returns the flat-file record store at cfg.DataFile.
func NewStore(cfg *config.Config, logger *applog.Logger) *storage.CSVStore {
	return storage.NewCSVStore(cfg.DataFile, logger.WithComponent(applog.ComponentStore).Slog())
}

// NewAdvisor returns the OpenAI gateway, or nil when no API key is set.
func NewAdvisor(cfg *config.Config, logger *applog.Logger) (*openaiadv.Client, error) {
	if !cfg.AdvisorEnabled() {
		logger.Warn("OPENAI_API_KEY not set, financial advice disabled")
		return nil, nil
	}
	client, err := openaiadv.New(openaiadv.Config{
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.OpenAIModel,
		BaseURL: cfg.OpenAIBaseURL,
		Timeout: cfg.AdviceTimeout,
		Logger:  logger.WithComponent(applog.ComponentAdvisor).Slog(),
	})
	if err != nil {
		return nil, fmt.Errorf("advisor: %w", err)
	}
	return client, nil
}

// NewMirror returns the Google Sheets mirror described by cfg.
func NewMirror(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*gsheet.Client, error) {
	return gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	}, logger.WithComponent(applog.ComponentSheets).Slog())
}

// DataDir returns the directory holding the data file.
func DataDir(cfg *config.Config) string {
	return filepath.Dir(cfg.DataFile)
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(logger *applog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// Shutdowner is a server that can drain gracefully.
type Shutdowner interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// ServeUntilDone runs srv until ctx is cancelled, then gives it timeout to
// drain in-flight requests.
func ServeUntilDone(ctx context.Context, logger *applog.Logger, srv Shutdowner, timeout time.Duration) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
			return err
		}
		logger.Info("Server stopped gracefully")
		return nil
	})
	return g.Wait()
}
