package main

import (
	"os"
	"time"

	"safespend/internal/cli"
	apphttp "safespend/internal/http"
	applog "safespend/internal/log"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), nil)
	cfg := cli.LoadAndValidateConfig(logger, nil)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	sess, err := cli.NewSession(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize session", applog.FieldError, err)
		os.Exit(1)
	}
	defer sess.Close()

	srv := apphttp.NewServer(apphttp.Options{
		Addr:            ":" + cfg.Port,
		Session:         sess,
		Logger:          logger,
		AdviceRateLimit: cfg.AdviceRateLimit,
		DataDir:         cli.DataDir(cfg),
		AdvisorEnabled:  cfg.AdvisorEnabled(),
	})

	// Advice calls may take up to AdviceTimeout.
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = cfg.AdviceTimeout + 10*time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	logger.Info("Starting safespend server",
		"port", cfg.Port,
		"data_file", cfg.DataFile,
		"advisor", cfg.AdvisorEnabled(),
		"events", cfg.AMQPEnabled())
	if err := cli.ServeUntilDone(ctx, logger, srv, 30*time.Second); err != nil {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		sess.Close()
		os.Exit(1)
	}
}
