// Command promptledgerd serves a ledger over HTTP backed by the in-memory store.
//
// Environment (a .env file in the working directory is loaded first):
//
//	PROMPTLEDGER_CONFIG              program config YAML (default "promptledger.yaml")
//	PROMPTLEDGER_PROGRAM_ID          overrides solana.program.id from the config file
//	PROMPTLEDGER_ADDR                listen address (default ":8080")
//	PROMPTLEDGER_BASE_PATH           route prefix (default "/api")
//	PROMPTLEDGER_FAUCET              "true" enables POST /airdrop
//	PROMPTLEDGER_REQUIRE_SIGNATURES  "false" allows trusted in-process writes
//	PROMPTLEDGER_LOG_LEVEL           debug, info, warn or error
//	PROMPTLEDGER_JOURNAL_RETENTION   drop journaled interactions older than this (e.g. "720h")
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xraph/promptledger"
	"github.com/xraph/promptledger/address"
	"github.com/xraph/promptledger/api"
	audithook "github.com/xraph/promptledger/audit_hook"
	"github.com/xraph/promptledger/observability"
	"github.com/xraph/promptledger/store/memory"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("promptledgerd: could not load .env", "error", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel()}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("promptledgerd: exiting", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	programID, err := resolveProgramID()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	audit := audithook.New(audithook.RecorderFunc(func(_ context.Context, evt *audithook.AuditEvent) error {
		logger.Info("audit",
			"action", evt.Action,
			"resource", evt.Resource,
			"resource_id", evt.ResourceID,
			"outcome", evt.Outcome,
			"severity", evt.Severity,
		)
		return nil
	}), audithook.WithLogger(logger))

	retention, err := time.ParseDuration(envOr("PROMPTLEDGER_JOURNAL_RETENTION", "0s"))
	if err != nil {
		return promptledger.ValidationError{Field: "PROMPTLEDGER_JOURNAL_RETENTION", Message: err.Error()}
	}

	ledger, err := promptledger.New(memory.New(), programID,
		promptledger.WithLogger(logger),
		promptledger.WithPlugin(observability.NewMetricsExtension(observability.NewPrometheusFactory(reg))),
		promptledger.WithPlugin(audit),
		promptledger.WithSignatureVerification(envOr("PROMPTLEDGER_REQUIRE_SIGNATURES", "true") != "false"),
		promptledger.WithJournalRetention(retention),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := ledger.Start(ctx); err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	router := api.New(ledger,
		api.WithLogger(logger),
		api.WithFaucet(envOr("PROMPTLEDGER_FAUCET", "false") == "true"),
	).Router(envOr("PROMPTLEDGER_BASE_PATH", "/api"))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	srv := &http.Server{
		Addr:              envOr("PROMPTLEDGER_ADDR", ":8080"),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("promptledgerd: listening", "addr", srv.Addr, "program_id", programID.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			_ = ledger.Stop()
			return err
		}
	case <-ctx.Done():
		logger.Info("promptledgerd: shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("promptledgerd: http shutdown", "error", err)
	}
	return ledger.Stop()
}

// resolveProgramID prefers PROMPTLEDGER_PROGRAM_ID over the config file.
func resolveProgramID() (address.PublicKey, error) {
	if raw := os.Getenv("PROMPTLEDGER_PROGRAM_ID"); raw != "" {
		return address.Parse(raw)
	}
	cfg, err := promptledger.LoadProgramConfig(envOr("PROMPTLEDGER_CONFIG", "promptledger.yaml"))
	if err != nil {
		return address.PublicKey{}, err
	}
	return cfg.ProgramID()
}

func logLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(envOr("PROMPTLEDGER_LOG_LEVEL", "info"))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
