package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"registro/internal/advisor"
	openaigen "registro/internal/advisor/openai"
	"registro/internal/amqp"
	"registro/internal/backend"
	"registro/internal/cli"
	apphttp "registro/internal/http"
	"registro/internal/services"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Wire the configured ledger backend
	factory := backend.NewFactory(logger.Logger)
	result, err := factory.CreateStore(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize ledger backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup failed", "error", err)
			}
		}()
	}

	// Event bus is optional: without AMQP_URL the ledger still works,
	// only the mirror worker stays blind.
	var events services.EventPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		events = amqpClient
		logger.Info("AMQP event bus enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	svc := services.NewLedgerService(result.Store, events)

	// Advisory generator is optional as well
	var gen advisor.Generator
	if cfg.OpenAIAPIKey != "" {
		client, err := openaigen.New(openaigen.Options{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
		})
		if err != nil {
			logger.Error("Failed to initialize advisory client", "error", err)
			os.Exit(1)
		}
		gen = client
		logger.Info("Advisory service enabled", "model", cfg.OpenAIModel)
	} else {
		logger.Info("Advisory disabled - no OPENAI_API_KEY provided")
	}
	adv := advisor.NewService(gen)

	multiTenant := backend.BackendType(cfg.DataBackend).MultiTenant()
	srv := apphttp.NewServer(":"+cfg.Port, svc, adv, cfg.Rules(), multiTenant, logger)

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting registro server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
		case <-gctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
