package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/buildsignals/buildsignals/app/api"
	"github.com/buildsignals/buildsignals/app/cfg"
	"github.com/buildsignals/buildsignals/app/database"
	"github.com/buildsignals/buildsignals/app/evidence"
	"github.com/buildsignals/buildsignals/app/jsonl"
	"github.com/buildsignals/buildsignals/app/llm"
	sig "github.com/buildsignals/buildsignals/app/signal"
	"github.com/buildsignals/buildsignals/app/source"
	"github.com/buildsignals/buildsignals/app/tasks"
	"github.com/buildsignals/buildsignals/app/validator"
)

const (
	evidenceTimeout = 20 * time.Second
	enrichTimeout   = 15 * time.Second
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting Build Signals server", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "migration_version", version, "dirty", dirty)

	configCache := source.NewConfigCache(appCfg.SourcesDir)
	if err := configCache.Run(); err != nil {
		slog.Error("Failed to load source configurations", "dir", appCfg.SourcesDir, "error", err)
		os.Exit(1)
	}
	slog.Info("Source configurations loaded", "count", configCache.GetConfigCount())

	signalRepo := database.NewSignalRepository(db)
	oppRepo := database.NewOpportunityRepository(db)

	if appCfg.ImportSignals != "" {
		imported, err := jsonl.ReadSignals(appCfg.ImportSignals)
		if err != nil {
			slog.Error("Failed to read signal import file", "path", appCfg.ImportSignals, "error", err)
			os.Exit(1)
		}
		written, err := signalRepo.UpsertSignals(imported)
		if err != nil {
			slog.Error("Failed to import signals", "path", appCfg.ImportSignals, "error", err)
			os.Exit(1)
		}
		slog.Info("Signals imported", "path", appCfg.ImportSignals, "loaded", len(imported), "written", written)
	}

	llmClient, err := llm.NewAnthropicClient(appCfg.AnthropicAPIKey, appCfg.Model,
		time.Duration(appCfg.LLMTimeout)*time.Second)
	if err != nil {
		slog.Error("Failed to create LLM client", "error", err)
		os.Exit(1)
	}

	scorer := llm.NewScorer(llmClient, appCfg.BatchSize)
	classifier := llm.NewClassifier(llmClient, appCfg.BatchSize)
	synthesizer := llm.NewSynthesizer(llmClient)
	drafter := llm.NewDrafter(llmClient)

	httpClient := &http.Client{Timeout: 30 * time.Second}

	collectors := validator.Collectors{}
	if appCfg.TrendsEnabled {
		collectors.Trends = evidence.NewTrendsCollector(httpClient, appCfg.UserAgent, evidenceTimeout)
	}
	if appCfg.ProductHuntEnabled {
		fallbackPath := filepath.Join(appCfg.DataDir, "product_hunt_snapshot.jsonl")
		collectors.ProductHunt = evidence.NewProductHuntCollector(httpClient, appCfg.ProductHuntToken,
			appCfg.UserAgent, evidenceTimeout, fallbackPath)
	}
	if appCfg.GithubEnabled {
		collectors.Github = evidence.NewGithubCollector(httpClient, appCfg.GithubToken,
			appCfg.UserAgent, evidenceTimeout)
	}

	reducer := sig.NewReducer(configCache.Thresholds())
	enricher := validator.NewContextEnricher(httpClient, appCfg.UserAgent, enrichTimeout)

	v := validator.New(classifier, synthesizer, enricher, reducer, collectors, appCfg.Model)

	slog.Info("Starting background scheduler", "workers", appCfg.WorkerCount)
	scheduler := tasks.NewScheduler(configCache, signalRepo, oppRepo, httpClient, scorer, drafter, v)
	scheduler.Start()
	defer scheduler.Stop()

	apiHandler := api.NewHandler(configCache, signalRepo, oppRepo, scheduler)
	server := api.NewServer(apiHandler)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case s := <-sigChan:
		slog.Info("Received signal, shutting down", "signal", s.String())
	case err := <-serverErrChan:
		slog.Error("Server error, shutting down", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Scheduler is stopped via defer
	slog.Info("Shutdown complete")
}
