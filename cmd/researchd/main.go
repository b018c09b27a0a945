package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	autoresearch "github.com/autoresearch/autoresearch"
	"github.com/autoresearch/autoresearch/internal/storage"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	dbPath := flag.String("db", "", "path to SQLite database (overrides config)")
	addr := flag.String("addr", ":8000", "listen address")
	ollamaURL := flag.String("ollama", "", "Ollama base URL (overrides config)")
	model := flag.String("model", "", "Ollama model (overrides config)")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	cfg := storage.DefaultConfig()
	if *configPath != "" {
		data, err := os.ReadFile(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "researchd: read config: %v\n", err)
			os.Exit(1)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "researchd: parse config: %v\n", err)
			os.Exit(1)
		}
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}
	if *ollamaURL != "" {
		cfg.Ollama.BaseURL = *ollamaURL
	}
	if *model != "" {
		cfg.Ollama.Model = *model
	}

	engine, err := autoresearch.NewEngineFromConfig(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "researchd: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	mux := newRouter(engine)

	srv := &http.Server{
		Addr:         *addr,
		Handler:      logging(logger, recovery(logger, mux)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 10 * time.Minute, // report generation is slow
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info().Str("addr", *addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-done
	logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("shutdown error")
	}
	logger.Info().Msg("stopped")
}
