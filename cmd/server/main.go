package main

import (
	"context"
	"time"

	"mailmind/internal/config"
	"mailmind/internal/database"
	"mailmind/internal/embeddings"
	"mailmind/internal/llm"
	"mailmind/internal/rag"
	"mailmind/internal/server"
	"mailmind/internal/storage"
)

// @title mailmind API
// @version 1.0
// @description Retrieval-augmented question answering over a synced email mailbox
// @BasePath /
func main() {
	// Load configuration
	cfg := config.Load()

	// Setup logger
	logger := cfg.SetupLogger()

	// Initialize database connection
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Database connection failed")
	}
	logger.Info().Msg("Database connection established successfully")

	store := storage.NewPostgres(db, logger)

	schemaCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := store.EnsureSchema(schemaCtx); err != nil {
		logger.Fatal().Err(err).Msg("Schema setup failed")
	}

	embedder, err := embeddings.NewOpenAIEmbedder(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Embedder setup failed")
	}

	generator, err := llm.New(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("LLM setup failed")
	}
	logger.Info().Str("provider", generator.Name()).Msg("LLM provider configured")

	engine := rag.NewEngine(store, embedder, generator, rag.Options{
		TopK:                cfg.TopK,
		SimilarityThreshold: cfg.SimilarityThreshold,
		HighConfidence:      cfg.HighConfidence,
		MediumConfidence:    cfg.MediumConfidence,
		CountingLimit:       cfg.CountingLimit,
		CountingThreshold:   cfg.CountingThreshold,
	}, logger)
	engine.SetAuditLog(store)

	// Create and initialize server
	srv := server.New(cfg, db, store, engine, logger)
	srv.Initialize()

	// Start server
	if err := srv.Start(); err != nil {
		logger.Fatal().Err(err).Msg("Server failed to start")
	}
}
