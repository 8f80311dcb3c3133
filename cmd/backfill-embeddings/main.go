package main

import (
	"context"
	"flag"

	"mailmind/internal/config"
	"mailmind/internal/database"
	"mailmind/internal/embeddings"
	"mailmind/internal/storage"
)

func main() {
	batchSize := flag.Int("batch-size", 50, "messages to embed per batch")
	flag.Parse()

	cfg := config.Load()
	logger := cfg.SetupLogger()

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Database connection failed")
	}
	defer db.Close()

	store := storage.NewPostgres(db, logger)

	embedder, err := embeddings.NewOpenAIEmbedder(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Embedder setup failed")
	}

	backfill := embeddings.NewBackfill(store, embedder, logger)

	ctx := context.Background()
	total := 0
	for {
		updated, err := backfill.Run(ctx, *batchSize)
		if err != nil {
			logger.Fatal().Err(err).Int("updated", total).Msg("Backfill failed")
		}
		if updated == 0 {
			break
		}
		total += updated
		logger.Info().Int("updated", updated).Int("total", total).Msg("Batch embedded")
	}

	logger.Info().Int("total", total).Msg("Backfill complete")
}
