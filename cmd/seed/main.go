package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/meur/vgcatalog/internal/config"
	"github.com/meur/vgcatalog/internal/logger"
	"github.com/meur/vgcatalog/internal/models"
	"github.com/meur/vgcatalog/internal/query"
	"github.com/meur/vgcatalog/internal/service"
	"github.com/meur/vgcatalog/internal/storage"
	"github.com/spf13/pflag"
)

type seedFile struct {
	Items   []models.ItemFields   `json:"items"`
	Reviews []models.ReviewCreate `json:"reviews"`
}

func main() {
	fs := pflag.NewFlagSet("seed", pflag.ExitOnError)
	config.RegisterFlags(fs)
	seedPath := fs.String("seed", "./seeds/sample.json", "Seed JSON file")
	fs.Parse(os.Args[1:])

	cfg, err := config.LoadFlags(fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.Log.Logger())
	log := logger.GetDefault()
	ctx := logger.ContextWithLogger(context.Background(), log)

	store, err := storage.Open(ctx, cfg.Database.Storage())
	if err != nil {
		log.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := seed(ctx, store, cfg, *seedPath); err != nil {
		log.Error("Seeding failed", "file", *seedPath, "error", err)
		os.Exit(1)
	}
	log.Info("Seeding complete")
}

func seed(ctx context.Context, store *storage.Store, cfg *config.Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var file seedFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	n, err := store.BulkCreateItems(ctx, file.Items)
	if err != nil {
		return err
	}
	logger.FromContext(ctx).Info("Seeded sales", "count", n)

	// Reviews go through the service so they get the same validation and
	// id linkage as the API.
	catalog := service.NewCatalog(store, query.NewBuilder(query.SalesColumns, store.Placeholder()), cfg.Listing.Limits())
	added := seedReviews(ctx, catalog, file.Reviews)
	logger.FromContext(ctx).Info("Seeded reviews", "count", added, "skipped", len(file.Reviews)-added)
	return nil
}

// seedReviews adds each review and returns how many were stored.
func seedReviews(ctx context.Context, catalog *service.Catalog, reviews []models.ReviewCreate) int {
	added := 0
	for _, r := range reviews {
		if _, err := catalog.AddReview(ctx, r); err != nil {
			logger.FromContext(ctx).Warn("Skipping review", "item", r.ItemRef.String(), "error", err)
			continue
		}
		added++
	}
	return added
}
