package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/meur/vgcatalog/internal/config"
	"github.com/meur/vgcatalog/internal/logger"
	"github.com/meur/vgcatalog/internal/storage"
	"github.com/spf13/pflag"
)

// relink_reviews moves name-linked reviews onto the canonical id link.
func main() {
	fs := pflag.NewFlagSet("relink_reviews", pflag.ExitOnError)
	config.RegisterFlags(fs)
	dryRun := fs.Bool("dry-run", false, "Report matches without updating reviews")
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
		log.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	names, err := store.LegacyReviewNames(ctx)
	if err != nil {
		log.Error("Failed to list legacy reviews", "error", err)
		os.Exit(1)
	}
	log.Info("Loaded legacy review names", "count", len(names))

	var updated int64
	notFound := 0
	for _, name := range names {
		item, err := store.FindItemByName(ctx, name)
		if errors.Is(err, storage.ErrNotFound) {
			notFound++
			continue
		}
		if err != nil {
			log.Error("Failed to resolve name", "name", name, "error", err)
			continue
		}
		if *dryRun {
			log.Info("Would link", "name", name, "id", item.ID)
			continue
		}
		n, err := store.LinkReviews(ctx, name, item.ID)
		if err != nil {
			log.Error("Failed to link reviews", "name", name, "error", err)
			continue
		}
		updated += n
	}

	fmt.Printf("Linked: %d reviews\n", updated)
	fmt.Printf("Not found: %d names\n", notFound)
}
