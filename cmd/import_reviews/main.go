package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/meur/vgcatalog/internal/config"
	"github.com/meur/vgcatalog/internal/dataset"
	"github.com/meur/vgcatalog/internal/logger"
	"github.com/meur/vgcatalog/internal/models"
	"github.com/meur/vgcatalog/internal/storage"
	"github.com/spf13/pflag"
)

var (
	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	infoStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
)

func fatal(format string, args ...any) {
	fmt.Fprintln(os.Stderr, errStyle.Render("✗ "+fmt.Sprintf(format, args...)))
	os.Exit(1)
}

// linker resolves review names to sales ids, remembering misses too.
type linker struct {
	store *storage.Store
	ids   map[string]*int64
}

func (l *linker) resolve(ctx context.Context, name string) (*int64, error) {
	key := strings.ToLower(name)
	if id, ok := l.ids[key]; ok {
		return id, nil
	}
	item, err := l.store.FindItemByName(ctx, name)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		l.ids[key] = nil
		return nil, nil
	case err != nil:
		return nil, err
	}
	l.ids[key] = &item.ID
	return &item.ID, nil
}

func main() {
	fs := pflag.NewFlagSet("import_reviews", pflag.ExitOnError)
	config.RegisterFlags(fs)
	csvPath := fs.String("csv", "datasets/dataset.csv", "Path to the Steam reviews CSV export")
	batch := fs.Int("batch", dataset.DefaultBatchSize, "Rows inserted per transaction")
	dryRun := fs.Bool("dry-run", false, "Parse and print a summary without writing to the database")
	fs.Parse(os.Args[1:])

	cfg, err := config.LoadFlags(fs)
	if err != nil {
		fatal("Failed to load configuration: %v", err)
	}
	logger.Init(cfg.Log.Logger())
	ctx := logger.ContextWithLogger(context.Background(), logger.GetDefault())

	f, err := os.Open(*csvPath)
	if err != nil {
		fatal("Failed to open reviews CSV: %v", err)
	}
	defer f.Close()

	store, err := storage.Open(ctx, cfg.Database.Storage())
	if err != nil {
		fatal("Failed to connect to database: %v", err)
	}
	defer store.Close()

	l := &linker{store: store, ids: map[string]*int64{}}
	linked, legacy := 0, 0
	insert := func(rows []dataset.ReviewRow) error {
		reviews := make([]models.Review, 0, len(rows))
		for _, row := range rows {
			id, err := l.resolve(ctx, row.AppName)
			if err != nil {
				return err
			}
			if id != nil {
				linked++
			} else {
				legacy++
			}
			reviews = append(reviews, row.Review(id))
		}
		if *dryRun {
			return nil
		}
		_, err := store.BulkCreateReviews(ctx, reviews)
		return err
	}

	fmt.Println(infoStyle.Render("📦 Importing " + *csvPath))
	st, err := dataset.ReadReviews(f, *batch, insert)
	if err != nil {
		fatal("Import stopped after %d rows: %v", st.Kept, err)
	}

	if legacy > 0 {
		fmt.Println(warnStyle.Render(fmt.Sprintf("⚠ %d review(s) kept a name link only; run relink_reviews after importing sales", legacy)))
	}
	if *dryRun {
		fmt.Printf("Dry run: would import %d reviews (linked %d, skipped %d)\n", st.Kept, linked, st.Skipped)
		return
	}
	fmt.Println(okStyle.Render(fmt.Sprintf("✓ Imported %d reviews (linked %d, skipped %d)", st.Kept, linked, st.Skipped)))
}
