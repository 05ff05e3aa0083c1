package main

import (
	"context"
	"fmt"
	"os"

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
	infoStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
)

func fatal(format string, args ...any) {
	fmt.Fprintln(os.Stderr, errStyle.Render("✗ "+fmt.Sprintf(format, args...)))
	os.Exit(1)
}

func main() {
	fs := pflag.NewFlagSet("import_sales", pflag.ExitOnError)
	config.RegisterFlags(fs)
	csvPath := fs.String("csv", "datasets/vgsales.csv", "Path to the vgsales CSV export")
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
		fatal("Failed to open sales CSV: %v", err)
	}
	defer f.Close()

	insert := func([]models.ItemFields) error { return nil }
	if !*dryRun {
		store, err := storage.Open(ctx, cfg.Database.Storage())
		if err != nil {
			fatal("Failed to connect to database: %v", err)
		}
		defer store.Close()
		insert = func(batch []models.ItemFields) error {
			n, err := store.BulkCreateItems(ctx, batch)
			logger.FromContext(ctx).Debug("Inserted batch", "rows", n)
			return err
		}
	}

	fmt.Println(infoStyle.Render("📦 Importing " + *csvPath))
	st, err := dataset.ReadSales(f, *batch, insert)
	if err != nil {
		fatal("Import stopped after %d rows: %v", st.Kept, err)
	}

	if *dryRun {
		fmt.Printf("Dry run: would import %d sales rows (read %d, skipped %d)\n", st.Kept, st.Read, st.Skipped)
		return
	}
	fmt.Println(okStyle.Render(fmt.Sprintf("✓ Imported %d sales rows (skipped %d)", st.Kept, st.Skipped)))
}
