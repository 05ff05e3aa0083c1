package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/meur/vgcatalog/internal/client"
	"github.com/meur/vgcatalog/internal/logger"
	"github.com/meur/vgcatalog/internal/models"
	"github.com/meur/vgcatalog/internal/viewstate"
	"github.com/spf13/pflag"
)

// browse renders one page of the catalog, as a shared link would show it,
// or with -i opens an interactive browser starting from that page.
//
//	browse --api http://localhost:5000 --query 'page=2&limit=5&sort_by=year&sort_order=DESC&general=mario'
func main() {
	apiURL := pflag.String("api", "http://localhost:5000", "Catalog API base URL")
	rawQuery := pflag.String("query", "", "Listing query string, as found in a shared URL")
	reviews := pflag.String("reviews", "", "Also show the reviews of this game (id or name)")
	timeout := pflag.Duration("timeout", viewstate.DefaultTimeout, "Per-request timeout")
	verbose := pflag.BoolP("verbose", "v", false, "Log API requests")
	interactive := pflag.BoolP("interactive", "i", false, "Browse interactively with keyboard paging, sorting and search")
	pflag.Parse()

	logCfg := logger.DefaultConfig()
	logCfg.Output = os.Stderr
	if *verbose {
		logCfg.Level = logger.DebugLevel
	}
	logger.Init(logCfg)
	ctx := logger.ContextWithLogger(context.Background(), logger.GetDefault())

	api, err := client.New(client.Config{BaseURL: *apiURL, Timeout: *timeout, RetryCount: 2})
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
		os.Exit(1)
	}

	if *interactive {
		// Logs would tear the alternate screen.
		logCfg.Level = logger.ErrorLevel
		logger.Init(logCfg)
		url, err := runInteractive(ctx, api, viewstate.Options{Timeout: *timeout}, *rawQuery)
		if err != nil {
			fmt.Fprintln(os.Stderr, errorStyle.Render("✗ "+err.Error()))
			os.Exit(1)
		}
		fmt.Println(mutedStyle.Render("?" + url))
		return
	}

	ctrl := viewstate.NewController(api, viewstate.Options{
		Timeout: *timeout,
		Notify: func(err error) {
			fmt.Fprintln(os.Stderr, errorStyle.Render("✗ "+err.Error()))
		},
	})
	st, err := ctrl.Restore(ctx, *rawQuery)
	if err != nil {
		os.Exit(2)
	}
	fmt.Println(renderPage(st))
	fmt.Println(mutedStyle.Render("?" + ctrl.URL()))
	if st.Status == viewstate.Failed {
		os.Exit(1)
	}

	if *reviews != "" {
		panel := viewstate.NewReviewPanel(api, 10, func(err error) {
			fmt.Fprintln(os.Stderr, errorStyle.Render("✗ "+err.Error()))
		})
		rctx, cancel := context.WithTimeout(ctx, 2*(*timeout+time.Second))
		defer cancel()
		list, err := panel.Open(rctx, models.ItemRef(*reviews))
		if err != nil {
			os.Exit(1)
		}
		fmt.Println(renderReviews(*reviews, list))
	}
}
