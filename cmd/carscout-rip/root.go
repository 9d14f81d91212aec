package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/use-agent/carscout/config"
	"github.com/use-agent/carscout/dom"
	"github.com/use-agent/carscout/extractor"
	"github.com/use-agent/carscout/harvest"
	"github.com/use-agent/carscout/imageres"
	"github.com/use-agent/carscout/models"
	"github.com/use-agent/carscout/scraper"
	"github.com/use-agent/carscout/sink"
)

// pageFlags select the page a command works on.
type pageFlags struct {
	url       string
	file      string
	pageURL   string
	fetchMode string
	stealth   bool
	timeout   int
	debug     bool
}

func newRootCommand() *cobra.Command {
	var pf pageFlags

	root := &cobra.Command{
		Use:   "carscout-rip",
		Short: "Harvest vehicle listings from a Facebook Marketplace page",
		Long: `Harvest vehicle listings from a Facebook Marketplace page.

The page is either rendered from --url through the configured engines, or
read from a saved HTML file given with --file (and --page-url, the address
it was saved from).

Example:
  carscout-rip count --url "https://www.facebook.com/marketplace/seattle/vehicles?query=civic"
  carscout-rip export --file saved.html --page-url "https://www.facebook.com/marketplace/category/cars" --out cars.csv`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&pf.url, "url", "", "marketplace URL to render")
	flags.StringVar(&pf.file, "file", "", "saved page HTML to read instead of rendering")
	flags.StringVar(&pf.pageURL, "page-url", "", "address the --file page was saved from (default: marketplace base URL)")
	flags.StringVar(&pf.fetchMode, "fetch-mode", models.FetchAuto, "how to fetch --url: auto, http or browser")
	flags.BoolVar(&pf.stealth, "stealth", false, "enable browser anti-detection evasions")
	flags.IntVar(&pf.timeout, "timeout", 30, "render timeout in seconds")
	flags.BoolVar(&pf.debug, "debug", false, "log at debug level")

	root.AddCommand(
		newCountCommand(&pf),
		newHarvestCommand(&pf),
		newExportCommand(&pf),
	)
	return root
}

// session is everything a command needs once flags are parsed.
type session struct {
	page      *dom.Page
	harvester *harvest.Harvester
}

// openSession loads configuration, obtains the page and builds the
// harvester. Rendering a URL launches a browser for the duration of the call.
func openSession(ctx context.Context, pf *pageFlags) (*session, error) {
	if (pf.url == "") == (pf.file == "") {
		return nil, errors.New("exactly one of --url or --file is required")
	}

	cfg := config.Load()
	if pf.debug {
		cfg.Log.Level = "debug"
	}
	logger := cfg.Log.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	req := &models.PageRequest{
		URL:       pf.url,
		PageURL:   pf.pageURL,
		Timeout:   pf.timeout,
		Stealth:   pf.stealth,
		FetchMode: pf.fetchMode,
	}
	req.Defaults()

	var renderer scraper.Renderer
	if pf.file != "" {
		raw, err := os.ReadFile(pf.file)
		if err != nil {
			return nil, fmt.Errorf("read page file: %w", err)
		}
		req.HTML = string(raw)
	} else {
		sc, err := scraper.Launch(cfg)
		if err != nil {
			return nil, err
		}
		defer sc.Close()
		renderer = sc
	}

	page, res, err := scraper.Snapshot(ctx, renderer, req, cfg.Marketplace.BaseURL)
	if err != nil {
		return nil, err
	}
	if res != nil {
		logger.Info("page rendered",
			"engine", res.Engine,
			"final_url", res.FinalURL,
			"status", res.StatusCode,
			"duration", res.Duration,
		)
	}

	client := sink.NewClient(sink.Config{
		BaseURL: cfg.Sink.URL,
		Secret:  cfg.Sink.Secret,
		Timeout: cfg.Sink.Timeout,
	})
	ex := extractor.New(imageres.New(cfg.Marketplace.ImageHosts), nil)

	return &session{
		page:      page,
		harvester: harvest.New(ex, client, logger),
	}, nil
}
