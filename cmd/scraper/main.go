package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dom/jumbah-travel/internal/config"
	"github.com/dom/jumbah-travel/internal/genai"
	"github.com/dom/jumbah-travel/internal/scraper"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	outputPath string
	baseURL    string
	limit      int
	interval   time.Duration
	summarize  bool
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))

	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, using environment variables")
	}

	rootCmd := &cobra.Command{
		Use:   "scraper",
		Short: "Build the Sabah attractions catalogue",
		Long: "scraper crawls the Sabah tourism destination pages and writes the " +
			"attractions catalogue served by GET /attractions.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.Flags().StringVarP(&outputPath, "output", "o", envOr("ATTRACTIONS_PATH", "data/attractions.json"), "path to write attractions JSON")
	rootCmd.Flags().StringVar(&baseURL, "base-url", scraper.DefaultBaseURL, "site root to crawl")
	rootCmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of attractions to scrape (0 = all)")
	rootCmd.Flags().DurationVar(&interval, "interval", 0, "repeat scraping at this interval, e.g. 6h (0 = run once)")
	rootCmd.Flags().BoolVar(&summarize, "summarize", false, "add a one-sentence AI summary to each attraction")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	if limit < 0 {
		return errors.New("--limit must not be negative")
	}

	var generator genai.Generator
	if summarize {
		generator = genai.FromConfig(config.FromEnv())
		if !generator.Available() {
			slog.Warn("No generation credential configured; summaries will be skipped", "provider", generator.Provider())
		}
	}

	s := scraper.New(baseURL, generator)
	opts := scraper.Options{Limit: limit, Summarize: summarize}

	for {
		start := time.Now()
		n, err := s.Run(ctx, outputPath, opts)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if interval == 0 {
				return fmt.Errorf("scrape failed: %w", err)
			}
			slog.Error("Scrape failed", "error", err)
		} else {
			slog.Info("Scrape finished", "attractions", n, "output", outputPath, "elapsed", time.Since(start))
		}

		if interval == 0 {
			return nil
		}

		select {
		case <-time.After(interval):
		case <-ctx.Done():
			return nil
		}
	}
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
