package main

import (
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/pbaille/serenity/internal/config"
	"github.com/pbaille/serenity/internal/inference"
	"github.com/pbaille/serenity/internal/journal"
	"github.com/pbaille/serenity/internal/store"
)

var (
	configPath string
	dbPath     string
	debug      bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "serenity",
		Short:         "Journal with sentiment, themes and weekly insights",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(debug)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.FilePath(), "config file path")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(writeCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(deleteCmd())
	rootCmd.AddCommand(clearCmd())
	rootCmd.AddCommand(promptCmd())
	rootCmd.AddCommand(insightsCmd())
	rootCmd.AddCommand(summaryCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(streakCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(notesCmd())
	rootCmd.AddCommand(countCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func setupLogging(debug bool) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true})
}

// app is the per-command wiring: config, store and service.
type app struct {
	cfg   config.Config
	store *store.Store
	svc   *journal.Service
}

func (a *app) Close() error {
	return a.store.Close()
}

func getApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Warn().Err(err).Str("path", configPath).Msg("Using default config")
	}
	if dbPath != "" {
		cfg.Store.Driver = "sqlite"
		cfg.Store.Path = dbPath
	}

	if cfg.Store.Driver == "" || cfg.Store.Driver == "sqlite" {
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	st, err := store.New(store.Config{
		Driver: cfg.Store.Driver,
		Path:   cfg.Store.Path,
		DSN:    cfg.Store.DSN,
	})
	if err != nil {
		return nil, err
	}

	provider, warnings := inference.New(cfg.Inference)
	for _, w := range warnings {
		log.Warn().Msg(w)
	}

	return &app{cfg: cfg, store: st, svc: journal.NewService(st, provider)}, nil
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}
