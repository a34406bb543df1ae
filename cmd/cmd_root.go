// Copyright 2025 The Places Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/jcodagnone/places/config"
	"github.com/jcodagnone/places/credentials"
	"github.com/jcodagnone/places/history"
	"github.com/jcodagnone/places/places"
	"github.com/spf13/cobra"
)

type logWriter struct {
	writer io.Writer
}

func (w *logWriter) Write(bytes []byte) (int, error) {
	return fmt.Fprintf(w.writer, "%s %s", time.Now().Format("2006-01-02 15:04:05"), string(bytes))
}

func init() {
	log.SetFlags(0)
	log.SetOutput(&logWriter{writer: os.Stderr})
}

var rootCmd = &cobra.Command{
	Use:   "places",
	Short: "place autocomplete and details from the command line",
	Long: `
places searches the Google Places web service: it completes free text into
place predictions and resolves a prediction into the details of the place.
It also ships an interactive picker and a local JSON proxy for browser demos.
`,
	SilenceUsage: true,
}

var Version = "dev"

func Execute(version string) {
	Version = version

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		os.Exit(1)
	}
}

type rootFlags struct {
	configPath    string
	traceHTTP     bool
	traceHTTPBody bool
	language      string
	region        string
	dbPath        string
}

var rootOptions = &rootFlags{}

type biasFlags struct {
	location     string
	radius       float64
	types        []string
	countries    []string
	strictBounds bool
}

var biasOptions = &biasFlags{}

// addBiasFlags registers the flags that narrow autocomplete results.
func addBiasFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&biasOptions.location, "location", "", "Bias results towards this lat,lng")
	cmd.Flags().Float64Var(&biasOptions.radius, "radius", 0, "Bias radius around --location, in meters")
	cmd.Flags().StringSliceVar(&biasOptions.types, "types", nil, "Restrict results to these place types")
	cmd.Flags().StringSliceVar(&biasOptions.countries, "countries", nil, "Restrict results to these ISO 3166-1 country codes")
	cmd.Flags().BoolVar(&biasOptions.strictBounds, "strict-bounds", false, "Only return results inside --location/--radius")
}

// loadConfig layers the flags set in the command line over the configuration file.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(rootOptions.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()

	if flags.Changed("language") {
		cfg.Language = rootOptions.language
	}

	if flags.Changed("region") {
		cfg.Region = rootOptions.region
	}

	if flags.Changed("db-path") {
		cfg.DBPath = rootOptions.dbPath
	}

	if flags.Changed("location") {
		cfg.Bias.Location = biasOptions.location
	}

	if flags.Changed("radius") {
		cfg.Bias.Radius = biasOptions.radius
	}

	if flags.Changed("types") {
		cfg.Bias.Types = biasOptions.types
	}

	if flags.Changed("countries") {
		cfg.Bias.Countries = biasOptions.countries
	}

	if flags.Changed("strict-bounds") {
		cfg.Bias.StrictBounds = biasOptions.strictBounds
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func userAgent() string {
	return fmt.Sprintf("places/%s (+https://github.com/jcodagnone/places)", Version)
}

// newClient builds the API client, looking the key up through ADC when none is configured.
func newClient(ctx context.Context, cfg *config.Config) (*places.Client, error) {
	if cfg.APIKey == "" {
		log.Printf("%s is not set. Attempting to retrieve via ADC...", config.EnvAPIKey)

		key, err := credentials.APIKeyFromADC(ctx, &credentials.Options{
			ProjectID:   cfg.ProjectID,
			DisplayName: cfg.KeyDisplayName,
		})
		if err != nil {
			return nil, fmt.Errorf("%s is not set and ADC failed: %w", config.EnvAPIKey, err)
		}

		log.Println("Successfully retrieved the API key via ADC")

		cfg.APIKey = key
	}

	options := cfg.ClientOptions(userAgent())
	options.EnableHTTPTrace = rootOptions.traceHTTP
	options.EnableHTTPBodyTrace = rootOptions.traceHTTPBody

	return places.NewClient(cfg.APIKey, options), nil
}

// openHistory opens the pick log under the configured db path, creating it if needed.
func openHistory(cfg *config.Config) (*sql.DB, history.Repository, error) {
	if err := os.MkdirAll(cfg.DBPath, 0o750); err != nil {
		return nil, nil, fmt.Errorf("creating db directory: %w", err)
	}

	db, err := sql.Open("duckdb", filepath.Join(cfg.DBPath, "places.duckdb"))
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}

	repo := history.NewRepository(db)
	if err := repo.CreateSchema(); err != nil {
		db.Close()

		return nil, nil, fmt.Errorf("creating history schema: %w", err)
	}

	return db, repo, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&rootOptions.configPath,
		"config",
		"",
		"Configuration file (default "+config.DefaultFile+" when present)",
	)
	rootCmd.PersistentFlags().BoolVar(
		&rootOptions.traceHTTP,
		"trace-http",
		false,
		"Logs HTTP requests and responses",
	)
	rootCmd.PersistentFlags().BoolVar(
		&rootOptions.traceHTTPBody,
		"trace-http-body",
		false,
		"Logs HTTP bodies, implies --trace-http",
	)
	rootCmd.PersistentFlags().StringVar(
		&rootOptions.language,
		"language",
		"",
		"Language of the results, e.g. es",
	)
	rootCmd.PersistentFlags().StringVar(
		&rootOptions.region,
		"region",
		"",
		"Region bias as a ccTLD, e.g. uy",
	)
	rootCmd.PersistentFlags().StringVar(
		&rootOptions.dbPath,
		"db-path",
		"db",
		"Directory where the pick history is stored",
	)
}
