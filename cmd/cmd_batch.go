// Copyright 2025 The Places Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/jcodagnone/places/config"
	"github.com/jcodagnone/places/history"
	"github.com/jcodagnone/places/places"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var batchOptions struct {
	maxProcs int
	record   bool
}

// batchResult is one line of the batch output.
type batchResult struct {
	Query      string               `json:"query"`
	Prediction *places.Prediction   `json:"prediction,omitempty"`
	Place      *places.PlaceDetails `json:"place,omitempty"`
	Error      string               `json:"error,omitempty"`
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Resolves one query per line of stdin into the details of its top prediction",
	Long: `
batch reads one query per line from stdin and writes one JSON document per
line to stdout with the top prediction and its details. Empty lines are
skipped.
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		client, err := newClient(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		queries, err := readQueries(os.Stdin)
		if err != nil {
			return err
		}

		var repo history.Repository

		if batchOptions.record {
			db, r, err := openHistory(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			repo = r
		}

		results, err := runBatch(cmd.Context(), client, cfg, queries, batchOptions.maxProcs)

		enc := json.NewEncoder(os.Stdout)
		for _, r := range results {
			if encErr := enc.Encode(r); encErr != nil {
				return fmt.Errorf("writing results: %w", encErr)
			}

			if repo != nil && r.Place != nil {
				if recErr := repo.Record(cmd.Context(), history.NewPick(r.Place, r.Query)); recErr != nil {
					err = errors.Join(err, recErr)
				}
			}
		}

		return err
	},
}

func readQueries(r io.Reader) ([]string, error) {
	var queries []string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if q := strings.TrimSpace(scanner.Text()); q != "" {
			queries = append(queries, q)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading queries: %w", err)
	}

	return queries, nil
}

// resolve completes query and fetches the details of its top prediction
// within a single session.
func resolve(ctx context.Context, searcher places.Searcher, cfg *config.Config, query string) (*batchResult, error) {
	result := &batchResult{Query: query}
	token := places.NewSessionToken()

	fail := func(err error) (*batchResult, error) {
		result.Error = err.Error()

		return result, err
	}

	r, err := cfg.AutocompleteRequest(query)
	if err != nil {
		return fail(err)
	}

	r.SessionToken = token

	predictions, err := searcher.Autocomplete(ctx, r)
	if err != nil {
		return fail(err)
	}

	if len(predictions) == 0 {
		return fail(errNoResults)
	}

	result.Prediction = &predictions[0]

	d := cfg.DetailsRequest(predictions[0].PlaceID)
	d.SessionToken = token

	details, err := searcher.Details(ctx, d)
	if err != nil {
		return fail(err)
	}

	result.Place = details

	return result, nil
}

var errNoResults = errors.New("no results")

// fatal reports errors that will fail every remaining query.
func fatal(err error) bool {
	return places.IsQuotaExceededError(err) ||
		places.ErrorTypeOf(err) == places.ErrorTypeRequestDenied ||
		errors.Is(err, places.ErrMissingAPIKey)
}

// runBatch resolves queries with up to maxProcs in flight, results keep the
// order of queries. A fatal error skips the queries that haven't started and
// the ones canceled in flight.
func runBatch(
	ctx context.Context,
	searcher places.Searcher,
	cfg *config.Config,
	queries []string,
	maxProcs int,
) ([]*batchResult, error) {
	if maxProcs <= 0 {
		maxProcs = 1
	}

	n := len(queries)

	var bar *progressbar.ProgressBar
	if isatty.IsTerminal(os.Stderr.Fd()) {
		bar = progressbar.NewOptions(n,
			progressbar.OptionSetDescription("Resolving"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	results := make([]*batchResult, n)
	errs := make([]error, n)
	semaphore := make(chan struct{}, maxProcs)

	var wg sync.WaitGroup

	for i, query := range queries {
		// queries start in input order
		semaphore <- struct{}{}

		wg.Add(1)

		go func(i int, query string) {
			defer wg.Done()
			defer func() { <-semaphore }()

			if cause := context.Cause(ctx); cause != nil {
				results[i] = &batchResult{Query: query, Error: "skipped: " + cause.Error()}
				errs[i] = fmt.Errorf("%q skipped: %w", query, cause)
			} else {
				var err error

				results[i], err = resolve(ctx, searcher, cfg, query)
				if err != nil {
					cause := context.Cause(ctx)

					switch {
					case fatal(err):
						errs[i] = fmt.Errorf("%q: %w", query, err)
						cancel(err)
					case cause != nil:
						// canceled while in flight
						results[i].Error = "skipped: " + cause.Error()
						errs[i] = fmt.Errorf("%q skipped: %w", query, cause)
					default:
						errs[i] = fmt.Errorf("%q: %w", query, err)
					}
				}
			}

			if bar == nil {
				log.Printf("Resolved %q", query)
			} else if err := bar.Add(1); err != nil {
				log.Printf("Updating progress bar: %v", err)
			}
		}(i, query)
	}

	wg.Wait()

	failed := 0

	for _, err := range errs {
		if err != nil {
			failed++
		}
	}

	log.Printf("Batch complete - %d queries, %d resolved, %d failed", n, n-failed, failed)

	if failed > 0 {
		return results, fmt.Errorf("%d of %d queries failed: %w", failed, n, errors.Join(errs...))
	}

	return results, nil
}

func init() {
	rootCmd.AddCommand(batchCmd)
	addBiasFlags(batchCmd)
	batchCmd.Flags().IntVar(&batchOptions.maxProcs, "max-procs", 4, "Queries resolved concurrently")
	batchCmd.Flags().BoolVar(&batchOptions.record, "record", false, "Records every resolved place in the history")
}
