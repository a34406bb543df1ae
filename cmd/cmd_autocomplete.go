// Copyright 2025 The Places Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jcodagnone/places/places"
	"github.com/jcodagnone/places/spatial"
	"github.com/spf13/cobra"
)

var autocompleteOptions struct {
	json   bool
	origin string
}

var autocompleteCmd = &cobra.Command{
	Use:   "autocomplete <text...>",
	Short: "Lists the place predictions for a text",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		client, err := newClient(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		r, err := cfg.AutocompleteRequest(strings.Join(args, " "))
		if err != nil {
			return err
		}

		if autocompleteOptions.origin != "" {
			origin, err := spatial.ParsePoint(autocompleteOptions.origin)
			if err != nil {
				return fmt.Errorf("--origin: %w", err)
			}

			r.Origin = &origin
		}

		predictions, err := client.Autocomplete(cmd.Context(), r)
		if err != nil {
			return err
		}

		if autocompleteOptions.json {
			return writeJSON(os.Stdout, predictions)
		}

		printPredictions(os.Stdout, predictions)

		return nil
	},
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}

func printPredictions(w io.Writer, predictions []places.Prediction) {
	if len(predictions) == 0 {
		fmt.Fprintln(w, "No results")

		return
	}

	t := newTable(w, 2, 36, 36, 8, 27)
	t.top()
	t.row("#", "Name", "Where", "Distance", "Place ID")
	t.separator()

	for i, p := range predictions {
		distance := ""
		if p.DistanceMeters != nil {
			distance = strconv.Itoa(*p.DistanceMeters) + "m"
		}

		t.row(strconv.Itoa(i+1), p.Title(), p.SecondaryText, distance, p.PlaceID)
	}

	t.bottom()
}

func init() {
	rootCmd.AddCommand(autocompleteCmd)
	addBiasFlags(autocompleteCmd)
	autocompleteCmd.Flags().BoolVar(&autocompleteOptions.json, "json", false, "Prints the predictions as JSON")
	autocompleteCmd.Flags().StringVar(&autocompleteOptions.origin, "origin", "", "Computes distances from this lat,lng")
}
