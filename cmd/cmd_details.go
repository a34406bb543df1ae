// Copyright 2025 The Places Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jcodagnone/places/places"
	"github.com/spf13/cobra"
)

var detailsOptions struct {
	json   bool
	fields []string
}

var detailsCmd = &cobra.Command{
	Use:   "details <place_id>",
	Short: "Prints the details of a place",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		client, err := newClient(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		r := cfg.DetailsRequest(args[0])
		r.Fields = detailsOptions.fields

		details, err := client.Details(cmd.Context(), r)
		if err != nil {
			return err
		}

		if detailsOptions.json {
			return writeJSON(os.Stdout, details)
		}

		printDetails(os.Stdout, details)

		return nil
	},
}

func printDetails(w io.Writer, d *places.PlaceDetails) {
	row := func(label, value string) {
		if value != "" {
			fmt.Fprintf(w, "%-10s %s\n", label+":", value)
		}
	}

	row("Name", d.Name)
	row("Address", d.FormattedAddress)
	row("Location", d.Location.Param())

	if d.Radius > 0 {
		row("Radius", fmt.Sprintf("%.0fm", d.Radius))
	}

	row("Types", strings.Join(d.Types, ", "))
	row("Place ID", d.PlaceID)

	for _, a := range d.Attributions {
		row("Credit", a.Text)
	}
}

func init() {
	rootCmd.AddCommand(detailsCmd)
	detailsCmd.Flags().BoolVar(&detailsOptions.json, "json", false, "Prints the details as JSON")
	detailsCmd.Flags().StringSliceVar(
		&detailsOptions.fields,
		"fields",
		nil,
		"Fields to request (default "+strings.Join(places.DefaultDetailsFields, ",")+")",
	)
}
