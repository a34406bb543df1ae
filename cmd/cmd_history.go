// Copyright 2025 The Places Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jcodagnone/places/history"
	"github.com/jcodagnone/places/spatial"
	"github.com/jcodagnone/places/utils/textutils"
	"github.com/spf13/cobra"
)

var historyOptions struct {
	limit      int
	resolution int
	json       bool
}

var historyCmd = &cobra.Command{
	Use:   "history [filter]",
	Short: "Lists the places picked so far",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		db, repo, err := openHistory(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		picks, err := repo.List(cmd.Context(), strings.Join(args, " "), historyOptions.limit)
		if err != nil {
			return err
		}

		total, err := repo.Count(cmd.Context())
		if err != nil {
			return err
		}

		if historyOptions.json {
			return writeJSON(os.Stdout, picks)
		}

		printPicks(os.Stdout, picks)
		fmt.Printf("%s of %s picks\n", textutils.FormatInt(int64(len(picks))), textutils.FormatInt(total))

		return nil
	},
}

var historyNearCmd = &cobra.Command{
	Use:   "near <lat,lng>",
	Short: "Lists the picks in the same H3 cell as a point",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		point, err := spatial.ParsePoint(args[0])
		if err != nil {
			return err
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		db, repo, err := openHistory(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		picks, err := repo.Near(cmd.Context(), point, historyOptions.resolution)
		if err != nil {
			return err
		}

		if historyOptions.json {
			return writeJSON(os.Stdout, picks)
		}

		printPicks(os.Stdout, picks)

		return nil
	},
}

func printPicks(w io.Writer, picks []*history.Pick) {
	if len(picks) == 0 {
		fmt.Fprintln(w, "No picks")

		return
	}

	t := newTable(w, 16, 32, 40, 22)
	t.top()
	t.row("Picked", "Name", "Address", "Location")
	t.separator()

	for _, p := range picks {
		t.row(p.PickedAt.Local().Format("2006-01-02 15:04"), p.Name, p.FormattedAddress, p.Point.Param())
	}

	t.bottom()
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyNearCmd)
	historyCmd.PersistentFlags().BoolVar(&historyOptions.json, "json", false, "Prints the picks as JSON")
	historyCmd.Flags().IntVar(&historyOptions.limit, "limit", 20, "Maximum number of picks, 0 for all")
	historyNearCmd.Flags().IntVar(
		&historyOptions.resolution,
		"resolution",
		7,
		fmt.Sprintf("H3 resolution, from %d to %d", history.MinResolution, history.MaxResolution),
	)
}
