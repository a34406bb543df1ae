// Copyright 2025 The Places Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jcodagnone/places/picker"
	"github.com/spf13/cobra"
)

var pickOptions struct {
	logFile   string
	noHistory bool
	json      bool
}

var pickCmd = &cobra.Command{
	Use:   "pick",
	Short: "Searches and picks a place interactively",
	Long: `
pick opens an interactive screen: every keystroke completes the text typed so
far, enter shows the details of the highlighted prediction and records it in
the history. On exit the last place shown is printed to stdout.
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		// the screen owns the terminal, logs go to a file or nowhere
		if pickOptions.logFile != "" {
			f, err := tea.LogToFile(pickOptions.logFile, "places")
			if err != nil {
				return fmt.Errorf("opening log file: %w", err)
			}
			defer f.Close()
		} else {
			log.SetOutput(io.Discard)
			defer log.SetOutput(&logWriter{writer: os.Stderr})
		}

		client, err := newClient(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		template, err := cfg.AutocompleteRequest("")
		if err != nil {
			return err
		}

		options := &picker.Options{
			Searcher:     client,
			Autocomplete: *template,
			Details:      *cfg.DetailsRequest(""),
		}

		if !pickOptions.noHistory {
			db, repo, err := openHistory(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			options.Recorder = repo
		}

		final, err := tea.NewProgram(picker.New(cmd.Context(), options), tea.WithAltScreen()).Run()
		if err != nil {
			return fmt.Errorf("running picker: %w", err)
		}

		m, ok := final.(picker.Model)
		if !ok || m.Picked() == nil {
			return nil
		}

		if pickOptions.json {
			return writeJSON(os.Stdout, m.Picked())
		}

		printDetails(os.Stdout, m.Picked())

		return nil
	},
}

func init() {
	rootCmd.AddCommand(pickCmd)
	addBiasFlags(pickCmd)
	pickCmd.Flags().StringVar(&pickOptions.logFile, "log-file", "", "Writes logs to this file while the screen is open")
	pickCmd.Flags().BoolVar(&pickOptions.noHistory, "no-history", false, "Doesn't record picks in the history")
	pickCmd.Flags().BoolVar(&pickOptions.json, "json", false, "Prints the picked place as JSON")
}
