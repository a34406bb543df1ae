// Copyright 2025 The Places Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/jcodagnone/places/server"
	"github.com/spf13/cobra"
)

var serveOptions struct {
	addr      string
	noHistory bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Runs a local JSON proxy to the places API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		if cmd.Flags().Changed("addr") {
			cfg.Addr = serveOptions.addr
		}

		client, err := newClient(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		template, err := cfg.AutocompleteRequest("")
		if err != nil {
			return err
		}

		options := &server.Options{
			Autocomplete: *template,
			Details:      *cfg.DetailsRequest(""),
		}

		if !serveOptions.noHistory {
			db, repo, err := openHistory(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			options.History = repo
		}

		return server.NewServer(client, options).Run(cfg.Addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	addBiasFlags(serveCmd)
	serveCmd.Flags().StringVar(&serveOptions.addr, "addr", "localhost:8080", "Address to listen on")
	serveCmd.Flags().BoolVar(&serveOptions.noHistory, "no-history", false, "Doesn't record picks in the history")
}
