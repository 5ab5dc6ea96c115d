// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/geo-engine/internal/history"
	"github.com/pdiddy/geo-engine/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the fan-out pipeline over HTTP",
	Long: `Serve exposes the pipeline as a thin HTTP adapter:

  GET  /health  liveness check
  POST /fanout  {"keyword": "...", "source_text": "..."} -> FanOutResult

A missing keyword returns 422; a pipeline failure returns 502 with the
failure message. When history.path is configured, every run is recorded.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")

		cfg := loadConfig()
		if addr == "" {
			addr = cfg.Server.Addr
		}

		engine, err := newEngine(cfg, os.Stderr)
		if err != nil {
			return err
		}

		var store *history.Store
		if cfg.History.Path != "" {
			store, err = history.Open(cfg.History.Path)
			if err != nil {
				return err
			}
			defer store.Close()
		}

		srv := &http.Server{
			Addr:              addr,
			Handler:           server.New(engine, store).Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		fmt.Fprintf(os.Stderr, "geo-engine listening on %s\n", addr)
		return srv.ListenAndServe()
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default from config, \":8123\")")

	rootCmd.AddCommand(serveCmd)
}
