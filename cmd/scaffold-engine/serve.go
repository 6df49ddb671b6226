// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pdiddy/scaffold-engine/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the generation and registry HTTP API",
	Long: `Serve starts the HTTP API:

  GET    /health                  liveness
  GET    /metrics                 prometheus metrics
  GET    /api/stacks              supported stacks
  POST   /api/render              render templates with a placeholder map
  POST   /api/projects/preview    generate without storing
  POST   /api/projects            generate and register
  GET    /api/projects            list registered projects
  GET    /api/projects/:id        show one project
  DELETE /api/projects/:id        remove a project

It stops gracefully on SIGINT or SIGTERM.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("addr") {
		cfg.Server.Addr, _ = cmd.Flags().GetString("addr")
	}

	gen, err := newGenerator()
	if err != nil {
		return err
	}

	var store server.ProjectStore
	if noRegistry, _ := cmd.Flags().GetBool("no-registry"); !noRegistry {
		s, err := openRegistry()
		if err != nil {
			return err
		}
		defer s.Close()
		store = s
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg.Server, gen, store, log.StandardLogger())
	return srv.Run(ctx)
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default: server.addr or :8080)")
	serveCmd.Flags().Bool("no-registry", false, "serve without the project registry")

	rootCmd.AddCommand(serveCmd)
}
