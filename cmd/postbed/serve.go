package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/postbed/postbed"
	"github.com/postbed/postbed/internal/httpapi"
	"github.com/spf13/cobra"
)

var serveAddr string

// serveCmd starts the HTTP API with session-consistent reads.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the vault over HTTP",
	Long: `Serve exposes the vault through a JSON API. Clients receive csmsdb
session cookies on writes; subsequent reads are guaranteed to reflect
the writes those cookies record, or fail with 503 rather than serve
stale data.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := httpapi.LoadConfig()
		cfg.Gitless = cfg.Gitless || gitless
		if serveAddr != "" {
			cfg.Addr = serveAddr
		}

		service, err := postbed.New(cfg.VaultPath,
			postbed.WithAdapter(adapter),
			postbed.WithVersioning(!cfg.Gitless),
			postbed.WithAutoInit(cfg.AutoInit),
			postbed.WithReadOnly(cfg.ReadOnly),
			postbed.WithFrontMatterFormat(cfg.Format),
			postbed.WithLogger(slog.Default()),
			postbed.WithDevSafety(false),
		)
		if err != nil {
			fatal("Failed to open vault", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		srv := httpapi.NewServer(service, cfg, slog.Default())
		if err := srv.Run(ctx); err != nil {
			fatal("Server error", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides POSTBED_ADDR)")
}
