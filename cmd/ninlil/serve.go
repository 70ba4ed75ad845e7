package main

import (
	"github.com/spf13/cobra"

	"ninlil/pkg/storage"
	"ninlil/pkg/ui"
	"ninlil/pkg/web"
)

var serveAddress string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the browser archive service",
	Long: `Serves the archive flow over HTTP. A browser posts a blog and date range to
/archive, authorizes ninlil on Tumblr, and is sent back to /archive/callback,
which builds the archive and links its download. server.public_url must be
the address browsers reach the service on.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddress, "address", "", "listen address (default from server.address)")
	serveCmd.Flags().StringVarP(&outputDir, "output", "o", "", "directory receiving finished archives")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(map[string]interface{}{
		"address": serveAddress,
		"output":  outputDir,
	})
	if err != nil {
		return err
	}

	flow, err := newFlow(cfg, log)
	if err != nil {
		return err
	}
	store, err := storage.NewManager(cfg.Output.BaseDirectory)
	if err != nil {
		return err
	}

	handler := web.NewHandler(cfg, flow, web.NewArchiverFactory(cfg, log), store, log)
	server := web.NewServer(cfg.Server, handler, log)

	ctx, stop := signalContext()
	defer stop()

	ui.PrintInfo("Listening on", cfg.Server.Address)
	ui.PrintInfo("Public URL", cfg.Server.PublicURL)
	return server.Run(ctx)
}
