package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"ninlil/pkg/auth"
	"ninlil/pkg/config"
	"ninlil/pkg/logger"
	"ninlil/pkg/oauth"
	"ninlil/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	noColor    bool
	quiet      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ninlil",
	Short: "Archive the photos of a Tumblr blog into a zip file",
	Long: `ninlil downloads the photo posts of a Tumblr blog published in a date
range and writes them into a single zip archive, one entry per photo, each
dated from its post.

Authorize a blog once with 'ninlil auth login', then archive it with
'ninlil archive'. 'ninlil serve' runs the same flow for browsers.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		ui.NoColor = noColor || !term.IsTerminal(int(os.Stdout.Fd()))
		if quiet {
			ui.Out = nopWriter{}
		}
		switch cmd.Name() {
		case "version", "help", "show", "serve":
		default:
			ui.PrintBanner()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.PrintError("Error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is .ninlil.yaml or ~/.config/ninlil/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")

	rootCmd.SetVersionTemplate(`ninlil {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig loads configuration from every source, applies flags and
// initializes the global logger from the result
func loadConfig(flags map[string]interface{}) (*config.Config, logger.Logger, error) {
	if flags == nil {
		flags = make(map[string]interface{})
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, nil, err
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, logger.GetLogger(), nil
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// apiHTTPClient is the transport for token requests and signed API calls
func apiHTTPClient(cfg *config.Config) *http.Client {
	return &http.Client{Timeout: cfg.API.Timeout}
}

// newFlow builds the OAuth handshake runner for the configured consumer
func newFlow(cfg *config.Config, log logger.Logger) (*oauth.Flow, error) {
	if err := cfg.RequireConsumer(); err != nil {
		return nil, err
	}
	return oauth.NewFlow(cfg.Tumblr, apiHTTPClient(cfg), log)
}

// signedClient returns an HTTP client signing requests with blog's stored credentials
func signedClient(ctx context.Context, cfg *config.Config, log logger.Logger, blog string) (*http.Client, error) {
	flow, err := newFlow(cfg, log)
	if err != nil {
		return nil, err
	}

	manager, err := auth.NewManager("")
	if err != nil {
		return nil, fmt.Errorf("failed to initialize credential manager: %w", err)
	}
	creds, err := manager.Retrieve(blog)
	if err != nil {
		return nil, fmt.Errorf("%w (run 'ninlil auth login %s' first)", err, blog)
	}

	return flow.HTTPClient(ctx, creds.OAuth()), nil
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
