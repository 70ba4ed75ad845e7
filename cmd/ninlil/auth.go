package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"ninlil/pkg/auth"
	"ninlil/pkg/tumblr"
	"ninlil/pkg/ui"
)

var authTimeout time.Duration

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage authorized Tumblr blogs",
	Long:  `Authorize ninlil to read a blog, and list or remove stored tokens.`,
}

var loginCmd = &cobra.Command{
	Use:   "login <blog>",
	Short: "Authorize ninlil for a blog through the browser",
	Long: `Starts the OAuth handshake: open the printed URL, approve access, and
Tumblr redirects back to the local callback URL (tumblr.callback_url).
The resulting token is stored in the system keyring when available,
otherwise in an encrypted file under the ninlil config directory.`,
	Args: cobra.ExactArgs(1),
	RunE: runLogin,
}

var importCmd = &cobra.Command{
	Use:   "import <blog>",
	Short: "Store an existing OAuth token for a blog",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

var logoutCmd = &cobra.Command{
	Use:   "logout <blog>",
	Short: "Remove the stored token for a blog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		blog := tumblr.NormalizeBlog(args[0])
		manager, err := auth.NewManager("")
		if err != nil {
			return fmt.Errorf("failed to initialize credential manager: %w", err)
		}
		if err := manager.Delete(blog); err != nil {
			return fmt.Errorf("failed to remove credentials for %s: %w", blog, err)
		}
		ui.PrintSuccess(fmt.Sprintf("Removed credentials for %s", blog))
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List blogs with stored tokens",
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := auth.NewManager("")
		if err != nil {
			return fmt.Errorf("failed to initialize credential manager: %w", err)
		}
		all, err := manager.List()
		if err != nil {
			return fmt.Errorf("failed to list credentials: %w", err)
		}
		if len(all) == 0 {
			ui.PrintWarning("No stored credentials. Run 'ninlil auth login <blog>' to add one.")
			return nil
		}

		ui.PrintHighlight("Authorized blogs:")
		for _, creds := range all {
			masked := auth.Sanitize(creds)
			ui.PrintInfo(masked.Blog, fmt.Sprintf("token %s (updated %s)", masked.Token, masked.LastModified.Format(time.RFC3339)))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd, importCmd, logoutCmd, listCmd)

	loginCmd.Flags().DurationVar(&authTimeout, "timeout", 5*time.Minute, "how long to wait for the browser authorization")
}

func runLogin(cmd *cobra.Command, args []string) error {
	blog := tumblr.NormalizeBlog(args[0])

	cfg, log, err := loadConfig(nil)
	if err != nil {
		return err
	}
	flow, err := newFlow(cfg, log)
	if err != nil {
		return err
	}
	manager, err := auth.NewManager("")
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	ctx, stop := signalContext()
	defer stop()

	listener, err := listenForCallback(flow.CallbackURL())
	if err != nil {
		return err
	}

	pending, err := flow.Start(ctx)
	if err != nil {
		listener.Close()
		return err
	}

	ui.PrintHighlight("Open this URL in your browser and approve access:")
	fmt.Fprintln(ui.Out, pending.AuthorizationURL)
	ui.PrintInfo("Waiting on", listener.Addr())

	waitCtx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()

	requestToken, verifier, err := listener.Wait(waitCtx)
	if err != nil {
		return err
	}
	if requestToken != pending.RequestToken {
		return fmt.Errorf("authorization callback does not match the pending request")
	}

	granted, err := flow.Complete(ctx, pending.RequestToken, pending.RequestSecret, verifier)
	if err != nil {
		return err
	}

	if err := manager.Store(&auth.Credentials{
		Blog:        blog,
		Token:       granted.Token,
		TokenSecret: granted.TokenSecret,
	}); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}

	ui.PrintSuccess(fmt.Sprintf("Authorized %s", blog))
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	blog := tumblr.NormalizeBlog(args[0])
	reader := bufio.NewReader(os.Stdin)

	fmt.Fprint(ui.Out, "OAuth token: ")
	token, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("failed to read token: %w", err)
	}

	fmt.Fprint(ui.Out, "OAuth token secret: ")
	secret, err := readPassword(reader)
	if err != nil {
		return fmt.Errorf("failed to read token secret: %w", err)
	}

	manager, err := auth.NewManager("")
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	creds := &auth.Credentials{
		Blog:        blog,
		Token:       strings.TrimSpace(token),
		TokenSecret: strings.TrimSpace(secret),
	}
	if err := manager.Store(creds); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}

	ui.PrintSuccess(fmt.Sprintf("Stored credentials for %s", blog))
	return nil
}

// readPassword reads without echo from a terminal, or a plain line otherwise
func readPassword(reader *bufio.Reader) (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		secret, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(ui.Out)
		return string(secret), err
	}
	line, err := reader.ReadString('\n')
	return strings.TrimRight(line, "\r\n"), err
}
