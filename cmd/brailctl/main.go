// Command brailctl talks to the marketplace API from a terminal.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/brail/marketplace/internal/client"
	"github.com/brail/marketplace/internal/pkg/telemetry"
)

type globals struct {
	server string
	token  string
	dev    bool
	debug  bool
}

func (g *globals) client() *client.Client {
	return client.New(g.server, client.WithToken(g.token), client.WithDevMode(g.dev))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "brailctl",
		Short:         "Browse the catalog, edit the cart and follow orders on a marketplace server",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := slog.LevelWarn
			if g.debug {
				level = slog.LevelDebug
			}
			slog.SetDefault(telemetry.NewLogger(cmd.ErrOrStderr(), level))
		},
	}
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.StringVar(&g.server, "server", envOr("BRAIL_API_URL", "http://localhost:8080"), "marketplace server URL")
	flags.StringVar(&g.token, "token", os.Getenv("BRAIL_TOKEN"), "session token from `brailctl login`")
	flags.BoolVar(&g.dev, "dev", false, "answer login with the built-in dev accounts")
	flags.BoolVar(&g.debug, "debug", false, "log requests to stderr")

	root.AddCommand(
		newLoginCmd(g),
		newCategoriesCmd(g),
		newProductsCmd(g),
		newCartCmd(g),
		newOrdersCmd(g),
		newPayCmd(g),
	)
	return root
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newLoginCmd(g *globals) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Open a session and print its token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := g.client().Login(cmd.Context(), email, password)
			if err != nil {
				return fmt.Errorf("login: %s", client.ErrorMessage(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s (%s)\n", resp.User.Email, resp.User.Role)
			fmt.Fprintf(cmd.OutOrStdout(), "export BRAIL_TOKEN=%s\n", resp.Token)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
