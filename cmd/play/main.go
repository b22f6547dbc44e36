// Command arcade-play plays catalog games from a terminal against the arcade API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"minigame-arcade/client"
	"minigame-arcade/play"
	"minigame-arcade/services"
	"minigame-arcade/workers"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type options struct {
	apiURL string
	token  string
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:          "arcade-play",
		Short:        "Play arcade mini-games from the terminal",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.apiURL, "api", envOr("ARCADE_API_URL", "http://localhost:5200"), "arcade API base URL")
	cmd.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("ARCADE_TOKEN"), "bearer token")

	cmd.AddCommand(newGamesCmd(opts), newPlayCmd(opts), newTokenCmd())
	return cmd
}

func newGamesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "games",
		Short: "List published games",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog := client.NewCatalogClient(opts.clientConfig())
			games, err := catalog.ListGames(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, g := range games {
				playable := ""
				if !play.DefaultRegistry.Has(g.Name) {
					playable = " (not playable here)"
				}
				fmt.Fprintf(out, "%s  %s%s\n", g.ID, g.Name, playable)
			}
			return nil
		},
	}
}

func newPlayCmd(opts *options) *cobra.Command {
	var flushTimeout time.Duration
	cmd := &cobra.Command{
		Use:   "play <game-id>",
		Short: "Join a game and play it on stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			cfg := opts.clientConfig()

			scores := client.NewScoreClient(cfg)
			joined, err := scores.Join(ctx, args[0])
			if err != nil {
				return fmt.Errorf("join: %w", err)
			}
			fmt.Fprintln(out, joined.Message)

			queue := workers.NewSubmissionQueue(scores)
			queue.OnResult = func(res workers.SubmissionResult) {
				if res.Confirmed() {
					fmt.Fprintf(out, "  ✔ saved: game points %d, total %d\n", res.Entry.Points, res.Entry.AccountPoints)
					return
				}
				fmt.Fprintf(out, "  ✘ score not confirmed: %v\n", res.Err)
			}
			qctx, cancel := context.WithCancel(ctx)
			done := make(chan struct{})
			go func() {
				queue.Start(qctx)
				close(done)
			}()

			controller := play.NewController(client.NewCatalogClient(cfg), queue)
			var sessOpts []play.SessionOption
			if joined.Points != nil {
				sessOpts = append(sessOpts, play.WithStartingPoints(*joined.Points))
			}
			sess, err := controller.StartSession(ctx, args[0], sessOpts...)
			if err != nil {
				cancel()
				<-done
				return err
			}

			last, runErr := runSession(sess, cmd.InOrStdin(), out)

			// Reports go out in order, so the last receipt resolving means all have.
			if last != nil {
				flushCtx, flushCancel := context.WithTimeout(ctx, flushTimeout)
				if _, err := last.Wait(flushCtx); err != nil {
					fmt.Fprintf(out, "gave up waiting for %d unsent score(s)\n", queue.Pending()+1)
				}
				flushCancel()
			}
			cancel()
			<-done
			return runErr
		},
	}
	cmd.Flags().DurationVar(&flushTimeout, "flush-timeout", 10*time.Second, "how long to wait for unsent scores on exit")
	return cmd
}

// newTokenCmd signs a development token for servers running with AUTH_JWT_SECRET.
func newTokenCmd() *cobra.Command {
	var (
		secret string
		user   string
		roles  []string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a local HS256 bearer token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if secret == "" || user == "" {
				return fmt.Errorf("--secret and --user are required")
			}
			token, err := services.NewJWTValidator(secret).IssueToken(user, roles, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&secret, "secret", os.Getenv("AUTH_JWT_SECRET"), "shared HS256 secret")
	cmd.Flags().StringVar(&user, "user", "", "user id (sub claim)")
	cmd.Flags().StringSliceVar(&roles, "roles", nil, "roles claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}

func (o *options) clientConfig() client.Config {
	return client.Config{
		BaseURL: o.apiURL,
		Tokens:  client.StaticToken(strings.TrimSpace(o.token)),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
