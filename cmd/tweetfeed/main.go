// Package main provides the tweetfeed CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/gauthierbraillon/tweetfeed/internal/aggregator"
	"github.com/gauthierbraillon/tweetfeed/internal/bridge"
	"github.com/gauthierbraillon/tweetfeed/internal/cache"
	"github.com/gauthierbraillon/tweetfeed/internal/config"
	"github.com/gauthierbraillon/tweetfeed/internal/display"
	"github.com/gauthierbraillon/tweetfeed/internal/log"
	"github.com/gauthierbraillon/tweetfeed/internal/query"
	"github.com/gauthierbraillon/tweetfeed/internal/server"
	"github.com/gauthierbraillon/tweetfeed/internal/twitter"
	"github.com/gauthierbraillon/tweetfeed/pkg/oauth"
)

// version is injected at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveVersion prefers the ldflags version, then the module version
// recorded by go install.
func resolveVersion(ldflagsVersion string, info *debug.BuildInfo) string {
	if ldflagsVersion != "dev" {
		return ldflagsVersion
	}
	if info == nil || info.Main.Version == "" || info.Main.Version == "(devel)" {
		return "dev"
	}
	return info.Main.Version
}

func buildVersion() string {
	info, _ := debug.ReadBuildInfo()
	return resolveVersion(version, info)
}

// newRootCmd creates the root command for tweetfeed CLI.
func newRootCmd() *cobra.Command {
	cfg := config.Load()

	rootCmd := &cobra.Command{
		Use:     "tweetfeed",
		Short:   "Turn Twitter timelines, searches and lists into feeds",
		Long:    "Tweetfeed reads a user timeline, a recent search or a list through the Twitter API v2 and renders it as feed items.",
		Version: buildVersion(),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.Setup(cfg.LogLevel, cfg.LogFormat)
		},
		SilenceUsage: true,
	}

	rootCmd.SetVersionTemplate("tweetfeed version {{.Version}}\n")

	rootCmd.AddCommand(newAuthCmd(cfg))
	rootCmd.AddCommand(newFeedCmd(cfg))
	rootCmd.AddCommand(newServeCmd(cfg))
	rootCmd.AddCommand(newConfigCmd(cfg))

	return rootCmd
}

// newAuthCmd creates the auth subcommand.
func newAuthCmd(cfg *config.Config) *cobra.Command {
	var logout bool

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Obtain an app-only bearer token",
		Long:  "Exchange the API key and secret for an app-only bearer token and store it in the config directory.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			storage := oauth.NewTokenStorage(cfg.ConfigDir)

			if logout {
				if err := storage.Delete(oauth.Provider); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Stored token removed.")
				return nil
			}

			if cfg.APIKey == "" || cfg.APISecret == "" {
				return errors.New("missing credentials: set TWEETFEED_API_KEY and TWEETFEED_API_SECRET environment variables")
			}

			oauthCfg := oauth.TwitterOAuthConfig(cfg.APIKey, cfg.APISecret)
			oauthCfg.TokenURL = cfg.TokenURL

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			fmt.Fprintln(cmd.OutOrStdout(), "Requesting bearer token...")
			token, err := oauth.NewFlow(oauthCfg).FetchBearerToken(ctx)
			if err != nil {
				return fmt.Errorf("authentication failed: %w", err)
			}

			if err := storage.Save(oauth.Provider, token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Successfully authenticated with Twitter!")
			fmt.Fprintf(cmd.OutOrStdout(), "Token saved to: %s\n", cfg.ConfigDir)
			return nil
		},
	}

	cmd.Flags().BoolVar(&logout, "logout", false, "Remove the stored token instead of fetching one")

	return cmd
}

// feedFlags are the per-invocation feed settings shared by flags and output.
type feedFlags struct {
	username string
	search   string
	listID   string
	opts     bridge.Options
	limit    int
	asJSON   bool
}

func (f *feedFlags) mode() (query.Mode, string, error) {
	var (
		mode  query.Mode
		value string
		set   int
	)
	if f.username != "" {
		mode, value = query.ModeUsername, f.username
		set++
	}
	if f.search != "" {
		mode, value = query.ModeKeyword, f.search
		set++
	}
	if f.listID != "" {
		mode, value = query.ModeList, f.listID
		set++
	}
	if set != 1 {
		return "", "", errors.New("exactly one of --username, --query or --list is required")
	}
	return mode, value, nil
}

// newFeedCmd creates the feed subcommand.
func newFeedCmd(cfg *config.Config) *cobra.Command {
	f := &feedFlags{}

	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Display a feed",
		Long:  "Fetch a user timeline, a recent search or a list and display the resulting feed items.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, value, err := f.mode()
			if err != nil {
				return err
			}
			f.opts.Mode, f.opts.Value = mode, value

			client, err := newTwitterClient(cfg)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			feed, err := bridge.New(client).Collect(ctx, f.opts)
			if err != nil {
				return err
			}
			feed.Items = aggregator.Assemble(feed.Items, aggregator.FeedOptions{Limit: f.limit})

			if f.asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(feed)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s\n\n", feed.Title)
			fmt.Fprint(cmd.OutOrStdout(), display.NewTerminalFormatter().FormatFeed(feed.Items))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.username, "username", "u", "", "Fetch the timeline of this username")
	flags.StringVarP(&f.search, "query", "q", "", "Fetch recent tweets matching this keyword or #hashtag")
	flags.StringVar(&f.listID, "list", "", "Fetch the tweets of this list ID")
	flags.StringVar(&f.opts.Filter, "filter", "", "Keep only tweets containing this keyword (case-insensitive)")
	flags.BoolVar(&f.opts.ExcludeReplies, "exclude-replies", false, "Drop replies")
	flags.BoolVar(&f.opts.ExcludeRetweets, "exclude-retweets", false, "Drop retweets and quotes")
	flags.BoolVar(&f.opts.ExcludePinned, "exclude-pinned", false, "Drop the user's pinned tweet")
	flags.IntVar(&f.opts.MaxResults, "max-results", query.DefaultMaxResults, "Tweets requested from the API (1-100)")
	flags.BoolVar(&f.opts.MediaOnly, "media-only", false, "Keep only tweets with media")
	flags.BoolVar(&f.opts.HideAvatar, "hide-avatar", false, "Leave profile pictures out of the content")
	flags.BoolVar(&f.opts.HideMedia, "hide-media", false, "Leave images out of the content")
	flags.BoolVar(&f.opts.DisableImageScaling, "disable-image-scaling", false, "Link images at their served size")
	flags.BoolVar(&f.opts.IDAsTitle, "id-as-title", false, "Use the tweet id as item title")
	flags.IntVarP(&f.limit, "limit", "l", 0, "Maximum number of items to display (0 for all)")
	flags.BoolVar(&f.asJSON, "json", false, "Print the feed as JSON")

	return cmd
}

// newServeCmd creates the serve subcommand.
func newServeCmd(cfg *config.Config) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve feeds over HTTP",
		Long:  "Start an HTTP server answering GET /feed with the same options as the feed command.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newTwitterClient(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var collector server.Collector = bridge.New(client)
			if cfg.RedisAddr != "" {
				store, err := cache.NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword)
				if err != nil {
					return err
				}
				defer store.Close()
				collector = cache.New(collector, store, cfg.CacheTTL)
				log.Log.WithFields(map[string]interface{}{
					"redis": cfg.RedisAddr,
					"ttl":   cfg.CacheTTL.String(),
				}).Info("feed cache enabled")
			}

			gin.SetMode(gin.ReleaseMode)
			srv := &http.Server{
				Addr:              addr,
				Handler:           server.NewRouter(collector),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errc := make(chan error, 1)
			go func() {
				log.Log.WithField("addr", addr).Info("listening")
				errc <- srv.ListenAndServe()
			}()

			select {
			case err := <-errc:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			log.Log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", cfg.ListenAddr, "Listen address")

	return cmd
}

// newConfigCmd creates the config subcommand.
func newConfigCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show configuration",
		Long:  "Show the resolved tweetfeed configuration settings.",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config directory: %s\n", cfg.ConfigDir)
			fmt.Fprintf(out, "API URL: %s\n", cfg.APIURL)
			fmt.Fprintf(out, "Listen address: %s\n", cfg.ListenAddr)
			if cfg.RedisAddr != "" {
				fmt.Fprintf(out, "Feed cache: %s (ttl %s)\n", cfg.RedisAddr, cfg.CacheTTL)
			} else {
				fmt.Fprintln(out, "Feed cache: disabled")
			}
			fmt.Fprintf(out, "Bearer token: %s\n", tokenSource(cfg))
			return nil
		},
	}

	return cmd
}

func tokenSource(cfg *config.Config) string {
	if cfg.BearerToken != "" {
		return "environment"
	}
	if _, err := oauth.NewTokenStorage(cfg.ConfigDir).Load(oauth.Provider); err == nil {
		return "stored"
	}
	return "not set"
}

// newTwitterClient uses the bearer token from the environment, falling back
// to the one stored by "tweetfeed auth".
func newTwitterClient(cfg *config.Config) (*twitter.Client, error) {
	token := cfg.BearerToken
	if token == "" {
		stored, err := oauth.NewTokenStorage(cfg.ConfigDir).Load(oauth.Provider)
		if err != nil {
			return nil, errors.New("not authenticated (run 'tweetfeed auth' or set TWEETFEED_BEARER_TOKEN)")
		}
		token = stored.AccessToken
	}
	return twitter.NewClient(token, twitter.WithBaseURL(cfg.APIURL)), nil
}
