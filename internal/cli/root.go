// Package cli contains all placectl commands.
package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"placectl/config"
	"placectl/internal/adapter/gateway"
	"placectl/internal/infrastructure/cache"
	"placectl/internal/infrastructure/store"
	"placectl/internal/output"
	"placectl/internal/usecase"
	"placectl/utils/logger"
)

var (
	cfgFile string
	verbose bool
	cfg     *config.Config
	log     *slog.Logger
	app     *appContext
	version = "dev"
)

// appContext bundles the wired session components shared by commands.
type appContext struct {
	login      *usecase.Login
	challenge  *usecase.RespondToChallenge
	logout     *usecase.Logout
	getProfile *usecase.GetProfile
	authorize  *usecase.Authorize
}

var rootCmd = &cobra.Command{
	Use:   "placectl",
	Short: "Placement portal session CLI",
	Long: `placectl manages a session against the placement portal's identity API.

It signs in, caches the portal profile, and checks which dashboard the
signed-in account is allowed to reach.

Example usage:
  placectl login                       # Sign in and persist the session token
  placectl whoami                      # Show the cached portal profile
  placectl dashboard                   # Resolve the dashboard for this account
  placectl dashboard --require pto     # Check access against an allow-list
  placectl logout                      # Drop the persisted session`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initApp()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string reported by the CLI.
func SetVersion(v string) {
	version = v
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .placectl.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func initApp() error {
	var err error

	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	log = logger.Init(level, cfg.Logging.Format)

	tokenStore, err := store.NewFileStore(cfg.Session.TokenFile)
	if err != nil {
		return fmt.Errorf("opening token store: %w", err)
	}

	client := gateway.NewClient(cfg.Portal.BaseURL, log)
	profiles := cache.NewProfileCache(client, tokenStore, log)

	app = &appContext{
		login:      usecase.NewLogin(client, tokenStore, profiles, log),
		challenge:  usecase.NewRespondToChallenge(client, tokenStore, profiles, log),
		logout:     usecase.NewLogout(tokenStore, profiles, log),
		getProfile: usecase.NewGetProfile(tokenStore, profiles),
		authorize:  usecase.NewAuthorize(tokenStore, profiles, log),
	}

	log.Debug("configuration loaded",
		"base_url", cfg.Portal.BaseURL,
		"token_file", cfg.Session.TokenFile,
	)

	return nil
}

// printerFor binds output to the command's writers so tests can
// capture it.
func printerFor(cmd *cobra.Command) *output.Printer {
	return output.NewPrinterTo(cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg.Output.Colors)
}
