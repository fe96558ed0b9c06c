// Package admin implements omniguard-admin, the operator tool that works on
// the user table directly: migrations, user maintenance and key generation.
package admin

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dmitrijs2005/omniguard/internal/logging"
	"github.com/dmitrijs2005/omniguard/internal/server"
	"github.com/dmitrijs2005/omniguard/internal/server/config"
	"github.com/spf13/cobra"
)

// env carries what the subcommands share. app is built lazily by
// PersistentPreRunE, so commands that need no database (keygen) never open
// one.
type env struct {
	cfg     *config.Config
	verbose bool
	in      *bufio.Reader
	app     *server.App
}

func (e *env) open(cmd *cobra.Command) error {
	// the admin tool never serves sessions
	e.cfg.SessionBackend = config.SessionBackendMemory

	var logger logging.Logger = logging.NewNopLogger()
	if e.verbose {
		logger = logging.NewJSONLogger(cmd.ErrOrStderr(), slog.LevelDebug)
	}

	app, err := server.NewApp(cmd.Context(), e.cfg, logger)
	if err != nil {
		return err
	}
	e.app = app
	return nil
}

func (e *env) close() error {
	if e.app == nil {
		return nil
	}
	err := e.app.Close()
	e.app = nil
	return err
}

// NewRootCmd creates the root command. Settings start from the server
// defaults and OMNI_* environment variables; flags override both.
func NewRootCmd(in io.Reader) *cobra.Command {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	// loaded before the flags are declared so the flag defaults show the
	// environment and explicit flags win over it
	envErr := config.LoadEnv(cfg)

	e := &env{cfg: cfg, in: bufio.NewReader(in)}

	rootCmd := &cobra.Command{
		Use:   "omniguard-admin",
		Short: "Administration tool for the OmniGuard user store",
		Long: `omniguard-admin works directly against the OmniGuard database.

It applies schema migrations, lists and maintains users, and generates keys
for the reversible credential scheme.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if envErr != nil {
				return fmt.Errorf("environment: %w", envErr)
			}
			return e.open(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return e.close()
		},
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfg.DatabaseDriver, "driver", cfg.DatabaseDriver, "Database driver: postgres, sqlite (env: OMNI_DB_DRIVER)")
	pf.StringVar(&cfg.DatabaseDSN, "dsn", cfg.DatabaseDSN, "Database DSN (env: OMNI_DATABASE_DSN)")
	pf.StringVar(&cfg.CredentialScheme, "scheme", cfg.CredentialScheme, "Credential scheme: bcrypt, cipher (env: OMNI_CREDENTIAL_SCHEME)")
	pf.StringVar(&cfg.CredentialKey, "key", cfg.CredentialKey, "Key for the cipher scheme (env: OMNI_CREDENTIAL_KEY)")
	pf.IntVar(&cfg.BcryptCost, "bcrypt-cost", cfg.BcryptCost, "bcrypt cost (env: OMNI_BCRYPT_COST)")
	pf.BoolVarP(&e.verbose, "verbose", "v", false, "Log to stderr")

	rootCmd.AddCommand(newMigrateCmd(e))
	rootCmd.AddCommand(newUsersCmd(e))
	rootCmd.AddCommand(newKeygenCmd())

	return rootCmd
}

// Execute runs the root command
func Execute(ctx context.Context) {
	if err := NewRootCmd(os.Stdin).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
