package commands

import (
	"log/slog"

	"github.com/spf13/cobra"

	"timetracker/internal/config"
	"timetracker/internal/logger"
	"timetracker/internal/storage/sqlite"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Loaded by the root command before any subcommand runs.
var (
	cfg config.Config
	log *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "timetracker",
	Short: "Track time spent on tasks",
	Long: `timetracker serves a web UI and a JSON API for logging time against tasks,
and offers operator commands for accounts, tokens and cross-user listings.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		if f := cmd.Flags().Lookup("addr"); f != nil && f.Changed {
			loaded.Addr = f.Value.String()
		}
		if f := cmd.Flags().Lookup("db"); f != nil && f.Changed {
			loaded.DBPath = f.Value.String()
		}
		cfg = loaded
		log = logger.NewWithWriter(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogJSON)
		return nil
	},
}

// openStore opens the configured database; callers close it.
func openStore() (*sqlite.Store, error) {
	return sqlite.Open(cfg.DBPath, log)
}

// SetVersion sets the build information reported by the version command.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("addr", "", "HTTP listen address (overrides TIMETRACKER_ADDR)")
	rootCmd.PersistentFlags().String("db", "", "path to the sqlite database (overrides TIMETRACKER_DB_PATH)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(adminCmd)
	rootCmd.AddCommand(versionCmd)
}
