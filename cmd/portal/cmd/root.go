package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/goliatone/go-portal"
	"github.com/spf13/cobra"
)

var (
	cfg    portal.Config
	logger *portal.SlogLogger
)

var rootCmd = &cobra.Command{
	Use:   "portal",
	Short: "Members portal with signup, login and an admin area",
	Long: `portal serves a small members site backed by a SQL user store.
Users sign up and log in with email and password, sessions are kept
server side, and admins can change user roles.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = portal.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		flags := cmd.Flags()
		if flags.Changed("db-url") {
			cfg.DatabaseURL, _ = flags.GetString("db-url")
		}
		if flags.Changed("addr") {
			cfg.Addr, _ = flags.GetString("addr")
		}
		if flags.Changed("admin-username") {
			cfg.AdminUsername, _ = flags.GetString("admin-username")
		}
		if flags.Changed("activity-log") {
			cfg.ActivityLog, _ = flags.GetString("activity-log")
		}
		if flags.Changed("debug") {
			cfg.Debug, _ = flags.GetBool("debug")
		}

		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		level := slog.LevelInfo
		if cfg.Debug {
			level = slog.LevelDebug
		}
		logger = portal.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		}))).With("service", "portal")

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("db-url", "", "Database connection URL (env: DATABASE_URL)")
	rootCmd.PersistentFlags().String("addr", "", "Server bind address (env: PORTAL_ADDR or PORT)")
	rootCmd.PersistentFlags().String("admin-username", "", "Username that signs up as admin (env: ADMIN_USERNAME)")
	rootCmd.PersistentFlags().String("activity-log", "", "Append activity events as JSON lines to this file (env: ACTIVITY_LOG)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging (env: DEBUG)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(usersCmd)
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
