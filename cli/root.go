// Package cli holds the taskboard command tree.
package cli

import (
	"log/slog"
	"os"

	"taskboard/config"

	"github.com/spf13/cobra"
)

var Version = "dev"

// NewRootCmd builds the taskboard command tree.
func NewRootCmd() *cobra.Command {
	var apiURL string

	rootCmd := &cobra.Command{
		Use:           "taskboard",
		Short:         "Kanban task board API server and terminal client",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			setupLogging(cfg.LogLevel)
			if !cmd.Flags().Changed("api") {
				apiURL = cfg.APIBaseURL
			}
			cmd.SetContext(withSettings(cmd.Context(), &settings{cfg: cfg, apiURL: apiURL}))
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "task API base URL (default $API_BASE_URL)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(loginCmd())
	rootCmd.AddCommand(registerCmd())
	rootCmd.AddCommand(logoutCmd())
	rootCmd.AddCommand(boardCmd())
	rootCmd.AddCommand(createCmd())
	rootCmd.AddCommand(updateCmd())
	rootCmd.AddCommand(deleteCmd())
	rootCmd.AddCommand(usersCmd())

	return rootCmd
}

func setupLogging(level string) {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: config.ParseLogLevel(level)})
	slog.SetDefault(slog.New(handler))
}
