package cli

import (
	"fmt"
	"log/slog"

	"taskboard/connection"
	"taskboard/seed"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var debug bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the task API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := settingsFrom(cmd).cfg
			if err := cfg.Validate(); err != nil {
				return err
			}
			if !debug {
				gin.SetMode(gin.ReleaseMode)
			}
			code, err := connection.StartServer(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if code != 0 {
				return fmt.Errorf("server exited with code %d", code)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&debug, "debug", false, "run gin in debug mode")
	return cmd
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed [file]",
		Short: "Load users and tasks from a JSON or YAML file (embedded demo data by default)",
		Long: "Load users and tasks from a JSON or YAML file (embedded demo data by default).\n" +
			"Users that already exist (by email) are skipped. Tasks have no natural key, so seeding twice creates them again.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := settingsFrom(cmd).cfg
			path := cfg.SeedFile
			if len(args) == 1 {
				path = args[0]
			}

			var data *seed.Data
			var err error
			if path == "" {
				data, err = seed.Default()
			} else {
				data, err = seed.LoadFile(path)
			}
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, err := connection.OpenStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			res, err := seed.NewSeeder(store, store).Run(ctx, data)
			if err != nil {
				return err
			}
			slog.Info("seed finished",
				"usersCreated", res.UsersCreated, "usersSkipped", res.UsersSkipped, "usersFailed", res.UsersFailed,
				"tasksCreated", res.TasksCreated, "tasksFailed", res.TasksFailed)
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d users (%d skipped), %d tasks\n",
				res.UsersCreated, res.UsersSkipped, res.TasksCreated)
			return nil
		},
	}
}
