package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/decktube/internal/adapters/repository"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:       "migrate [up|down|version]",
		Short:     "Manage the saved items database schema",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "version"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			path := cfg.Storage.Path
			if dbPath != "" {
				path = dbPath
			}
			if path == "" {
				return fmt.Errorf("%w: no database path configured", repository.ErrInvalidItem)
			}

			action := "up"
			if len(args) == 1 {
				action = args[0]
			}

			mg, err := repository.NewMigrator(path)
			if err != nil {
				return err
			}
			defer func() { _ = mg.Close() }()

			switch action {
			case "up":
				err = mg.Up()
			case "down":
				err = mg.Down()
			}
			if err != nil {
				return err
			}

			v, dirty, err := mg.Version()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: version %d (dirty=%t)\n", path, v, dirty)
			return err
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "database path (overrides storage.path)")
	return cmd
}
