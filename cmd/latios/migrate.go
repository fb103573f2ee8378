package main

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/tonyc-ship/latios-oss-sub001/internal/config"
	"github.com/tonyc-ship/latios-oss-sub001/internal/store"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/db"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/job"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/logger"
)

var migrateCommands = []string{db.MigrateUp, db.MigrateDown, db.MigrateStatus, db.MigrateReset}

// migrationStep is one command against either the application schema
// (goose) or River's queue tables.
type migrationStep struct {
	river   bool
	command string
}

// migrationPlan orders the steps for a migrate command. River's tables are
// installed before the application schema and removed only by reset; down
// rolls back the newest application migration alone.
func migrationPlan(command string) []migrationStep {
	switch command {
	case db.MigrateUp:
		return []migrationStep{{river: true, command: job.MigrateUp}, {command: db.MigrateUp}}
	case db.MigrateDown:
		return []migrationStep{{command: db.MigrateDown}}
	case db.MigrateStatus:
		return []migrationStep{{command: db.MigrateStatus}, {river: true, command: job.MigrateStatus}}
	case db.MigrateReset:
		return []migrationStep{{command: db.MigrateReset}, {river: true, command: job.MigrateDown}}
	}
	return nil
}

func runMigrations(ctx context.Context, pool *pgxpool.Pool, table, command string, log *slog.Logger) error {
	plan := migrationPlan(command)
	if plan == nil {
		return fmt.Errorf("unknown migrate command %q", command)
	}
	for _, step := range plan {
		var err error
		if step.river {
			err = job.Migrate(ctx, pool, step.command, log)
		} else {
			err = db.Migrate(ctx, pool, store.Migrations(), table, step.command, log)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status|reset]",
		Short:     "Apply or inspect database migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: migrateCommands,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(migrateCommands, args[0]) {
				return fmt.Errorf("unknown migrate command %q", args[0])
			}
			cfg, err := config.LoadMigrations()
			if err != nil {
				return err
			}
			log := logger.New(cfg.Log)

			ctx := cmd.Context()
			pool, err := db.Connect(ctx, cfg.DB)
			if err != nil {
				return err
			}
			defer pool.Close()

			return runMigrations(ctx, pool, cfg.DB.MigrationsTable, args[0], log)
		},
	}
}
