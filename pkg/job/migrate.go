package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
)

// River schema commands accepted by Migrate.
const (
	MigrateUp     = "up"
	MigrateDown   = "down"
	MigrateStatus = "status"
)

var (
	ErrMigrate        = errors.New("job: river migration failed")
	ErrUnknownMigrate = errors.New("job: unknown migrate command")
	ErrSchemaMissing  = errors.New("job: river tables are missing")
)

// Migrate manages River's own tables. up installs or upgrades them to the
// version the linked River expects, down removes them entirely and status
// logs the applied versions.
func Migrate(ctx context.Context, pool *pgxpool.Pool, command string, log *slog.Logger) error {
	if pool == nil {
		return ErrPoolRequired
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	log = log.With(slog.String("component", "river-migrate"))

	migrator, err := rivermigrate.New(riverpgxv5.New(pool), &rivermigrate.Config{Logger: log})
	if err != nil {
		return errors.Join(ErrMigrate, err)
	}

	switch command {
	case MigrateUp:
		res, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil)
		if err != nil {
			return errors.Join(ErrMigrate, err)
		}
		log.InfoContext(ctx, "river schema up to date", slog.Int("applied", len(res.Versions)))
	case MigrateDown:
		res, err := migrator.Migrate(ctx, rivermigrate.DirectionDown, &rivermigrate.MigrateOpts{TargetVersion: -1})
		if err != nil {
			return errors.Join(ErrMigrate, err)
		}
		log.InfoContext(ctx, "river schema removed", slog.Int("reverted", len(res.Versions)))
	case MigrateStatus:
		versions, err := migrator.ExistingVersions(ctx)
		if err != nil {
			return errors.Join(ErrMigrate, err)
		}
		for _, v := range versions {
			log.InfoContext(ctx, "river migration applied", slog.Int("version", v.Version), slog.String("name", v.Name))
		}
		if len(versions) == 0 {
			log.InfoContext(ctx, "river schema not installed")
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMigrate, command)
	}
	return nil
}

// checkSchema reports ErrSchemaMissing when river_job does not exist on
// the connection's search path.
func checkSchema(ctx context.Context, pool *pgxpool.Pool) error {
	var exists bool
	if err := pool.QueryRow(ctx, `SELECT to_regclass('river_job') IS NOT NULL`).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrSchemaMissing
	}
	return nil
}
