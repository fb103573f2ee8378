package db

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// Migration commands accepted by Migrate.
const (
	MigrateUp     = "up"
	MigrateDown   = "down"
	MigrateStatus = "status"
	MigrateReset  = "reset"
)

// goose keeps its settings in package globals.
var gooseMu sync.Mutex

// Migrate runs a goose command against the pool using migrations from fsys.
// The *sql.DB bridge shares the pool's connections and is not closed here.
func Migrate(ctx context.Context, pool *pgxpool.Pool, fsys fs.FS, table, command string, log *slog.Logger) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	sqlDB := stdlib.OpenDBFromPool(pool)

	goose.SetBaseFS(fsys)
	goose.SetLogger(gooseLogger{log: log})
	if table != "" {
		goose.SetTableName(table)
	}
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Join(ErrMigrate, err)
	}

	var err error
	switch command {
	case MigrateUp:
		err = goose.UpContext(ctx, sqlDB, ".")
	case MigrateDown:
		err = goose.DownContext(ctx, sqlDB, ".")
	case MigrateStatus:
		err = goose.StatusContext(ctx, sqlDB, ".")
	case MigrateReset:
		err = goose.ResetContext(ctx, sqlDB, ".")
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDirection, command)
	}
	if err != nil {
		return errors.Join(ErrMigrate, err)
	}
	return nil
}

type gooseLogger struct {
	log *slog.Logger
}

func (g gooseLogger) Printf(format string, args ...any) {
	g.log.Info(fmt.Sprintf(format, args...), slog.String("component", "migrate"))
}

// Fatalf only logs; goose also returns the error, which the caller handles.
func (g gooseLogger) Fatalf(format string, args ...any) {
	g.log.Error(fmt.Sprintf(format, args...), slog.String("component", "migrate"))
}
