package db_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/tonyc-ship/latios-oss-sub001/pkg/db"
)

type fakeTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
}

func (f *fakeTx) Commit(context.Context) error {
	f.committed = true
	return nil
}

func (f *fakeTx) Rollback(context.Context) error {
	f.rolledBack = true
	return nil
}

type fakeBeginner struct {
	tx  *fakeTx
	err error
}

func (b *fakeBeginner) Begin(context.Context) (pgx.Tx, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.tx, nil
}

func TestWithTx(t *testing.T) {
	t.Parallel()

	t.Run("commits on success", func(t *testing.T) {
		t.Parallel()
		b := &fakeBeginner{tx: &fakeTx{}}
		require.NoError(t, db.WithTx(context.Background(), b, func(pgx.Tx) error { return nil }))
		require.True(t, b.tx.committed)
		require.False(t, b.tx.rolledBack)
	})

	t.Run("rolls back on error", func(t *testing.T) {
		t.Parallel()
		b := &fakeBeginner{tx: &fakeTx{}}
		boom := errors.New("boom")
		err := db.WithTx(context.Background(), b, func(pgx.Tx) error { return boom })
		require.ErrorIs(t, err, boom)
		require.True(t, b.tx.rolledBack)
		require.False(t, b.tx.committed)
	})

	t.Run("rolls back and re-panics", func(t *testing.T) {
		t.Parallel()
		b := &fakeBeginner{tx: &fakeTx{}}
		require.PanicsWithValue(t, "bad", func() {
			_ = db.WithTx(context.Background(), b, func(pgx.Tx) error { panic("bad") })
		})
		require.True(t, b.tx.rolledBack)
	})

	t.Run("begin failure", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("no conn")
		err := db.WithTx(context.Background(), &fakeBeginner{err: boom}, func(pgx.Tx) error { return nil })
		require.ErrorIs(t, err, boom)
	})
}

func TestConnectInvalidURL(t *testing.T) {
	t.Parallel()
	_, err := db.Connect(context.Background(), db.Config{URL: "postgres://user@localhost:badport/db"})
	require.ErrorIs(t, err, db.ErrParseConfig)
}
