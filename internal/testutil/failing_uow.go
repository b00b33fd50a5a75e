package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"

	"github.com/alexanderramin/agriadvisor/internal/db"
)

// FaultyUoW is a db.UnitOfWork whose transaction fails the FailOn-th write
// with Err. Reads are not counted. It lets tests check that a multi-row save
// leaves nothing behind when it breaks half way.
type FaultyUoW struct {
	DB     *sql.DB
	FailOn int32
	Err    error
}

func (u *FaultyUoW) WithinTx(ctx context.Context, fn func(ctx context.Context, tx db.DBTX) error) error {
	tx, err := u.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(ctx, &faultyTx{DBTX: tx, failOn: u.FailOn, err: u.Err}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

type faultyTx struct {
	db.DBTX
	writes atomic.Int32
	failOn int32
	err    error
}

func (f *faultyTx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if f.writes.Add(1) == f.failOn {
		return nil, f.err
	}
	return f.DBTX.ExecContext(ctx, query, args...)
}
