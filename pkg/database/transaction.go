package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/jmoiron/sqlx"
)

type TxContextKey string

const txStatusKey = TxContextKey("txStatus")
const txKey = TxContextKey("tx-context-key")

// Tx is an open database transaction. Commit and Rollback are no-ops when the
// transaction was opened further up the call chain (context-scoped ownership).
type Tx interface {
	Querier
	IsOpen() bool
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Transaction wraps sqlx.Tx with context-scoped ownership semantics.
type Transaction struct {
	*sqlx.Tx
	logger   ectologger.Logger
	isClosed bool
}

func NewTx(tx *sqlx.Tx, logger ectologger.Logger) Tx {
	return &Transaction{
		Tx:       tx,
		logger:   logger,
		isClosed: false,
	}
}

// GetTx returns the transaction already carried by the context when one is
// open, otherwise begins a new one and stores it on the returned context.
func GetTx(ctx context.Context, logger ectologger.Logger, db DB, opts *sql.TxOptions) (context.Context, Tx, error) {
	ctxTx, ok := ctx.Value(txKey).(Tx)
	if ok && ctxTx != nil && ctxTx.IsOpen() {
		status, ok := ctx.Value(txStatusKey).(string)
		if ok && status == "open" {
			return ctx, ctxTx, nil
		}
	}

	tx, err := db.BeginTxx(ctx, opts)
	if err != nil {
		logger.WithContext(ctx).WithError(err).Errorf("error while beginning transaction")
		return ctx, nil, fmt.Errorf("error while beginning transaction")
	}

	newTx := NewTx(tx, logger)

	ctx = context.WithValue(ctx, txStatusKey, "open")
	ctx = context.WithValue(ctx, txKey, newTx)
	return ctx, newTx, nil
}

func (t *Transaction) IsOpen() bool {
	return !t.isClosed
}

func (t *Transaction) Rollback(ctx context.Context) error {
	if t.isClosed {
		return nil
	}

	status, ok := ctx.Value(txStatusKey).(string)
	if ok && status == "open" {
		return nil // ctx tx is owned by the caller that opened it
	}

	if err := t.Tx.Rollback(); err != nil {
		t.logger.WithContext(ctx).WithError(err).Errorf("error while rolling back transaction")
		return fmt.Errorf("error while rolling back transaction")
	}

	t.isClosed = true
	return nil
}

func (t *Transaction) Commit(ctx context.Context) error {
	if t.isClosed {
		return nil
	}

	if err := t.Tx.Commit(); err != nil {
		t.logger.WithContext(ctx).WithError(err).Errorf("error while committing transaction")
		return fmt.Errorf("error while committing transaction")
	}

	t.isClosed = true
	return nil
}

// TxRunner runs a function inside a single database transaction. Engines use
// it so multi-entity mutations (golden record consolidation in particular)
// commit or roll back as a unit.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type txRunner struct {
	db     DB
	logger ectologger.Logger
}

func NewTxRunner(db DB, logger ectologger.Logger) TxRunner {
	return &txRunner{db: db, logger: logger}
}

func (r *txRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	ctxTx, tx, err := GetTx(ctx, r.logger, r.db, &sql.TxOptions{})
	if err != nil {
		return err
	}

	// Clear the ownership marker so Rollback/Commit below actually close the
	// transaction instead of deferring to a parent scope.
	ctxTx = context.WithValue(ctxTx, txStatusKey, "owned")

	if err := fn(ctxTx); err != nil {
		_ = tx.Rollback(ctxTx)
		return err
	}

	return tx.Commit(ctxTx)
}
