// Package repository implements all database queries for the booking engine.
// It uses pgx directly (no ORM).
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a uniqueness rule, such as
// a second waiting entry for the same email and event.
var ErrDuplicate = errors.New("duplicate")

// ErrConflict is returned when a conditional update matched no row because
// the row is no longer in the expected state.
var ErrConflict = errors.New("conflict")

const uniqueViolation = "23505"

type txKey struct{}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// conn returns the transaction carried by ctx, or the pool.
func conn(ctx context.Context, db *pgxpool.Pool) querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return db
}

// inTx runs fn in a transaction stored in the context passed to it. If ctx
// already carries one, fn joins it.
func inTx(ctx context.Context, db *pgxpool.Pool, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	tx, err := db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// TxManager starts transactions that the repositories pick up from context.
type TxManager struct {
	db *pgxpool.Pool
}

// NewTxManager constructs a TxManager.
func NewTxManager(db *pgxpool.Pool) *TxManager {
	return &TxManager{db: db}
}

// WithinTx runs fn in one read-committed transaction. Capacity checks rely
// on row locks taken inside fn, not on the isolation level.
func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return inTx(ctx, m.db, fn)
}

// Store groups the Postgres repositories behind a single value.
type Store struct {
	*TxManager
	*EventRepository
	*BookingRepository
	*WaitlistRepository
}

// NewStore wires every repository over one pool.
func NewStore(db *pgxpool.Pool) *Store {
	return &Store{
		TxManager:          NewTxManager(db),
		EventRepository:    NewEventRepository(db),
		BookingRepository:  NewBookingRepository(db),
		WaitlistRepository: NewWaitlistRepository(db),
	}
}
