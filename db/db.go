package db

import (
	"context"
	"database/sql"
	"time"

	"procurement/internal/apperr"
	"procurement/internal/procurement"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

// PoolOptions: параметры пула соединений
type PoolOptions struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Connect открывает пул и проверяет соединение
func Connect(ctx context.Context, dsn string, opts PoolOptions) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "connect to postgres")
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}
	return db, nil
}

// repo выполняет запросы через пул или через открытую транзакцию
type repo struct {
	q sqlx.ExtContext
}

type Storage struct {
	repo
	db *sqlx.DB
}

var _ procurement.Store = (*Storage)(nil)

func NewStorage(db *sqlx.DB) *Storage {
	return &Storage{repo: repo{q: db}, db: db}
}

// WithinTx: строки, прочитанные через Lock*, заблокированы до коммита
func (s *Storage) WithinTx(ctx context.Context, fn func(ctx context.Context, tx procurement.Repository) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(ctx, &repo{q: tx}); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "commit tx")
}

// Коды ошибок PostgreSQL
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeInvalidText         = "22P02"
)

var constraintMessages = map[string]string{
	"purchase_orders_quote_id_key":      "quote already has a purchase order",
	"approval_requests_one_pending_idx": "purchase order already has a pending approval",
	"members_pkey":                      "user is already a member",
}

// mapErr переводит ошибки драйвера в ошибки домена
func mapErr(err error, entity, id string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound(entity, id)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case codeUniqueViolation:
			msg, ok := constraintMessages[pqErr.Constraint]
			if !ok {
				msg = entity + " already exists"
			}
			return apperr.Wrap(err, apperr.KindConflict, msg)
		case codeForeignKeyViolation:
			return apperr.Wrap(err, apperr.KindConflict, entity+" references missing or in-use records")
		case codeInvalidText:
			// id не является UUID
			return apperr.NotFound(entity, id)
		}
	}
	return errors.Wrapf(err, "%s %s", entity, id)
}

// expectAffected: UPDATE/DELETE по отсутствующей строке означает NotFound
func expectAffected(res sql.Result, err error, entity, id string) error {
	if err != nil {
		return mapErr(err, entity, id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if n == 0 {
		return apperr.NotFound(entity, id)
	}
	return nil
}
