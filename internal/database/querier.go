package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrUserNotFound              = errors.New("user not found")
	ErrEmailTaken                = errors.New("email already registered")
	ErrQuotaExceeded             = errors.New("optimization quota exceeded")
	ErrRefreshTokenNotRecognized = errors.New("refresh token not recognized")
)

const (
	pgUniqueViolation         = "23505"
	pgForeignKeyViolation     = "23503"
	invalidTextRepresentation = "22P02"
)

type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
