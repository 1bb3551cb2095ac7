package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres error codes this layer cares about.
const (
	pgUndefinedTable  = "42P01"
	pgUniqueViolation = "23505"
)

// IsUndefinedTable reports whether err means the target relation does not
// exist. The cart service uses this to degrade to the guest store when the
// cart table was never provisioned.
func IsUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUndefinedTable
}

// IsUniqueViolation reports whether err is a unique-constraint conflict.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
