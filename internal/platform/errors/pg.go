package errors

import (
	stderrs "errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE classes the build store runs into
const (
	sqlUniqueViolation     = "23505"
	sqlForeignKeyViolation = "23503"
	sqlNotNullViolation    = "23502"
	sqlCheckViolation      = "23514"
	sqlStringTruncation    = "22001"
	sqlInvalidText         = "22P02"
	sqlSerialization       = "40001"
	sqlDeadlock            = "40P01"
	sqlLockNotAvailable    = "55P03"
	sqlReadOnly            = "25006"
	sqlCannotConnectNow    = "57P03"
)

var codeBySQLState = map[string]ErrorCode{
	sqlUniqueViolation:     ErrorCodeDuplicateKey,
	sqlForeignKeyViolation: ErrorCodeInvalidArgument,
	sqlNotNullViolation:    ErrorCodeValidation,
	sqlCheckViolation:      ErrorCodeValidation,
	sqlStringTruncation:    ErrorCodeInvalidArgument,
	sqlInvalidText:         ErrorCodeInvalidArgument,
	sqlSerialization:       ErrorCodeDB,
	sqlDeadlock:            ErrorCodeDB,
	sqlLockNotAvailable:    ErrorCodeDB,
	sqlReadOnly:            ErrorCodeUnavailable,
	sqlCannotConnectNow:    ErrorCodeUnavailable,
}

// PgError returns the driver error at the root of err
func PgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if stderrs.As(Root(err), &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// DBErrorCode classifies a Postgres error; ok is false for anything else
func DBErrorCode(err error) (ErrorCode, bool) {
	var pgErr *pgconn.PgError
	if !stderrs.As(err, &pgErr) {
		return ErrorCodeUnknown, false
	}
	if c, ok := codeBySQLState[pgErr.Code]; ok {
		return c, true
	}
	return ErrorCodeDB, true
}

// FromPostgres wraps a store failure with its classified code. A missing row
// becomes ErrorCodeNotFound. Nil stays nil
func FromPostgres(err error, msg string) error {
	if err == nil {
		return nil
	}
	if code, ok := DBErrorCode(err); ok {
		return Wrap(err, code, msg)
	}
	if IsCode(err, ErrorCodeNotFound) {
		return Wrap(err, ErrorCodeNotFound, msg)
	}
	return Wrap(err, ErrorCodeDB, msg)
}

func FromPostgresf(err error, format string, a ...any) error {
	return FromPostgres(err, fmt.Sprintf(format, a...))
}

// Contended reports lock or serialization conflicts worth retrying the
// whole transaction for
func Contended(err error) bool {
	pgErr, ok := PgError(err)
	if !ok {
		return false
	}
	switch pgErr.Code {
	case sqlSerialization, sqlDeadlock, sqlLockNotAvailable:
		return true
	}
	return false
}
