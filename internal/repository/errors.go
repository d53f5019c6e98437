package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

const uniqueViolationCode = "23505"

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("record not found")

// DuplicateError is returned when a write violates a unique constraint.
type DuplicateError struct {
	Field string
	Err   error
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate entry: %s already exists", e.Field)
}

func (e *DuplicateError) Unwrap() error {
	return e.Err
}

// mapError translates driver errors into repository errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolationCode {
		return &DuplicateError{Field: constraintField(pqErr), Err: err}
	}
	return err
}

// constraintField recovers the column from Postgres' default unique
// constraint name, e.g. users_email_key -> email.
func constraintField(e *pq.Error) string {
	if e.Column != "" {
		return e.Column
	}
	name := strings.TrimSuffix(e.Constraint, "_key")
	if e.Table != "" {
		name = strings.TrimPrefix(name, e.Table+"_")
	}
	if name == "" {
		return "unknown"
	}
	return name
}
