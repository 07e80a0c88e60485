package orders

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when a header does not exist or belongs to another
// user. The two cases are deliberately indistinguishable.
var ErrNotFound = errors.New("orden no encontrada")

// ValidationError reports malformed input. It is raised before any store
// access.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// ReferentialError wraps a foreign key violation (unknown product or
// counterparty).
type ReferentialError struct {
	Constraint string
}

func (e *ReferentialError) Error() string {
	return fmt.Sprintf("referencia invalida (restriccion %s)", e.Constraint)
}

// ConflictError wraps a unique constraint violation.
type ConflictError struct {
	Constraint string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("registro duplicado (restriccion %s)", e.Constraint)
}

// StockError reports an item whose conditional stock decrement affected zero
// rows: the product is missing or its stock is below the requested quantity.
type StockError struct {
	ProductID int64
	Requested int64
}

func (e *StockError) Error() string {
	return fmt.Sprintf("stock insuficiente para el producto %d (solicitado %d)", e.ProductID, e.Requested)
}

// translateDBError converts Postgres constraint violations into the caller
// facing taxonomy; everything else passes through untouched.
func translateDBError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23503":
			return &ReferentialError{Constraint: pgErr.ConstraintName}
		case "23505":
			return &ConflictError{Constraint: pgErr.ConstraintName}
		}
	}
	return err
}
