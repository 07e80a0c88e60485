package orders

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateDBErrorForeignKey(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23503", ConstraintName: "ventas_items_id_producto_fkey"}
	err := translateDBError(fmt.Errorf("insert: %w", pgErr))

	var refErr *ReferentialError
	require.ErrorAs(t, err, &refErr)
	assert.Equal(t, "ventas_items_id_producto_fkey", refErr.Constraint)
}

func TestTranslateDBErrorUnique(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "productos_referencia_key"}
	err := translateDBError(pgErr)

	var conflictErr *ConflictError
	require.ErrorAs(t, err, &conflictErr)
	assert.Equal(t, "productos_referencia_key", conflictErr.Constraint)
}

func TestTranslateDBErrorPassthrough(t *testing.T) {
	plain := errors.New("connection reset")
	assert.Same(t, plain, translateDBError(plain))

	other := &pgconn.PgError{Code: "40001"}
	assert.Equal(t, error(other), translateDBError(other))
}

func TestStockErrorMessage(t *testing.T) {
	err := &StockError{ProductID: 9, Requested: 3}
	assert.Contains(t, err.Error(), "stock insuficiente")
	assert.Contains(t, err.Error(), "9")
}
