package orders

import (
	"context"

	"github.com/jmoiron/sqlx"

	"comercio/m/domain"
)

// SubtractStock decrements product stock for every item inside the caller's
// transaction. Each decrement is conditional on sufficient stock; zero rows
// affected means the product is missing or short, and the returned StockError
// must abort the whole transaction so no earlier decrement survives.
func SubtractStock(ctx context.Context, tx *sqlx.Tx, items []domain.OrderItem) error {
	const stmt = `UPDATE productos SET cantidad = cantidad - $1 WHERE id_producto = $2 AND cantidad >= $1`
	for _, it := range items {
		res, err := tx.ExecContext(ctx, stmt, it.Cantidad, it.ProductID)
		if err != nil {
			return translateDBError(err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return &StockError{ProductID: it.ProductID, Requested: it.Cantidad}
		}
	}
	return nil
}

// AddStock increments product stock unconditionally; used on reversal paths
// such as deleting a sale or replacing its item set.
func AddStock(ctx context.Context, tx *sqlx.Tx, items []domain.OrderItem) error {
	const stmt = `UPDATE productos SET cantidad = cantidad + $1 WHERE id_producto = $2`
	for _, it := range items {
		if _, err := tx.ExecContext(ctx, stmt, it.Cantidad, it.ProductID); err != nil {
			return translateDBError(err)
		}
	}
	return nil
}
