package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"comercio/m/domain"
	"comercio/m/internal/audit"
	"comercio/m/internal/logger"
)

// ItemInput is one requested line before totals are computed.
type ItemInput struct {
	ProductID int64
	Quantity  int64
	UnitPrice float64
}

// CreateInput carries the header fields and item list for a new order.
type CreateInput struct {
	CounterpartyID *int64
	Fecha          *time.Time
	MetodoPago     *string
	Notas          *string
	Items          []ItemInput
}

// UpdateInput carries a partial header patch plus an optional full item
// replacement. Each *Set flag distinguishes "field supplied" from "field
// absent"; a supplied nil clears the column, except Fecha where nil keeps the
// stored value.
type UpdateInput struct {
	CounterpartySet bool
	CounterpartyID  *int64
	FechaSet        bool
	Fecha           *time.Time
	MetodoPagoSet   bool
	MetodoPago      *string
	NotasSet        bool
	Notas           *string
	ReplaceItems    bool
	Items           []ItemInput
}

// Store reads and writes one order aggregate (header plus line items) per
// Config instantiation. All access is scoped by the owning user.
type Store struct {
	db    *sqlx.DB
	cfg   Config
	audit *audit.Recorder
	log   *logger.Logger
}

// NewStore builds a Store over the given database handle.
func NewStore(db *sqlx.DB, cfg Config, rec *audit.Recorder, log *logger.Logger) *Store {
	return &Store{db: db, cfg: cfg, audit: rec, log: log.With("entity", cfg.Entity)}
}

// Create validates, computes totals, and writes header plus items in a single
// transaction. The persisted aggregate is re-read and returned; the audit
// event is emitted after commit and never affects the result.
func (s *Store) Create(ctx context.Context, userID int64, in CreateInput) (*domain.OrderAggregate, error) {
	if err := ValidateItems(in.Items); err != nil {
		return nil, err
	}
	if err := validateHeaderFields(s.cfg, in.MetodoPago, in.Notas); err != nil {
		return nil, err
	}
	total, items := ComputeTotals(in.Items)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var id int64
	if s.cfg.HasNotes {
		stmt := fmt.Sprintf(`INSERT INTO %s (%s, id_usuario, fecha, metodo_pago, notas, total)
			VALUES ($1, $2, COALESCE($3, NOW()), $4, $5, $6) RETURNING %s`,
			s.cfg.Table, s.cfg.CounterpartyColumn, s.cfg.IDColumn)
		err = tx.QueryRowxContext(ctx, stmt, in.CounterpartyID, userID, in.Fecha, in.MetodoPago, in.Notas, total).Scan(&id)
	} else {
		stmt := fmt.Sprintf(`INSERT INTO %s (%s, id_usuario, fecha, metodo_pago, total)
			VALUES ($1, $2, COALESCE($3, NOW()), $4, $5) RETURNING %s`,
			s.cfg.Table, s.cfg.CounterpartyColumn, s.cfg.IDColumn)
		err = tx.QueryRowxContext(ctx, stmt, in.CounterpartyID, userID, in.Fecha, in.MetodoPago, total).Scan(&id)
	}
	if err != nil {
		return nil, translateDBError(err)
	}

	if err := s.insertItems(ctx, tx, id, items); err != nil {
		return nil, err
	}
	if s.cfg.AdjustStock {
		if err := SubtractStock(ctx, tx, items); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	agg, err := s.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	s.audit.Record(audit.Event{
		Entity:   s.cfg.Entity,
		RecordID: strconv.FormatInt(id, 10),
		Action:   audit.ActionCreate,
		UserID:   &userID,
		NewData:  agg,
	})
	return agg, nil
}

// GetByID returns the aggregate scoped to the owning user, or ErrNotFound. A
// header owned by another user behaves identically to a nonexistent one.
func (s *Store) GetByID(ctx context.Context, id, userID int64) (*domain.OrderAggregate, error) {
	query := s.headerSelect() + fmt.Sprintf(" WHERE %s = $1 AND id_usuario = $2", s.cfg.IDColumn)
	var header domain.Order
	if err := s.db.GetContext(ctx, &header, query, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	itemsByID, err := s.loadItems(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	items := itemsByID[id]
	if items == nil {
		items = []domain.OrderItem{}
	}
	return &domain.OrderAggregate{Order: header, Items: items}, nil
}

// List returns every aggregate owned by the user, newest first.
func (s *Store) List(ctx context.Context, userID int64) ([]domain.OrderAggregate, error) {
	query := s.headerSelect() + " WHERE id_usuario = $1 ORDER BY fecha DESC, id DESC"
	var headers []domain.Order
	if err := s.db.SelectContext(ctx, &headers, query, userID); err != nil {
		return nil, err
	}
	return s.assemble(ctx, headers)
}

// ListByDateRange returns the user's aggregates with fecha inside the
// inclusive [start, end] range, newest first.
func (s *Store) ListByDateRange(ctx context.Context, userID int64, start, end time.Time) ([]domain.OrderAggregate, error) {
	query := s.headerSelect() + " WHERE id_usuario = $1 AND fecha >= $2 AND fecha <= $3 ORDER BY fecha DESC, id DESC"
	var headers []domain.Order
	if err := s.db.SelectContext(ctx, &headers, query, userID, start, end); err != nil {
		return nil, err
	}
	return s.assemble(ctx, headers)
}

// Update patches header scalar fields and, when ReplaceItems is set, swaps the
// entire item set for the supplied one with a recomputed total. The whole
// operation is atomic: on any failure the header and items are left untouched.
func (s *Store) Update(ctx context.Context, id, userID int64, in UpdateInput) (*domain.OrderAggregate, error) {
	var total float64
	var newItems []domain.OrderItem
	if in.ReplaceItems {
		if err := ValidateItems(in.Items); err != nil {
			return nil, err
		}
		total, newItems = ComputeTotals(in.Items)
	}
	var metodoPago, notas *string
	if in.MetodoPagoSet {
		metodoPago = in.MetodoPago
	}
	if in.NotasSet {
		notas = in.Notas
	}
	if err := validateHeaderFields(s.cfg, metodoPago, notas); err != nil {
		return nil, err
	}

	// Prior snapshot for the audit event only. Stock reversal quantities are
	// re-read inside the transaction, after the header row is locked.
	prior, err := s.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	sets := make([]string, 0, 5)
	args := make([]any, 0, 7)
	idx := 1
	if in.CounterpartySet {
		sets = append(sets, fmt.Sprintf("%s = $%d", s.cfg.CounterpartyColumn, idx))
		args = append(args, in.CounterpartyID)
		idx++
	}
	if in.FechaSet {
		// Null fecha keeps the stored value, unlike create where it
		// defaults to NOW().
		sets = append(sets, fmt.Sprintf("fecha = COALESCE($%d, fecha)", idx))
		args = append(args, in.Fecha)
		idx++
	}
	if in.MetodoPagoSet {
		sets = append(sets, fmt.Sprintf("metodo_pago = $%d", idx))
		args = append(args, in.MetodoPago)
		idx++
	}
	if in.NotasSet && s.cfg.HasNotes {
		sets = append(sets, fmt.Sprintf("notas = $%d", idx))
		args = append(args, in.Notas)
		idx++
	}
	if in.ReplaceItems {
		sets = append(sets, fmt.Sprintf("total = $%d", idx))
		args = append(args, total)
		idx++
	}

	if len(sets) > 0 {
		stmt := fmt.Sprintf("UPDATE %s SET %s WHERE %s = $%d AND id_usuario = $%d RETURNING %s",
			s.cfg.Table, strings.Join(sets, ", "), s.cfg.IDColumn, idx, idx+1, s.cfg.IDColumn)
		args = append(args, id, userID)
		var updatedID int64
		if err := tx.QueryRowxContext(ctx, stmt, args...).Scan(&updatedID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, ErrNotFound
			}
			return nil, translateDBError(err)
		}
	} else {
		// No-op patch: still verify ownership/existence inside the
		// transaction so the caller gets 404 semantics, not silent success
		// on a foreign row.
		var one int
		stmt := fmt.Sprintf("SELECT 1 FROM %s WHERE %s = $1 AND id_usuario = $2", s.cfg.Table, s.cfg.IDColumn)
		if err := tx.GetContext(ctx, &one, stmt, id, userID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, ErrNotFound
			}
			return nil, err
		}
	}

	if in.ReplaceItems {
		if s.cfg.AdjustStock {
			// The header UPDATE above holds the row lock, so these are the
			// committed quantities; a concurrent writer's snapshot read
			// before the transaction could be stale.
			current, err := s.loadItemsTx(ctx, tx, id)
			if err != nil {
				return nil, err
			}
			if err := AddStock(ctx, tx, current); err != nil {
				return nil, err
			}
		}
		stmt := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", s.cfg.ItemsTable, s.cfg.IDColumn)
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			return nil, translateDBError(err)
		}
		if err := s.insertItems(ctx, tx, id, newItems); err != nil {
			return nil, err
		}
		if s.cfg.AdjustStock {
			if err := SubtractStock(ctx, tx, newItems); err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	agg, err := s.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	s.audit.Record(audit.Event{
		Entity:    s.cfg.Entity,
		RecordID:  strconv.FormatInt(id, 10),
		Action:    audit.ActionUpdate,
		UserID:    &userID,
		PriorData: prior,
		NewData:   agg,
	})
	return agg, nil
}

// Delete removes the header and, via cascade, its items. When stock is
// tracked the item quantities are added back in the same transaction.
func (s *Store) Delete(ctx context.Context, id, userID int64) error {
	prior, err := s.GetByID(ctx, id, userID)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	// Lock the header before reading the reversal quantities so a concurrent
	// item replacement cannot leave a stale re-add.
	var one int
	lock := fmt.Sprintf("SELECT 1 FROM %s WHERE %s = $1 AND id_usuario = $2 FOR UPDATE", s.cfg.Table, s.cfg.IDColumn)
	if err := tx.GetContext(ctx, &one, lock, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Deleted concurrently between the read-check and here.
			return ErrNotFound
		}
		return err
	}
	if s.cfg.AdjustStock {
		current, err := s.loadItemsTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := AddStock(ctx, tx, current); err != nil {
			return err
		}
	}
	stmt := fmt.Sprintf("DELETE FROM %s WHERE %s = $1 AND id_usuario = $2", s.cfg.Table, s.cfg.IDColumn)
	if _, err := tx.ExecContext(ctx, stmt, id, userID); err != nil {
		return translateDBError(err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	s.audit.Record(audit.Event{
		Entity:    s.cfg.Entity,
		RecordID:  strconv.FormatInt(id, 10),
		Action:    audit.ActionDelete,
		UserID:    &userID,
		PriorData: prior,
	})
	return nil
}

func (s *Store) insertItems(ctx context.Context, tx *sqlx.Tx, id int64, items []domain.OrderItem) error {
	stmt := fmt.Sprintf(`INSERT INTO %s (%s, id_producto, cantidad, precio_unitario, precio_total)
		VALUES ($1, $2, $3, $4, $5)`, s.cfg.ItemsTable, s.cfg.IDColumn)
	for _, it := range items {
		if _, err := tx.ExecContext(ctx, stmt, id, it.ProductID, it.Cantidad, it.PrecioUnitario, it.PrecioTotal); err != nil {
			return translateDBError(err)
		}
	}
	return nil
}

func (s *Store) headerSelect() string {
	notas := "NULL::text AS notas"
	if s.cfg.HasNotes {
		notas = "notas"
	}
	return fmt.Sprintf(`SELECT %s AS id, %s AS counterparty_id, id_usuario AS user_id, fecha, metodo_pago, %s, total FROM %s`,
		s.cfg.IDColumn, s.cfg.CounterpartyColumn, notas, s.cfg.Table)
}

// loadItemsTx reads the current item rows of one header inside the caller's
// transaction. Used for stock reversals, which must see committed quantities
// rather than a snapshot taken before the header lock.
func (s *Store) loadItemsTx(ctx context.Context, tx *sqlx.Tx, id int64) ([]domain.OrderItem, error) {
	stmt := fmt.Sprintf(`SELECT id_item AS id, %[1]s AS order_id, id_producto AS product_id,
			cantidad, precio_unitario, precio_total,
			NULL::text AS producto_nombre, NULL::text AS producto_referencia
		FROM %[2]s WHERE %[1]s = $1 ORDER BY id_item`, s.cfg.IDColumn, s.cfg.ItemsTable)
	var rows []domain.OrderItem
	if err := tx.SelectContext(ctx, &rows, stmt, id); err != nil {
		return nil, err
	}
	return rows, nil
}

// loadItems fetches the items of the given headers in one query and groups
// them by header id.
func (s *Store) loadItems(ctx context.Context, ids []int64) (map[int64][]domain.OrderItem, error) {
	if len(ids) == 0 {
		return map[int64][]domain.OrderItem{}, nil
	}
	var query string
	if s.cfg.JoinProducts {
		query = fmt.Sprintf(`SELECT i.id_item AS id, i.%[1]s AS order_id, i.id_producto AS product_id,
				i.cantidad, i.precio_unitario, i.precio_total,
				p.nombre AS producto_nombre, p.referencia AS producto_referencia
			FROM %[2]s i
			LEFT JOIN productos p ON p.id_producto = i.id_producto
			WHERE i.%[1]s IN (?)
			ORDER BY i.id_item`, s.cfg.IDColumn, s.cfg.ItemsTable)
	} else {
		query = fmt.Sprintf(`SELECT i.id_item AS id, i.%[1]s AS order_id, i.id_producto AS product_id,
				i.cantidad, i.precio_unitario, i.precio_total,
				NULL::text AS producto_nombre, NULL::text AS producto_referencia
			FROM %[2]s i
			WHERE i.%[1]s IN (?)
			ORDER BY i.id_item`, s.cfg.IDColumn, s.cfg.ItemsTable)
	}
	query, args, err := sqlx.In(query, ids)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var rows []domain.OrderItem
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	grouped := make(map[int64][]domain.OrderItem, len(ids))
	for _, row := range rows {
		grouped[row.OrderID] = append(grouped[row.OrderID], row)
	}
	return grouped, nil
}

func (s *Store) assemble(ctx context.Context, headers []domain.Order) ([]domain.OrderAggregate, error) {
	if len(headers) == 0 {
		return []domain.OrderAggregate{}, nil
	}
	ids := make([]int64, len(headers))
	for i, h := range headers {
		ids[i] = h.ID
	}
	itemsByID, err := s.loadItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	aggs := make([]domain.OrderAggregate, len(headers))
	for i, h := range headers {
		items := itemsByID[h.ID]
		if items == nil {
			items = []domain.OrderItem{}
		}
		aggs[i] = domain.OrderAggregate{Order: h, Items: items}
	}
	return aggs, nil
}
