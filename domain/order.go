package domain

import "time"

// Order is the header row of a sale or purchase. The two tables share the same
// shape besides the counterparty column and the optional notes field, so the
// store layer aliases columns into this one struct. JSON tags cover the audit
// snapshots; the HTTP layer renames id/counterparty per entity.
type Order struct {
	ID             int64     `db:"id" json:"id"`
	CounterpartyID *int64    `db:"counterparty_id" json:"idContraparte"`
	UserID         int64     `db:"user_id" json:"idUsuario"`
	Fecha          time.Time `db:"fecha" json:"fecha"`
	MetodoPago     *string   `db:"metodo_pago" json:"metodoPago"`
	Notas          *string   `db:"notas" json:"notas,omitempty"`
	Total          float64   `db:"total" json:"total"`
}

// OrderItem is one persisted line of an order, with the product name and
// reference denormalized at read time when the store is configured to join
// productos. A deleted product leaves both fields nil.
type OrderItem struct {
	ID                 int64   `db:"id" json:"idItem"`
	OrderID            int64   `db:"order_id" json:"-"`
	ProductID          int64   `db:"product_id" json:"idProducto"`
	Cantidad           int64   `db:"cantidad" json:"cantidad"`
	PrecioUnitario     float64 `db:"precio_unitario" json:"precioUnitario"`
	PrecioTotal        float64 `db:"precio_total" json:"precioTotal"`
	ProductoNombre     *string `db:"producto_nombre" json:"productoNombre"`
	ProductoReferencia *string `db:"producto_referencia" json:"productoReferencia"`
}

// OrderAggregate is the unit returned to callers: a header plus all of its
// current line items. Items is never nil.
type OrderAggregate struct {
	Order
	Items []OrderItem `json:"items"`
}
