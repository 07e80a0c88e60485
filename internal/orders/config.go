package orders

// Config parameterizes the order engine for one header/items table pair. The
// sale and purchase flows are identical besides the names below, so the same
// Store implementation is instantiated twice.
type Config struct {
	// Entity names the aggregate in audit events ("venta", "compra").
	Entity string
	// Table and ItemsTable are the header and line item tables.
	Table      string
	ItemsTable string
	// IDColumn is the header primary key; the items table uses the same
	// column name as its foreign key.
	IDColumn string
	// CounterpartyColumn is the optional foreign party column (client for
	// sales, supplier for purchases).
	CounterpartyColumn string
	// HasNotes enables the notas header field (purchases only).
	HasNotes bool
	// JoinProducts denormalizes product name/reference into read results.
	JoinProducts bool
	// AdjustStock makes create subtract product stock, delete add it back,
	// and item replacement re-add the old set before subtracting the new one.
	AdjustStock bool
}

// Sales returns the configuration for the ventas aggregate.
func Sales() Config {
	return Config{
		Entity:             "venta",
		Table:              "ventas",
		ItemsTable:         "ventas_items",
		IDColumn:           "id_venta",
		CounterpartyColumn: "id_cliente",
		JoinProducts:       true,
		AdjustStock:        true,
	}
}

// Purchases returns the configuration for the compras aggregate.
func Purchases() Config {
	return Config{
		Entity:             "compra",
		Table:              "compras",
		ItemsTable:         "compras_items",
		IDColumn:           "id_compra",
		CounterpartyColumn: "id_proveedor",
		HasNotes:           true,
	}
}
