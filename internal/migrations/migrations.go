package migrations

import (
	"github.com/jmoiron/sqlx"
)

// Run creates the database schema required by the backend. Statements are
// idempotent so startup can always execute the full list.
func Run(db *sqlx.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS usuarios (
			id SERIAL PRIMARY KEY,
			nombre TEXT NOT NULL,
			correo TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			fecha_creacion TIMESTAMPTZ DEFAULT NOW()
		);`,
		`CREATE TABLE IF NOT EXISTS clientes (
			id_cliente SERIAL PRIMARY KEY,
			tipo_cliente TEXT NOT NULL,
			nombre_razon_social TEXT NOT NULL,
			tipo_documento TEXT NOT NULL,
			numero_documento TEXT NOT NULL,
			correo_electronico TEXT NOT NULL,
			telefono TEXT,
			direccion TEXT,
			ciudad TEXT,
			pais TEXT,
			estado TEXT NOT NULL DEFAULT 'Activo',
			fecha_creacion TIMESTAMPTZ DEFAULT NOW(),
			registrado_por TEXT,
			notas TEXT,
			CONSTRAINT uq_clientes_correo_electronico UNIQUE (correo_electronico),
			CONSTRAINT uq_clientes_numero_documento UNIQUE (numero_documento)
		);`,
		`CREATE TABLE IF NOT EXISTS productos (
			id_producto SERIAL PRIMARY KEY,
			referencia TEXT NOT NULL UNIQUE,
			categoria TEXT NOT NULL,
			precio NUMERIC(14,2) NOT NULL,
			nombre TEXT NOT NULL,
			cantidad INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS ventas (
			id_venta SERIAL PRIMARY KEY,
			id_cliente INTEGER REFERENCES clientes(id_cliente),
			id_usuario INTEGER NOT NULL REFERENCES usuarios(id),
			fecha TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			metodo_pago VARCHAR(50),
			total NUMERIC(14,2) NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS ventas_items (
			id_item SERIAL PRIMARY KEY,
			id_venta INTEGER NOT NULL REFERENCES ventas(id_venta) ON DELETE CASCADE,
			id_producto INTEGER NOT NULL REFERENCES productos(id_producto),
			cantidad INTEGER NOT NULL,
			precio_unitario NUMERIC(14,2) NOT NULL,
			precio_total NUMERIC(14,2) NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS compras (
			id_compra SERIAL PRIMARY KEY,
			id_proveedor INTEGER,
			id_usuario INTEGER NOT NULL REFERENCES usuarios(id),
			fecha TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			metodo_pago VARCHAR(50),
			notas VARCHAR(1000),
			total NUMERIC(14,2) NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS compras_items (
			id_item SERIAL PRIMARY KEY,
			id_compra INTEGER NOT NULL REFERENCES compras(id_compra) ON DELETE CASCADE,
			id_producto INTEGER NOT NULL REFERENCES productos(id_producto),
			cantidad INTEGER NOT NULL,
			precio_unitario NUMERIC(14,2) NOT NULL,
			precio_total NUMERIC(14,2) NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS auditoria_eventos (
			id SERIAL PRIMARY KEY,
			entidad TEXT NOT NULL,
			registro_id TEXT NOT NULL,
			accion TEXT NOT NULL,
			usuario_id INTEGER,
			datos_previos JSONB,
			datos_nuevos JSONB,
			descripcion TEXT,
			fecha TIMESTAMPTZ DEFAULT NOW()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_ventas_usuario_fecha ON ventas (id_usuario, fecha DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_compras_usuario_fecha ON compras (id_usuario, fecha DESC);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
