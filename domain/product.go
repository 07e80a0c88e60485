package domain

type Product struct {
	ID         int64   `json:"idProducto" db:"id_producto"`
	Referencia string  `json:"referencia" db:"referencia"`
	Categoria  string  `json:"categoria" db:"categoria"`
	Precio     float64 `json:"precio" db:"precio"`
	Nombre     string  `json:"nombre" db:"nombre"`
	Cantidad   int64   `json:"cantidad" db:"cantidad"`
}
