package domain

type Client struct {
	ID              int64   `json:"idCliente" db:"id_cliente"`
	TipoCliente     string  `json:"tipoCliente" db:"tipo_cliente"`
	NombreRazon     string  `json:"nombreRazonSocial" db:"nombre_razon_social"`
	TipoDocumento   string  `json:"tipoDocumento" db:"tipo_documento"`
	NumeroDocumento string  `json:"numeroDocumento" db:"numero_documento"`
	Correo          string  `json:"correoElectronico" db:"correo_electronico"`
	Telefono        *string `json:"telefono,omitempty" db:"telefono"`
	Direccion       *string `json:"direccion,omitempty" db:"direccion"`
	Ciudad          *string `json:"ciudad,omitempty" db:"ciudad"`
	Pais            *string `json:"pais,omitempty" db:"pais"`
	Estado          string  `json:"estado" db:"estado"`
	FechaCreacion   string  `json:"fechaCreacion" db:"fecha_creacion"`
	RegistradoPor   *string `json:"registradoPor,omitempty" db:"registrado_por"`
	Notas           *string `json:"notas,omitempty" db:"notas"`
}
