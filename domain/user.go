package domain

type User struct {
	ID        int64  `json:"id" db:"id"`
	Nombre    string `json:"nombre" db:"nombre"`
	Correo    string `json:"correo" db:"correo"`
	Password  string `json:"-" db:"password"`
	CreatedAt string `json:"fechaCreacion,omitempty" db:"fecha_creacion"`
}
