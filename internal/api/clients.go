package api

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"comercio/m/domain"
)

var (
	tipoClienteValues   = []string{"Natural", "Juridica"}
	tipoDocumentoValues = []string{"NIT", "CC", "CE", "RUC", "DNI"}
	estadoValues        = []string{"Activo", "Inactivo"}

	emailRegex = regexp.MustCompile(`(?i)^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

type fieldMapping struct {
	jsonKey string
	column  string
}

var clientFields = []fieldMapping{
	{"tipoCliente", "tipo_cliente"},
	{"nombreRazonSocial", "nombre_razon_social"},
	{"tipoDocumento", "tipo_documento"},
	{"numeroDocumento", "numero_documento"},
	{"correoElectronico", "correo_electronico"},
	{"telefono", "telefono"},
	{"direccion", "direccion"},
	{"ciudad", "ciudad"},
	{"pais", "pais"},
	{"estado", "estado"},
	{"registradoPor", "registrado_por"},
	{"notas", "notas"},
}

var clientRequired = []string{"tipoCliente", "nombreRazonSocial", "tipoDocumento", "numeroDocumento", "correoElectronico"}

// mapClientPayload maps camelCase payload keys onto column names. Empty
// strings count as absent; explicit nulls clear the column.
func mapClientPayload(payload map[string]any) (map[string]*string, error) {
	mapped := make(map[string]*string)
	for _, f := range clientFields {
		raw, ok := payload[f.jsonKey]
		if !ok {
			continue
		}
		if raw == nil {
			mapped[f.column] = nil
			continue
		}
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%s debe ser una cadena", f.jsonKey)
		}
		if s == "" {
			continue
		}
		val := s
		mapped[f.column] = &val
	}
	return mapped, nil
}

func validateClientRequired(payload map[string]any) error {
	var missing []string
	for _, key := range clientRequired {
		val, ok := payload[key]
		if !ok || val == nil || val == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("Los campos obligatorios faltantes o vacios son: %s", strings.Join(missing, ", "))
	}
	return nil
}

func validateClientEnums(payload map[string]any) error {
	checks := []struct {
		key    string
		values []string
	}{
		{"tipoCliente", tipoClienteValues},
		{"tipoDocumento", tipoDocumentoValues},
		{"estado", estadoValues},
	}
	for _, c := range checks {
		raw, ok := payload[c.key]
		if !ok || raw == nil || raw == "" {
			continue
		}
		s, isString := raw.(string)
		if !isString || !contains(c.values, s) {
			return fmt.Errorf("%s debe ser uno de: %s", c.key, strings.Join(c.values, ", "))
		}
	}
	return nil
}

func validateClientEmail(payload map[string]any) error {
	raw, ok := payload["correoElectronico"]
	if !ok {
		return nil
	}
	if raw == nil || raw == "" {
		return errors.New("correoElectronico es obligatorio")
	}
	s, isString := raw.(string)
	if !isString || !emailRegex.MatchString(s) {
		return errors.New("correoElectronico no tiene un formato valido")
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

// handleClientConstraintError reports unique violations on correo or
// documento as 409 and returns true when it handled the error.
func handleClientConstraintError(w http.ResponseWriter, err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return false
	}
	switch {
	case pgErr.ConstraintName == "uq_clientes_correo_electronico" || strings.Contains(pgErr.Detail, "correo_electronico"):
		respondError(w, http.StatusConflict, "El correo electronico ya esta registrado.")
		return true
	case pgErr.ConstraintName == "uq_clientes_numero_documento" || strings.Contains(pgErr.Detail, "numero_documento"):
		respondError(w, http.StatusConflict, "El numero de documento ya esta registrado.")
		return true
	}
	return false
}

func (h *Handler) createClient(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateClientRequired(payload); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateClientEnums(payload); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateClientEmail(payload); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	mapped, err := mapClientPayload(payload)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	columns := make([]string, 0, len(mapped))
	placeholders := make([]string, 0, len(mapped))
	values := make([]any, 0, len(mapped))
	idx := 1
	for _, f := range clientFields {
		val, ok := mapped[f.column]
		if !ok || val == nil {
			continue
		}
		columns = append(columns, f.column)
		placeholders = append(placeholders, fmt.Sprintf("$%d", idx))
		values = append(values, *val)
		idx++
	}

	query := fmt.Sprintf(`INSERT INTO clientes (%s) VALUES (%s) RETURNING *`,
		strings.Join(columns, ", "), strings.Join(placeholders, ", "))
	var client domain.Client
	if err := h.db.GetContext(r.Context(), &client, query, values...); err != nil {
		if handleClientConstraintError(w, err) {
			return
		}
		h.log.Error("client insert failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}
	respondJSON(w, http.StatusCreated, client)
}

func (h *Handler) listClients(w http.ResponseWriter, r *http.Request) {
	var clients []domain.Client
	if err := h.db.SelectContext(r.Context(), &clients, `SELECT * FROM clientes ORDER BY nombre_razon_social ASC`); err != nil {
		respondError(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}
	respondJSON(w, http.StatusOK, clients)
}

func (h *Handler) getClient(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "idCliente es obligatorio")
		return
	}
	var client domain.Client
	err = h.db.GetContext(r.Context(), &client, `SELECT * FROM clientes WHERE id_cliente = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "Cliente no encontrado")
			return
		}
		respondError(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}
	respondJSON(w, http.StatusOK, client)
}

func (h *Handler) updateClient(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "idCliente es obligatorio")
		return
	}
	var payload map[string]any
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateClientEnums(payload); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateClientEmail(payload); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	mapped, err := mapClientPayload(payload)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(mapped) == 0 {
		respondError(w, http.StatusBadRequest, "No hay campos validos para actualizar")
		return
	}

	sets := make([]string, 0, len(mapped))
	values := make([]any, 0, len(mapped)+1)
	idx := 1
	for _, f := range clientFields {
		val, ok := mapped[f.column]
		if !ok {
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = $%d", f.column, idx))
		if val == nil {
			values = append(values, nil)
		} else {
			values = append(values, *val)
		}
		idx++
	}
	values = append(values, id)

	query := fmt.Sprintf(`UPDATE clientes SET %s WHERE id_cliente = $%d RETURNING *`, strings.Join(sets, ", "), idx)
	var client domain.Client
	if err := h.db.GetContext(r.Context(), &client, query, values...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "Cliente no encontrado")
			return
		}
		if handleClientConstraintError(w, err) {
			return
		}
		h.log.Error("client update failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}
	respondJSON(w, http.StatusOK, client)
}

func (h *Handler) deleteClient(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "idCliente es obligatorio")
		return
	}
	res, err := h.db.ExecContext(r.Context(), `DELETE FROM clientes WHERE id_cliente = $1`, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		respondError(w, http.StatusNotFound, "Cliente no encontrado")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
