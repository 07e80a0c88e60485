package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"comercio/m/domain"
)

type productRequest struct {
	Referencia string  `json:"referencia"`
	Nombre     string  `json:"nombre"`
	Categoria  string  `json:"categoria"`
	Precio     float64 `json:"precio"`
	Cantidad   int64   `json:"cantidad"`
}

func (p productRequest) validate() error {
	if strings.TrimSpace(p.Referencia) == "" {
		return errors.New("referencia es obligatoria")
	}
	if strings.TrimSpace(p.Nombre) == "" {
		return errors.New("nombre es obligatorio")
	}
	if p.Precio < 0 {
		return errors.New("precio no puede ser negativo")
	}
	if p.Cantidad < 0 {
		return errors.New("cantidad no puede ser negativa")
	}
	return nil
}

func isProductReferenceConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return false
	}
	return pgErr.ConstraintName == "productos_referencia_key" || strings.Contains(pgErr.Detail, "referencia")
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var product domain.Product
	err := h.db.GetContext(r.Context(), &product,
		`INSERT INTO productos (referencia, nombre, categoria, precio, cantidad)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING *`,
		req.Referencia, req.Nombre, req.Categoria, req.Precio, req.Cantidad)
	if err != nil {
		if isProductReferenceConflict(err) {
			respondError(w, http.StatusConflict, "La referencia ya esta registrada.")
			return
		}
		h.log.Error("product insert failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}
	respondJSON(w, http.StatusCreated, product)
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	var products []domain.Product
	if err := h.db.SelectContext(r.Context(), &products, `SELECT * FROM productos ORDER BY nombre ASC`); err != nil {
		respondError(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "idProducto es obligatorio")
		return
	}
	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var product domain.Product
	err = h.db.GetContext(r.Context(), &product,
		`UPDATE productos
		 SET referencia = $1, nombre = $2, categoria = $3, precio = $4, cantidad = $5
		 WHERE id_producto = $6
		 RETURNING *`,
		req.Referencia, req.Nombre, req.Categoria, req.Precio, req.Cantidad, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "Producto no encontrado")
			return
		}
		if isProductReferenceConflict(err) {
			respondError(w, http.StatusConflict, "La referencia ya esta registrada.")
			return
		}
		h.log.Error("product update failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "idProducto es obligatorio")
		return
	}
	res, err := h.db.ExecContext(r.Context(), `DELETE FROM productos WHERE id_producto = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			respondError(w, http.StatusConflict, "El producto tiene movimientos asociados y no puede eliminarse.")
			return
		}
		respondError(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		respondError(w, http.StatusNotFound, "Producto no encontrado")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
