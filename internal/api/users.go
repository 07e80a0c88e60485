package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"comercio/m/domain"
)

type registerRequest struct {
	Nombre   string `json:"nombre"`
	Correo   string `json:"correo"`
	Password string `json:"password"`
}

type authResponse struct {
	Usuario domain.User `json:"usuario"`
	Token   string      `json:"token"`
}

func (h *Handler) registerUser(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Nombre == "" || req.Correo == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "nombre, correo y password son obligatorios")
		return
	}
	correo := strings.ToLower(strings.TrimSpace(req.Correo))

	var exists bool
	if err := h.db.GetContext(r.Context(), &exists, `SELECT EXISTS(SELECT 1 FROM usuarios WHERE correo = $1)`, correo); err != nil {
		respondError(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}
	if exists {
		respondError(w, http.StatusBadRequest, "El correo ya esta registrado")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}

	user := domain.User{Nombre: req.Nombre, Correo: correo}
	err = h.db.QueryRowxContext(r.Context(),
		`INSERT INTO usuarios (nombre, correo, password) VALUES ($1, $2, $3) RETURNING id, fecha_creacion`,
		req.Nombre, correo, string(hashed)).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		h.log.Error("user insert failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}

	token, err := h.generateToken(user)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}
	respondJSON(w, http.StatusCreated, authResponse{Usuario: user, Token: token})
}

type loginRequest struct {
	Correo   string `json:"correo"`
	Password string `json:"password"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Correo == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "correo y password son obligatorios")
		return
	}

	var user domain.User
	err := h.db.GetContext(r.Context(), &user,
		`SELECT id, nombre, correo, password, fecha_creacion FROM usuarios WHERE correo = $1`,
		strings.ToLower(strings.TrimSpace(req.Correo)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusUnauthorized, "Credenciales invalidas")
			return
		}
		respondError(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		respondError(w, http.StatusUnauthorized, "Credenciales invalidas")
		return
	}

	token, err := h.generateToken(user)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}
	respondJSON(w, http.StatusOK, authResponse{Usuario: user, Token: token})
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	var users []domain.User
	if err := h.db.SelectContext(r.Context(), &users, `SELECT id, nombre, correo, fecha_creacion FROM usuarios ORDER BY id`); err != nil {
		respondError(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}
	respondJSON(w, http.StatusOK, users)
}
