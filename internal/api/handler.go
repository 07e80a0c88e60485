package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jmoiron/sqlx"

	"comercio/m/internal/audit"
	"comercio/m/internal/logger"
	"comercio/m/internal/orders"
)

type ctxKey string

const ctxUserID ctxKey = "userID"

// Handler bundles dependencies for HTTP handlers.
type Handler struct {
	db        *sqlx.DB
	secret    string
	log       *logger.Logger
	sales     *orders.Store
	purchases *orders.Store
}

// New constructs a Handler with both order stores wired over the same
// database handle.
func New(db *sqlx.DB, secret string, log *logger.Logger, rec *audit.Recorder) *Handler {
	return &Handler{
		db:        db,
		secret:    secret,
		log:       log,
		sales:     orders.NewStore(db, orders.Sales(), rec, log),
		purchases: orders.NewStore(db, orders.Purchases(), rec, log),
	}
}

// Router wires up the HTTP API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.health)

	r.Route("/usuarios", func(r chi.Router) {
		r.Post("/", h.registerUser)
		r.Post("/login", h.login)
		r.Group(func(protected chi.Router) {
			protected.Use(h.authMiddleware)
			protected.Get("/", h.listUsers)
		})
	})

	r.Group(func(pr chi.Router) {
		pr.Use(h.authMiddleware)

		pr.Route("/clientes", func(r chi.Router) {
			r.Post("/", h.createClient)
			r.Get("/", h.listClients)
			r.Get("/{id}", h.getClient)
			r.Put("/{id}", h.updateClient)
			r.Delete("/{id}", h.deleteClient)
		})

		pr.Route("/productos", func(r chi.Router) {
			r.Post("/", h.createProduct)
			r.Get("/", h.listProducts)
			r.Put("/{id}", h.updateProduct)
			r.Delete("/{id}", h.deleteProduct)
		})

		pr.Route("/ventas", func(r chi.Router) {
			r.Post("/", h.createSale)
			r.Get("/", h.listSales)
			r.Get("/{id}", h.getSale)
			r.Put("/{id}", h.updateSale)
			r.Delete("/{id}", h.deleteSale)
		})

		pr.Route("/compras", func(r chi.Router) {
			r.Post("/", h.createPurchase)
			r.Get("/", h.listPurchases)
			r.Get("/{id}", h.getPurchase)
			r.Put("/{id}", h.updatePurchase)
			r.Delete("/{id}", h.deletePurchase)
		})

		pr.Get("/reportes/resumen", h.reportSummary)
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// respondOrderError maps the order taxonomy onto HTTP statuses. notFoundMsg
// carries the per-entity wording.
func (h *Handler) respondOrderError(w http.ResponseWriter, err error, notFoundMsg string) {
	var vErr *orders.ValidationError
	var refErr *orders.ReferentialError
	var confErr *orders.ConflictError
	var stockErr *orders.StockError
	switch {
	case errors.As(err, &vErr):
		respondError(w, http.StatusBadRequest, vErr.Msg)
	case errors.Is(err, orders.ErrNotFound):
		respondError(w, http.StatusNotFound, notFoundMsg)
	case errors.As(err, &refErr):
		respondError(w, http.StatusBadRequest, "producto o contraparte inexistente")
	case errors.As(err, &confErr):
		respondError(w, http.StatusConflict, "registro duplicado")
	case errors.As(err, &stockErr):
		respondError(w, http.StatusConflict, stockErr.Error())
	default:
		h.log.Error("order operation failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Error interno del servidor")
	}
}

// Helpers

func parseIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func decodeJSON(r *http.Request, dest interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
