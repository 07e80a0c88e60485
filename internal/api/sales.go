package api

import (
	"encoding/json"
	"net/http"
	"time"

	"comercio/m/domain"
	"comercio/m/internal/orders"
)

type saleCreateRequest struct {
	IDCliente  *int64             `json:"idCliente"`
	Fecha      *string            `json:"fecha"`
	MetodoPago *string            `json:"metodoPago"`
	Notas      *string            `json:"notas"`
	Items      []orderItemRequest `json:"items"`
}

type saleUpdateRequest struct {
	IDCliente  json.RawMessage    `json:"idCliente"`
	Fecha      json.RawMessage    `json:"fecha"`
	MetodoPago json.RawMessage    `json:"metodoPago"`
	Notas      json.RawMessage    `json:"notas"`
	Items      json.RawMessage    `json:"items"`
}

type saleResponse struct {
	IDVenta    int64              `json:"idVenta"`
	IDCliente  *int64             `json:"idCliente"`
	IDUsuario  int64              `json:"idUsuario"`
	Fecha      time.Time          `json:"fecha"`
	MetodoPago *string            `json:"metodoPago"`
	Total      float64            `json:"total"`
	Items      []domain.OrderItem `json:"items"`
}

func toSaleResponse(agg *domain.OrderAggregate) saleResponse {
	return saleResponse{
		IDVenta:    agg.ID,
		IDCliente:  agg.CounterpartyID,
		IDUsuario:  agg.UserID,
		Fecha:      agg.Fecha,
		MetodoPago: agg.MetodoPago,
		Total:      agg.Total,
		Items:      agg.Items,
	}
}

func toSaleResponses(aggs []domain.OrderAggregate) []saleResponse {
	out := make([]saleResponse, len(aggs))
	for i := range aggs {
		out[i] = toSaleResponse(&aggs[i])
	}
	return out
}

func (h *Handler) createSale(w http.ResponseWriter, r *http.Request) {
	var req saleCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	in := orders.CreateInput{
		CounterpartyID: req.IDCliente,
		MetodoPago:     req.MetodoPago,
		Notas:          req.Notas,
		Items:          toItemInputs(req.Items),
	}
	if req.Fecha != nil && *req.Fecha != "" {
		t, err := parseFecha(*req.Fecha)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		in.Fecha = &t
	}

	agg, err := h.sales.Create(r.Context(), userIDFromContext(r), in)
	if err != nil {
		h.respondOrderError(w, err, "Venta no encontrada")
		return
	}
	respondJSON(w, http.StatusCreated, toSaleResponse(agg))
}

func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r)
	desde, err := parseRangeParam(r.URL.Query().Get("desde"), false)
	if err != nil {
		respondError(w, http.StatusBadRequest, "desde no tiene un formato valido")
		return
	}
	hasta, err := parseRangeParam(r.URL.Query().Get("hasta"), true)
	if err != nil {
		respondError(w, http.StatusBadRequest, "hasta no tiene un formato valido")
		return
	}

	var aggs []domain.OrderAggregate
	if desde == nil && hasta == nil {
		aggs, err = h.sales.List(r.Context(), userID)
	} else {
		start, end := rangeBounds(desde, hasta)
		aggs, err = h.sales.ListByDateRange(r.Context(), userID, start, end)
	}
	if err != nil {
		h.log.Error("sale list failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}
	respondJSON(w, http.StatusOK, toSaleResponses(aggs))
}

func (h *Handler) getSale(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "idVenta es obligatorio")
		return
	}
	agg, err := h.sales.GetByID(r.Context(), id, userIDFromContext(r))
	if err != nil {
		h.respondOrderError(w, err, "Venta no encontrada")
		return
	}
	respondJSON(w, http.StatusOK, toSaleResponse(agg))
}

func (h *Handler) updateSale(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "idVenta es obligatorio")
		return
	}
	var req saleUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	in, err := buildOrderUpdate("idCliente", req.IDCliente, req.Fecha, req.MetodoPago, req.Notas, req.Items)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	agg, err := h.sales.Update(r.Context(), id, userIDFromContext(r), in)
	if err != nil {
		h.respondOrderError(w, err, "Venta no encontrada")
		return
	}
	respondJSON(w, http.StatusOK, toSaleResponse(agg))
}

func (h *Handler) deleteSale(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "idVenta es obligatorio")
		return
	}
	if err := h.sales.Delete(r.Context(), id, userIDFromContext(r)); err != nil {
		h.respondOrderError(w, err, "Venta no encontrada")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
