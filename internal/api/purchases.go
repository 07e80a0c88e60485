package api

import (
	"encoding/json"
	"net/http"
	"time"

	"comercio/m/domain"
	"comercio/m/internal/orders"
)

type purchaseCreateRequest struct {
	IDProveedor *int64             `json:"idProveedor"`
	Fecha       *string            `json:"fecha"`
	MetodoPago  *string            `json:"metodoPago"`
	Notas       *string            `json:"notas"`
	Items       []orderItemRequest `json:"items"`
}

type purchaseUpdateRequest struct {
	IDProveedor json.RawMessage `json:"idProveedor"`
	Fecha       json.RawMessage `json:"fecha"`
	MetodoPago  json.RawMessage `json:"metodoPago"`
	Notas       json.RawMessage `json:"notas"`
	Items       json.RawMessage `json:"items"`
}

type purchaseResponse struct {
	IDCompra    int64              `json:"idCompra"`
	IDProveedor *int64             `json:"idProveedor"`
	IDUsuario   int64              `json:"idUsuario"`
	Fecha       time.Time          `json:"fecha"`
	MetodoPago  *string            `json:"metodoPago"`
	Notas       *string            `json:"notas"`
	Total       float64            `json:"total"`
	Items       []domain.OrderItem `json:"items"`
}

func toPurchaseResponse(agg *domain.OrderAggregate) purchaseResponse {
	return purchaseResponse{
		IDCompra:    agg.ID,
		IDProveedor: agg.CounterpartyID,
		IDUsuario:   agg.UserID,
		Fecha:       agg.Fecha,
		MetodoPago:  agg.MetodoPago,
		Notas:       agg.Notas,
		Total:       agg.Total,
		Items:       agg.Items,
	}
}

func toPurchaseResponses(aggs []domain.OrderAggregate) []purchaseResponse {
	out := make([]purchaseResponse, len(aggs))
	for i := range aggs {
		out[i] = toPurchaseResponse(&aggs[i])
	}
	return out
}

func (h *Handler) createPurchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	in := orders.CreateInput{
		CounterpartyID: req.IDProveedor,
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

	agg, err := h.purchases.Create(r.Context(), userIDFromContext(r), in)
	if err != nil {
		h.respondOrderError(w, err, "Compra no encontrada")
		return
	}
	respondJSON(w, http.StatusCreated, toPurchaseResponse(agg))
}

func (h *Handler) listPurchases(w http.ResponseWriter, r *http.Request) {
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
		aggs, err = h.purchases.List(r.Context(), userID)
	} else {
		start, end := rangeBounds(desde, hasta)
		aggs, err = h.purchases.ListByDateRange(r.Context(), userID, start, end)
	}
	if err != nil {
		h.log.Error("purchase list failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}
	respondJSON(w, http.StatusOK, toPurchaseResponses(aggs))
}

func (h *Handler) getPurchase(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "idCompra es obligatorio")
		return
	}
	agg, err := h.purchases.GetByID(r.Context(), id, userIDFromContext(r))
	if err != nil {
		h.respondOrderError(w, err, "Compra no encontrada")
		return
	}
	respondJSON(w, http.StatusOK, toPurchaseResponse(agg))
}

func (h *Handler) updatePurchase(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "idCompra es obligatorio")
		return
	}
	var req purchaseUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	in, err := buildOrderUpdate("idProveedor", req.IDProveedor, req.Fecha, req.MetodoPago, req.Notas, req.Items)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	agg, err := h.purchases.Update(r.Context(), id, userIDFromContext(r), in)
	if err != nil {
		h.respondOrderError(w, err, "Compra no encontrada")
		return
	}
	respondJSON(w, http.StatusOK, toPurchaseResponse(agg))
}

func (h *Handler) deletePurchase(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "idCompra es obligatorio")
		return
	}
	if err := h.purchases.Delete(r.Context(), id, userIDFromContext(r)); err != nil {
		h.respondOrderError(w, err, "Compra no encontrada")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
