package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"

	"comercio/m/internal/orders"
)

// orderItemRequest is one requested line. Input keys differ from the response
// item shape: requests use productId/quantity/unitPrice, responses carry the
// persisted idProducto/cantidad/precioUnitario columns.
type orderItemRequest struct {
	ProductID      int64   `json:"productId"`
	Cantidad       int64   `json:"quantity"`
	PrecioUnitario float64 `json:"unitPrice"`
}

func toItemInputs(reqs []orderItemRequest) []orders.ItemInput {
	items := make([]orders.ItemInput, len(reqs))
	for i, it := range reqs {
		items[i] = orders.ItemInput{
			ProductID: it.ProductID,
			Quantity:  it.Cantidad,
			UnitPrice: it.PrecioUnitario,
		}
	}
	return items
}

var errBadFecha = errors.New("fecha no tiene un formato valido")

// parseFecha accepts RFC 3339 timestamps or plain dates.
func parseFecha(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, errBadFecha
}

func isRawNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// rawString decodes an optional field: a nil message means the field was
// absent, a JSON null means it was supplied to clear the column.
func rawString(raw json.RawMessage) (set bool, val *string, err error) {
	if raw == nil {
		return false, nil, nil
	}
	if isRawNull(raw) {
		return true, nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return false, nil, err
	}
	return true, &s, nil
}

func rawInt64(raw json.RawMessage) (set bool, val *int64, err error) {
	if raw == nil {
		return false, nil, nil
	}
	if isRawNull(raw) {
		return true, nil, nil
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err != nil {
		return false, nil, err
	}
	return true, &n, nil
}

// buildOrderUpdate turns raw optional fields into an update input, keeping
// track of which ones were actually supplied.
func buildOrderUpdate(counterpartyKey string, counterparty, fecha, metodoPago, notas, items json.RawMessage) (orders.UpdateInput, error) {
	var in orders.UpdateInput
	var err error

	if in.CounterpartySet, in.CounterpartyID, err = rawInt64(counterparty); err != nil {
		return in, errors.New(counterpartyKey + " debe ser un numero")
	}
	if in.FechaSet, in.Fecha, err = rawFecha(fecha); err != nil {
		return in, err
	}
	if in.MetodoPagoSet, in.MetodoPago, err = rawString(metodoPago); err != nil {
		return in, errors.New("metodoPago debe ser una cadena")
	}
	if in.NotasSet, in.Notas, err = rawString(notas); err != nil {
		return in, errors.New("notas debe ser una cadena")
	}

	if items != nil {
		var reqs []orderItemRequest
		if err := json.Unmarshal(items, &reqs); err != nil {
			return in, errors.New("items debe ser una lista")
		}
		in.ReplaceItems = true
		in.Items = toItemInputs(reqs)
	}
	return in, nil
}

// rangeBounds widens missing ends of a date filter.
func rangeBounds(desde, hasta *time.Time) (time.Time, time.Time) {
	start := time.Time{}
	end := time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC)
	if desde != nil {
		start = *desde
	}
	if hasta != nil {
		end = *hasta
	}
	return start, end
}

// parseRangeParam parses a desde/hasta query value. A plain date used as the
// upper bound covers the whole day.
func parseRangeParam(s string, upper bool) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := parseFecha(s)
	if err != nil {
		return nil, err
	}
	if upper && len(s) == len("2006-01-02") {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func rawFecha(raw json.RawMessage) (set bool, val *time.Time, err error) {
	if raw == nil {
		return false, nil, nil
	}
	if isRawNull(raw) {
		// fecha keeps its current value when cleared; treat null as absent.
		return false, nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return false, nil, errBadFecha
	}
	t, err := parseFecha(s)
	if err != nil {
		return false, nil, err
	}
	return true, &t, nil
}
