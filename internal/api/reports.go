package api

import (
	"net/http"
	"sort"
	"time"

	"comercio/m/domain"
	"comercio/m/internal/orders"
)

const topProductLimit = 5

type reportSide struct {
	Cantidad int     `json:"cantidad"`
	Total    float64 `json:"total"`
}

type dayTotal struct {
	Dia     string  `json:"dia"`
	Ventas  float64 `json:"ventas"`
	Compras float64 `json:"compras"`
}

type productTotal struct {
	ProductID int64   `json:"idProducto"`
	Nombre    *string `json:"productoNombre"`
	Cantidad  int64   `json:"cantidad"`
	Total     float64 `json:"total"`
}

type summaryResponse struct {
	Ventas       reportSide     `json:"ventas"`
	Compras      reportSide     `json:"compras"`
	Balance      float64        `json:"balance"`
	PorDia       []dayTotal     `json:"porDia"`
	TopProductos []productTotal `json:"topProductos"`
}

func sumOrders(aggs []domain.OrderAggregate) reportSide {
	side := reportSide{Cantidad: len(aggs)}
	for i := range aggs {
		side.Total = orders.Round2(side.Total + aggs[i].Total)
	}
	return side
}

// groupTotalsByDay folds both movements into one chronological series.
func groupTotalsByDay(sales, purchases []domain.OrderAggregate) []dayTotal {
	byDay := make(map[string]*dayTotal)
	add := func(aggs []domain.OrderAggregate, isSale bool) {
		for i := range aggs {
			day := aggs[i].Fecha.Format("2006-01-02")
			entry, ok := byDay[day]
			if !ok {
				entry = &dayTotal{Dia: day}
				byDay[day] = entry
			}
			if isSale {
				entry.Ventas = orders.Round2(entry.Ventas + aggs[i].Total)
			} else {
				entry.Compras = orders.Round2(entry.Compras + aggs[i].Total)
			}
		}
	}
	add(sales, true)
	add(purchases, false)

	out := make([]dayTotal, 0, len(byDay))
	for _, entry := range byDay {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Dia < out[j].Dia })
	return out
}

// aggregateTopProducts ranks sold products by unit count, revenue breaking
// ties.
func aggregateTopProducts(sales []domain.OrderAggregate, limit int) []productTotal {
	byProduct := make(map[int64]*productTotal)
	for i := range sales {
		for _, it := range sales[i].Items {
			entry, ok := byProduct[it.ProductID]
			if !ok {
				entry = &productTotal{ProductID: it.ProductID, Nombre: it.ProductoNombre}
				byProduct[it.ProductID] = entry
			}
			entry.Cantidad += it.Cantidad
			entry.Total = orders.Round2(entry.Total + it.PrecioTotal)
		}
	}

	out := make([]productTotal, 0, len(byProduct))
	for _, entry := range byProduct {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Cantidad != out[j].Cantidad {
			return out[i].Cantidad > out[j].Cantidad
		}
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].ProductID < out[j].ProductID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (h *Handler) reportSummary(w http.ResponseWriter, r *http.Request) {
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

	var (
		sales, purchases []domain.OrderAggregate
		start, end       time.Time
	)
	if desde == nil && hasta == nil {
		sales, err = h.sales.List(r.Context(), userID)
		if err == nil {
			purchases, err = h.purchases.List(r.Context(), userID)
		}
	} else {
		start, end = rangeBounds(desde, hasta)
		sales, err = h.sales.ListByDateRange(r.Context(), userID, start, end)
		if err == nil {
			purchases, err = h.purchases.ListByDateRange(r.Context(), userID, start, end)
		}
	}
	if err != nil {
		h.log.Error("report summary failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}

	ventas := sumOrders(sales)
	compras := sumOrders(purchases)
	respondJSON(w, http.StatusOK, summaryResponse{
		Ventas:       ventas,
		Compras:      compras,
		Balance:      orders.Round2(ventas.Total - compras.Total),
		PorDia:       groupTotalsByDay(sales, purchases),
		TopProductos: aggregateTopProducts(sales, topProductLimit),
	})
}
