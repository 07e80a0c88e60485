package orders

// Bounds enforced before any store access.
const (
	MaxItems         = 100
	MaxQuantity      = 100000
	MaxUnitPrice     = 100_000_000
	MaxPaymentMethod = 50
	MaxNotes         = 1000
)

// ValidateItems checks the item list shape and per-item bounds.
func ValidateItems(items []ItemInput) error {
	if len(items) == 0 {
		return validationf("items es obligatorio y debe contener al menos un elemento")
	}
	if len(items) > MaxItems {
		return validationf("items no puede contener mas de %d elementos", MaxItems)
	}
	for i, it := range items {
		if it.ProductID <= 0 {
			return validationf("items[%d].productId es obligatorio", i)
		}
		if it.Quantity <= 0 {
			return validationf("items[%d].quantity debe ser un entero > 0", i)
		}
		if it.Quantity > MaxQuantity {
			return validationf("items[%d].quantity no puede superar %d", i, MaxQuantity)
		}
		if it.UnitPrice < 0 {
			return validationf("items[%d].unitPrice debe ser un numero >= 0", i)
		}
		if it.UnitPrice > MaxUnitPrice {
			return validationf("items[%d].unitPrice no puede superar %d", i, MaxUnitPrice)
		}
	}
	return nil
}

func validateHeaderFields(cfg Config, metodoPago, notas *string) error {
	if metodoPago != nil && len(*metodoPago) > MaxPaymentMethod {
		return validationf("metodoPago no puede superar %d caracteres", MaxPaymentMethod)
	}
	if notas != nil {
		if !cfg.HasNotes {
			return validationf("notas no aplica para %s", cfg.Entity)
		}
		if len(*notas) > MaxNotes {
			return validationf("notas no puede superar %d caracteres", MaxNotes)
		}
	}
	return nil
}
