//go:build integration
// +build integration

package orders

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"comercio/m/internal/audit"
	"comercio/m/internal/database"
	"comercio/m/internal/logger"
	"comercio/m/internal/migrations"
)

func setupPostgresContainer(t *testing.T) (*sqlx.DB, func()) {
	ctx := context.Background()

	pgContainer, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcpostgres.WithDatabase("comercio_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := database.Connect(dsn)
	require.NoError(t, err)
	require.NoError(t, migrations.Run(db))

	cleanup := func() {
		db.Close()
		pgContainer.Terminate(ctx)
	}
	return db, cleanup
}

func seedUser(t *testing.T, db *sqlx.DB, correo string) int64 {
	t.Helper()
	var id int64
	err := db.Get(&id,
		`INSERT INTO usuarios (nombre, correo, password) VALUES ($1, $2, 'x') RETURNING id`,
		"Usuario "+correo, correo)
	require.NoError(t, err)
	return id
}

func seedProduct(t *testing.T, db *sqlx.DB, referencia string, precio float64, cantidad int64) int64 {
	t.Helper()
	var id int64
	err := db.Get(&id,
		`INSERT INTO productos (referencia, nombre, categoria, precio, cantidad)
		 VALUES ($1, $2, 'General', $3, $4) RETURNING id_producto`,
		referencia, "Producto "+referencia, precio, cantidad)
	require.NoError(t, err)
	return id
}

func productStock(t *testing.T, db *sqlx.DB, id int64) int64 {
	t.Helper()
	var cantidad int64
	require.NoError(t, db.Get(&cantidad, `SELECT cantidad FROM productos WHERE id_producto = $1`, id))
	return cantidad
}

func newTestStore(db *sqlx.DB, cfg Config) (*Store, *audit.Recorder) {
	rec := audit.NewRecorder(db, logger.NewNop())
	return NewStore(db, cfg, rec, logger.NewNop()), rec
}

func TestSalesStoreCreateAndGet(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	store, _ := newTestStore(db, Sales())
	ctx := context.Background()
	userID := seedUser(t, db, "ana@example.com")
	p1 := seedProduct(t, db, "REF-1", 10.005, 50)
	p2 := seedProduct(t, db, "REF-2", 3.5, 20)

	metodo := "Efectivo"
	agg, err := store.Create(ctx, userID, CreateInput{
		MetodoPago: &metodo,
		Items: []ItemInput{
			{ProductID: p1, Quantity: 2, UnitPrice: 10.005},
			{ProductID: p2, Quantity: 3, UnitPrice: 3.5},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 30.51, agg.Total)
	assert.Equal(t, userID, agg.UserID)
	require.Len(t, agg.Items, 2)
	assert.Equal(t, 20.01, agg.Items[0].PrecioTotal)
	require.NotNil(t, agg.Items[0].ProductoNombre)
	assert.Equal(t, "Producto REF-1", *agg.Items[0].ProductoNombre)
	assert.False(t, agg.Fecha.IsZero())

	// stock decremented
	assert.Equal(t, int64(48), productStock(t, db, p1))
	assert.Equal(t, int64(17), productStock(t, db, p2))

	got, err := store.GetByID(ctx, agg.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, agg.Total, got.Total)
	assert.Len(t, got.Items, 2)
}

func TestSalesStoreOwnershipScoping(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	store, _ := newTestStore(db, Sales())
	ctx := context.Background()
	owner := seedUser(t, db, "dueno@example.com")
	other := seedUser(t, db, "otro@example.com")
	p := seedProduct(t, db, "REF-OWN", 5, 10)

	agg, err := store.Create(ctx, owner, CreateInput{
		Items: []ItemInput{{ProductID: p, Quantity: 1, UnitPrice: 5}},
	})
	require.NoError(t, err)

	_, err = store.GetByID(ctx, agg.ID, other)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Update(ctx, agg.ID, other, UpdateInput{})
	assert.ErrorIs(t, err, ErrNotFound)

	err = store.Delete(ctx, agg.ID, other)
	assert.ErrorIs(t, err, ErrNotFound)

	// still readable by its owner, stock untouched by the failed calls
	_, err = store.GetByID(ctx, agg.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(9), productStock(t, db, p))
}

func TestSalesStoreStockAbortsWholeOrder(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	store, _ := newTestStore(db, Sales())
	ctx := context.Background()
	userID := seedUser(t, db, "stock@example.com")
	plenty := seedProduct(t, db, "REF-PLENTY", 1, 100)
	scarce := seedProduct(t, db, "REF-SCARCE", 1, 2)

	_, err := store.Create(ctx, userID, CreateInput{
		Items: []ItemInput{
			{ProductID: plenty, Quantity: 10, UnitPrice: 1},
			{ProductID: scarce, Quantity: 3, UnitPrice: 1},
		},
	})
	var stockErr *StockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, scarce, stockErr.ProductID)
	assert.Equal(t, int64(3), stockErr.Requested)

	// nothing committed
	assert.Equal(t, int64(100), productStock(t, db, plenty))
	assert.Equal(t, int64(2), productStock(t, db, scarce))
	var count int
	require.NoError(t, db.Get(&count, `SELECT COUNT(*) FROM ventas WHERE id_usuario = $1`, userID))
	assert.Zero(t, count)
}

func TestSalesStoreUpdateReplacesItems(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	store, _ := newTestStore(db, Sales())
	ctx := context.Background()
	userID := seedUser(t, db, "upd@example.com")
	p1 := seedProduct(t, db, "REF-A", 2, 10)
	p2 := seedProduct(t, db, "REF-B", 4, 10)

	agg, err := store.Create(ctx, userID, CreateInput{
		Items: []ItemInput{{ProductID: p1, Quantity: 4, UnitPrice: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(6), productStock(t, db, p1))

	metodo := "Tarjeta"
	updated, err := store.Update(ctx, agg.ID, userID, UpdateInput{
		MetodoPagoSet: true,
		MetodoPago:    &metodo,
		ReplaceItems:  true,
		Items:         []ItemInput{{ProductID: p2, Quantity: 5, UnitPrice: 4}},
	})
	require.NoError(t, err)
	assert.Equal(t, 20.0, updated.Total)
	require.NotNil(t, updated.MetodoPago)
	assert.Equal(t, "Tarjeta", *updated.MetodoPago)
	require.Len(t, updated.Items, 1)
	assert.Equal(t, p2, updated.Items[0].ProductID)

	// old stock restored, new stock taken
	assert.Equal(t, int64(10), productStock(t, db, p1))
	assert.Equal(t, int64(5), productStock(t, db, p2))
}

func TestSalesStoreNoOpUpdateSucceeds(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	store, _ := newTestStore(db, Sales())
	ctx := context.Background()
	userID := seedUser(t, db, "noop@example.com")
	p := seedProduct(t, db, "REF-NOOP", 1, 10)

	agg, err := store.Create(ctx, userID, CreateInput{
		Items: []ItemInput{{ProductID: p, Quantity: 2, UnitPrice: 1}},
	})
	require.NoError(t, err)

	got, err := store.Update(ctx, agg.ID, userID, UpdateInput{})
	require.NoError(t, err)
	assert.Equal(t, agg.Total, got.Total)
	assert.Len(t, got.Items, 1)
	assert.Equal(t, int64(8), productStock(t, db, p))
}

func TestSalesStoreDeleteRestoresStock(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	store, _ := newTestStore(db, Sales())
	ctx := context.Background()
	userID := seedUser(t, db, "del@example.com")
	p := seedProduct(t, db, "REF-DEL", 1, 10)

	agg, err := store.Create(ctx, userID, CreateInput{
		Items: []ItemInput{{ProductID: p, Quantity: 4, UnitPrice: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(6), productStock(t, db, p))

	require.NoError(t, store.Delete(ctx, agg.ID, userID))
	assert.Equal(t, int64(10), productStock(t, db, p))

	err = store.Delete(ctx, agg.ID, userID)
	assert.ErrorIs(t, err, ErrNotFound)
	var count int
	require.NoError(t, db.Get(&count, `SELECT COUNT(*) FROM ventas_items`))
	assert.Zero(t, count)
}

func TestSalesStoreListByDateRange(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	store, _ := newTestStore(db, Sales())
	ctx := context.Background()
	userID := seedUser(t, db, "rango@example.com")
	p := seedProduct(t, db, "REF-RANGO", 1, 1000)

	days := []time.Time{
		time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC),
	}
	for _, day := range days {
		fecha := day
		_, err := store.Create(ctx, userID, CreateInput{
			Fecha: &fecha,
			Items: []ItemInput{{ProductID: p, Quantity: 1, UnitPrice: 1}},
		})
		require.NoError(t, err)
	}

	all, err := store.List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, all, 3)
	// newest first
	assert.True(t, all[0].Fecha.After(all[1].Fecha))

	// bounds are inclusive
	inRange, err := store.ListByDateRange(ctx, userID,
		time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, inRange, 2)
}

func TestPurchasesStoreLeavesStockAlone(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	store, rec := newTestStore(db, Purchases())
	ctx := context.Background()
	userID := seedUser(t, db, "compras@example.com")
	p := seedProduct(t, db, "REF-COMPRA", 2, 7)

	notas := "entrega parcial"
	proveedor := int64(42)
	agg, err := store.Create(ctx, userID, CreateInput{
		CounterpartyID: &proveedor,
		Notas:          &notas,
		Items:          []ItemInput{{ProductID: p, Quantity: 5, UnitPrice: 2}},
	})
	require.NoError(t, err)
	require.NotNil(t, agg.Notas)
	assert.Equal(t, "entrega parcial", *agg.Notas)
	require.NotNil(t, agg.CounterpartyID)
	assert.Equal(t, proveedor, *agg.CounterpartyID)

	// purchases never touch product stock
	assert.Equal(t, int64(7), productStock(t, db, p))

	rec.Wait()
	var count int
	require.NoError(t, db.Get(&count,
		`SELECT COUNT(*) FROM auditoria_eventos WHERE entidad = 'compra' AND accion = 'CREATE'`))
	assert.Equal(t, 1, count)
}

func TestSalesStoreConcurrentReplacementKeepsStockConsistent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	store, _ := newTestStore(db, Sales())
	ctx := context.Background()
	userID := seedUser(t, db, "carrera@example.com")
	p := seedProduct(t, db, "REF-RACE", 1, 100)

	// Two writers replace the same item set at once. The loser must re-add
	// the winner's committed quantities, not the shared pre-race snapshot,
	// or stock drifts by the difference.
	for round := 0; round < 10; round++ {
		agg, err := store.Create(ctx, userID, CreateInput{
			Items: []ItemInput{{ProductID: p, Quantity: 4, UnitPrice: 1}},
		})
		require.NoError(t, err)

		var wg sync.WaitGroup
		for _, qty := range []int64{1, 2} {
			wg.Add(1)
			go func(qty int64) {
				defer wg.Done()
				_, err := store.Update(ctx, agg.ID, userID, UpdateInput{
					ReplaceItems: true,
					Items:        []ItemInput{{ProductID: p, Quantity: qty, UnitPrice: 1}},
				})
				assert.NoError(t, err)
			}(qty)
		}
		wg.Wait()

		final, err := store.GetByID(ctx, agg.ID, userID)
		require.NoError(t, err)
		require.Len(t, final.Items, 1)
		assert.Equal(t, int64(100)-final.Items[0].Cantidad, productStock(t, db, p), "round %d", round)

		require.NoError(t, store.Delete(ctx, agg.ID, userID))
		require.Equal(t, int64(100), productStock(t, db, p))
	}
}

func TestSalesStoreReferentialErrors(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	store, _ := newTestStore(db, Sales())
	ctx := context.Background()
	userID := seedUser(t, db, "fk@example.com")

	badCliente := int64(9999)
	p := seedProduct(t, db, fmt.Sprintf("REF-FK-%d", time.Now().UnixNano()), 1, 10)
	_, err := store.Create(ctx, userID, CreateInput{
		CounterpartyID: &badCliente,
		Items:          []ItemInput{{ProductID: p, Quantity: 1, UnitPrice: 1}},
	})
	var refErr *ReferentialError
	require.ErrorAs(t, err, &refErr)
}
