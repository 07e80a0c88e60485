package seed

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"comercio/m/internal/logger"
)

type productRecord struct {
	Referencia string
	Nombre     string
	Categoria  string
	Precio     float64
	Cantidad   int64
}

var errSkipRecord = errors.New("registro incompleto")

// parseProductRecord maps one CSV row: referencia,nombre,categoria,precio,cantidad.
func parseProductRecord(record []string) (productRecord, error) {
	if len(record) < 5 {
		return productRecord{}, errSkipRecord
	}
	p := productRecord{
		Referencia: strings.TrimSpace(record[0]),
		Nombre:     strings.TrimSpace(record[1]),
		Categoria:  strings.TrimSpace(record[2]),
	}
	if p.Referencia == "" || p.Nombre == "" {
		return productRecord{}, errSkipRecord
	}
	precio, err := strconv.ParseFloat(strings.TrimSpace(record[3]), 64)
	if err != nil || precio < 0 {
		return productRecord{}, errSkipRecord
	}
	cantidad, err := strconv.ParseInt(strings.TrimSpace(record[4]), 10, 64)
	if err != nil || cantidad < 0 {
		return productRecord{}, errSkipRecord
	}
	p.Precio = precio
	p.Cantidad = cantidad
	return p, nil
}

// LoadProducts ingests the CSV catalog into productos, ignoring rows whose
// referencia already exists. Failures are logged and never abort startup.
func LoadProducts(db *sqlx.DB, log *logger.Logger, csvPath string) {
	file, err := os.Open(csvPath)
	if err != nil {
		log.Warn("unable to open product catalog", "path", csvPath, "error", err)
		return
	}
	defer file.Close()

	reader := csv.NewReader(file)
	// Skip header
	if _, err := reader.Read(); err != nil {
		log.Warn("unable to read catalog header", "path", csvPath, "error", err)
		return
	}

	tx, err := db.Beginx()
	if err != nil {
		log.Warn("unable to start catalog transaction", "error", err)
		return
	}
	stmt, err := tx.Preparex(`INSERT INTO productos (referencia, nombre, categoria, precio, cantidad)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (referencia) DO NOTHING`)
	if err != nil {
		log.Warn("unable to prepare catalog insert", "error", err)
		_ = tx.Rollback()
		return
	}
	defer stmt.Close()

	rows := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Warn("unable to read catalog row", "error", err)
			continue
		}
		p, err := parseProductRecord(record)
		if err != nil {
			continue
		}
		if _, err := stmt.Exec(p.Referencia, p.Nombre, p.Categoria, p.Precio, p.Cantidad); err != nil {
			log.Warn("unable to insert catalog product", "referencia", p.Referencia, "error", err)
		} else {
			rows++
		}
	}

	if err := tx.Commit(); err != nil {
		log.Warn("unable to commit catalog seed", "error", err)
		return
	}
	log.Info("seeded product catalog", "rows", rows)
}
