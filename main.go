package main

import (
	"net/http"

	"github.com/joho/godotenv"

	"comercio/m/internal/api"
	"comercio/m/internal/audit"
	"comercio/m/internal/config"
	"comercio/m/internal/database"
	"comercio/m/internal/logger"
	"comercio/m/internal/migrations"
	"comercio/m/internal/seed"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log, err := logger.New(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	db, err := database.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatal("database connection failed", "error", err)
	}
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		log.Fatal("migrations failed", "error", err)
	}

	if cfg.CatalogCSV != "" {
		seed.LoadProducts(db, log, cfg.CatalogCSV)
	}

	recorder := audit.NewRecorder(db, log)
	defer recorder.Wait()

	handler := api.New(db, cfg.Secret, log, recorder)

	addr := ":" + cfg.HTTPPort
	log.Info("server listening", "addr", addr, "env", cfg.Env)
	if err := http.ListenAndServe(addr, handler.Router()); err != nil {
		log.Fatal("server stopped", "error", err)
	}
}
