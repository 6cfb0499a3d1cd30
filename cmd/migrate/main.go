// Aplica el esquema de base de datos. Uso:
//
//	go run ./cmd/migrate
//
// Lee la conexión de las mismas variables de entorno que el servidor
// (DATABASE_URL o DB_HOST/DB_PORT/...).
package main

import (
	"context"
	"time"

	"github.com/jhoicas/pos-inventory/internal/infrastructure/postgres"
	"github.com/jhoicas/pos-inventory/pkg/config"
	"github.com/jhoicas/pos-inventory/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: "info"})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("migración")
	}
	log.Info().Msg("esquema aplicado")
}
