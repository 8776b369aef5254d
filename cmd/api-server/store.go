package main

import (
	"context"

	"procurement/db"
	"procurement/db/memory"
	"procurement/db/migrations"
	"procurement/internal/config"
	"procurement/internal/procurement"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
)

// openStore возвращает хранилище и функцию закрытия
func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (procurement.Store, func(), error) {
	if cfg.Database.Storage == config.StorageMemory {
		log.Warn().Msg("using in-memory storage, data is lost on restart")
		return memory.New(), func() {}, nil
	}

	conn, err := openPostgres(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Database.MigrateOnStart {
		if err := migrations.Up(conn.DB, log); err != nil {
			conn.Close()
			return nil, nil, err
		}
	}
	log.Info().Msg("database connection established")
	return db.NewStorage(conn), func() { conn.Close() }, nil
}

func openPostgres(ctx context.Context, cfg *config.Config) (*sqlx.DB, error) {
	return db.Connect(ctx, cfg.Database.Conn, db.PoolOptions{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
}
