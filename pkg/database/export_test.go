package database

import (
	"database/sql"
	"log/slog"
)

func NewWithDB(db *sql.DB, cfg *Config, logger *slog.Logger) System {
	return newSystem(db, cfg, logger)
}
