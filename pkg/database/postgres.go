package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/lgdark7/timetable/pkg/config"
)

const pingTimeout = 5 * time.Second

// NewPostgres opens the timetable database and verifies it answers before returning.
func NewPostgres(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres %s:%d: %w", cfg.Host, cfg.Port, err)
	}

	return db, nil
}

// DSN renders the lib/pq connection string. Empty fields are left out so libpq defaults apply.
func DSN(cfg config.DatabaseConfig) string {
	parts := make([]string, 0, 6)
	add := func(key, value string) {
		if value == "" {
			return
		}
		if strings.ContainsAny(value, ` '\`) {
			value = "'" + strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(value) + "'"
		}
		parts = append(parts, key+"="+value)
	}

	add("host", cfg.Host)
	if cfg.Port > 0 {
		add("port", fmt.Sprintf("%d", cfg.Port))
	}
	add("user", cfg.User)
	add("password", cfg.Password)
	add("dbname", cfg.Name)
	add("sslmode", cfg.SSLMode)
	return strings.Join(parts, " ")
}
