package postgres

import (
	"context"
	"database/sql"
	"log"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // Драйвер Postgres
)

// Store — общий пул соединений для всех семейств записей консоли.
type Store struct {
	db *sql.DB
}

// NewStore создает репозиторий. Соединение проверяется через Ping в main.
func NewStore(connString string) *Store {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		log.Fatal(err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)
	return &Store{db: db}
}

// Ping проверяет доступность базы при старте.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close отдает пул при остановке сервиса.
func (s *Store) Close() error {
	return s.db.Close()
}
