package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

// PostgresStore is the production subscription store backed by Postgres.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection pool against the given URI and
// verifies connectivity.
func NewPostgresStore(uri string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", uri)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// EnsureSchema creates the subscriptions table when it does not exist yet.
// There is deliberately no uniqueness constraint: resubscribing to the same
// crag and window inserts another row.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	const schema = `
        CREATE TABLE IF NOT EXISTS user_subscriptions (
            id UUID PRIMARY KEY,
            crag_name TEXT NOT NULL,
            date_from DATE NOT NULL,
            date_to DATE NOT NULL,
            conditions TEXT,
            temperature INTEGER,
            email TEXT NOT NULL,
            lat DOUBLE PRECISION,
            lon DOUBLE PRECISION,
            created_at TIMESTAMPTZ NOT NULL
        )
    `
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure subscriptions schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Insert(ctx context.Context, sub *Subscription) error {
	sub.ID = uuid.New()
	sub.CreatedAt = time.Now().UTC()

	const query = `
        INSERT INTO user_subscriptions
            (id, crag_name, date_from, date_to, conditions, temperature, email, lat, lon, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `
	_, err := s.db.ExecContext(ctx, query,
		sub.ID,
		sub.CragName,
		sub.DateFrom,
		sub.DateTo,
		sub.Conditions,
		sub.Temperature,
		sub.Email,
		sub.Lat,
		sub.Lon,
		sub.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert subscription: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListUpcoming(ctx context.Context) ([]Subscription, error) {
	const query = `
        SELECT id, crag_name, date_from, date_to, conditions, temperature, email, lat, lon, created_at
        FROM user_subscriptions
        WHERE date_from >= CURRENT_DATE
    `

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []Subscription
	for rows.Next() {
		var sub Subscription
		var conditions sql.NullString
		var temperature sql.NullInt64

		err := rows.Scan(
			&sub.ID,
			&sub.CragName,
			&sub.DateFrom,
			&sub.DateTo,
			&conditions,
			&temperature,
			&sub.Email,
			&sub.Lat,
			&sub.Lon,
			&sub.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}

		sub.Conditions = conditions.String
		sub.Temperature = int(temperature.Int64)
		subs = append(subs, sub)
	}

	return subs, rows.Err()
}

func (s *PostgresStore) UpdateSnapshot(ctx context.Context, id uuid.UUID, temperature int, conditions string) error {
	const query = `
        UPDATE user_subscriptions
        SET temperature = $2, conditions = $3
        WHERE id = $1
    `
	res, err := s.db.ExecContext(ctx, query, id, temperature, conditions)
	if err != nil {
		return fmt.Errorf("failed to update snapshot: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the underlying connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
