package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/Alias1177/ProfitForge/models"
)

// DB represents a database connection
type DB struct {
	*sql.DB
}

// ConnectionParams holds PostgreSQL connection parameters
type ConnectionParams struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN renders the parameters as a lib/pq connection string
func (p ConnectionParams) DSN() string {
	sslMode := p.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, sslMode,
	)
}

// Configured reports whether enough parameters are set to attempt a connection
func (p ConnectionParams) Configured() bool {
	return p.Host != "" && p.DBName != ""
}

// New creates a new database connection
func New(params ConnectionParams) (*DB, error) {
	db, err := sql.Open("postgres", params.DSN())
	if err != nil {
		return nil, err
	}

	// Check connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	// Create tables if they don't exist
	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &DB{db}, nil
}

// createTables creates the necessary tables if they don't exist
func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS alert_subscriptions (
			chat_id      BIGINT    NOT NULL,
			symbol       TEXT      NOT NULL,
			resolution   TEXT      NOT NULL,
			created_at   TIMESTAMP NOT NULL,
			last_signal  TEXT,
			last_alerted TIMESTAMP,
			PRIMARY KEY (chat_id, symbol)
		)
	`)
	return err
}

// Subscribe creates or refreshes a chat's subscription to a symbol
func (db *DB) Subscribe(ctx context.Context, chatID int64, symbol, resolution string) (*models.Subscription, error) {
	sub := &models.Subscription{
		ChatID:     chatID,
		Symbol:     symbol,
		Resolution: resolution,
		CreatedAt:  time.Now().UTC(),
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO alert_subscriptions (chat_id, symbol, resolution, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (chat_id, symbol)
		DO UPDATE SET resolution = EXCLUDED.resolution
	`, sub.ChatID, sub.Symbol, sub.Resolution, sub.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("subscribe %d to %s: %w", chatID, symbol, err)
	}

	return sub, nil
}

// Unsubscribe removes a subscription and reports whether one existed
func (db *DB) Unsubscribe(ctx context.Context, chatID int64, symbol string) (bool, error) {
	res, err := db.ExecContext(ctx, `
		DELETE FROM alert_subscriptions WHERE chat_id = $1 AND symbol = $2
	`, chatID, symbol)
	if err != nil {
		return false, fmt.Errorf("unsubscribe %d from %s: %w", chatID, symbol, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SubscribersFor returns every subscription to a symbol
func (db *DB) SubscribersFor(ctx context.Context, symbol string) ([]models.Subscription, error) {
	return db.querySubscriptions(ctx, `
		SELECT chat_id, symbol, resolution, created_at, last_signal, last_alerted
		FROM alert_subscriptions WHERE symbol = $1 ORDER BY chat_id
	`, symbol)
}

// ListSubscriptions returns every subscription of a chat
func (db *DB) ListSubscriptions(ctx context.Context, chatID int64) ([]models.Subscription, error) {
	return db.querySubscriptions(ctx, `
		SELECT chat_id, symbol, resolution, created_at, last_signal, last_alerted
		FROM alert_subscriptions WHERE chat_id = $1 ORDER BY symbol
	`, chatID)
}

// MarkAlerted records the last signal delivered to a subscription
func (db *DB) MarkAlerted(ctx context.Context, chatID int64, symbol string, signal models.Signal) error {
	_, err := db.ExecContext(ctx, `
		UPDATE alert_subscriptions
		SET last_signal = $3, last_alerted = $4
		WHERE chat_id = $1 AND symbol = $2
	`, chatID, symbol, string(signal), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("mark alerted %d %s: %w", chatID, symbol, err)
	}
	return nil
}

// RecordSignal stores a final signal that was not alerted on every subscription
// to the symbol on the resolution, so the next directional signal alerts again
func (db *DB) RecordSignal(ctx context.Context, symbol, resolution string, signal models.Signal) error {
	_, err := db.ExecContext(ctx, `
		UPDATE alert_subscriptions
		SET last_signal = $3
		WHERE symbol = $1 AND (resolution = '' OR resolution = $2)
	`, symbol, resolution, string(signal))
	if err != nil {
		return fmt.Errorf("record signal %s: %w", symbol, err)
	}
	return nil
}

func (db *DB) querySubscriptions(ctx context.Context, query string, arg interface{}) ([]models.Subscription, error) {
	rows, err := db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []models.Subscription
	for rows.Next() {
		var sub models.Subscription
		var lastSignal sql.NullString
		var lastAlerted sql.NullTime
		if err := rows.Scan(&sub.ChatID, &sub.Symbol, &sub.Resolution, &sub.CreatedAt, &lastSignal, &lastAlerted); err != nil {
			return nil, err
		}
		if lastSignal.Valid {
			sub.LastSignal = models.Signal(lastSignal.String)
		}
		if lastAlerted.Valid {
			sub.LastAlerted = lastAlerted.Time
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}
