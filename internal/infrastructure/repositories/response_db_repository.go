package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zhguchie-tours/frontend/internal/core/domain/offline"
	"github.com/zhguchie-tours/frontend/internal/infrastructure/db"
)

type responseRow struct {
	StoreName  string    `db:"store_name"`
	RequestKey string    `db:"request_key"`
	Status     int       `db:"status"`
	Headers    []byte    `db:"headers"`
	Body       []byte    `db:"body"`
	Digest     string    `db:"digest"`
	StoredAt   time.Time `db:"stored_at"`
}

// ResponseDBRepository keeps named stores in the offline_responses table.
type ResponseDBRepository struct {
	db     *db.Database
	logger *logrus.Logger
}

func NewResponseDBRepository(database *db.Database, logger *logrus.Logger) *ResponseDBRepository {
	return &ResponseDBRepository{db: database, logger: logger}
}

func (r *ResponseDBRepository) Match(ctx context.Context, store, key string) (*offline.Response, bool, error) {
	var row responseRow
	query := `
		SELECT store_name, request_key, status, headers, body, digest, stored_at
		FROM offline_responses
		WHERE store_name = $1 AND request_key = $2`

	err := r.db.DB.GetContext(ctx, &row, query, store, key)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get cached response: %w", err)
	}

	var header http.Header
	if err := json.Unmarshal(row.Headers, &header); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached headers: %w", err)
	}
	return &offline.Response{
		Status:   row.Status,
		Header:   header,
		Body:     row.Body,
		StoredAt: row.StoredAt,
		Digest:   row.Digest,
	}, true, nil
}

func (r *ResponseDBRepository) Put(ctx context.Context, store, key string, resp *offline.Response) error {
	return r.PutAll(ctx, store, []offline.Entry{{Key: key, Response: resp}})
}

// PutAll upserts every entry inside one transaction.
func (r *ResponseDBRepository) PutAll(ctx context.Context, store string, entries []offline.Entry) error {
	tx, err := r.db.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		INSERT INTO offline_responses (store_name, request_key, status, headers, body, digest, stored_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (store_name, request_key) DO UPDATE
		SET status = EXCLUDED.status, headers = EXCLUDED.headers, body = EXCLUDED.body,
		    digest = EXCLUDED.digest, stored_at = EXCLUDED.stored_at`

	for _, e := range entries {
		header := e.Response.Header
		if header == nil {
			header = http.Header{}
		}
		hb, err := json.Marshal(header)
		if err != nil {
			return fmt.Errorf("failed to encode headers for %s: %w", e.Key, err)
		}
		body := e.Response.Body
		if body == nil {
			body = []byte{}
		}
		if _, err := tx.ExecContext(ctx, query, store, e.Key, e.Response.Status, string(hb), body, e.Response.Digest, e.Response.StoredAt); err != nil {
			return fmt.Errorf("failed to store response for %s: %w", e.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit responses: %w", err)
	}
	if r.logger != nil {
		r.logger.WithFields(logrus.Fields{"store": store, "entries": len(entries)}).Debug("responses stored")
	}
	return nil
}

func (r *ResponseDBRepository) Keys(ctx context.Context, store string) ([]string, error) {
	keys := []string{}
	query := `SELECT request_key FROM offline_responses WHERE store_name = $1 ORDER BY request_key COLLATE "C"`
	if err := r.db.DB.SelectContext(ctx, &keys, query, store); err != nil {
		return nil, fmt.Errorf("failed to list store keys: %w", err)
	}
	return keys, nil
}

func (r *ResponseDBRepository) Stores(ctx context.Context) ([]string, error) {
	names := []string{}
	query := `SELECT store_name FROM offline_responses GROUP BY store_name ORDER BY store_name COLLATE "C"`
	if err := r.db.DB.SelectContext(ctx, &names, query); err != nil {
		return nil, fmt.Errorf("failed to list stores: %w", err)
	}
	return names, nil
}

func (r *ResponseDBRepository) DeleteStore(ctx context.Context, store string) error {
	query := `DELETE FROM offline_responses WHERE store_name = $1`
	if _, err := r.db.DB.ExecContext(ctx, query, store); err != nil {
		return fmt.Errorf("failed to delete store: %w", err)
	}
	return nil
}
