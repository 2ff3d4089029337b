package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/linkbay/linkbay-ai/models"
	"go.uber.org/zap"
)

// Service persists finished request records to PostgreSQL. It implements
// the orchestrator's AuditStore interface.
type Service struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewService creates an audit service over an open database handle.
func NewService(db *sql.DB, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		db:     db,
		logger: logger,
	}
}

// InitSchema creates the request log table when it does not exist.
func (s *Service) InitSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS request_log (
			id UUID PRIMARY KEY,
			prompt TEXT NOT NULL,
			model VARCHAR(128) NOT NULL DEFAULT '',
			provider VARCHAR(64) NOT NULL DEFAULT '',
			tokens_used INTEGER NOT NULL DEFAULT 0,
			cost DOUBLE PRECISION NOT NULL DEFAULT 0,
			latency_ms INTEGER NOT NULL DEFAULT 0,
			status VARCHAR(32) NOT NULL,
			error_message TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_request_log_created_at ON request_log(created_at);
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize request log schema: %w", err)
	}

	s.logger.Info("request log schema initialized")
	return nil
}

// Record inserts one request record.
func (s *Service) Record(ctx context.Context, rec *models.RequestRecord) error {
	query := `
		INSERT INTO request_log
		(id, prompt, model, provider, tokens_used, cost, latency_ms, status, error_message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.Prompt, rec.Model, rec.Provider, rec.TokensUsed,
		rec.Cost, rec.LatencyMs, rec.Status, rec.ErrorMessage, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert request record: %w", err)
	}

	return nil
}

// RecentRequests returns the newest records up to limit.
func (s *Service) RecentRequests(ctx context.Context, limit int) ([]models.RequestRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, prompt, model, provider, tokens_used, cost, latency_ms, status, error_message, created_at
		FROM request_log
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query request log: %w", err)
	}
	defer rows.Close()

	records := make([]models.RequestRecord, 0, limit)
	for rows.Next() {
		var rec models.RequestRecord
		if err := rows.Scan(&rec.ID, &rec.Prompt, &rec.Model, &rec.Provider, &rec.TokensUsed,
			&rec.Cost, &rec.LatencyMs, &rec.Status, &rec.ErrorMessage, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan request record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return records, nil
}

// CleanupOldRecords removes records older than the retention horizon.
func (s *Service) CleanupOldRecords(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)

	result, err := s.db.ExecContext(ctx, `DELETE FROM request_log WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup request log: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	s.logger.Info("cleaned up old request records",
		zap.Int64("rows_deleted", rowsAffected),
		zap.Time("cutoff", cutoff))

	return rowsAffected, nil
}

// StartCleanupWorker periodically removes old records until ctx is done.
func (s *Service) StartCleanupWorker(ctx context.Context, interval, retention time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("started request log cleanup worker",
		zap.Duration("interval", interval),
		zap.Duration("retention", retention))

	for {
		select {
		case <-ticker.C:
			if _, err := s.CleanupOldRecords(ctx, retention); err != nil {
				s.logger.Error("failed to cleanup request log", zap.Error(err))
			}
		case <-ctx.Done():
			s.logger.Info("stopping request log cleanup worker")
			return
		}
	}
}
