package audit

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/linkbay/linkbay-ai/models"
)

func TestInitSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS request_log").
		WillReturnResult(sqlmock.NewResult(0, 0))

	s := NewService(db, zap.NewNop())
	require.NoError(t, s.InitSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecord(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rec := models.NewRequestRecord("what is go?", "deepseek-chat")
	rec.MarkCompleted("deepseek", 42, 150)

	mock.ExpectExec("INSERT INTO request_log").
		WithArgs(rec.ID, rec.Prompt, rec.Model, rec.Provider, rec.TokensUsed,
			rec.Cost, rec.LatencyMs, rec.Status, rec.ErrorMessage, rec.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	s := NewService(db, zap.NewNop())
	require.NoError(t, s.Record(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO request_log").
		WillReturnError(assert.AnError)

	s := NewService(db, zap.NewNop())
	err = s.Record(context.Background(), models.NewRequestRecord("p", "m"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert request record")
}

func TestRecentRequests(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	first := models.NewRequestRecord("newest", "m")
	first.MarkCompleted("deepseek", 10, 100)
	second := models.NewRequestRecord("older", "m")
	second.MarkFailed("all providers failed", 250)

	rows := sqlmock.NewRows([]string{
		"id", "prompt", "model", "provider", "tokens_used",
		"cost", "latency_ms", "status", "error_message", "created_at",
	}).
		AddRow(first.ID, first.Prompt, first.Model, first.Provider, first.TokensUsed,
			first.Cost, first.LatencyMs, first.Status, first.ErrorMessage, first.CreatedAt).
		AddRow(second.ID, second.Prompt, second.Model, second.Provider, second.TokensUsed,
			second.Cost, second.LatencyMs, second.Status, second.ErrorMessage, second.CreatedAt)

	mock.ExpectQuery("SELECT (.+) FROM request_log").
		WithArgs(2).
		WillReturnRows(rows)

	s := NewService(db, zap.NewNop())
	records, err := s.RecentRequests(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "newest", records[0].Prompt)
	assert.Equal(t, models.StatusFailed, records[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecentRequestsDefaultLimit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM request_log").
		WithArgs(50).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "prompt", "model", "provider", "tokens_used",
			"cost", "latency_ms", "status", "error_message", "created_at",
		}))

	s := NewService(db, zap.NewNop())
	records, err := s.RecentRequests(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCleanupOldRecords(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("DELETE FROM request_log").
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 7))

	s := NewService(db, zap.NewNop())
	deleted, err := s.CleanupOldRecords(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(7), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
