package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ad-tracker/trendmeter/internal/db"
	"github.com/ad-tracker/trendmeter/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRunRepository stores runs in the trend_runs table. The full result
// is kept as JSONB; the summary columns serve listings.
type PostgresRunRepository struct {
	pool *pgxpool.Pool
}

var _ RunRepository = (*PostgresRunRepository)(nil)

// NewPostgresRunRepository creates a new PostgresRunRepository.
func NewPostgresRunRepository(pool *pgxpool.Pool) *PostgresRunRepository {
	return &PostgresRunRepository{pool: pool}
}

// Save inserts run, or replaces the stored copy if the id exists.
func (r *PostgresRunRepository) Save(ctx context.Context, run *models.RunResult) error {
	payload, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}

	var errMsg *string
	if run.Error != "" {
		errMsg = &run.Error
	}

	keywords := run.Request.Keywords
	if keywords == nil {
		keywords = []string{}
	}

	query := `
		INSERT INTO trend_runs
		(id, status, error_message, keywords, video_count, channel_count, started_at, finished_at, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			error_message = EXCLUDED.error_message,
			keywords = EXCLUDED.keywords,
			video_count = EXCLUDED.video_count,
			channel_count = EXCLUDED.channel_count,
			started_at = EXCLUDED.started_at,
			finished_at = EXCLUDED.finished_at,
			payload = EXCLUDED.payload
	`
	_, err = r.pool.Exec(ctx, query,
		run.ID, string(run.Status), errMsg, keywords, len(run.Videos), len(run.Channels),
		run.StartedAt, run.FinishedAt, payload,
	)
	if err = db.WrapError(err, "save run"); db.IsConstraintViolation(err) {
		return fmt.Errorf("%w: %w", ErrInvalidRun, err)
	}
	return err
}

// Get loads the full run with id.
func (r *PostgresRunRepository) Get(ctx context.Context, id uuid.UUID) (*models.RunResult, error) {
	var payload []byte
	err := r.pool.QueryRow(ctx, `SELECT payload FROM trend_runs WHERE id = $1`, id).Scan(&payload)
	if err != nil {
		err = db.WrapError(err, "get run")
		if db.IsNotFound(err) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}

	var run models.RunResult
	if err := json.Unmarshal(payload, &run); err != nil {
		return nil, fmt.Errorf("unmarshal run %s: %w", id, err)
	}
	return &run, nil
}

// List returns up to limit summaries ordered by start time, newest first.
func (r *PostgresRunRepository) List(ctx context.Context, limit int) ([]models.RunSummary, error) {
	query := `
		SELECT id, status, COALESCE(error_message, ''), keywords, video_count, channel_count, started_at, finished_at
		FROM trend_runs
		ORDER BY started_at DESC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, normalizeLimit(limit))
	if err != nil {
		return nil, db.WrapError(err, "list runs")
	}
	defer rows.Close()

	summaries := make([]models.RunSummary, 0)
	for rows.Next() {
		var (
			s      models.RunSummary
			status string
		)
		if err := rows.Scan(
			&s.ID, &status, &s.Error, &s.Keywords, &s.VideoCount, &s.ChannelCount, &s.StartedAt, &s.FinishedAt,
		); err != nil {
			return nil, db.WrapError(err, "scan run")
		}
		s.Status = models.RunStatus(status)
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, db.WrapError(err, "list runs")
	}

	return summaries, nil
}

// Ping checks the database connection.
func (r *PostgresRunRepository) Ping(ctx context.Context) error {
	if r.pool == nil {
		return errors.New("database pool is not initialized")
	}
	return r.pool.Ping(ctx)
}
