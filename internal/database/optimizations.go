package database

import (
	"context"
	"fmt"
	"strings"

	"vidoptimize/internal/models"

	"github.com/jackc/pgx/v5"
)

const optimizationColumns = `
	id, user_id, video_url, video_title, original_title, optimized_title,
	original_description, optimized_description, tags, status,
	views, engagement, click_rate, created_at
`

func scanOptimization(row pgx.Row) (*models.Optimization, error) {
	var o models.Optimization
	err := row.Scan(
		&o.ID,
		&o.UserID,
		&o.VideoURL,
		&o.VideoTitle,
		&o.OriginalTitle,
		&o.OptimizedTitle,
		&o.OriginalDescription,
		&o.OptimizedDescription,
		&o.Tags,
		&o.Status,
		&o.Metrics.Views,
		&o.Metrics.Engagement,
		&o.Metrics.ClickRate,
		&o.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if o.Tags == nil {
		o.Tags = []string{}
	}
	return &o, nil
}

type CreateOptimizationParams struct {
	ID                   string
	UserID               string
	VideoURL             string
	VideoTitle           string
	OriginalTitle        *string
	OptimizedTitle       *string
	OriginalDescription  *string
	OptimizedDescription *string
	Tags                 []string
	Status               models.OptimizationStatus
	Metrics              models.OptimizationMetrics
}

// ConsumeQuota takes one unit of the user's quota. The check and the
// increment are a single statement, so concurrent callers can never push
// quota_used past quota_limit.
func (q *Queries) ConsumeQuota(ctx context.Context, userID string) error {
	query := `
		UPDATE users
		SET quota_used = quota_used + 1, updated_at = NOW()
		WHERE id = $1 AND quota_used < quota_limit
	`
	res, err := q.db.Exec(ctx, query, userID)
	if err != nil {
		return err
	}
	if res.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := q.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrUserNotFound
	}
	return ErrQuotaExceeded
}

func (q *Queries) InsertOptimization(ctx context.Context, arg CreateOptimizationParams) (*models.Optimization, error) {
	tags := arg.Tags
	if tags == nil {
		tags = []string{}
	}
	status := arg.Status
	if status == "" {
		status = models.StatusCompleted
	}

	query := `
		INSERT INTO optimizations (
			id, user_id, video_url, video_title, original_title, optimized_title,
			original_description, optimized_description, tags, status,
			views, engagement, click_rate
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ` + optimizationColumns

	o, err := scanOptimization(q.db.QueryRow(ctx, query,
		arg.ID,
		arg.UserID,
		arg.VideoURL,
		arg.VideoTitle,
		arg.OriginalTitle,
		arg.OptimizedTitle,
		arg.OriginalDescription,
		arg.OptimizedDescription,
		tags,
		status,
		arg.Metrics.Views,
		arg.Metrics.Engagement,
		arg.Metrics.ClickRate,
	))
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("insert optimization: %w", err)
	}
	return o, nil
}

// CreateOptimization consumes one unit of quota and stores the record in a
// single transaction. Nothing is written when the quota is used up.
func (s *Store) CreateOptimization(ctx context.Context, arg CreateOptimizationParams) (*models.Optimization, error) {
	var created *models.Optimization
	err := s.ExecTx(ctx, func(q *Queries) error {
		if err := q.ConsumeQuota(ctx, arg.UserID); err != nil {
			return err
		}
		o, err := q.InsertOptimization(ctx, arg)
		if err != nil {
			return err
		}
		created = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

type ListOptimizationsParams struct {
	UserID string
	Search string
	Status models.OptimizationStatus
	Limit  int
}

// likeEscaper makes user input match literally inside an ILIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ListOptimizations returns the user's optimizations newest first. Search is a
// case-insensitive substring match on the video title; Limit <= 0 means no limit.
func (q *Queries) ListOptimizations(ctx context.Context, arg ListOptimizationsParams) ([]models.Optimization, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + optimizationColumns + ` FROM optimizations WHERE user_id = $1`)
	args := []interface{}{arg.UserID}

	if arg.Search != "" {
		args = append(args, "%"+likeEscaper.Replace(arg.Search)+"%")
		fmt.Fprintf(&sb, ` AND video_title ILIKE $%d`, len(args))
	}
	if arg.Status != "" {
		args = append(args, arg.Status)
		fmt.Fprintf(&sb, ` AND status = $%d`, len(args))
	}
	sb.WriteString(` ORDER BY created_at DESC, id`)
	if arg.Limit > 0 {
		args = append(args, arg.Limit)
		fmt.Fprintf(&sb, ` LIMIT $%d`, len(args))
	}

	rows, err := q.db.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var optimizations []models.Optimization
	for rows.Next() {
		o, err := scanOptimization(rows)
		if err != nil {
			return nil, err
		}
		optimizations = append(optimizations, *o)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	if optimizations == nil {
		return []models.Optimization{}, nil
	}

	return optimizations, nil
}

type OptimizationStats struct {
	TotalOptimizations int
	TotalViews         int64
	AvgEngagement      float64
	ActiveVideos       int
}

func (q *Queries) GetOptimizationStats(ctx context.Context, userID string) (*OptimizationStats, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(views), 0),
			COALESCE(AVG(engagement), 0)::float8,
			COUNT(*) FILTER (WHERE status = 'completed')
		FROM optimizations
		WHERE user_id = $1
	`
	var stats OptimizationStats
	err := q.db.QueryRow(ctx, query, userID).Scan(
		&stats.TotalOptimizations,
		&stats.TotalViews,
		&stats.AvgEngagement,
		&stats.ActiveVideos,
	)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
