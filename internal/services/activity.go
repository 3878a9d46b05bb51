package services

import (
	"context"
	"fmt"

	"github.com/dimitrije/pluginhub-api/internal/database"
	"github.com/dimitrije/pluginhub-api/internal/models"
)

const defaultActivityLimit = 50

type ActivityService struct {
	db *database.DB
}

func NewActivityService(db *database.DB) *ActivityService {
	return &ActivityService{db: db}
}

// Log appends an entry through q, which is either the pool or the transaction
// of the mutation being audited.
func (s *ActivityService) Log(ctx context.Context, q database.Querier, entry models.ActivityLog) error {
	if q == nil {
		q = s.db.Pool
	}
	_, err := q.Exec(ctx, `
		INSERT INTO activity_logs (user_email, action, entity_type, entity_id, details)
		VALUES ($1, $2, $3, $4, $5)
	`, entry.UserEmail, entry.Action, entry.EntityType, entry.EntityID, entry.Details)
	if err != nil {
		return fmt.Errorf("failed to write activity log: %w", err)
	}
	return nil
}

func (s *ActivityService) ListForUser(ctx context.Context, email string, limit int) ([]models.ActivityLog, error) {
	return s.list(ctx, `
		SELECT id, user_email, action, entity_type, entity_id, details, created_at
		FROM activity_logs
		WHERE user_email = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, email, clampLimit(limit))
}

func (s *ActivityService) ListRecent(ctx context.Context, limit int) ([]models.ActivityLog, error) {
	return s.list(ctx, `
		SELECT id, user_email, action, entity_type, entity_id, details, created_at
		FROM activity_logs
		ORDER BY created_at DESC
		LIMIT $1
	`, clampLimit(limit))
}

func (s *ActivityService) list(ctx context.Context, query string, args ...any) ([]models.ActivityLog, error) {
	rows, err := s.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []models.ActivityLog{}
	for rows.Next() {
		var l models.ActivityLog
		if err := rows.Scan(&l.ID, &l.UserEmail, &l.Action, &l.EntityType, &l.EntityID, &l.Details, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return defaultActivityLimit
	}
	return limit
}
