package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dimitrije/pluginhub-api/internal/database"
	"github.com/dimitrije/pluginhub-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const templateColumns = `id, name, description, team_id, plugins, created_by, created_at`

const projectColumns = `id, title, description, team_id, site_id, template_id, status, priority,
	plugins, assigned_members, timeline_events, notes, created_by, created_at, updated_at`

const roleProjectLead = "Project Lead"

type ProjectService struct {
	db       *database.DB
	activity *ActivityService
	now      func() time.Time
}

func NewProjectService(db *database.DB, activity *ActivityService) *ProjectService {
	return &ProjectService{db: db, activity: activity, now: time.Now}
}

type TemplateInput struct {
	Name        string
	Description string
	TeamID      *uuid.UUID
	Plugins     []models.TemplatePlugin
}

type ProjectInput struct {
	Title       string
	Description string
	TeamID      uuid.UUID
	SiteID      *uuid.UUID
	TemplateID  *uuid.UUID
	Priority    string
	Notes       string
}

func scanTemplate(row pgx.Row) (*models.ProjectTemplate, error) {
	var t models.ProjectTemplate
	var plugins []byte
	if err := row.Scan(&t.ID, &t.Name, &t.Description, &t.TeamID, &plugins, &t.CreatedBy, &t.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}
	t.Plugins = []models.TemplatePlugin{}
	if err := decodeJSON(plugins, &t.Plugins); err != nil {
		return nil, err
	}
	return &t, nil
}

func scanProject(row pgx.Row) (*models.Project, error) {
	var p models.Project
	var plugins, members, events []byte
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.TeamID, &p.SiteID, &p.TemplateID, &p.Status, &p.Priority,
		&plugins, &members, &events, &p.Notes, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	p.Plugins = []models.ProjectPlugin{}
	p.AssignedMembers = []models.AssignedMember{}
	p.TimelineEvents = []models.TimelineEvent{}
	if err := decodeJSON(plugins, &p.Plugins); err != nil {
		return nil, err
	}
	if err := decodeJSON(members, &p.AssignedMembers); err != nil {
		return nil, err
	}
	if err := decodeJSON(events, &p.TimelineEvents); err != nil {
		return nil, err
	}
	return &p, nil
}

func decodeJSON(raw []byte, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to decode json column: %w", err)
	}
	return nil
}

func (s *ProjectService) CreateTemplate(ctx context.Context, actor *models.User, in TemplateInput) (*models.ProjectTemplate, error) {
	if in.Plugins == nil {
		in.Plugins = []models.TemplatePlugin{}
	}
	plugins, err := json.Marshal(in.Plugins)
	if err != nil {
		return nil, err
	}
	return scanTemplate(s.db.Pool.QueryRow(ctx, `
		INSERT INTO project_templates (name, description, team_id, plugins, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+templateColumns,
		in.Name, in.Description, in.TeamID, plugins, actor.Email))
}

// ListTemplates returns global templates plus those of the given teams.
func (s *ProjectService) ListTemplates(ctx context.Context, teamIDs []uuid.UUID) ([]models.ProjectTemplate, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+templateColumns+`
		FROM project_templates
		WHERE team_id IS NULL OR team_id = ANY($1)
		ORDER BY name
	`, sharedOrEmpty(teamIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.ProjectTemplate{}
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// Create starts a project. When a template is given its plugins are copied
// into the project once, as not yet installed.
func (s *ProjectService) Create(ctx context.Context, actor *models.User, in ProjectInput) (*models.Project, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	plugins := []models.ProjectPlugin{}
	if in.TemplateID != nil {
		tmpl, err := scanTemplate(tx.QueryRow(ctx, `SELECT `+templateColumns+` FROM project_templates WHERE id = $1`, *in.TemplateID))
		if err != nil {
			return nil, err
		}
		for _, tp := range tmpl.Plugins {
			plugins = append(plugins, models.ProjectPlugin{PluginID: tp.PluginID, Version: tp.Version})
		}
	}
	if in.Priority == "" {
		in.Priority = models.PriorityNormal
	}

	rawPlugins, err := json.Marshal(plugins)
	if err != nil {
		return nil, err
	}
	rawMembers, err := json.Marshal([]models.AssignedMember{{UserID: actor.ID, RoleOnProject: roleProjectLead}})
	if err != nil {
		return nil, err
	}
	rawEvents, err := json.Marshal([]models.TimelineEvent{{Title: "Project created", Date: s.now(), CreatedBy: actor.Email}})
	if err != nil {
		return nil, err
	}

	project, err := scanProject(tx.QueryRow(ctx, `
		INSERT INTO projects (title, description, team_id, site_id, template_id, status, priority,
			plugins, assigned_members, timeline_events, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+projectColumns,
		in.Title, in.Description, in.TeamID, in.SiteID, in.TemplateID, models.ProjectStatusPlanning, in.Priority,
		rawPlugins, rawMembers, rawEvents, in.Notes, actor.Email))
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	if err := s.activity.Log(ctx, tx, models.ActivityLog{
		UserEmail:  actor.Email,
		Action:     "Created project " + project.Title,
		EntityType: models.EntityProject,
		EntityID:   &project.ID,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return project, nil
}

func (s *ProjectService) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	return scanProject(s.db.Pool.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id))
}

func (s *ProjectService) List(ctx context.Context, teamID uuid.UUID) ([]models.Project, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+projectColumns+` FROM projects WHERE team_id = $1 ORDER BY created_at DESC
	`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (s *ProjectService) Delete(ctx context.Context, actorEmail string, id uuid.UUID) error {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var title string
	if err := tx.QueryRow(ctx, `DELETE FROM projects WHERE id = $1 RETURNING title`, id).Scan(&title); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("failed to delete project: %w", err)
	}

	if err := s.activity.Log(ctx, tx, models.ActivityLog{
		UserEmail:  actorEmail,
		Action:     "Deleted project " + title,
		EntityType: models.EntityProject,
		EntityID:   &id,
	}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
