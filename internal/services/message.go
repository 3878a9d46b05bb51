package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dimitrije/pluginhub-api/internal/database"
	"github.com/dimitrije/pluginhub-api/internal/metrics"
	"github.com/dimitrije/pluginhub-api/internal/models"
	"github.com/dimitrije/pluginhub-api/internal/reconcile"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const messageColumns = `id, sender_id, sender_email, sender_name, recipient_type, recipient_id, recipient_email,
	recipient_ids, team_id, subject, message, priority, category, is_read, replies, context, created_at, updated_at`

// candidateFilter narrows messages to those that may be addressed to a viewer.
// $1 user id, $2 team ids, $3 is admin.
const candidateFilter = `(recipient_id = $1
	OR $1 = ANY(recipient_ids)
	OR recipient_id = ANY($2)
	OR recipient_ids && $2
	OR ($3 AND recipient_type = 'admin'))`

type MessageService struct {
	db      *database.DB
	users   *UserService
	teams   *TeamService
	metrics *metrics.ReconcileMetrics
	now     func() time.Time
}

func NewMessageService(db *database.DB, users *UserService, teams *TeamService, m *metrics.ReconcileMetrics) *MessageService {
	return &MessageService{db: db, users: users, teams: teams, metrics: m, now: time.Now}
}

type MessageInput struct {
	Audience reconcile.Audience
	Subject  string
	Body     string
	Priority string
	Category string
	Context  *models.MessageContext
}

func scanMessage(row pgx.Row) (*models.Message, error) {
	var m models.Message
	var replies, msgContext []byte
	err := row.Scan(&m.ID, &m.SenderID, &m.SenderEmail, &m.SenderName, &m.RecipientType, &m.RecipientID, &m.RecipientEmail,
		&m.RecipientIDs, &m.TeamID, &m.Subject, &m.Body, &m.Priority, &m.Category, &m.IsRead, &replies, &msgContext,
		&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}
	m.Replies = []models.MessageReply{}
	if len(replies) > 0 {
		if err := json.Unmarshal(replies, &m.Replies); err != nil {
			return nil, fmt.Errorf("failed to decode replies: %w", err)
		}
	}
	if len(msgContext) > 0 {
		m.Context = &models.MessageContext{}
		if err := json.Unmarshal(msgContext, m.Context); err != nil {
			return nil, fmt.Errorf("failed to decode message context: %w", err)
		}
	}
	if m.RecipientIDs == nil {
		m.RecipientIDs = []uuid.UUID{}
	}
	return &m, nil
}

func scanMessages(rows pgx.Rows) ([]models.Message, error) {
	defer rows.Close()
	messages := []models.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, *m)
	}
	return messages, rows.Err()
}

// Directory snapshots users, teams and members for recipient expansion.
func (s *MessageService) Directory(ctx context.Context) (reconcile.Directory, error) {
	users, err := s.users.List(ctx, "")
	if err != nil {
		return reconcile.Directory{}, fmt.Errorf("failed to load users: %w", err)
	}
	teams, err := s.teams.ListAll(ctx)
	if err != nil {
		return reconcile.Directory{}, fmt.Errorf("failed to load teams: %w", err)
	}
	members, err := s.teams.MembersByTeam(ctx)
	if err != nil {
		return reconcile.Directory{}, fmt.Errorf("failed to load members: %w", err)
	}
	return reconcile.Directory{Users: users, Teams: teams, Members: members}, nil
}

// Send resolves the audience against the current membership and stores the
// concrete addressing. Later membership changes do not re-route the message.
func (s *MessageService) Send(ctx context.Context, sender *models.User, in MessageInput) (*models.Message, error) {
	dir, err := s.Directory(ctx)
	if err != nil {
		return nil, err
	}
	rcpt, err := reconcile.ExpandRecipients(*sender, in.Audience, dir)
	if err != nil {
		return nil, err
	}

	if in.Priority == "" {
		in.Priority = models.PriorityNormal
	}
	if in.Category == "" {
		in.Category = "general"
	}
	var msgContext []byte
	if in.Context != nil {
		if msgContext, err = json.Marshal(in.Context); err != nil {
			return nil, err
		}
	}
	recipientIDs := rcpt.RecipientIDs
	if recipientIDs == nil {
		recipientIDs = []uuid.UUID{}
	}

	msg, err := scanMessage(s.db.Pool.QueryRow(ctx, `
		INSERT INTO messages (sender_id, sender_email, sender_name, recipient_type, recipient_id, recipient_email,
			recipient_ids, team_id, subject, message, priority, category, context)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING `+messageColumns,
		sender.ID, sender.Email, sender.FullName, rcpt.Type, rcpt.RecipientID, rcpt.RecipientEmail,
		recipientIDs, rcpt.TeamID, in.Subject, in.Body, in.Priority, in.Category, msgContext))
	if err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	s.metrics.IncMessage(msg.RecipientType)
	return msg, nil
}

func (s *MessageService) candidates(ctx context.Context, v reconcile.Viewer, unreadOnly bool) ([]models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE ` + candidateFilter
	if unreadOnly {
		query += ` AND is_read = FALSE AND sender_id != $1`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.Pool.Query(ctx, query, v.UserID, sharedOrEmpty(v.TeamIDs), v.IsAdmin)
	if err != nil {
		return nil, err
	}
	return scanMessages(rows)
}

// Inbox lists the messages addressed to the viewer personally or to one of
// their teams, newest first.
func (s *MessageService) Inbox(ctx context.Context, v reconcile.Viewer) ([]models.Message, error) {
	all, err := s.candidates(ctx, v, false)
	if err != nil {
		return nil, err
	}
	inbox := make([]models.Message, 0, len(all))
	for _, m := range all {
		if reconcile.AddressedTo(m, v) {
			inbox = append(inbox, m)
		}
	}
	return inbox, nil
}

func (s *MessageService) Sent(ctx context.Context, senderID uuid.UUID) ([]models.Message, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+messageColumns+` FROM messages WHERE sender_id = $1 ORDER BY created_at DESC
	`, senderID)
	if err != nil {
		return nil, err
	}
	return scanMessages(rows)
}

func (s *MessageService) UnreadCount(ctx context.Context, v reconcile.Viewer) (int, error) {
	unread, err := s.candidates(ctx, v, true)
	if err != nil {
		return 0, err
	}
	return reconcile.CountUnread(unread, v), nil
}

// get returns a message the viewer sent or received.
func (s *MessageService) get(ctx context.Context, v reconcile.Viewer, id uuid.UUID) (*models.Message, error) {
	msg, err := scanMessage(s.db.Pool.QueryRow(ctx, `SELECT `+messageColumns+` FROM messages WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if msg.SenderID != v.UserID && !reconcile.AddressedTo(*msg, v) {
		return nil, ErrMessageNotFound
	}
	return msg, nil
}

func (s *MessageService) Get(ctx context.Context, v reconcile.Viewer, id uuid.UUID) (*models.Message, error) {
	return s.get(ctx, v, id)
}

func (s *MessageService) MarkRead(ctx context.Context, v reconcile.Viewer, id uuid.UUID) error {
	if _, err := s.get(ctx, v, id); err != nil {
		return err
	}
	_, err := s.db.Pool.Exec(ctx, `UPDATE messages SET is_read = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark message read: %w", err)
	}
	return nil
}

// Reply appends to the thread. A reply from the original sender marks the
// message unread again for its recipients; a recipient's reply leaves the
// read flag alone.
func (s *MessageService) Reply(ctx context.Context, sender *models.User, v reconcile.Viewer, id uuid.UUID, body string) (*models.Message, error) {
	msg, err := s.get(ctx, v, id)
	if err != nil {
		return nil, err
	}
	reply, err := json.Marshal([]models.MessageReply{{
		SenderID:   sender.ID,
		SenderName: sender.FullName,
		Message:    body,
		CreatedAt:  s.now(),
	}})
	if err != nil {
		return nil, err
	}
	return scanMessage(s.db.Pool.QueryRow(ctx, `
		UPDATE messages SET
			replies = replies || $1::jsonb,
			is_read = CASE WHEN $3 THEN FALSE ELSE is_read END,
			updated_at = NOW()
		WHERE id = $2
		RETURNING `+messageColumns,
		reply, id, msg.SenderID == sender.ID))
}
