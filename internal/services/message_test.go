package services

import (
	"context"
	"testing"
	"time"

	"github.com/dimitrije/pluginhub-api/internal/models"
	"github.com/dimitrije/pluginhub-api/internal/reconcile"
	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var messageCols = []string{"id", "sender_id", "sender_email", "sender_name", "recipient_type", "recipient_id", "recipient_email",
	"recipient_ids", "team_id", "subject", "message", "priority", "category", "is_read", "replies", "context", "created_at", "updated_at"}

func setupMessageService(t *testing.T) (*MessageService, pgxmock.PgxPoolIface) {
	t.Helper()
	db, mock := newMockDB(t)
	activity := NewActivityService(db)
	return NewMessageService(db, NewUserService(db, activity), NewTeamService(db, activity, nil), nil), mock
}

func messageRow(rows *pgxmock.Rows, m models.Message) *pgxmock.Rows {
	ids := m.RecipientIDs
	if ids == nil {
		ids = []uuid.UUID{}
	}
	return rows.AddRow(m.ID, m.SenderID, m.SenderEmail, m.SenderName, m.RecipientType, m.RecipientID, m.RecipientEmail,
		ids, m.TeamID, m.Subject, m.Body, models.PriorityNormal, "general", m.IsRead, []byte(`[]`), nil, m.CreatedAt, m.CreatedAt)
}

func TestMessageService_UnreadCount_CountsEachMessageOnce(t *testing.T) {
	svc, mock := setupMessageService(t)
	now := time.Now()
	viewer := reconcile.Viewer{UserID: uuid.New(), TeamIDs: []uuid.UUID{uuid.New()}}
	teamID := viewer.TeamIDs[0]

	rows := pgxmock.NewRows(messageCols)
	messageRow(rows, models.Message{ID: uuid.New(), SenderID: uuid.New(), RecipientType: models.RecipientUser, RecipientID: &viewer.UserID, CreatedAt: now})
	messageRow(rows, models.Message{ID: uuid.New(), SenderID: uuid.New(), RecipientType: models.RecipientTeam, RecipientID: &teamID, CreatedAt: now})
	messageRow(rows, models.Message{ID: uuid.New(), SenderID: uuid.New(), RecipientType: models.RecipientMultipleUsers,
		RecipientIDs: []uuid.UUID{viewer.UserID}, TeamID: &teamID, CreatedAt: now})
	mock.ExpectQuery(`SELECT .+ FROM messages WHERE .+ AND is_read = FALSE`).
		WithArgs(viewer.UserID, viewer.TeamIDs, false).
		WillReturnRows(rows)

	n, err := svc.UnreadCount(context.Background(), viewer)

	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageService_Send_TeammatesAll(t *testing.T) {
	svc, mock := setupMessageService(t)
	now := time.Now()
	owner := models.User{ID: uuid.New(), Email: "owner@example.com", Role: models.RoleUser, CreatedAt: now, UpdatedAt: now}
	mate := models.User{ID: uuid.New(), Email: "mate@example.com", Role: models.RoleUser, CreatedAt: now, UpdatedAt: now}
	pending := models.User{ID: uuid.New(), Email: "pending@example.com", Role: models.RoleUser, CreatedAt: now, UpdatedAt: now}
	team := models.Team{ID: uuid.New(), Name: "Agency", OwnerID: owner.ID, CreatedAt: now, UpdatedAt: now}

	users := pgxmock.NewRows(userCols)
	for _, u := range []models.User{owner, mate, pending} {
		users.AddRow(u.ID, u.FullName, u.Email, u.Role, u.Status, u.Company, u.Phone,
			u.TwoFAEnabled, u.TwoFAVerifiedSession, u.CreatedBy, u.CreatedAt, u.UpdatedAt)
	}
	mock.ExpectQuery(`SELECT .+ FROM users`).WithArgs("").WillReturnRows(users)
	mock.ExpectQuery(`SELECT .+ FROM teams ORDER BY`).WillReturnRows(teamRow(pgxmock.NewRows(teamCols), team))
	mock.ExpectQuery(`SELECT .+ FROM team_members ORDER BY`).WillReturnRows(pgxmock.NewRows(memberCols).
		AddRow(uuid.New(), team.ID, owner.ID, owner.Email, models.TeamRoleOwner, models.MemberStatusActive, now).
		AddRow(uuid.New(), team.ID, mate.ID, mate.Email, models.TeamRoleMember, models.MemberStatusActive, now).
		AddRow(uuid.New(), team.ID, pending.ID, pending.Email, models.TeamRoleMember, models.MemberStatusPending, now))

	stored := models.Message{ID: uuid.New(), SenderID: owner.ID, RecipientType: models.RecipientMultipleUsers,
		RecipientIDs: []uuid.UUID{mate.ID}, TeamID: &team.ID, Subject: "Hi", Body: "All hands", CreatedAt: now}
	mock.ExpectQuery(`INSERT INTO messages`).
		WithArgs(owner.ID, owner.Email, owner.FullName, models.RecipientMultipleUsers, (*uuid.UUID)(nil), "",
			[]uuid.UUID{mate.ID}, &team.ID, "Hi", "All hands", models.PriorityNormal, "general", []byte(nil)).
		WillReturnRows(messageRow(pgxmock.NewRows(messageCols), stored))

	msg, err := svc.Send(context.Background(), &owner, MessageInput{
		Audience: reconcile.Audience{Type: models.RecipientTeammates, TeamID: &team.ID, TeammatesMode: reconcile.TeammatesAll},
		Subject:  "Hi",
		Body:     "All hands",
	})

	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{mate.ID}, msg.RecipientIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageService_Send_BroadcastRequiresAdmin(t *testing.T) {
	svc, mock := setupMessageService(t)
	sender := models.User{ID: uuid.New(), Email: "user@example.com", Role: models.RoleUser}

	mock.ExpectQuery(`SELECT .+ FROM users`).WithArgs("").WillReturnRows(pgxmock.NewRows(userCols))
	mock.ExpectQuery(`SELECT .+ FROM teams ORDER BY`).WillReturnRows(pgxmock.NewRows(teamCols))
	mock.ExpectQuery(`SELECT .+ FROM team_members ORDER BY`).WillReturnRows(pgxmock.NewRows(memberCols))

	_, err := svc.Send(context.Background(), &sender, MessageInput{
		Audience: reconcile.Audience{Type: models.RecipientAllUsers},
		Subject:  "Hi",
	})

	assert.ErrorIs(t, err, reconcile.ErrAdminOnly)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageService_MarkRead_NotAddressed(t *testing.T) {
	svc, mock := setupMessageService(t)
	viewer := reconcile.Viewer{UserID: uuid.New()}
	other := uuid.New()
	msg := models.Message{ID: uuid.New(), SenderID: uuid.New(), RecipientType: models.RecipientUser, RecipientID: &other, CreatedAt: time.Now()}

	mock.ExpectQuery(`SELECT .+ FROM messages WHERE id`).
		WithArgs(msg.ID).
		WillReturnRows(messageRow(pgxmock.NewRows(messageCols), msg))

	err := svc.MarkRead(context.Background(), viewer, msg.ID)

	assert.ErrorIs(t, err, ErrMessageNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageService_Reply_ResetsReadOnlyForSender(t *testing.T) {
	now := time.Now()
	senderID, recipientID := uuid.New(), uuid.New()
	msg := models.Message{ID: uuid.New(), SenderID: senderID, RecipientType: models.RecipientUser, RecipientID: &recipientID,
		IsRead: true, CreatedAt: now}

	tests := []struct {
		name      string
		replier   uuid.UUID
		wantReset bool
	}{
		{name: "original sender", replier: senderID, wantReset: true},
		{name: "recipient", replier: recipientID, wantReset: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mock := setupMessageService(t)
			svc.now = fixedClock(now)

			mock.ExpectQuery(`SELECT .+ FROM messages WHERE id`).
				WithArgs(msg.ID).
				WillReturnRows(messageRow(pgxmock.NewRows(messageCols), msg))
			mock.ExpectQuery(`UPDATE messages SET`).
				WithArgs(pgxmock.AnyArg(), msg.ID, tt.wantReset).
				WillReturnRows(messageRow(pgxmock.NewRows(messageCols), msg))

			_, err := svc.Reply(context.Background(), &models.User{ID: tt.replier, FullName: "Replier"},
				reconcile.Viewer{UserID: tt.replier}, msg.ID, "Thanks")

			require.NoError(t, err)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
