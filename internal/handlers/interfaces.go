package handlers

import (
	"context"

	"github.com/dimitrije/pluginhub-api/internal/models"
	"github.com/dimitrije/pluginhub-api/internal/reconcile"
	"github.com/dimitrije/pluginhub-api/internal/services"
	"github.com/google/uuid"
)

// UserServiceInterface defines the methods used by handlers from UserService
type UserServiceInterface interface {
	EnsureFromClaims(ctx context.Context, id uuid.UUID, email, name string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context, search string) ([]models.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, upd services.ProfileUpdate) (*models.User, error)
	UpdateAdmin(ctx context.Context, actorEmail string, id uuid.UUID, upd services.AdminUpdate) (*models.User, error)
	Delete(ctx context.Context, actorEmail string, id uuid.UUID) error
}

// TeamServiceInterface defines the methods used by handlers from TeamService
type TeamServiceInterface interface {
	Create(ctx context.Context, owner *models.User, name, description string) (*models.Team, error)
	GetByID(ctx context.Context, teamID uuid.UUID) (*models.Team, error)
	GetUserTeams(ctx context.Context, userID uuid.UUID) ([]models.Team, error)
	TeamIDsForUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	Update(ctx context.Context, teamID uuid.UUID, upd services.TeamUpdate) (*models.Team, error)
	Delete(ctx context.Context, actorEmail string, teamID uuid.UUID) error
	SetBlocked(ctx context.Context, actorEmail string, teamID uuid.UUID, blocked bool) (*models.Team, error)
	IsOwner(ctx context.Context, teamID, userID uuid.UUID) (bool, error)
	IsMember(ctx context.Context, teamID, userID uuid.UUID) (bool, error)
	GetMembers(ctx context.Context, teamID uuid.UUID) ([]models.TeamMember, error)
	RemoveMember(ctx context.Context, teamID, userID uuid.UUID) error
	LeaveTeam(ctx context.Context, teamID, userID uuid.UUID) error
	Invite(ctx context.Context, inviter *models.User, teamID uuid.UUID, email, role string) (*models.TeamInvite, error)
	GetMyInvites(ctx context.Context, email string) ([]models.TeamInvite, error)
	GetTeamPendingInvites(ctx context.Context, teamID uuid.UUID) ([]models.TeamInvite, error)
	CancelInvite(ctx context.Context, inviteID, teamID uuid.UUID) error
	AcceptInvite(ctx context.Context, acceptor *models.User, inviteID uuid.UUID) (*services.AcceptResult, error)
	DeclineInvite(ctx context.Context, user *models.User, inviteID uuid.UUID) error
}

// EmailServiceInterface defines the methods used by handlers from EmailService
type EmailServiceInterface interface {
	IsConfigured() bool
	SendTeamInvite(to, teamName, inviterName, role, inviteURL string) error
}

type SiteServiceInterface interface {
	Create(ctx context.Context, actor *models.User, in services.SiteInput) (*models.Site, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Site, error)
	ListAccessible(ctx context.Context, userID uuid.UUID, teamIDs []uuid.UUID) ([]models.Site, error)
	Update(ctx context.Context, id uuid.UUID, upd services.SiteUpdate) (*models.Site, error)
	Delete(ctx context.Context, actorEmail string, id uuid.UUID) error
}

type PluginServiceInterface interface {
	Create(ctx context.Context, actor *models.User, in services.PluginInput) (*models.Plugin, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Plugin, error)
	ListAccessible(ctx context.Context, userID uuid.UUID, teamIDs []uuid.UUID) ([]models.Plugin, error)
	Delete(ctx context.Context, actorEmail string, id uuid.UUID) error
	AddVersion(ctx context.Context, actorEmail string, id uuid.UUID, version, downloadURL string) (*models.Plugin, error)
}

type OwnershipServiceInterface interface {
	TransferSite(ctx context.Context, actorEmail string, siteID uuid.UUID, target models.Owner) (*models.Site, error)
	TransferPlugin(ctx context.Context, actorEmail string, pluginID uuid.UUID, target models.Owner) (*models.Plugin, error)
}

type InstallServiceInterface interface {
	Install(ctx context.Context, actor *models.User, pluginID uuid.UUID, siteIDs []uuid.UUID, version string) ([]services.InstallResult, error)
	Toggle(ctx context.Context, actor *models.User, pluginID, siteID uuid.UUID) (bool, error)
	Uninstall(ctx context.Context, actor *models.User, pluginID, siteID uuid.UUID) error
}

type SyncServiceInterface interface {
	TestConnection(ctx context.Context, siteID uuid.UUID) (*services.ConnectionResult, error)
	SyncAll(ctx context.Context) (services.SyncSummary, error)
}

type OrphanServiceInterface interface {
	Scan(ctx context.Context) (*services.OrphanReport, error)
	DeleteOrphanedSites(ctx context.Context, actorEmail string) (services.CleanupResult, error)
	DeleteOrphanedPlugins(ctx context.Context, actorEmail string) (services.CleanupResult, error)
	TransferOrphans(ctx context.Context, actorEmail string, target models.Owner) (services.CleanupResult, error)
	CleanCorruptVersions(ctx context.Context, actorEmail string) (services.CleanupResult, error)
}

type MessageServiceInterface interface {
	Send(ctx context.Context, sender *models.User, in services.MessageInput) (*models.Message, error)
	Inbox(ctx context.Context, v reconcile.Viewer) ([]models.Message, error)
	Sent(ctx context.Context, senderID uuid.UUID) ([]models.Message, error)
	UnreadCount(ctx context.Context, v reconcile.Viewer) (int, error)
	Get(ctx context.Context, v reconcile.Viewer, id uuid.UUID) (*models.Message, error)
	MarkRead(ctx context.Context, v reconcile.Viewer, id uuid.UUID) error
	Reply(ctx context.Context, sender *models.User, v reconcile.Viewer, id uuid.UUID, body string) (*models.Message, error)
}

type NotificationServiceInterface interface {
	List(ctx context.Context, recipientID uuid.UUID, unreadOnly bool) ([]models.Notification, error)
	MarkRead(ctx context.Context, recipientID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error)
	UnreadCount(ctx context.Context, recipientID uuid.UUID) (int, error)
}

type ActivityServiceInterface interface {
	ListForUser(ctx context.Context, email string, limit int) ([]models.ActivityLog, error)
	ListRecent(ctx context.Context, limit int) ([]models.ActivityLog, error)
}

type ProjectServiceInterface interface {
	CreateTemplate(ctx context.Context, actor *models.User, in services.TemplateInput) (*models.ProjectTemplate, error)
	ListTemplates(ctx context.Context, teamIDs []uuid.UUID) ([]models.ProjectTemplate, error)
	Create(ctx context.Context, actor *models.User, in services.ProjectInput) (*models.Project, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
	List(ctx context.Context, teamID uuid.UUID) ([]models.Project, error)
	Delete(ctx context.Context, actorEmail string, id uuid.UUID) error
}

// UnreadNotifier pushes unread refreshes to open event streams.
type UnreadNotifier interface {
	NotifyUnread(userIDs ...uuid.UUID)
}
