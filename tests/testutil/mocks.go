package testutil

import (
	"context"

	"github.com/dimitrije/pluginhub-api/internal/models"
	"github.com/dimitrije/pluginhub-api/internal/reconcile"
	"github.com/dimitrije/pluginhub-api/internal/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockUserService mocks the UserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) EnsureFromClaims(ctx context.Context, id uuid.UUID, email, name string) (*models.User, error) {
	args := m.Called(ctx, id, email, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) List(ctx context.Context, search string) ([]models.User, error) {
	args := m.Called(ctx, search)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserService) UpdateProfile(ctx context.Context, id uuid.UUID, upd services.ProfileUpdate) (*models.User, error) {
	args := m.Called(ctx, id, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) UpdateAdmin(ctx context.Context, actorEmail string, id uuid.UUID, upd services.AdminUpdate) (*models.User, error) {
	args := m.Called(ctx, actorEmail, id, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) Delete(ctx context.Context, actorEmail string, id uuid.UUID) error {
	args := m.Called(ctx, actorEmail, id)
	return args.Error(0)
}

// MockTeamService mocks the TeamService
type MockTeamService struct {
	mock.Mock
}

func (m *MockTeamService) Create(ctx context.Context, owner *models.User, name, description string) (*models.Team, error) {
	args := m.Called(ctx, owner, name, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Team), args.Error(1)
}

func (m *MockTeamService) GetByID(ctx context.Context, teamID uuid.UUID) (*models.Team, error) {
	args := m.Called(ctx, teamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Team), args.Error(1)
}

func (m *MockTeamService) GetUserTeams(ctx context.Context, userID uuid.UUID) ([]models.Team, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Team), args.Error(1)
}

func (m *MockTeamService) TeamIDsForUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockTeamService) Update(ctx context.Context, teamID uuid.UUID, upd services.TeamUpdate) (*models.Team, error) {
	args := m.Called(ctx, teamID, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Team), args.Error(1)
}

func (m *MockTeamService) Delete(ctx context.Context, actorEmail string, teamID uuid.UUID) error {
	args := m.Called(ctx, actorEmail, teamID)
	return args.Error(0)
}

func (m *MockTeamService) SetBlocked(ctx context.Context, actorEmail string, teamID uuid.UUID, blocked bool) (*models.Team, error) {
	args := m.Called(ctx, actorEmail, teamID, blocked)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Team), args.Error(1)
}

func (m *MockTeamService) IsOwner(ctx context.Context, teamID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, teamID, userID)
	return args.Get(0).(bool), args.Error(1)
}

func (m *MockTeamService) IsMember(ctx context.Context, teamID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, teamID, userID)
	return args.Get(0).(bool), args.Error(1)
}

func (m *MockTeamService) GetMembers(ctx context.Context, teamID uuid.UUID) ([]models.TeamMember, error) {
	args := m.Called(ctx, teamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TeamMember), args.Error(1)
}

func (m *MockTeamService) RemoveMember(ctx context.Context, teamID, userID uuid.UUID) error {
	args := m.Called(ctx, teamID, userID)
	return args.Error(0)
}

func (m *MockTeamService) LeaveTeam(ctx context.Context, teamID, userID uuid.UUID) error {
	args := m.Called(ctx, teamID, userID)
	return args.Error(0)
}

func (m *MockTeamService) Invite(ctx context.Context, inviter *models.User, teamID uuid.UUID, email, role string) (*models.TeamInvite, error) {
	args := m.Called(ctx, inviter, teamID, email, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TeamInvite), args.Error(1)
}

func (m *MockTeamService) GetMyInvites(ctx context.Context, email string) ([]models.TeamInvite, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TeamInvite), args.Error(1)
}

func (m *MockTeamService) GetTeamPendingInvites(ctx context.Context, teamID uuid.UUID) ([]models.TeamInvite, error) {
	args := m.Called(ctx, teamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TeamInvite), args.Error(1)
}

func (m *MockTeamService) CancelInvite(ctx context.Context, inviteID, teamID uuid.UUID) error {
	args := m.Called(ctx, inviteID, teamID)
	return args.Error(0)
}

func (m *MockTeamService) AcceptInvite(ctx context.Context, acceptor *models.User, inviteID uuid.UUID) (*services.AcceptResult, error) {
	args := m.Called(ctx, acceptor, inviteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.AcceptResult), args.Error(1)
}

func (m *MockTeamService) DeclineInvite(ctx context.Context, user *models.User, inviteID uuid.UUID) error {
	args := m.Called(ctx, user, inviteID)
	return args.Error(0)
}

// MockEmailService mocks the EmailService
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) IsConfigured() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockEmailService) SendTeamInvite(to, teamName, inviterName, role, inviteURL string) error {
	args := m.Called(to, teamName, inviterName, role, inviteURL)
	return args.Error(0)
}

// MockSiteService mocks the SiteService
type MockSiteService struct {
	mock.Mock
}

func (m *MockSiteService) Create(ctx context.Context, actor *models.User, in services.SiteInput) (*models.Site, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Site), args.Error(1)
}

func (m *MockSiteService) GetByID(ctx context.Context, id uuid.UUID) (*models.Site, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Site), args.Error(1)
}

func (m *MockSiteService) ListAccessible(ctx context.Context, userID uuid.UUID, teamIDs []uuid.UUID) ([]models.Site, error) {
	args := m.Called(ctx, userID, teamIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Site), args.Error(1)
}

func (m *MockSiteService) Update(ctx context.Context, id uuid.UUID, upd services.SiteUpdate) (*models.Site, error) {
	args := m.Called(ctx, id, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Site), args.Error(1)
}

func (m *MockSiteService) Delete(ctx context.Context, actorEmail string, id uuid.UUID) error {
	args := m.Called(ctx, actorEmail, id)
	return args.Error(0)
}

// MockPluginService mocks the PluginService
type MockPluginService struct {
	mock.Mock
}

func (m *MockPluginService) Create(ctx context.Context, actor *models.User, in services.PluginInput) (*models.Plugin, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plugin), args.Error(1)
}

func (m *MockPluginService) GetByID(ctx context.Context, id uuid.UUID) (*models.Plugin, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plugin), args.Error(1)
}

func (m *MockPluginService) ListAccessible(ctx context.Context, userID uuid.UUID, teamIDs []uuid.UUID) ([]models.Plugin, error) {
	args := m.Called(ctx, userID, teamIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Plugin), args.Error(1)
}

func (m *MockPluginService) Delete(ctx context.Context, actorEmail string, id uuid.UUID) error {
	args := m.Called(ctx, actorEmail, id)
	return args.Error(0)
}

func (m *MockPluginService) AddVersion(ctx context.Context, actorEmail string, id uuid.UUID, version, downloadURL string) (*models.Plugin, error) {
	args := m.Called(ctx, actorEmail, id, version, downloadURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plugin), args.Error(1)
}

// MockOwnershipService mocks the OwnershipService
type MockOwnershipService struct {
	mock.Mock
}

func (m *MockOwnershipService) TransferSite(ctx context.Context, actorEmail string, siteID uuid.UUID, target models.Owner) (*models.Site, error) {
	args := m.Called(ctx, actorEmail, siteID, target)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Site), args.Error(1)
}

func (m *MockOwnershipService) TransferPlugin(ctx context.Context, actorEmail string, pluginID uuid.UUID, target models.Owner) (*models.Plugin, error) {
	args := m.Called(ctx, actorEmail, pluginID, target)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plugin), args.Error(1)
}

// MockInstallService mocks the InstallService
type MockInstallService struct {
	mock.Mock
}

func (m *MockInstallService) Install(ctx context.Context, actor *models.User, pluginID uuid.UUID, siteIDs []uuid.UUID, version string) ([]services.InstallResult, error) {
	args := m.Called(ctx, actor, pluginID, siteIDs, version)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.InstallResult), args.Error(1)
}

func (m *MockInstallService) Toggle(ctx context.Context, actor *models.User, pluginID, siteID uuid.UUID) (bool, error) {
	args := m.Called(ctx, actor, pluginID, siteID)
	return args.Get(0).(bool), args.Error(1)
}

func (m *MockInstallService) Uninstall(ctx context.Context, actor *models.User, pluginID, siteID uuid.UUID) error {
	args := m.Called(ctx, actor, pluginID, siteID)
	return args.Error(0)
}

// MockSyncService mocks the SyncService
type MockSyncService struct {
	mock.Mock
}

func (m *MockSyncService) TestConnection(ctx context.Context, siteID uuid.UUID) (*services.ConnectionResult, error) {
	args := m.Called(ctx, siteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ConnectionResult), args.Error(1)
}

func (m *MockSyncService) SyncAll(ctx context.Context) (services.SyncSummary, error) {
	args := m.Called(ctx)
	return args.Get(0).(services.SyncSummary), args.Error(1)
}

// MockOrphanService mocks the OrphanService
type MockOrphanService struct {
	mock.Mock
}

func (m *MockOrphanService) Scan(ctx context.Context) (*services.OrphanReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.OrphanReport), args.Error(1)
}

func (m *MockOrphanService) DeleteOrphanedSites(ctx context.Context, actorEmail string) (services.CleanupResult, error) {
	args := m.Called(ctx, actorEmail)
	return args.Get(0).(services.CleanupResult), args.Error(1)
}

func (m *MockOrphanService) DeleteOrphanedPlugins(ctx context.Context, actorEmail string) (services.CleanupResult, error) {
	args := m.Called(ctx, actorEmail)
	return args.Get(0).(services.CleanupResult), args.Error(1)
}

func (m *MockOrphanService) TransferOrphans(ctx context.Context, actorEmail string, target models.Owner) (services.CleanupResult, error) {
	args := m.Called(ctx, actorEmail, target)
	return args.Get(0).(services.CleanupResult), args.Error(1)
}

func (m *MockOrphanService) CleanCorruptVersions(ctx context.Context, actorEmail string) (services.CleanupResult, error) {
	args := m.Called(ctx, actorEmail)
	return args.Get(0).(services.CleanupResult), args.Error(1)
}

// MockMessageService mocks the MessageService
type MockMessageService struct {
	mock.Mock
}

func (m *MockMessageService) Send(ctx context.Context, sender *models.User, in services.MessageInput) (*models.Message, error) {
	args := m.Called(ctx, sender, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *MockMessageService) Inbox(ctx context.Context, v reconcile.Viewer) ([]models.Message, error) {
	args := m.Called(ctx, v)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Message), args.Error(1)
}

func (m *MockMessageService) Sent(ctx context.Context, senderID uuid.UUID) ([]models.Message, error) {
	args := m.Called(ctx, senderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Message), args.Error(1)
}

func (m *MockMessageService) UnreadCount(ctx context.Context, v reconcile.Viewer) (int, error) {
	args := m.Called(ctx, v)
	return args.Get(0).(int), args.Error(1)
}

func (m *MockMessageService) Get(ctx context.Context, v reconcile.Viewer, id uuid.UUID) (*models.Message, error) {
	args := m.Called(ctx, v, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *MockMessageService) MarkRead(ctx context.Context, v reconcile.Viewer, id uuid.UUID) error {
	args := m.Called(ctx, v, id)
	return args.Error(0)
}

func (m *MockMessageService) Reply(ctx context.Context, sender *models.User, v reconcile.Viewer, id uuid.UUID, body string) (*models.Message, error) {
	args := m.Called(ctx, sender, v, id, body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

// MockNotificationService mocks the NotificationService
type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) List(ctx context.Context, recipientID uuid.UUID, unreadOnly bool) ([]models.Notification, error) {
	args := m.Called(ctx, recipientID, unreadOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Notification), args.Error(1)
}

func (m *MockNotificationService) MarkRead(ctx context.Context, recipientID, id uuid.UUID) error {
	args := m.Called(ctx, recipientID, id)
	return args.Error(0)
}

func (m *MockNotificationService) MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	args := m.Called(ctx, recipientID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationService) UnreadCount(ctx context.Context, recipientID uuid.UUID) (int, error) {
	args := m.Called(ctx, recipientID)
	return args.Get(0).(int), args.Error(1)
}

// MockActivityService mocks the ActivityService
type MockActivityService struct {
	mock.Mock
}

func (m *MockActivityService) ListForUser(ctx context.Context, email string, limit int) ([]models.ActivityLog, error) {
	args := m.Called(ctx, email, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ActivityLog), args.Error(1)
}

func (m *MockActivityService) ListRecent(ctx context.Context, limit int) ([]models.ActivityLog, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ActivityLog), args.Error(1)
}

// MockProjectService mocks the ProjectService
type MockProjectService struct {
	mock.Mock
}

func (m *MockProjectService) CreateTemplate(ctx context.Context, actor *models.User, in services.TemplateInput) (*models.ProjectTemplate, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProjectTemplate), args.Error(1)
}

func (m *MockProjectService) ListTemplates(ctx context.Context, teamIDs []uuid.UUID) ([]models.ProjectTemplate, error) {
	args := m.Called(ctx, teamIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ProjectTemplate), args.Error(1)
}

func (m *MockProjectService) Create(ctx context.Context, actor *models.User, in services.ProjectInput) (*models.Project, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Project), args.Error(1)
}

func (m *MockProjectService) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Project), args.Error(1)
}

func (m *MockProjectService) List(ctx context.Context, teamID uuid.UUID) ([]models.Project, error) {
	args := m.Called(ctx, teamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Project), args.Error(1)
}

func (m *MockProjectService) Delete(ctx context.Context, actorEmail string, id uuid.UUID) error {
	args := m.Called(ctx, actorEmail, id)
	return args.Error(0)
}

// MockNotifier records unread nudges.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyUnread(userIDs ...uuid.UUID) {
	m.Called(userIDs)
}
