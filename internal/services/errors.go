package services

import "errors"

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrTeamNotFound         = errors.New("team not found")
	ErrTeamBlocked          = errors.New("team is blocked")
	ErrOwnerCannotLeave     = errors.New("team owner cannot leave the team")
	ErrMemberNotFound       = errors.New("member not found")
	ErrAlreadyMember        = errors.New("user is already a team member")
	ErrInviteNotFound       = errors.New("invite not found")
	ErrInviteNotPending     = errors.New("invite is no longer pending")
	ErrInviteExists         = errors.New("a pending invite already exists for this email")
	ErrSiteNotFound         = errors.New("site not found")
	ErrPluginNotFound       = errors.New("plugin not found")
	ErrDuplicateSlug        = errors.New("a plugin with this slug already exists for this owner")
	ErrVersionExists        = errors.New("plugin version already exists")
	ErrVersionNotFound      = errors.New("plugin version not found")
	ErrVersionCorrupt       = errors.New("plugin version has no download url")
	ErrNotInstalled         = errors.New("plugin is not installed on this site")
	ErrOwnerNotFound        = errors.New("target owner does not exist")
	ErrMessageNotFound      = errors.New("message not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrTemplateNotFound     = errors.New("project template not found")
	ErrProjectNotFound      = errors.New("project not found")
	ErrCleanupInProgress    = errors.New("another cleanup is already running")
)
