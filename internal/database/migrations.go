package database

import (
	"context"
	"fmt"
)

var migrations = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,

	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		full_name VARCHAR(255) NOT NULL DEFAULT '',
		email VARCHAR(255) UNIQUE NOT NULL,
		role VARCHAR(20) NOT NULL DEFAULT 'user',
		status VARCHAR(20) NOT NULL DEFAULT 'active',
		company VARCHAR(255) NOT NULL DEFAULT '',
		phone VARCHAR(50) NOT NULL DEFAULT '',
		two_fa_enabled BOOLEAN NOT NULL DEFAULT FALSE,
		two_fa_verified_session BOOLEAN NOT NULL DEFAULT FALSE,
		created_by VARCHAR(255) NOT NULL DEFAULT '',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	// owner_id has no FK: deleting a user must leave their teams in place.
	`CREATE TABLE IF NOT EXISTS teams (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		name VARCHAR(255) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		owner_id UUID NOT NULL,
		is_blocked BOOLEAN NOT NULL DEFAULT FALSE,
		settings JSONB NOT NULL DEFAULT '{}',
		created_by VARCHAR(255) NOT NULL DEFAULT '',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS team_members (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		team_id UUID NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
		user_id UUID NOT NULL,
		email VARCHAR(255) NOT NULL,
		team_role_id VARCHAR(50) NOT NULL DEFAULT 'Member',
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		joined_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE(team_id, user_id)
	)`,

	`CREATE TABLE IF NOT EXISTS team_invites (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		team_id UUID NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
		invited_email VARCHAR(255) NOT NULL,
		invited_by UUID NOT NULL,
		team_role_id VARCHAR(50) NOT NULL DEFAULT 'Member',
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		accepted_at TIMESTAMP WITH TIME ZONE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`DROP INDEX IF EXISTS idx_team_invites_pending`,

	`CREATE UNIQUE INDEX IF NOT EXISTS idx_team_invites_pending_email
		ON team_invites(team_id, LOWER(invited_email)) WHERE status = 'pending'`,

	`CREATE TABLE IF NOT EXISTS sites (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		name VARCHAR(255) NOT NULL,
		url VARCHAR(500) NOT NULL,
		api_key VARCHAR(128) NOT NULL,
		owner_type VARCHAR(10) NOT NULL CHECK (owner_type IN ('user', 'team')),
		owner_id UUID NOT NULL,
		shared_with_teams UUID[] NOT NULL DEFAULT '{}',
		connection_status VARCHAR(20) NOT NULL DEFAULT 'inactive',
		wp_version VARCHAR(50),
		connection_checked_at TIMESTAMP WITH TIME ZONE,
		created_by VARCHAR(255) NOT NULL DEFAULT '',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_sites_owner ON sites(owner_type, owner_id)`,

	`CREATE TABLE IF NOT EXISTS plugins (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		name VARCHAR(255) NOT NULL,
		slug VARCHAR(255) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		author VARCHAR(255) NOT NULL DEFAULT '',
		author_url VARCHAR(500) NOT NULL DEFAULT '',
		owner_type VARCHAR(10) NOT NULL CHECK (owner_type IN ('user', 'team')),
		owner_id UUID NOT NULL,
		source VARCHAR(20) NOT NULL DEFAULT 'upload',
		versions JSONB NOT NULL DEFAULT '[]',
		latest_version VARCHAR(50),
		shared_with_teams UUID[] NOT NULL DEFAULT '{}',
		created_by VARCHAR(255) NOT NULL DEFAULT '',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE(owner_type, owner_id, slug)
	)`,

	`CREATE TABLE IF NOT EXISTS plugin_installations (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		plugin_id UUID NOT NULL REFERENCES plugins(id) ON DELETE CASCADE,
		site_id UUID NOT NULL REFERENCES sites(id) ON DELETE CASCADE,
		version VARCHAR(50) NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT FALSE,
		installed_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE(plugin_id, site_id)
	)`,

	`CREATE TABLE IF NOT EXISTS messages (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		sender_id UUID NOT NULL,
		sender_email VARCHAR(255) NOT NULL,
		sender_name VARCHAR(255) NOT NULL DEFAULT '',
		recipient_type VARCHAR(30) NOT NULL,
		recipient_id UUID,
		recipient_email VARCHAR(255) NOT NULL DEFAULT '',
		recipient_ids UUID[] NOT NULL DEFAULT '{}',
		team_id UUID,
		subject VARCHAR(500) NOT NULL,
		message TEXT NOT NULL,
		priority VARCHAR(20) NOT NULL DEFAULT 'normal',
		category VARCHAR(50) NOT NULL DEFAULT 'general',
		is_read BOOLEAN NOT NULL DEFAULT FALSE,
		replies JSONB NOT NULL DEFAULT '[]',
		context JSONB,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_messages_recipient ON messages(recipient_id) WHERE is_read = FALSE`,
	`CREATE INDEX IF NOT EXISTS idx_messages_recipient_ids ON messages USING GIN(recipient_ids)`,

	`CREATE TABLE IF NOT EXISTS notifications (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		recipient_id UUID NOT NULL,
		title VARCHAR(255) NOT NULL,
		message TEXT NOT NULL DEFAULT '',
		type VARCHAR(50) NOT NULL DEFAULT 'info',
		team_invite_id UUID,
		is_read BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_notifications_recipient ON notifications(recipient_id, is_read)`,

	`CREATE TABLE IF NOT EXISTS activity_logs (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		user_email VARCHAR(255) NOT NULL,
		action VARCHAR(255) NOT NULL,
		entity_type VARCHAR(50) NOT NULL,
		entity_id UUID,
		details TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_activity_logs_user ON activity_logs(user_email, created_at DESC)`,

	`CREATE TABLE IF NOT EXISTS project_templates (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		name VARCHAR(255) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		team_id UUID REFERENCES teams(id) ON DELETE CASCADE,
		plugins JSONB NOT NULL DEFAULT '[]',
		created_by VARCHAR(255) NOT NULL DEFAULT '',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS projects (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		title VARCHAR(255) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		team_id UUID NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
		site_id UUID REFERENCES sites(id) ON DELETE SET NULL,
		template_id UUID REFERENCES project_templates(id) ON DELETE SET NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'planning',
		priority VARCHAR(20) NOT NULL DEFAULT 'normal',
		plugins JSONB NOT NULL DEFAULT '[]',
		assigned_members JSONB NOT NULL DEFAULT '[]',
		timeline_events JSONB NOT NULL DEFAULT '[]',
		notes TEXT NOT NULL DEFAULT '',
		created_by VARCHAR(255) NOT NULL DEFAULT '',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,
}

func (db *DB) Migrate(ctx context.Context) error {
	for i, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
