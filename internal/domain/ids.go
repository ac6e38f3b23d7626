// Package domain contains entities without logic, just meta-data.
package domain

// Platform identifiers are opaque snowflake strings.
type (
	GuildID   string
	UserID    string
	ChannelID string
	RoleID    string
	MessageID string
)
