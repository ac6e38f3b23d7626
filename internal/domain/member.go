package domain

import (
	"fmt"
	"strings"
)

// Member is a transient view of a guild member. The platform owns the
// authoritative copy; nothing here is kept between events.
type Member struct {
	ID            UserID
	Username      string
	Discriminator string
	GlobalName    string
	Nick          string
	Roles         []RoleID
	AvatarURL     string
	Bot           bool
}

// DisplayName prefers the guild nickname, then the global name, then the
// account handle.
func (m Member) DisplayName() string {
	switch {
	case m.Nick != "":
		return m.Nick
	case m.GlobalName != "":
		return m.GlobalName
	default:
		return m.Username
	}
}

// Handle is the account handle, carrying the legacy discriminator only
// when the account still has one.
func (m Member) Handle() string {
	if m.Discriminator == "" || m.Discriminator == "0" {
		return m.Username
	}
	return m.Username + "#" + m.Discriminator
}

func (m Member) HasRole(role RoleID) bool {
	for _, r := range m.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (m Member) Mention() string {
	return fmt.Sprintf("<@%s>", m.ID)
}

// NormalizeHandle folds a handle for comparison: case-insensitive, trimmed,
// and with the "#0" suffix of migrated accounts dropped.
func NormalizeHandle(handle string) string {
	h := strings.ToLower(strings.TrimSpace(handle))
	return strings.TrimSuffix(h, "#0")
}
