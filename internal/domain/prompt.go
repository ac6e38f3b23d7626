package domain

import "strings"

type PromptKind string

const (
	PromptPronouns  PromptKind = "pronouns"
	PromptLanguages PromptKind = "languages"
)

// PromptOption binds one reaction emoji to the role it grants.
type PromptOption struct {
	Emoji string `json:"emoji"`
	Role  RoleID `json:"role"`
	Label string `json:"label"`
}

// RolePrompt is a reaction-driven role menu posted as a single message.
type RolePrompt struct {
	Kind        PromptKind     `json:"kind"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Color       int            `json:"color"`
	ChannelID   ChannelID      `json:"channel_id,omitempty"`
	MessageID   MessageID      `json:"message_id,omitempty"`
	Options     []PromptOption `json:"options"`
}

// NormalizeEmoji drops the emoji presentation selector so "☕" and "☕️"
// compare equal.
func NormalizeEmoji(emoji string) string {
	return strings.ReplaceAll(strings.TrimSpace(emoji), "\uFE0F", "")
}
