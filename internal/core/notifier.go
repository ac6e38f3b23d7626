package core

import (
	"time"

	"github.com/dkeye/steward/internal/domain"
)

// Audit event types published by the core components.
const (
	AuditChannelCreated   = "channel.created"
	AuditChannelDeleted   = "channel.deleted"
	AuditRoleGranted      = "role.granted"
	AuditRoleRevoked      = "role.revoked"
	AuditRosterConfirmed  = "roster.confirmed"
	AuditRosterCycleError = "roster.cycle_failed"
	AuditMemberWelcomed   = "member.welcomed"
	AuditPromptPosted     = "prompt.posted"
)

type AuditEvent struct {
	Type   string            `json:"type"`
	At     time.Time         `json:"at"`
	User   domain.UserID     `json:"user,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Notifier receives audit events. Implementations must not block.
type Notifier interface {
	Notify(ev AuditEvent)
}

type NopNotifier struct{}

func (NopNotifier) Notify(AuditEvent) {}
