//go:generate mockgen -destination=mock_contract_test.go -package=${GOPACKAGE} -source=contract.go
package roster

import (
	"context"

	"github.com/dkeye/steward/internal/domain"
)

// Provider returns the full external roster. Errors should be classified
// with core.Transient or core.Fatal; unclassified errors are not retried.
type Provider interface {
	FetchAll(ctx context.Context) ([]domain.RosterEntry, error)
}

type Gateway interface {
	ListMembers(ctx context.Context, guild domain.GuildID) ([]domain.Member, error)
	AddRole(ctx context.Context, guild domain.GuildID, user domain.UserID, role domain.RoleID) error
	RemoveRole(ctx context.Context, guild domain.GuildID, user domain.UserID, role domain.RoleID) error
	SetNickname(ctx context.Context, guild domain.GuildID, user domain.UserID, nick string) error
	SendMessage(ctx context.Context, channel domain.ChannelID, content string) (domain.MessageID, error)
}
