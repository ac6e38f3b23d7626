//go:generate mockgen -destination=mock_contract_test.go -package=${GOPACKAGE} -source=contract.go
package roles

import (
	"context"

	"github.com/dkeye/steward/internal/core"
	"github.com/dkeye/steward/internal/domain"
)

type Gateway interface {
	SendEmbed(ctx context.Context, channel domain.ChannelID, embed core.Embed) (domain.MessageID, error)
	AddReaction(ctx context.Context, channel domain.ChannelID, message domain.MessageID, emoji string) error
	AddRole(ctx context.Context, guild domain.GuildID, user domain.UserID, role domain.RoleID) error
	RemoveRole(ctx context.Context, guild domain.GuildID, user domain.UserID, role domain.RoleID) error
}
