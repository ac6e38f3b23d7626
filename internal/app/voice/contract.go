//go:generate mockgen -destination=mock_contract_test.go -package=${GOPACKAGE} -source=contract.go
package voice

import (
	"context"

	"github.com/dkeye/steward/internal/domain"
)

// Gateway is the slice of the platform the channel manager drives.
type Gateway interface {
	CreateVoiceChannel(ctx context.Context, name string, parent domain.ChannelID) (domain.ChannelID, error)
	DeleteChannel(ctx context.Context, id domain.ChannelID) error
	MoveMember(ctx context.Context, guild domain.GuildID, user domain.UserID, channel domain.ChannelID) error
}
