//go:generate mockgen -destination=mock_contract_test.go -package=${GOPACKAGE} -source=contract.go
package http

import (
	"context"

	"github.com/dkeye/steward/internal/app/roster"
	"github.com/dkeye/steward/internal/domain"
)

type Channels interface {
	List() []domain.EphemeralChannel
}

type Prompts interface {
	Prompts() []domain.RolePrompt
	SetupKind(ctx context.Context, kind domain.PromptKind, channel domain.ChannelID) (domain.MessageID, error)
}

type Roster interface {
	Reconcile(ctx context.Context) (roster.Report, error)
}
