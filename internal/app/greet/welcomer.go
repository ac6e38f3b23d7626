package greet

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/steward/internal/clock"
	"github.com/dkeye/steward/internal/core"
	"github.com/dkeye/steward/internal/domain"
)

const (
	DefaultAvatar = "https://i.imgur.com/iXb26SA.png"
	welcomeColor  = 0x077fff
)

type Settings struct {
	GuildID        domain.GuildID
	WelcomeChannel domain.ChannelID
	// DefaultRoles are granted to every newcomer, in order.
	DefaultRoles   []domain.RoleID
	FallbackAvatar string
}

// Welcomer greets new members and hands out the starter roles.
type Welcomer struct {
	gw       Gateway
	settings Settings
	notifier core.Notifier
	clock    clock.Clock
}

func NewWelcomer(gw Gateway, settings Settings, notifier core.Notifier, clk clock.Clock) *Welcomer {
	if settings.FallbackAvatar == "" {
		settings.FallbackAvatar = DefaultAvatar
	}
	if notifier == nil {
		notifier = core.NopNotifier{}
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &Welcomer{gw: gw, settings: settings, notifier: notifier, clock: clk}
}

func (w *Welcomer) Handle(ctx context.Context, ev core.Event) {
	if joined, ok := ev.(core.MemberJoined); ok {
		w.OnMemberJoined(ctx, joined)
	}
}

func (w *Welcomer) OnMemberJoined(ctx context.Context, ev core.MemberJoined) {
	if ev.GuildID != w.settings.GuildID || ev.Member.Bot {
		return
	}
	m := ev.Member
	logger := log.With().Str("module", "app.greet").Str("user", string(m.ID)).Logger()

	if w.settings.WelcomeChannel != "" {
		if _, err := w.gw.SendEmbed(ctx, w.settings.WelcomeChannel, w.Embed(m)); err != nil {
			logger.Error().Err(err).Msg("failed to send welcome message")
		}
	}

	granted := 0
	for _, role := range w.settings.DefaultRoles {
		if err := w.gw.AddRole(ctx, w.settings.GuildID, m.ID, role); err != nil {
			logger.Error().Err(err).Str("role", string(role)).Msg("failed to assign starter role")
			continue
		}
		granted++
	}

	logger.Info().Int("roles", granted).Msg("member welcomed")
	w.notifier.Notify(core.AuditEvent{
		Type:   core.AuditMemberWelcomed,
		At:     w.clock.Now(),
		User:   m.ID,
		Fields: map[string]string{"name": m.DisplayName()},
	})
}

func (w *Welcomer) Embed(m domain.Member) core.Embed {
	thumb := m.AvatarURL
	if thumb == "" {
		thumb = w.settings.FallbackAvatar
	}
	return core.Embed{
		Title: "Welcome to the Server!",
		Description: fmt.Sprintf("Hello %s (%s), Welcome to the server! 🎉🎉🎉\n"+
			"We're glad to have you here! Feel free to check out the rules and introduce yourself!",
			m.DisplayName(), m.Mention()),
		Color:     welcomeColor,
		Thumbnail: thumb,
		Footer:    "Enjoy your stay!",
	}
}
