package voice

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/steward/internal/clock"
	"github.com/dkeye/steward/internal/core"
	"github.com/dkeye/steward/internal/domain"
)

const DefaultNameFormat = "👥︱%s's Study Room"

type Settings struct {
	GuildID       domain.GuildID
	CreateChannel domain.ChannelID
	Category      domain.ChannelID
	// NameFormat receives the owner's display name.
	NameFormat   string
	CreateLimit  int
	CreateWindow time.Duration
}

type channelMeta struct {
	owner     domain.UserID
	createdAt time.Time
}

// Manager owns every ephemeral voice channel: who owns which, and who is
// currently inside. Gateway calls are made without holding mu; map
// mutations are computed before the call and preconditions re-checked
// after it.
type Manager struct {
	gw       Gateway
	settings Settings
	notifier core.Notifier
	clock    clock.Clock
	limiter  *CreateLimiter

	mu        sync.Mutex
	owners    map[domain.UserID]domain.ChannelID
	occupants map[domain.ChannelID]map[domain.UserID]struct{}
	channels  map[domain.ChannelID]channelMeta
}

func NewManager(gw Gateway, settings Settings, notifier core.Notifier, clk clock.Clock) *Manager {
	if settings.NameFormat == "" {
		settings.NameFormat = DefaultNameFormat
	}
	if notifier == nil {
		notifier = core.NopNotifier{}
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &Manager{
		gw:        gw,
		settings:  settings,
		notifier:  notifier,
		clock:     clk,
		limiter:   NewCreateLimiter(clk, settings.CreateLimit, settings.CreateWindow),
		owners:    make(map[domain.UserID]domain.ChannelID),
		occupants: make(map[domain.ChannelID]map[domain.UserID]struct{}),
		channels:  make(map[domain.ChannelID]channelMeta),
	}
}

func (m *Manager) Handle(ctx context.Context, ev core.Event) {
	if vs, ok := ev.(core.VoiceStateChanged); ok {
		m.OnVoiceState(ctx, vs)
	}
}

// OnVoiceState applies one voice transition. A move is a leave followed by
// a join, so an emptied channel is gone before any creation runs.
func (m *Manager) OnVoiceState(ctx context.Context, ev core.VoiceStateChanged) {
	if m.settings.GuildID != "" && ev.GuildID != m.settings.GuildID {
		return
	}
	if ev.From == ev.To {
		return
	}
	user := ev.Member.ID

	if ev.From != "" {
		m.leave(ctx, ev.From, user)
	}

	switch {
	case ev.To == "":
	case ev.To == m.settings.CreateChannel:
		m.create(ctx, ev.Member)
	default:
		m.join(ev.To, user)
	}
}

func (m *Manager) join(channel domain.ChannelID, user domain.UserID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.occupants[channel]
	if !ok {
		return
	}
	set[user] = struct{}{}
	log.Debug().Str("module", "app.voice").Str("channel", string(channel)).Str("user", string(user)).Int("occupants", len(set)).Msg("member joined channel")
}

func (m *Manager) leave(ctx context.Context, channel domain.ChannelID, user domain.UserID) {
	m.mu.Lock()
	set, ok := m.occupants[channel]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(set, user)
	if len(set) > 0 {
		m.mu.Unlock()
		log.Debug().Str("module", "app.voice").Str("channel", string(channel)).Str("user", string(user)).Int("occupants", len(set)).Msg("member left channel")
		return
	}
	owner := m.forgetLocked(channel)
	m.mu.Unlock()

	m.destroy(ctx, channel, owner, "empty")
}

// forgetLocked drops every trace of channel and returns its owner.
// Cleanup is keyed by channel id; the owner entry is removed only while it
// still points at this channel.
func (m *Manager) forgetLocked(channel domain.ChannelID) domain.UserID {
	meta := m.channels[channel]
	delete(m.occupants, channel)
	delete(m.channels, channel)
	if m.owners[meta.owner] == channel {
		delete(m.owners, meta.owner)
	}
	return meta.owner
}

// destroy deletes a channel that has already been forgotten. A failed
// delete is logged only: the channel stays logically gone so an owner can
// never hold two.
func (m *Manager) destroy(ctx context.Context, channel domain.ChannelID, owner domain.UserID, reason string) {
	if err := m.gw.DeleteChannel(ctx, channel); err != nil {
		log.Error().Err(err).Str("module", "app.voice").Str("channel", string(channel)).Str("owner", string(owner)).Str("reason", reason).Msg("failed to delete channel")
		return
	}
	log.Info().Str("module", "app.voice").Str("channel", string(channel)).Str("owner", string(owner)).Str("reason", reason).Msg("channel deleted")
	m.notifier.Notify(core.AuditEvent{
		Type:   core.AuditChannelDeleted,
		At:     m.clock.Now(),
		User:   owner,
		Fields: map[string]string{"channel": string(channel), "reason": reason},
	})
}

func (m *Manager) create(ctx context.Context, member domain.Member) {
	user := member.ID
	if !m.limiter.Allow(user) {
		log.Warn().Str("module", "app.voice").Str("user", string(user)).Msg("channel creation rate limited")
		return
	}

	m.mu.Lock()
	prev, had := m.owners[user]
	if had {
		m.forgetLocked(prev)
	}
	m.mu.Unlock()
	if had {
		m.destroy(ctx, prev, user, "superseded")
	}

	name := fmt.Sprintf(m.settings.NameFormat, member.DisplayName())
	channel, err := m.gw.CreateVoiceChannel(ctx, name, m.settings.Category)
	if err != nil {
		log.Error().Err(err).Str("module", "app.voice").Str("user", string(user)).Str("name", name).Msg("failed to create channel")
		return
	}

	if err := m.gw.MoveMember(ctx, m.settings.GuildID, user, channel); err != nil {
		log.Error().Err(err).Str("module", "app.voice").Str("user", string(user)).Str("channel", string(channel)).Msg("failed to move member")
		// Nobody can be inside; do not leave it behind.
		m.destroy(ctx, channel, user, "move failed")
		return
	}

	m.mu.Lock()
	stale, hadStale := m.owners[user]
	if hadStale && stale != channel {
		m.forgetLocked(stale)
	}
	m.owners[user] = channel
	m.occupants[channel] = map[domain.UserID]struct{}{user: {}}
	m.channels[channel] = channelMeta{owner: user, createdAt: m.clock.Now()}
	m.mu.Unlock()
	if hadStale && stale != channel {
		m.destroy(ctx, stale, user, "superseded")
	}

	log.Info().Str("module", "app.voice").Str("user", string(user)).Str("channel", string(channel)).Str("name", name).Msg("channel created")
	m.notifier.Notify(core.AuditEvent{
		Type:   core.AuditChannelCreated,
		At:     m.clock.Now(),
		User:   user,
		Fields: map[string]string{"channel": string(channel), "name": name},
	})
}

// ChannelOf returns the live channel owned by user.
func (m *Manager) ChannelOf(user domain.UserID) (domain.ChannelID, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.owners[user]
	return ch, ok
}

// List returns a snapshot of every live channel, oldest first.
func (m *Manager) List() []domain.EphemeralChannel {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.EphemeralChannel, 0, len(m.channels))
	for id, meta := range m.channels {
		occupants := make([]domain.UserID, 0, len(m.occupants[id]))
		for u := range m.occupants[id] {
			occupants = append(occupants, u)
		}
		sort.Slice(occupants, func(i, j int) bool { return occupants[i] < occupants[j] })
		out = append(out, domain.EphemeralChannel{
			ID:        id,
			Owner:     meta.owner,
			CreatedAt: meta.createdAt,
			Occupants: occupants,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
