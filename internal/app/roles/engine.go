package roles

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/steward/internal/clock"
	"github.com/dkeye/steward/internal/core"
	"github.com/dkeye/steward/internal/domain"
)

var ErrUnknownPrompt = errors.New("unknown prompt kind")

type prompt struct {
	def    domain.RolePrompt
	lookup map[string]domain.RoleID
}

func newPrompt(def domain.RolePrompt) *prompt {
	p := &prompt{}
	p.setOptions(def)
	return p
}

func (p *prompt) setOptions(def domain.RolePrompt) {
	messageID, channelID := p.def.MessageID, p.def.ChannelID
	p.def = def
	p.def.Options = append([]domain.PromptOption(nil), def.Options...)
	if messageID != "" {
		p.def.MessageID, p.def.ChannelID = messageID, channelID
	}
	p.lookup = make(map[string]domain.RoleID, len(def.Options))
	for _, opt := range def.Options {
		p.lookup[domain.NormalizeEmoji(opt.Emoji)] = opt.Role
	}
}

// Engine keeps role grants in step with reactions on a small set of prompt
// messages, one live message per prompt kind.
type Engine struct {
	gw       Gateway
	guild    domain.GuildID
	notifier core.Notifier
	clock    clock.Clock

	mu      sync.RWMutex
	self    domain.UserID
	prompts map[domain.PromptKind]*prompt
}

// NewEngine registers the given prompts. A definition carrying a MessageID
// is live immediately, which lets a restarted process keep serving a prompt
// posted by an earlier run.
func NewEngine(gw Gateway, guild domain.GuildID, defs []domain.RolePrompt, notifier core.Notifier, clk clock.Clock) *Engine {
	if notifier == nil {
		notifier = core.NopNotifier{}
	}
	if clk == nil {
		clk = clock.Real()
	}
	e := &Engine{
		gw:       gw,
		guild:    guild,
		notifier: notifier,
		clock:    clk,
		prompts:  make(map[domain.PromptKind]*prompt, len(defs)),
	}
	for _, def := range defs {
		e.Register(def)
	}
	return e
}

// Register adds a prompt kind or replaces its title, description and emoji
// table. An already recorded message id is kept.
func (e *Engine) Register(def domain.RolePrompt) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p, ok := e.prompts[def.Kind]; ok {
		p.setOptions(def)
		return
	}
	e.prompts[def.Kind] = newPrompt(def)
}

func (e *Engine) SetSelf(id domain.UserID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.self = id
}

func (e *Engine) Handle(ctx context.Context, ev core.Event) {
	switch ev := ev.(type) {
	case core.Ready:
		e.SetSelf(ev.SelfID)
	case core.ReactionAdded:
		e.OnReaction(ctx, ev.Reaction, true)
	case core.ReactionRemoved:
		e.OnReaction(ctx, ev.Reaction, false)
	}
}

// SetupKind posts the registered prompt of the given kind into channel.
func (e *Engine) SetupKind(ctx context.Context, kind domain.PromptKind, channel domain.ChannelID) (domain.MessageID, error) {
	e.mu.RLock()
	p, ok := e.prompts[kind]
	var def domain.RolePrompt
	if ok {
		def = p.def
	}
	e.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownPrompt, kind)
	}
	return e.Setup(ctx, channel, def)
}

// Setup posts a prompt message, makes it the authoritative message for its
// kind and adds one reaction per option. The previous message, if any, is
// left in place but no longer honoured.
func (e *Engine) Setup(ctx context.Context, channel domain.ChannelID, def domain.RolePrompt) (domain.MessageID, error) {
	message, err := e.gw.SendEmbed(ctx, channel, Render(def))
	if err != nil {
		return "", fmt.Errorf("send %s prompt: %w", def.Kind, err)
	}

	e.mu.Lock()
	p, ok := e.prompts[def.Kind]
	if !ok {
		p = newPrompt(def)
		e.prompts[def.Kind] = p
	} else {
		p.setOptions(def)
	}
	previous := p.def.MessageID
	p.def.MessageID = message
	p.def.ChannelID = channel
	options := append([]domain.PromptOption(nil), p.def.Options...)
	e.mu.Unlock()

	log.Info().Str("module", "app.roles").Str("kind", string(def.Kind)).Str("message", string(message)).Str("previous", string(previous)).Msg("prompt posted")

	for _, opt := range options {
		if err := e.gw.AddReaction(ctx, channel, message, opt.Emoji); err != nil {
			log.Error().Err(err).Str("module", "app.roles").Str("kind", string(def.Kind)).Str("emoji", opt.Emoji).Msg("failed to add reaction marker")
		}
	}

	e.notifier.Notify(core.AuditEvent{
		Type:   core.AuditPromptPosted,
		At:     e.clock.Now(),
		Fields: map[string]string{"kind": string(def.Kind), "message": string(message), "channel": string(channel)},
	})
	return message, nil
}

func (e *Engine) match(message domain.MessageID, emoji string) (domain.PromptKind, domain.RoleID, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for kind, p := range e.prompts {
		if p.def.MessageID == "" || p.def.MessageID != message {
			continue
		}
		role, ok := p.lookup[domain.NormalizeEmoji(emoji)]
		return kind, role, ok
	}
	return "", "", false
}

// OnReaction grants (or revokes) the role mapped to a reaction on a live
// prompt. Anything else, including the bot's own reactions, is ignored.
// Platform errors are logged and never propagated.
func (e *Engine) OnReaction(ctx context.Context, r core.Reaction, grant bool) {
	e.mu.RLock()
	self := e.self
	e.mu.RUnlock()
	if r.UserID == "" || r.UserID == self {
		return
	}

	kind, role, ok := e.match(r.MessageID, r.Emoji)
	if !ok {
		return
	}
	guild := r.GuildID
	if guild == "" {
		guild = e.guild
	}

	op, audit := "grant", core.AuditRoleGranted
	var err error
	if grant {
		err = e.gw.AddRole(ctx, guild, r.UserID, role)
	} else {
		op, audit = "revoke", core.AuditRoleRevoked
		err = e.gw.RemoveRole(ctx, guild, r.UserID, role)
	}
	if err != nil {
		event := log.Error()
		if errors.Is(err, core.ErrNotFound) {
			event = log.Warn()
		}
		event.Err(err).Str("module", "app.roles").Str("op", op).Str("kind", string(kind)).Str("user", string(r.UserID)).Str("role", string(role)).Msg("role change failed")
		return
	}

	log.Info().Str("module", "app.roles").Str("op", op).Str("kind", string(kind)).Str("user", string(r.UserID)).Str("role", string(role)).Msg("role updated")
	e.notifier.Notify(core.AuditEvent{
		Type:   audit,
		At:     e.clock.Now(),
		User:   r.UserID,
		Fields: map[string]string{"role": string(role), "kind": string(kind)},
	})
}

// Prompts returns the registered prompts ordered by kind.
func (e *Engine) Prompts() []domain.RolePrompt {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]domain.RolePrompt, 0, len(e.prompts))
	for _, p := range e.prompts {
		def := p.def
		def.Options = append([]domain.PromptOption(nil), p.def.Options...)
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}

// Render builds the prompt body: the description followed by one
// "emoji ︱ label" line per labelled option.
func Render(def domain.RolePrompt) core.Embed {
	var b strings.Builder
	b.WriteString(def.Description)
	first := true
	for _, opt := range def.Options {
		if opt.Label == "" {
			continue
		}
		if first {
			if b.Len() > 0 {
				b.WriteString("\n\n")
			}
			first = false
		} else {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s ︱ %s", opt.Emoji, opt.Label)
	}
	return core.Embed{Title: def.Title, Description: b.String(), Color: def.Color}
}
