// Package testutil holds an in-memory chat platform for package tests.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/dkeye/steward/internal/core"
	"github.com/dkeye/steward/internal/domain"
)

// Call records one gateway invocation.
type Call struct {
	Op   string
	Args []string
}

func (c Call) String() string { return fmt.Sprintf("%s%v", c.Op, c.Args) }

// Gateway operation names as recorded in Calls.
const (
	OpCreateVoiceChannel = "CreateVoiceChannel"
	OpDeleteChannel      = "DeleteChannel"
	OpMoveMember         = "MoveMember"
	OpAddRole            = "AddRole"
	OpRemoveRole         = "RemoveRole"
	OpSetNickname        = "SetNickname"
	OpSendMessage        = "SendMessage"
	OpSendEmbed          = "SendEmbed"
	OpAddReaction        = "AddReaction"
	OpListMembers        = "ListMembers"
)

// Platform is a thread-safe fake of the chat platform. Role and nickname
// changes are applied to its member table, so repeated runs observe their
// own effects.
type Platform struct {
	mu       sync.Mutex
	members  map[domain.UserID]*domain.Member
	channels map[domain.ChannelID]string
	embeds   map[domain.MessageID]core.Embed
	texts    map[domain.MessageID]string
	failures map[string][]error
	calls    []Call
	seq      int
}

func NewPlatform(members ...domain.Member) *Platform {
	p := &Platform{
		members:  make(map[domain.UserID]*domain.Member),
		channels: make(map[domain.ChannelID]string),
		embeds:   make(map[domain.MessageID]core.Embed),
		texts:    make(map[domain.MessageID]string),
		failures: make(map[string][]error),
	}
	for _, m := range members {
		p.AddMember(m)
	}
	return p
}

func (p *Platform) AddMember(m domain.Member) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cp := m
	cp.Roles = append([]domain.RoleID(nil), m.Roles...)
	p.members[m.ID] = &cp
}

// Member returns a copy of the stored member.
func (p *Platform) Member(id domain.UserID) (domain.Member, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, ok := p.members[id]
	if !ok {
		return domain.Member{}, false
	}
	cp := *m
	cp.Roles = append([]domain.RoleID(nil), m.Roles...)
	return cp, true
}

// Fail makes the next call to op return err. Queued failures are consumed
// in order.
func (p *Platform) Fail(op string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures[op] = append(p.failures[op], err)
}

func (p *Platform) Calls() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Call(nil), p.calls...)
}

// Ops returns the operation names of every call, in order.
func (p *Platform) Ops() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.calls))
	for i, c := range p.calls {
		out[i] = c.Op
	}
	return out
}

// Mutations returns every call except reads.
func (p *Platform) Mutations() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []Call
	for _, c := range p.calls {
		if c.Op != OpListMembers {
			out = append(out, c)
		}
	}
	return out
}

func (p *Platform) Channels() []domain.ChannelID {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.ChannelID, 0, len(p.channels))
	for id := range p.channels {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (p *Platform) ChannelName(id domain.ChannelID) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.channels[id]
}

func (p *Platform) Embed(id domain.MessageID) (core.Embed, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.embeds[id]
	return e, ok
}

func (p *Platform) Text(id domain.MessageID) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.texts[id]
	return s, ok
}

// record logs the call and pops a queued failure. Must hold mu.
func (p *Platform) record(op string, args ...string) error {
	p.calls = append(p.calls, Call{Op: op, Args: args})
	if queued := p.failures[op]; len(queued) > 0 {
		p.failures[op] = queued[1:]
		return queued[0]
	}
	return nil
}

func (p *Platform) nextID(prefix string) string {
	p.seq++
	return prefix + "-" + strconv.Itoa(p.seq)
}

func (p *Platform) CreateVoiceChannel(_ context.Context, name string, parent domain.ChannelID) (domain.ChannelID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record(OpCreateVoiceChannel, name, string(parent)); err != nil {
		return "", err
	}
	id := domain.ChannelID(p.nextID("chan"))
	p.channels[id] = name
	return id, nil
}

func (p *Platform) DeleteChannel(_ context.Context, id domain.ChannelID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record(OpDeleteChannel, string(id)); err != nil {
		return err
	}
	if _, ok := p.channels[id]; !ok {
		return fmt.Errorf("channel %s: %w", id, core.ErrNotFound)
	}
	delete(p.channels, id)
	return nil
}

func (p *Platform) MoveMember(_ context.Context, guild domain.GuildID, user domain.UserID, channel domain.ChannelID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.record(OpMoveMember, string(guild), string(user), string(channel))
}

func (p *Platform) AddRole(_ context.Context, guild domain.GuildID, user domain.UserID, role domain.RoleID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record(OpAddRole, string(guild), string(user), string(role)); err != nil {
		return err
	}
	m, ok := p.members[user]
	if !ok {
		return fmt.Errorf("member %s: %w", user, core.ErrNotFound)
	}
	if !m.HasRole(role) {
		m.Roles = append(m.Roles, role)
	}
	return nil
}

func (p *Platform) RemoveRole(_ context.Context, guild domain.GuildID, user domain.UserID, role domain.RoleID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record(OpRemoveRole, string(guild), string(user), string(role)); err != nil {
		return err
	}
	m, ok := p.members[user]
	if !ok {
		return fmt.Errorf("member %s: %w", user, core.ErrNotFound)
	}
	kept := m.Roles[:0]
	for _, r := range m.Roles {
		if r != role {
			kept = append(kept, r)
		}
	}
	m.Roles = kept
	return nil
}

func (p *Platform) SetNickname(_ context.Context, guild domain.GuildID, user domain.UserID, nick string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record(OpSetNickname, string(guild), string(user), nick); err != nil {
		return err
	}
	m, ok := p.members[user]
	if !ok {
		return fmt.Errorf("member %s: %w", user, core.ErrNotFound)
	}
	m.Nick = nick
	return nil
}

func (p *Platform) SendMessage(_ context.Context, channel domain.ChannelID, content string) (domain.MessageID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record(OpSendMessage, string(channel), content); err != nil {
		return "", err
	}
	id := domain.MessageID(p.nextID("msg"))
	p.texts[id] = content
	return id, nil
}

func (p *Platform) SendEmbed(_ context.Context, channel domain.ChannelID, embed core.Embed) (domain.MessageID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record(OpSendEmbed, string(channel), embed.Title); err != nil {
		return "", err
	}
	id := domain.MessageID(p.nextID("msg"))
	p.embeds[id] = embed
	return id, nil
}

func (p *Platform) AddReaction(_ context.Context, channel domain.ChannelID, message domain.MessageID, emoji string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.record(OpAddReaction, string(channel), string(message), emoji)
}

func (p *Platform) ListMembers(_ context.Context, guild domain.GuildID) ([]domain.Member, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record(OpListMembers, string(guild)); err != nil {
		return nil, err
	}
	out := make([]domain.Member, 0, len(p.members))
	for _, m := range p.members {
		cp := *m
		cp.Roles = append([]domain.RoleID(nil), m.Roles...)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
