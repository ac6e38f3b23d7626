// Package discord is the platform gateway over the Discord API. It turns
// gateway events into core events and exposes the REST calls the app
// components need, with errors classified for the retry layer.
package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/steward/internal/core"
	"github.com/dkeye/steward/internal/domain"
)

const (
	intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsGuildMessageReactions

	membersPageSize = 1000
)

type Publisher interface {
	Publish(ctx context.Context, ev core.Event)
}

type Options struct {
	Token    string
	GuildID  domain.GuildID
	Presence string
}

type Gateway struct {
	session  *discordgo.Session
	guild    domain.GuildID
	presence string
}

func New(opts Options) (*Gateway, error) {
	s, err := discordgo.New("Bot " + opts.Token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	s.Identify.Intents = intents
	// Handlers run on the gateway goroutine, one at a time, so events keep
	// their arrival order until the dispatcher.
	s.SyncEvents = true
	s.State.TrackVoice = true

	return &Gateway{session: s, guild: opts.GuildID, presence: opts.Presence}, nil
}

// Open connects to the gateway and forwards every relevant event to pub.
func (g *Gateway) Open(ctx context.Context, pub Publisher) error {
	g.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		log.Info().Str("module", "adapters.discord").Str("user", r.User.Username).Int("guilds", len(r.Guilds)).Msg("gateway ready")
		if g.presence != "" {
			if err := s.UpdateGameStatus(0, g.presence); err != nil {
				log.Error().Err(err).Str("module", "adapters.discord").Msg("failed to set presence")
			}
		}
		pub.Publish(ctx, core.Ready{SelfID: domain.UserID(r.User.ID)})
	})
	g.session.AddHandler(func(_ *discordgo.Session, v *discordgo.VoiceStateUpdate) {
		pub.Publish(ctx, toVoiceState(v))
	})
	g.session.AddHandler(func(_ *discordgo.Session, r *discordgo.MessageReactionAdd) {
		pub.Publish(ctx, core.ReactionAdded{Reaction: toReaction(r.MessageReaction)})
	})
	g.session.AddHandler(func(_ *discordgo.Session, r *discordgo.MessageReactionRemove) {
		pub.Publish(ctx, core.ReactionRemoved{Reaction: toReaction(r.MessageReaction)})
	})
	g.session.AddHandler(func(_ *discordgo.Session, m *discordgo.GuildMemberAdd) {
		pub.Publish(ctx, core.MemberJoined{GuildID: domain.GuildID(m.GuildID), Member: toMember(m.Member)})
	})

	if err := g.session.Open(); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}
	log.Info().Str("module", "adapters.discord").Str("guild", string(g.guild)).Msg("gateway connected")
	return nil
}

func (g *Gateway) Close() error {
	return g.session.Close()
}

func (g *Gateway) CreateVoiceChannel(ctx context.Context, name string, parent domain.ChannelID) (domain.ChannelID, error) {
	ch, err := g.session.GuildChannelCreateComplex(string(g.guild), discordgo.GuildChannelCreateData{
		Name:     name,
		Type:     discordgo.ChannelTypeGuildVoice,
		ParentID: string(parent),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", classify("create voice channel", err)
	}
	return domain.ChannelID(ch.ID), nil
}

func (g *Gateway) DeleteChannel(ctx context.Context, id domain.ChannelID) error {
	_, err := g.session.ChannelDelete(string(id), discordgo.WithContext(ctx))
	return classify("delete channel", err)
}

func (g *Gateway) MoveMember(ctx context.Context, guild domain.GuildID, user domain.UserID, channel domain.ChannelID) error {
	target := string(channel)
	return classify("move member", g.session.GuildMemberMove(string(guild), string(user), &target, discordgo.WithContext(ctx)))
}

func (g *Gateway) AddRole(ctx context.Context, guild domain.GuildID, user domain.UserID, role domain.RoleID) error {
	return classify("add role", g.session.GuildMemberRoleAdd(string(guild), string(user), string(role), discordgo.WithContext(ctx)))
}

func (g *Gateway) RemoveRole(ctx context.Context, guild domain.GuildID, user domain.UserID, role domain.RoleID) error {
	return classify("remove role", g.session.GuildMemberRoleRemove(string(guild), string(user), string(role), discordgo.WithContext(ctx)))
}

func (g *Gateway) SetNickname(ctx context.Context, guild domain.GuildID, user domain.UserID, nick string) error {
	return classify("set nickname", g.session.GuildMemberNickname(string(guild), string(user), nick, discordgo.WithContext(ctx)))
}

func (g *Gateway) SendMessage(ctx context.Context, channel domain.ChannelID, content string) (domain.MessageID, error) {
	msg, err := g.session.ChannelMessageSend(string(channel), content, discordgo.WithContext(ctx))
	if err != nil {
		return "", classify("send message", err)
	}
	return domain.MessageID(msg.ID), nil
}

func (g *Gateway) SendEmbed(ctx context.Context, channel domain.ChannelID, embed core.Embed) (domain.MessageID, error) {
	msg, err := g.session.ChannelMessageSendEmbed(string(channel), toEmbed(embed), discordgo.WithContext(ctx))
	if err != nil {
		return "", classify("send embed", err)
	}
	return domain.MessageID(msg.ID), nil
}

func (g *Gateway) AddReaction(ctx context.Context, channel domain.ChannelID, message domain.MessageID, emoji string) error {
	return classify("add reaction", g.session.MessageReactionAdd(string(channel), string(message), emoji, discordgo.WithContext(ctx)))
}

// ListMembers pages through the whole guild member list.
func (g *Gateway) ListMembers(ctx context.Context, guild domain.GuildID) ([]domain.Member, error) {
	var (
		out   []domain.Member
		after string
	)
	for {
		page, err := g.session.GuildMembers(string(guild), after, membersPageSize, discordgo.WithContext(ctx))
		if err != nil {
			return nil, classify("list members", err)
		}
		for _, m := range page {
			out = append(out, toMember(m))
		}
		if len(page) < membersPageSize {
			return out, nil
		}
		after = page[len(page)-1].User.ID
	}
}
