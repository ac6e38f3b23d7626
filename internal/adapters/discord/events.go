package discord

import (
	"github.com/bwmarrin/discordgo"

	"github.com/dkeye/steward/internal/core"
	"github.com/dkeye/steward/internal/domain"
)

func toMember(m *discordgo.Member) domain.Member {
	if m == nil || m.User == nil {
		return domain.Member{}
	}
	out := domain.Member{
		ID:            domain.UserID(m.User.ID),
		Username:      m.User.Username,
		Discriminator: m.User.Discriminator,
		GlobalName:    m.User.GlobalName,
		Nick:          m.Nick,
		Bot:           m.User.Bot,
	}
	for _, r := range m.Roles {
		out.Roles = append(out.Roles, domain.RoleID(r))
	}
	// discordgo falls back to the default avatar; an empty URL lets the
	// welcomer pick its own image instead.
	if m.Avatar != "" || m.User.Avatar != "" {
		out.AvatarURL = m.AvatarURL("")
	}
	return out
}

func toVoiceState(v *discordgo.VoiceStateUpdate) core.VoiceStateChanged {
	ev := core.VoiceStateChanged{}
	if v.VoiceState != nil {
		ev.GuildID = domain.GuildID(v.GuildID)
		ev.To = domain.ChannelID(v.ChannelID)
		ev.Member = toMember(v.Member)
		if ev.Member.ID == "" {
			ev.Member.ID = domain.UserID(v.UserID)
		}
	}
	if v.BeforeUpdate != nil {
		ev.From = domain.ChannelID(v.BeforeUpdate.ChannelID)
	}
	return ev
}

func toReaction(r *discordgo.MessageReaction) core.Reaction {
	if r == nil {
		return core.Reaction{}
	}
	emoji := r.Emoji.Name
	if r.Emoji.ID != "" {
		emoji = r.Emoji.APIName()
	}
	return core.Reaction{
		GuildID:   domain.GuildID(r.GuildID),
		ChannelID: domain.ChannelID(r.ChannelID),
		MessageID: domain.MessageID(r.MessageID),
		Emoji:     emoji,
		UserID:    domain.UserID(r.UserID),
	}
}

func toEmbed(e core.Embed) *discordgo.MessageEmbed {
	out := &discordgo.MessageEmbed{
		Title:       e.Title,
		Description: e.Description,
		Color:       e.Color,
	}
	if e.Thumbnail != "" {
		out.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: e.Thumbnail}
	}
	if e.Footer != "" {
		out.Footer = &discordgo.MessageEmbedFooter{Text: e.Footer}
	}
	return out
}
