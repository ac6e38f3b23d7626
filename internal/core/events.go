package core

import "github.com/dkeye/steward/internal/domain"

// Event kinds as routed by the dispatcher.
const (
	KindReady           = "ready"
	KindVoiceState      = "voice_state"
	KindReactionAdded   = "reaction_added"
	KindReactionRemoved = "reaction_removed"
	KindMemberJoined    = "member_joined"
)

// Event is an inbound platform notification. Delivery is at-least-once and
// unordered across kinds.
type Event interface {
	Kind() string
}

// Ready is delivered once the gateway session is established.
type Ready struct {
	SelfID domain.UserID
}

// VoiceStateChanged reports a member's voice connection moving between
// channels. An empty From or To means "not connected".
type VoiceStateChanged struct {
	GuildID domain.GuildID
	Member  domain.Member
	From    domain.ChannelID
	To      domain.ChannelID
}

// Reaction identifies one emoji reaction on a message.
type Reaction struct {
	GuildID   domain.GuildID
	ChannelID domain.ChannelID
	MessageID domain.MessageID
	Emoji     string
	UserID    domain.UserID
}

type ReactionAdded struct{ Reaction }

type ReactionRemoved struct{ Reaction }

type MemberJoined struct {
	GuildID domain.GuildID
	Member  domain.Member
}

func (Ready) Kind() string             { return KindReady }
func (VoiceStateChanged) Kind() string { return KindVoiceState }
func (ReactionAdded) Kind() string     { return KindReactionAdded }
func (ReactionRemoved) Kind() string   { return KindReactionRemoved }
func (MemberJoined) Kind() string      { return KindMemberJoined }

// Embed is a rich message body. Adapters map it onto the platform's format.
type Embed struct {
	Title       string
	Description string
	Color       int
	Thumbnail   string
	Footer      string
}
