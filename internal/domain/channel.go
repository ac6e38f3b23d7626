package domain

import "time"

// EphemeralChannel is a snapshot of a voice channel created on demand for
// one member and destroyed once nobody is left in it.
type EphemeralChannel struct {
	ID        ChannelID `json:"id"`
	Owner     UserID    `json:"owner"`
	CreatedAt time.Time `json:"created_at"`
	Occupants []UserID  `json:"occupants"`
}
