/*
Package chat contains the core of the relay: the membership registry, per-connection
session state, the broadcast router, message formatting, and the hub that runs every
connection event on a single goroutine.
*/
package chat

import (
	"strings"
	"time"
)

// Participant is one joined connection. It is immutable once registered.
type Participant struct {
	// ConnectionID is assigned by the transport layer.
	ConnectionID string `json:"-"`

	// Username is the normalized display name, unique within Room.
	Username string `json:"username"`

	// Room is the normalized room name.
	Room string `json:"room"`

	// JoinedAt is when the registry accepted the participant.
	JoinedAt time.Time `json:"-"`
}

// Normalize trims surrounding whitespace and lowercases s. It is idempotent.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
