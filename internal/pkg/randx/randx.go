/*
Package randx generates the opaque identifiers the transport layer hands to the chat core.
*/
package randx

import (
	"github.com/google/uuid"
)

// ConnectionID returns a new random UUID v4 string identifying one WebSocket connection.
func ConnectionID() string {
	return uuid.NewString()
}
