package chat

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// SystemUser attributes server-generated notices. Usernames are lowercased on
// join, so no participant can ever be called this.
const SystemUser = "SYSTEM"

// MessageKind distinguishes text messages from location shares.
type MessageKind string

const (
	KindText     MessageKind = "text"
	KindLocation MessageKind = "location"
)

// Message is an ephemeral, attributed chat payload. It is never stored.
type Message struct {
	Kind      MessageKind
	Username  string
	Payload   string
	CreatedAt time.Time
}

// clock is swapped in tests.
var clock = time.Now

// NewTextMessage formats a text message from username.
func NewTextMessage(username, text string) Message {
	return Message{Kind: KindText, Username: username, Payload: text, CreatedAt: clock()}
}

// NewLocationMessage formats a location share from username pointing at url.
func NewLocationMessage(username, url string) Message {
	return Message{Kind: KindLocation, Username: username, Payload: url, CreatedAt: clock()}
}

// LocationURL renders coordinates as a maps link.
func LocationURL(latitude, longitude float64) string {
	return fmt.Sprintf("https://google.com/maps?q=%s,%s",
		strconv.FormatFloat(latitude, 'f', -1, 64),
		strconv.FormatFloat(longitude, 'f', -1, 64))
}

// Event names the outbound event a message is delivered as.
func (m Message) Event() string {
	if m.Kind == KindLocation {
		return EventLocationMessage
	}
	return EventMessage
}

// MarshalJSON renders the wire shape: {username, text, createdAt} for text and
// {username, url, createdAt} for locations, createdAt in Unix milliseconds.
func (m Message) MarshalJSON() ([]byte, error) {
	createdAt := m.CreatedAt.UnixMilli()

	if m.Kind == KindLocation {
		return json.Marshal(struct {
			Username  string `json:"username"`
			URL       string `json:"url"`
			CreatedAt int64  `json:"createdAt"`
		}{m.Username, m.Payload, createdAt})
	}

	return json.Marshal(struct {
		Username  string `json:"username"`
		Text      string `json:"text"`
		CreatedAt int64  `json:"createdAt"`
	}{m.Username, m.Payload, createdAt})
}
