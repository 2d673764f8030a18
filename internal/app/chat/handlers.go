package chat

import (
	"encoding/json"

	"chatrelay/internal/pkg/errs"
)

// Inbound event names.
const (
	EventJoin         = "join"
	EventSendMessage  = "sendMessage"
	EventSendLocation = "sendLocation"
	EventDisconnect   = "disconnect"
)

// DefaultMaxMessageBytes bounds the text of a single chat message.
const DefaultMaxMessageBytes = 5000

// Inbound is the JSON envelope of every client-to-server WebSocket message.
// Ack, when set, is echoed back in the acknowledgement frame.
type Inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
	Ack   *int64          `json:"ack,omitempty"`
}

// JoinPayload is the data of a join event.
type JoinPayload struct {
	Username string `json:"username"`
	Room     string `json:"room"`
}

// LocationPayload is the data of a sendLocation event.
type LocationPayload struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ContentFilter decides whether a chat message may be relayed.
type ContentFilter interface {
	IsProfane(text string) bool
}

// Deps are the collaborators handlers need besides the session.
type Deps struct {
	Filter          ContentFilter
	MaxMessageBytes int
}

// Result is what handling one inbound event produced.
type Result struct {
	// Err is reported to the originating connection only; nil acknowledges success.
	Err error

	// Deliveries are the broadcasts to dispatch. Empty whenever Err is set.
	Deliveries []Delivery

	// Close asks the transport to end the connection once the acknowledgement is written.
	Close bool
}

// HandlerFunc handles one inbound event for session.
type HandlerFunc func(deps Deps, session *Session, data json.RawMessage) Result

// Handlers maps inbound event names to their handler.
type Handlers map[string]HandlerFunc

// DefaultHandlers returns the handler table of the chat protocol.
func DefaultHandlers() Handlers {
	return Handlers{
		EventJoin:         handleJoin,
		EventSendMessage:  handleSendMessage,
		EventSendLocation: handleSendLocation,
		EventDisconnect:   handleDisconnect,
	}
}

// Handle routes in to its handler. Unknown events are rejected without side effects.
func (h Handlers) Handle(deps Deps, session *Session, in Inbound) Result {
	handler, ok := h[in.Event]
	if !ok {
		return Result{Err: errs.NewError(errs.ErrUnknownEvent, in.Event)}
	}
	return handler(deps, session, in.Data)
}

// handleJoin closes the connection when its first join fails. A joined
// session that sends another join keeps its membership and only gets the error.
func handleJoin(_ Deps, session *Session, data json.RawMessage) Result {
	closeOnError := session.State() == StateConnecting

	var payload JoinPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return Result{Err: errs.NewError(errs.ErrInvalidJSONFormat), Close: closeOnError}
	}

	outcome, err := session.Join(payload.Username, payload.Room)
	if err != nil {
		return Result{Err: err, Close: closeOnError}
	}
	return Result{Deliveries: outcome.Deliveries}
}

func handleSendMessage(deps Deps, session *Session, data json.RawMessage) Result {
	p, ok := session.Participant()
	if !ok {
		return Result{Err: errs.NewError(errs.ErrNotJoined)}
	}

	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return Result{Err: errs.NewError(errs.ErrInvalidJSONFormat)}
	}

	limit := deps.MaxMessageBytes
	if limit <= 0 {
		limit = DefaultMaxMessageBytes
	}
	if len(text) > limit {
		return Result{Err: errs.NewError(errs.ErrMessageContentTooLong)}
	}

	if deps.Filter != nil && deps.Filter.IsProfane(text) {
		return Result{Err: errs.NewError(errs.ErrProfanity)}
	}

	return Result{Deliveries: []Delivery{
		ToRoom(p.Room, EventMessage, NewTextMessage(p.Username, text)),
	}}
}

func handleSendLocation(_ Deps, session *Session, data json.RawMessage) Result {
	p, ok := session.Participant()
	if !ok {
		return Result{Err: errs.NewError(errs.ErrNotJoined)}
	}

	var coords LocationPayload
	if err := json.Unmarshal(data, &coords); err != nil {
		return Result{Err: errs.NewError(errs.ErrInvalidJSONFormat)}
	}

	return Result{Deliveries: []Delivery{
		ToRoom(p.Room, EventLocationMessage, NewLocationMessage(p.Username, LocationURL(coords.Latitude, coords.Longitude))),
	}}
}

func handleDisconnect(_ Deps, session *Session, _ json.RawMessage) Result {
	outcome, ok := session.Leave()
	if !ok {
		return Result{}
	}
	return Result{Deliveries: outcome.Deliveries}
}
