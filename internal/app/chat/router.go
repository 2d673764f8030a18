package chat

import (
	"encoding/json"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"chatrelay/internal/pkg/logx"
)

// Outbound event names.
const (
	EventMessage         = "message"
	EventLocationMessage = "locationMessage"
	EventRoomData        = "roomData"
	EventAck             = "ack"
)

// Audience selects who receives a Delivery.
type Audience int

const (
	// AudienceRoom targets every member of Room, the sender included.
	AudienceRoom Audience = iota

	// AudienceRoomExcept targets every member of Room except ConnectionID.
	AudienceRoomExcept

	// AudienceConnection targets ConnectionID only.
	AudienceConnection
)

// Delivery is one outbound event and the audience it is meant for.
// Targets are resolved when the router dispatches it, not when it is built.
type Delivery struct {
	Audience     Audience
	Room         string
	ConnectionID string
	Event        string

	// Data is the event payload. A roomData delivery with nil Data gets the
	// roster read from the registry at dispatch time.
	Data any
}

// ToRoom delivers event to every member of room.
func ToRoom(room, event string, data any) Delivery {
	return Delivery{Audience: AudienceRoom, Room: room, Event: event, Data: data}
}

// ToRoomExcept delivers event to every member of room but the given connection.
func ToRoomExcept(room, exceptConnectionID, event string, data any) Delivery {
	return Delivery{Audience: AudienceRoomExcept, Room: room, ConnectionID: exceptConnectionID, Event: event, Data: data}
}

// ToConnection delivers event to a single connection.
func ToConnection(connectionID, event string, data any) Delivery {
	return Delivery{Audience: AudienceConnection, ConnectionID: connectionID, Event: event, Data: data}
}

// RosterUpdate pushes the current roster of room to all its members.
func RosterUpdate(room string) Delivery {
	return Delivery{Audience: AudienceRoom, Room: room, Event: EventRoomData}
}

// RoomData is the roomData payload.
type RoomData struct {
	Room  string        `json:"room"`
	Users []RosterEntry `json:"users"`
}

// RosterEntry is one user in a roomData payload.
type RosterEntry struct {
	Username string `json:"username"`
}

// Frame is the JSON envelope of every server-to-client WebSocket message.
type Frame struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
	Ack   *int64 `json:"ack,omitempty"`
	Error string `json:"error,omitempty"`
}

// Sender is the transport's send primitive: queue an encoded frame for one connection.
//
//go:generate mockgen -destination=mocks/mock_sender.go -package=mocks chatrelay/internal/app/chat Sender
type Sender interface {
	Send(connectionID string, frame []byte) error
}

// Router fans deliveries out to the connections currently in their audience.
// It keeps no state of its own.
type Router struct {
	registry *Registry
	sender   Sender
	logger   zerolog.Logger
}

// NewRouter returns a Router reading membership from registry and writing through sender.
func NewRouter(registry *Registry, sender Sender) *Router {
	return &Router{
		registry: registry,
		sender:   sender,
		logger:   logx.Component("Router"),
	}
}

// Dispatch delivers each delivery in order. Delivery is best effort: a failed
// send is logged and the remaining targets still receive the event.
func (r *Router) Dispatch(deliveries ...Delivery) {
	for _, d := range deliveries {
		r.dispatch(d)
	}
}

func (r *Router) dispatch(d Delivery) {
	targets := r.Targets(d)
	if len(targets) == 0 {
		return
	}

	data := d.Data
	if d.Event == EventRoomData && data == nil {
		data = r.RoomData(d.Room)
	}

	frame, err := json.Marshal(Frame{Event: d.Event, Data: data})
	if err != nil {
		r.logger.Error().Err(err).Str("event", d.Event).Msg("Failed to encode outbound frame.")
		return
	}

	for _, connectionID := range targets {
		if err := r.sender.Send(connectionID, frame); err != nil {
			r.logger.Warn().
				Err(err).
				Str("connection_id", connectionID).
				Str("event", d.Event).
				Msg("Dropping outbound frame.")
		}
	}
}

// Targets resolves the connections a delivery reaches right now.
func (r *Router) Targets(d Delivery) []string {
	switch d.Audience {
	case AudienceConnection:
		return []string{d.ConnectionID}

	case AudienceRoom, AudienceRoomExcept:
		members := r.registry.ListParticipants(d.Room)
		return lo.FilterMap(members, func(p Participant, _ int) (string, bool) {
			if d.Audience == AudienceRoomExcept && p.ConnectionID == d.ConnectionID {
				return "", false
			}
			return p.ConnectionID, true
		})
	}
	return nil
}

// RoomData builds the current roster payload of room.
func (r *Router) RoomData(room string) RoomData {
	room = Normalize(room)
	return RoomData{
		Room: room,
		Users: lo.Map(r.registry.Usernames(room), func(name string, _ int) RosterEntry {
			return RosterEntry{Username: name}
		}),
	}
}
