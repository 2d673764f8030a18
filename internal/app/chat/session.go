package chat

import (
	"fmt"

	"chatrelay/internal/pkg/errs"
)

const (
	welcomeText = "Welcome!"
	joinedText  = "%s has joined!"
	leftText    = "%s has left!"
)

// SessionState is the lifecycle position of one connection.
type SessionState int

const (
	StateConnecting SessionState = iota
	StateJoined
	StateDisconnected
)

func (s SessionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateJoined:
		return "joined"
	case StateDisconnected:
		return "disconnected"
	}
	return fmt.Sprintf("SessionState(%d)", int(s))
}

// JoinOutcome is the result of a successful join.
type JoinOutcome struct {
	Participant Participant
	Deliveries  []Delivery
}

// LeaveOutcome is the result of a leave that removed a participant.
type LeaveOutcome struct {
	Participant Participant
	Deliveries  []Delivery
}

// Session is the state machine of one connection: Connecting -> Joined -> Disconnected.
// There is no way back to Connecting; a reconnect is a new connection and a new Session.
type Session struct {
	ConnectionID string

	state    SessionState
	registry *Registry
}

// NewSession returns a Session in the Connecting state.
func NewSession(connectionID string, registry *Registry) *Session {
	return &Session{
		ConnectionID: connectionID,
		state:        StateConnecting,
		registry:     registry,
	}
}

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	return s.state
}

// Participant returns the registered participant of a joined session.
func (s *Session) Participant() (Participant, bool) {
	if s.state != StateJoined {
		return Participant{}, false
	}
	return s.registry.GetParticipant(s.ConnectionID)
}

// Join registers the connection under rawUsername in rawRoom.
// Validation and uniqueness are the registry's; on any error the session stays
// in Connecting and nothing is delivered.
func (s *Session) Join(rawUsername, rawRoom string) (JoinOutcome, error) {
	switch s.state {
	case StateJoined:
		return JoinOutcome{}, errs.NewError(errs.ErrAlreadyJoined)
	case StateDisconnected:
		return JoinOutcome{}, errs.NewError(errs.ErrConnectionClosed)
	}

	p, err := s.registry.AddParticipant(s.ConnectionID, rawUsername, rawRoom)
	if err != nil {
		return JoinOutcome{}, err
	}
	s.state = StateJoined

	return JoinOutcome{
		Participant: p,
		Deliveries: []Delivery{
			ToConnection(p.ConnectionID, EventMessage, NewTextMessage(SystemUser, welcomeText)),
			ToRoomExcept(p.Room, p.ConnectionID, EventMessage, NewTextMessage(SystemUser, fmt.Sprintf(joinedText, p.Username))),
			RosterUpdate(p.Room),
		},
	}, nil
}

// Leave ends the session. It is idempotent: ok is false when no participant
// was registered for the connection, and nothing is delivered then.
func (s *Session) Leave() (LeaveOutcome, bool) {
	s.state = StateDisconnected

	p, ok := s.registry.RemoveParticipant(s.ConnectionID)
	if !ok {
		return LeaveOutcome{}, false
	}

	return LeaveOutcome{
		Participant: p,
		Deliveries: []Delivery{
			ToRoom(p.Room, EventMessage, NewTextMessage(SystemUser, fmt.Sprintf(leftText, p.Username))),
			RosterUpdate(p.Room),
		},
	}, true
}
