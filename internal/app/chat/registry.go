package chat

import (
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"

	"chatrelay/internal/pkg/errs"
)

// RoomSummary describes one active room.
type RoomSummary struct {
	Room    string `json:"room"`
	Members int    `json:"members"`
}

// Registry is the process-wide table of joined participants.
// Rooms are not stored: a room is the set of participants sharing a Room value.
type Registry struct {
	// participants in insertion order.
	participants []Participant

	// mu guards participants, including the check-then-insert in AddParticipant.
	mu sync.RWMutex

	now func() time.Time
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{now: time.Now}
}

// AddParticipant normalizes username and room and registers the participant.
// It fails with ErrUsernameRoomRequired when either is empty after normalization,
// with ErrUsernameInUse when the room already has that username, and with
// ErrConnectionRegistered when connectionID already owns a participant.
func (r *Registry) AddParticipant(connectionID, username, room string) (Participant, error) {
	username = Normalize(username)
	room = Normalize(room)

	if username == "" || room == "" {
		return Participant{}, errs.NewError(errs.ErrUsernameRoomRequired)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	taken := lo.ContainsBy(r.participants, func(p Participant) bool {
		return p.Room == room && p.Username == username
	})
	if taken {
		return Participant{}, errs.NewError(errs.ErrUsernameInUse)
	}

	_, _, registered := lo.FindIndexOf(r.participants, func(p Participant) bool {
		return p.ConnectionID == connectionID
	})
	if registered {
		return Participant{}, errs.NewError(errs.ErrConnectionRegistered)
	}

	p := Participant{
		ConnectionID: connectionID,
		Username:     username,
		Room:         room,
		JoinedAt:     r.now(),
	}
	r.participants = append(r.participants, p)

	return p, nil
}

// RemoveParticipant removes and returns the participant owned by connectionID.
// Unknown connections are not an error: ok is false and nothing changes.
func (r *Registry) RemoveParticipant(connectionID string) (Participant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, idx, ok := lo.FindIndexOf(r.participants, func(p Participant) bool {
		return p.ConnectionID == connectionID
	})
	if !ok {
		return Participant{}, false
	}

	r.participants = append(r.participants[:idx], r.participants[idx+1:]...)
	return p, true
}

// GetParticipant looks up the participant owned by connectionID.
func (r *Registry) GetParticipant(connectionID string) (Participant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.Find(r.participants, func(p Participant) bool {
		return p.ConnectionID == connectionID
	})
}

// ListParticipants returns the members of room in join order.
// An unknown room and an empty room both yield an empty slice.
func (r *Registry) ListParticipants(room string) []Participant {
	room = Normalize(room)

	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.Filter(r.participants, func(p Participant, _ int) bool {
		return p.Room == room
	})
}

// Usernames returns the roster of room in join order.
func (r *Registry) Usernames(room string) []string {
	return lo.Map(r.ListParticipants(room), func(p Participant, _ int) string {
		return p.Username
	})
}

// Rooms lists every room with at least one member, sorted by name.
func (r *Registry) Rooms() []RoomSummary {
	r.mu.RLock()
	counts := lo.CountValuesBy(r.participants, func(p Participant) string {
		return p.Room
	})
	r.mu.RUnlock()

	summaries := lo.MapToSlice(counts, func(room string, n int) RoomSummary {
		return RoomSummary{Room: room, Members: n}
	})
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Room < summaries[j].Room
	})
	return summaries
}

// Len returns the number of registered participants.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.participants)
}

// Reset drops every participant.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.participants = nil
}
