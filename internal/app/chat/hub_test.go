package chat

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wireFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Ack   *int64          `json:"ack"`
	Error string          `json:"error"`
}

func newTestHub(t *testing.T, ids ...string) (*Hub, map[string]*Client) {
	t.Helper()
	hub := NewHub(NewRegistry(), HubOptions{Filter: wordSet{"darn": true}})

	clients := make(map[string]*Client, len(ids))
	for _, id := range ids {
		c := NewClient(hub, nil, id)
		hub.addClient(c)
		clients[id] = c
	}
	return hub, clients
}

// drain returns every frame currently queued for c.
func drain(t *testing.T, c *Client) []wireFrame {
	t.Helper()
	var frames []wireFrame
	for {
		select {
		case raw, ok := <-c.send:
			if !ok {
				return frames
			}
			var f wireFrame
			require.NoError(t, json.Unmarshal(raw, &f))
			frames = append(frames, f)
		default:
			return frames
		}
	}
}

func isClosed(c *Client) bool {
	select {
	case _, ok := <-c.send:
		return !ok
	default:
		return false
	}
}

func ackID(n int64) *int64 { return &n }

func join(hub *Hub, c *Client, username, room string) {
	data, _ := json.Marshal(JoinPayload{Username: username, Room: room})
	hub.handle(clientEvent{client: c, in: Inbound{Event: EventJoin, Data: data}})
}

func TestHub_JoinFlow(t *testing.T) {
	req := require.New(t)
	hub, c := newTestHub(t, "c1", "c2")

	join(hub, c["c1"], "Alice", "General")

	frames := drain(t, c["c1"])
	req.Len(frames, 2)
	req.Equal(EventMessage, frames[0].Event)
	req.JSONEq(`"Welcome!"`, string(mustField(t, frames[0].Data, "text")))
	req.Equal(EventRoomData, frames[1].Event)
	req.JSONEq(`{"room":"general","users":[{"username":"alice"}]}`, string(frames[1].Data))

	data, _ := json.Marshal(JoinPayload{Username: "bob", Room: "general"})
	hub.handle(clientEvent{client: c["c2"], in: Inbound{Event: EventJoin, Data: data, Ack: ackID(1)}})

	first := drain(t, c["c1"])
	req.Len(first, 2)
	req.JSONEq(`"bob has joined!"`, string(mustField(t, first[0].Data, "text")))
	req.JSONEq(`"SYSTEM"`, string(mustField(t, first[0].Data, "username")))
	req.JSONEq(`{"room":"general","users":[{"username":"alice"},{"username":"bob"}]}`, string(first[1].Data))

	second := drain(t, c["c2"])
	req.Len(second, 3)
	req.Equal(EventMessage, second[0].Event)
	req.Equal(EventRoomData, second[1].Event)
	req.Equal(EventAck, second[2].Event)
	req.Equal(int64(1), *second[2].Ack)
	req.Empty(second[2].Error)
}

func TestHub_JoinRejectedClosesConnection(t *testing.T) {
	req := require.New(t)
	hub, c := newTestHub(t, "c1", "c2")

	join(hub, c["c1"], "alice", "general")
	drain(t, c["c1"])

	join(hub, c["c2"], "ALICE", "general")

	frames := drain(t, c["c2"])
	req.Len(frames, 1)
	req.Equal(EventAck, frames[0].Event)
	req.Nil(frames[0].Ack)
	req.Equal("Username is in use.", frames[0].Error)
	req.True(isClosed(c["c2"]))
	req.Equal(1, hub.ConnectionCount())

	// The existing member saw nothing.
	req.Empty(drain(t, c["c1"]))
	req.Equal([]string{"alice"}, hub.Registry().Usernames("general"))

	// Later events from the dropped connection are ignored.
	hub.handle(clientEvent{client: c["c2"], in: Inbound{Event: EventDisconnect}})
	req.Empty(drain(t, c["c1"]))
}

func TestHub_SendMessageBroadcastsBeforeAck(t *testing.T) {
	req := require.New(t)
	hub, c := newTestHub(t, "c1", "c2", "c3")
	join(hub, c["c1"], "alice", "general")
	join(hub, c["c2"], "bob", "general")
	join(hub, c["c3"], "carol", "other")
	for _, client := range c {
		drain(t, client)
	}

	hub.handle(clientEvent{client: c["c1"], in: Inbound{
		Event: EventSendMessage,
		Data:  json.RawMessage(`"hello"`),
		Ack:   ackID(7),
	}})

	sender := drain(t, c["c1"])
	req.Len(sender, 2)
	req.Equal(EventMessage, sender[0].Event)
	req.JSONEq(`"alice"`, string(mustField(t, sender[0].Data, "username")))
	req.JSONEq(`"hello"`, string(mustField(t, sender[0].Data, "text")))
	req.Equal(EventAck, sender[1].Event)
	req.Equal(int64(7), *sender[1].Ack)

	peer := drain(t, c["c2"])
	req.Len(peer, 1)
	req.Equal(EventMessage, peer[0].Event)

	req.Empty(drain(t, c["c3"]))
}

func TestHub_ProfanityIsRejected(t *testing.T) {
	req := require.New(t)
	hub, c := newTestHub(t, "c1", "c2")
	join(hub, c["c1"], "alice", "general")
	join(hub, c["c2"], "bob", "general")
	drain(t, c["c1"])
	drain(t, c["c2"])

	hub.handle(clientEvent{client: c["c1"], in: Inbound{
		Event: EventSendMessage,
		Data:  json.RawMessage(`"oh darn"`),
		Ack:   ackID(3),
	}})

	frames := drain(t, c["c1"])
	req.Len(frames, 1)
	req.Equal(EventAck, frames[0].Event)
	req.Equal(int64(3), *frames[0].Ack)
	req.Equal("Profanity is not allowed!", frames[0].Error)
	req.False(isClosed(c["c1"]))

	req.Empty(drain(t, c["c2"]))
}

func TestHub_SendLocation(t *testing.T) {
	req := require.New(t)
	hub, c := newTestHub(t, "c1", "c2")
	join(hub, c["c1"], "alice", "general")
	join(hub, c["c2"], "bob", "general")
	drain(t, c["c1"])
	drain(t, c["c2"])

	hub.handle(clientEvent{client: c["c2"], in: Inbound{
		Event: EventSendLocation,
		Data:  json.RawMessage(`{"latitude":1.5,"longitude":-2}`),
	}})

	for _, id := range []string{"c1", "c2"} {
		frames := drain(t, c[id])
		req.Len(frames, 1, id)
		req.Equal(EventLocationMessage, frames[0].Event)
		req.JSONEq(`"https://google.com/maps?q=1.5,-2"`, string(mustField(t, frames[0].Data, "url")))
	}
}

func TestHub_DisconnectNotifiesRoom(t *testing.T) {
	req := require.New(t)
	hub, c := newTestHub(t, "c1", "c2")
	join(hub, c["c1"], "alice", "general")
	join(hub, c["c2"], "bob", "general")
	drain(t, c["c1"])
	drain(t, c["c2"])

	hub.handle(clientEvent{client: c["c1"], in: Inbound{Event: EventDisconnect}})

	req.True(isClosed(c["c1"]))
	req.Equal(1, hub.ConnectionCount())

	frames := drain(t, c["c2"])
	req.Len(frames, 2)
	req.JSONEq(`"alice has left!"`, string(mustField(t, frames[0].Data, "text")))
	req.JSONEq(`{"room":"general","users":[{"username":"bob"}]}`, string(frames[1].Data))
}

func TestHub_DisconnectWithoutJoinIsSilent(t *testing.T) {
	req := require.New(t)
	hub, c := newTestHub(t, "c1", "c2")
	join(hub, c["c2"], "bob", "general")
	drain(t, c["c2"])

	hub.handle(clientEvent{client: c["c1"], in: Inbound{Event: EventDisconnect}})

	req.True(isClosed(c["c1"]))
	req.Empty(drain(t, c["c2"]))
}

func TestHub_InvalidJSONAndUnknownEvent(t *testing.T) {
	req := require.New(t)
	hub, c := newTestHub(t, "c1")

	hub.handle(clientEvent{client: c["c1"], decodeErr: assert.AnError})
	hub.handle(clientEvent{client: c["c1"], in: Inbound{Event: "typing", Ack: ackID(2)}})

	frames := drain(t, c["c1"])
	req.Len(frames, 2)
	req.Equal("Unsupported request format.", frames[0].Error)
	req.Equal(`Unknown event "typing".`, frames[1].Error)
	req.Equal(int64(2), *frames[1].Ack)
	req.False(isClosed(c["c1"]))
}

func TestHub_SendUnknownConnection(t *testing.T) {
	hub, _ := newTestHub(t)

	require.ErrorIs(t, hub.Send("ghost", []byte(`{}`)), ErrUnknownConnection)
}

func TestHub_SendQueueFull(t *testing.T) {
	hub := NewHub(NewRegistry(), HubOptions{SendBufferSize: 1})
	c := NewClient(hub, nil, "c1")
	hub.addClient(c)

	require.NoError(t, hub.Send("c1", []byte(`{}`)))
	require.ErrorIs(t, hub.Send("c1", []byte(`{}`)), ErrSendQueueFull)
}

func TestHub_RunAndShutdown(t *testing.T) {
	req := require.New(t)
	hub := NewHub(NewRegistry(), HubOptions{})
	go hub.Run()

	c := NewClient(hub, nil, "c1")
	req.True(hub.Register(c))

	data, _ := json.Marshal(JoinPayload{Username: "alice", Room: "general"})
	hub.Submit(c, Inbound{Event: EventJoin, Data: data, Ack: ackID(1)})

	var events []string
	timeout := time.After(2 * time.Second)
	for len(events) < 3 {
		select {
		case raw := <-c.send:
			var f wireFrame
			req.NoError(json.Unmarshal(raw, &f))
			events = append(events, f.Event)
		case <-timeout:
			t.Fatalf("timed out waiting for frames, got %v", events)
		}
	}
	req.Equal([]string{EventMessage, EventRoomData, EventAck}, events)
	req.Equal(1, hub.Registry().Len())

	hub.Shutdown()

	_, ok := <-c.send
	req.False(ok, "send queue must be closed on shutdown")
	req.Equal(0, hub.Registry().Len())
	req.Equal(0, hub.ConnectionCount())

	// Further calls return instead of blocking.
	req.False(hub.Register(NewClient(hub, nil, "c2")))
	hub.Submit(c, Inbound{Event: EventDisconnect})
	hub.Shutdown()
}

func mustField(t *testing.T, raw json.RawMessage, key string) json.RawMessage {
	t.Helper()
	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &fields))
	v, ok := fields[key]
	require.True(t, ok, "missing %q in %s", key, raw)
	return v
}

func TestHub_RejoinKeepsMembershipAndLeavesOnDisconnect(t *testing.T) {
	req := require.New(t)
	hub, c := newTestHub(t, "c1", "c2")
	join(hub, c["c1"], "alice", "general")
	join(hub, c["c2"], "bob", "general")
	drain(t, c["c1"])
	drain(t, c["c2"])

	data, _ := json.Marshal(JoinPayload{Username: "alice", Room: "other"})
	hub.handle(clientEvent{client: c["c1"], in: Inbound{Event: EventJoin, Data: data, Ack: ackID(4)}})

	frames := drain(t, c["c1"])
	req.Len(frames, 1)
	req.Equal("Already joined a room on this connection.", frames[0].Error)
	req.False(isClosed(c["c1"]), "a rejected rejoin must not drop the connection")
	req.Equal([]string{"alice", "bob"}, hub.Registry().Usernames("general"))
	req.Empty(hub.Registry().Usernames("other"))
	req.Empty(drain(t, c["c2"]))

	hub.handle(clientEvent{client: c["c1"], in: Inbound{Event: EventDisconnect}})

	req.Equal([]string{"bob"}, hub.Registry().Usernames("general"))
	peer := drain(t, c["c2"])
	req.Len(peer, 2)
	req.JSONEq(`"alice has left!"`, string(mustField(t, peer[0].Data, "text")))
	req.JSONEq(`{"room":"general","users":[{"username":"bob"}]}`, string(peer[1].Data))
}

func TestHub_DropClientRemovesParticipant(t *testing.T) {
	req := require.New(t)
	hub, c := newTestHub(t, "c1", "c2")
	join(hub, c["c1"], "alice", "general")
	join(hub, c["c2"], "bob", "general")
	drain(t, c["c1"])
	drain(t, c["c2"])

	hub.router.Dispatch(hub.dropClient(c["c1"])...)

	req.True(isClosed(c["c1"]))
	req.Equal([]string{"bob"}, hub.Registry().Usernames("general"))

	peer := drain(t, c["c2"])
	req.Len(peer, 2)
	req.Equal(EventMessage, peer[0].Event)
	req.Equal(EventRoomData, peer[1].Event)

	// The disconnect the transport reports afterwards is ignored.
	hub.handle(clientEvent{client: c["c1"], in: Inbound{Event: EventDisconnect}})
	req.Empty(drain(t, c["c2"]))
}

func TestHub_ShutdownWithoutRun(t *testing.T) {
	req := require.New(t)
	hub := NewHub(NewRegistry(), HubOptions{})
	_, err := hub.Registry().AddParticipant("c1", "alice", "general")
	req.NoError(err)

	finished := make(chan struct{})
	go func() {
		hub.Shutdown()
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("Shutdown blocked without a running loop")
	}

	req.Equal(0, hub.Registry().Len())
	req.False(hub.Register(NewClient(hub, nil, "c2")))

	// A late Run returns instead of starting a loop.
	ran := make(chan struct{})
	go func() {
		hub.Run()
		close(ran)
	}()
	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("Run started after Shutdown")
	}
}
