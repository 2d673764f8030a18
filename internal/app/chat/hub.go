package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"chatrelay/internal/pkg/errs"
	"chatrelay/internal/pkg/logx"
)

// DefaultSendBufferSize is the per-connection outbound queue length.
const DefaultSendBufferSize = 256

var (
	// ErrUnknownConnection is returned by Send for a connection the hub does not hold.
	ErrUnknownConnection = errors.New("unknown connection")

	// ErrSendQueueFull is returned by Send when the connection's queue is full.
	ErrSendQueueFull = errors.New("client send queue full")
)

// clientEvent is one inbound event queued for the run loop.
type clientEvent struct {
	client *Client
	in     Inbound

	// decodeErr is set when the frame could not be decoded.
	decodeErr error
}

// HubOptions tune a Hub. Zero values select defaults.
type HubOptions struct {
	Filter          ContentFilter
	MaxMessageBytes int
	SendBufferSize  int
}

// Hub owns every live connection and processes their events one at a time on
// the goroutine running Run. Registry mutations only happen there; the registry
// lock exists for readers on other goroutines such as the HTTP API.
type Hub struct {
	registry *Registry
	router   *Router
	handlers Handlers
	deps     Deps

	sendBufferSize int

	// clients and sessions are keyed by connection ID.
	clients  map[string]*Client
	sessions map[string]*Session

	// mu protects clients for readers outside the run loop.
	mu sync.RWMutex

	register chan *Client
	events   chan clientEvent
	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	started  atomic.Bool

	logger zerolog.Logger
}

// NewHub builds a Hub around registry. Call Run to start processing.
func NewHub(registry *Registry, opts HubOptions) *Hub {
	if opts.MaxMessageBytes <= 0 {
		opts.MaxMessageBytes = DefaultMaxMessageBytes
	}
	if opts.SendBufferSize <= 0 {
		opts.SendBufferSize = DefaultSendBufferSize
	}

	h := &Hub{
		registry: registry,
		handlers: DefaultHandlers(),
		deps: Deps{
			Filter:          opts.Filter,
			MaxMessageBytes: opts.MaxMessageBytes,
		},
		sendBufferSize: opts.SendBufferSize,
		clients:        make(map[string]*Client),
		sessions:       make(map[string]*Session),
		register:       make(chan *Client),
		events:         make(chan clientEvent, 256),
		stopChan:       make(chan struct{}),
		done:           make(chan struct{}),
		logger:         logx.Component("Hub"),
	}
	h.router = NewRouter(registry, h)

	return h
}

// Registry returns the membership registry the hub writes to.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// Router returns the hub's broadcast router.
func (h *Hub) Router() *Router {
	return h.router
}

// ConnectionCount returns the number of live connections, joined or not.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}

// Run is the event loop. It returns after Shutdown, and returns at once when
// the hub is already running or was shut down before it started.
func (h *Hub) Run() {
	if !h.started.CompareAndSwap(false, true) {
		return
	}
	defer close(h.done)

	h.logger.Info().Msg("Hub run loop started.")

	for {
		select {
		case client := <-h.register:
			h.addClient(client)

		case ev := <-h.events:
			h.handle(ev)

		case <-h.stopChan:
			h.closeAll()
			h.logger.Info().Msg("Hub run loop stopped.")
			return
		}
	}
}

// Register hands a freshly upgraded connection to the run loop.
// It returns false when the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Submit queues an inbound event for client. Events submitted after Shutdown are dropped.
func (h *Hub) Submit(client *Client, in Inbound) {
	h.submit(clientEvent{client: client, in: in})
}

func (h *Hub) submit(ev clientEvent) {
	select {
	case h.events <- ev:
	case <-h.done:
	}
}

// Send implements Sender on top of the per-client queues. Only the run loop calls it.
func (h *Hub) Send(connectionID string, frame []byte) error {
	h.mu.RLock()
	client, ok := h.clients[connectionID]
	h.mu.RUnlock()

	if !ok {
		return ErrUnknownConnection
	}
	return client.enqueue(frame)
}

// Shutdown stops the run loop, closes every connection and clears the registry.
// It is safe to call when Run was never started, and more than once.
func (h *Hub) Shutdown() {
	h.logger.Info().Msg("Shutting down Hub...")

	h.stopOnce.Do(func() {
		close(h.stopChan)
	})

	if h.started.CompareAndSwap(false, true) {
		// Run never started; nothing owns the clients but this call.
		h.closeAll()
		close(h.done)
	} else {
		<-h.done
	}

	h.registry.Reset()

	h.logger.Info().Msg("Hub shutdown complete.")
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client.id] = client
	total := len(h.clients)
	h.mu.Unlock()

	h.sessions[client.id] = NewSession(client.id, h.registry)

	client.logger.Info().Int("total_connections", total).Msg("Connection registered.")
}

// dropClient ends the client's session, forgets the client and closes its queue
// so the write pump sends a close frame. It returns the departure deliveries when
// the session still had a participant.
func (h *Hub) dropClient(client *Client) []Delivery {
	var deliveries []Delivery
	if session, ok := h.sessions[client.id]; ok {
		if outcome, left := session.Leave(); left {
			deliveries = outcome.Deliveries
		}
	}

	h.mu.Lock()
	if current, ok := h.clients[client.id]; ok && current == client {
		delete(h.clients, client.id)
	}
	total := len(h.clients)
	h.mu.Unlock()

	delete(h.sessions, client.id)
	client.closeSend()

	client.logger.Info().Int("total_connections", total).Msg("Connection dropped.")

	return deliveries
}

func (h *Hub) handle(ev clientEvent) {
	session, ok := h.sessions[ev.client.id]
	if !ok {
		// Already dropped; only the trailing disconnect can still arrive.
		return
	}

	if ev.decodeErr != nil {
		ev.client.logger.Warn().Err(ev.decodeErr).Msg("Client sent invalid JSON.")
		h.acknowledge(ev.client, nil, errs.NewError(errs.ErrInvalidJSONFormat))
		return
	}

	res := h.handlers.Handle(h.deps, session, ev.in)

	if ev.in.Event == EventDisconnect {
		h.router.Dispatch(append(res.Deliveries, h.dropClient(ev.client)...)...)
		return
	}

	if res.Err != nil {
		ev.client.logger.Info().
			Err(res.Err).
			Str("event", ev.in.Event).
			Msg("Event rejected.")
	}

	h.router.Dispatch(res.Deliveries...)
	h.acknowledge(ev.client, ev.in.Ack, res.Err)

	if res.Close {
		h.router.Dispatch(h.dropClient(ev.client)...)
	}
}

// acknowledge answers the originating connection. Successful events are only
// acknowledged when the client asked for it; errors are always reported.
func (h *Hub) acknowledge(client *Client, ack *int64, err error) {
	if ack == nil && err == nil {
		return
	}

	frame := Frame{Event: EventAck, Ack: ack}
	if err != nil {
		frame.Error = ackMessage(err)
	}

	raw, marshalErr := json.Marshal(frame)
	if marshalErr != nil {
		client.logger.Error().Err(marshalErr).Msg("Failed to encode ack frame.")
		return
	}

	if sendErr := client.enqueue(raw); sendErr != nil {
		client.logger.Warn().Err(sendErr).Msg("Failed to queue ack frame.")
	}
}

func ackMessage(err error) string {
	if customErr, ok := errs.As(err); ok {
		return customErr.Message
	}
	return fmt.Sprintf("Internal server error: %v", err)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	h.clients = make(map[string]*Client)
	h.mu.Unlock()

	for _, client := range clients {
		client.closeSend()
	}
	h.sessions = make(map[string]*Session)

	h.logger.Info().Int("closed_connections", len(clients)).Msg("Closed all connections.")
}
