// Package events maintains the single shared connection to the backend's
// real-time channel. Views subscribe to named events; room joins scope which
// pushes the backend routes to this process.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	ws "github.com/coder/websocket"
	"github.com/sethvargo/go-retry"

	"tabletap/internal/model"
)

const (
	reconnectAttempts = 5
	reconnectDelay    = time.Second
	writeTimeout      = 5 * time.Second
)

// Envelope is the wire format of the event channel: a named event plus its
// raw payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type room struct {
	joinEvent  string
	leaveEvent string
	id         string
}

// Client is the shared event-channel connection. Connect is idempotent, the
// connection reconnects on drop with a bounded number of constant-delay
// attempts, and room joins are replayed after a reconnect. Event delivery is
// sequential per connection: handlers for the same event name run in arrival
// order. No de-duplication is performed, so handlers must tolerate a repeated
// event after a reconnect.
type Client struct {
	url    string
	logger *slog.Logger

	mu       sync.Mutex
	conn     *ws.Conn
	cancel   context.CancelFunc
	handlers map[string]map[int]func(json.RawMessage)
	nextID   int
	rooms    map[room]struct{}

	writeMu sync.Mutex
}

func NewClient(url string, logger *slog.Logger) *Client {
	return &Client{
		url:      url,
		logger:   logger,
		handlers: make(map[string]map[int]func(json.RawMessage)),
		rooms:    make(map[room]struct{}),
	}
}

// Connect opens the channel connection and starts the read loop. Calling it
// while a connection exists is a no-op, so every view can call it on entry.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.conn != nil {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	conn, _, err := ws.Dial(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("dial event channel: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())

	c.mu.Lock()
	if c.conn != nil {
		// Lost the race to another Connect; keep the first connection.
		c.mu.Unlock()
		cancel()
		conn.Close(ws.StatusNormalClosure, "duplicate connection")
		return nil
	}
	c.conn = conn
	c.cancel = cancel
	c.mu.Unlock()

	c.logger.Info("event channel connected", "url", c.url)
	go c.readLoop(runCtx, conn)
	return nil
}

// Disconnect tears down the connection and discards it, so a later Connect
// starts fresh. Subscriptions survive a disconnect.
func (c *Client) Disconnect() {
	c.mu.Lock()
	conn := c.conn
	cancel := c.cancel
	c.conn = nil
	c.cancel = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		conn.Close(ws.StatusNormalClosure, "client disconnect")
	}
}

func (c *Client) readLoop(ctx context.Context, conn *ws.Conn) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Warn("event channel dropped", "error", err)
			conn = c.reconnect(ctx)
			if conn == nil {
				return
			}
			continue
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.logger.Warn("bad event envelope", "error", err)
			continue
		}
		c.dispatch(env)
	}
}

// reconnect dials again with a bounded number of fixed-delay attempts and
// replays room joins on success. Returns nil when the attempts are exhausted
// or the client was disconnected meanwhile.
func (c *Client) reconnect(ctx context.Context) *ws.Conn {
	c.mu.Lock()
	if c.conn == nil {
		// Explicit Disconnect raced the drop; stay down.
		c.mu.Unlock()
		return nil
	}
	c.conn = nil
	c.mu.Unlock()

	var conn *ws.Conn
	backoff := retry.WithMaxRetries(reconnectAttempts, retry.NewConstant(reconnectDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		dialed, _, err := ws.Dial(ctx, c.url, nil)
		if err != nil {
			return retry.RetryableError(err)
		}
		conn = dialed
		return nil
	})
	if err != nil {
		c.logger.Error("event channel reconnect failed", "error", err, "attempts", reconnectAttempts)
		return nil
	}

	c.mu.Lock()
	c.conn = conn
	rooms := make([]room, 0, len(c.rooms))
	for r := range c.rooms {
		rooms = append(rooms, r)
	}
	c.mu.Unlock()

	c.logger.Info("event channel reconnected", "rooms", len(rooms))
	for _, r := range rooms {
		if err := c.Emit(r.joinEvent, r.id); err != nil {
			c.logger.Warn("rejoin room", "event", r.joinEvent, "id", r.id, "error", err)
		}
	}
	return conn
}

func (c *Client) dispatch(env Envelope) {
	c.mu.Lock()
	regs := c.handlers[env.Event]
	ids := make([]int, 0, len(regs))
	for id := range regs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(json.RawMessage), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, regs[id])
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(env.Data)
	}
}

// Subscribe registers a handler for an event name and returns an id for
// Unsubscribe. Multiple handlers may exist per event independently.
func (c *Client) Subscribe(event string, fn func(json.RawMessage)) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	if c.handlers[event] == nil {
		c.handlers[event] = make(map[int]func(json.RawMessage))
	}
	c.handlers[event][c.nextID] = fn
	return c.nextID
}

// Unsubscribe removes exactly the handler registered under id. Unknown ids
// are a no-op.
func (c *Client) Unsubscribe(event string, id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.handlers[event], id)
}

// Emit sends a fire-and-forget notification to the backend. If the channel
// is down it dials first, so a failed startup connect heals on the next use.
func (c *Client) Emit(event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", event, err)
	}
	msg, err := json.Marshal(Envelope{Event: event, Data: payload})
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		dialCtx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := c.Connect(dialCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("emit %s: %w", event, err)
		}
		c.mu.Lock()
		conn = c.conn
		c.mu.Unlock()
		if conn == nil {
			return fmt.Errorf("emit %s: not connected", event)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := conn.Write(ctx, ws.MessageText, msg); err != nil {
		return fmt.Errorf("emit %s: %w", event, err)
	}
	return nil
}

// --- Rooms ---

func (c *Client) joinRoom(r room) error {
	c.mu.Lock()
	c.rooms[r] = struct{}{}
	c.mu.Unlock()
	return c.Emit(r.joinEvent, r.id)
}

func (c *Client) leaveRoom(r room) error {
	c.mu.Lock()
	delete(c.rooms, r)
	c.mu.Unlock()
	return c.Emit(r.leaveEvent, r.id)
}

func restaurantRoom(id string) room {
	return room{joinEvent: "join:restaurant", leaveEvent: "leave:restaurant", id: id}
}

// tableRoom keeps the backend's asymmetric event names: joining is
// "join:table" but leaving is "leaveTable".
func tableRoom(id string) room {
	return room{joinEvent: "join:table", leaveEvent: "leaveTable", id: id}
}

func (c *Client) JoinRestaurant(id string) error  { return c.joinRoom(restaurantRoom(id)) }
func (c *Client) LeaveRestaurant(id string) error { return c.leaveRoom(restaurantRoom(id)) }
func (c *Client) JoinTable(id string) error       { return c.joinRoom(tableRoom(id)) }
func (c *Client) LeaveTable(id string) error      { return c.leaveRoom(tableRoom(id)) }

// --- Typed subscriptions ---

func decodeInto[T any](logger *slog.Logger, event string, fn func(T)) func(json.RawMessage) {
	return func(data json.RawMessage) {
		var payload T
		if err := json.Unmarshal(data, &payload); err != nil {
			logger.Warn("decode event payload", "event", event, "error", err)
			return
		}
		fn(payload)
	}
}

func (c *Client) OnNewOrder(fn func(model.Order)) int {
	return c.Subscribe(model.EventNewOrder, decodeInto(c.logger, model.EventNewOrder, fn))
}

func (c *Client) OnOrderStatus(fn func(model.OrderStatusEvent)) int {
	return c.Subscribe(model.EventOrderStatusUpdated, decodeInto(c.logger, model.EventOrderStatusUpdated, fn))
}

func (c *Client) OnKOTStatus(fn func(model.KOTStatusEvent)) int {
	return c.Subscribe(model.EventKOTStatusUpdated, decodeInto(c.logger, model.EventKOTStatusUpdated, fn))
}

func (c *Client) OnTableStatus(fn func(model.TableStatusEvent)) int {
	return c.Subscribe(model.EventTableStatusUpdated, decodeInto(c.logger, model.EventTableStatusUpdated, fn))
}

func (c *Client) OnBillRequest(fn func(model.BillRequestEvent)) int {
	return c.Subscribe(model.EventBillRequested, decodeInto(c.logger, model.EventBillRequested, fn))
}

// RequestBill emits the customer-to-staff bill request for a table.
func (c *Client) RequestBill(tableID string) error {
	return c.Emit(model.EventBillRequested, model.BillRequestEvent{TableID: tableID})
}
