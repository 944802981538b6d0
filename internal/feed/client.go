package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/kapu/interview-teleprompter-go/internal/service/conversation"
)

type State string

const (
	StateConnecting   State = "CONNECTING"
	StateConnected    State = "CONNECTED"
	StateDisconnected State = "DISCONNECTED"
	StateReconnecting State = "RECONNECTING"
	StateFailed       State = "FAILED"
)

func (s State) String() string {
	return string(s)
}

type EventCallback func(event conversation.Event)

type StateCallback func(state State)

type eventEntry struct {
	id       int
	callback EventCallback
}

type stateEntry struct {
	id       int
	callback StateCallback
}

// Client follows a teleprompter's /ws feed and reconnects after drops.
type Client struct {
	url                  string
	connMu               sync.Mutex
	conn                 *websocket.Conn
	state                State
	stateMu              sync.RWMutex
	eventCallbacks       []eventEntry
	stateCallbacks       []stateEntry
	nextCallbackID       int
	callbacksMu          sync.RWMutex
	reconnectAttempts    int
	maxReconnectAttempts int
	reconnectDelay       time.Duration
	logger               *zap.Logger
	stopCh               chan struct{}
	stopOnce             sync.Once
	listenerWg           sync.WaitGroup
}

func NewClient(feedURL string, maxReconnectAttempts int, reconnectDelay time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		url:                  feedURL,
		state:                StateDisconnected,
		maxReconnectAttempts: maxReconnectAttempts,
		reconnectDelay:       reconnectDelay,
		logger:               logger,
		stopCh:               make(chan struct{}),
		nextCallbackID:       1,
	}
}

// URLFromBase turns a server base URL such as http://192.168.1.5:8000 into
// the feed URL ws://192.168.1.5:8000/ws.
func URLFromBase(base string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws", "":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("base url %q has no host", base)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	return u.String(), nil
}

func (c *Client) Connect(ctx context.Context) error {
	state := c.GetState()
	if state == StateConnected || state == StateConnecting {
		c.logger.Warn("Feed already connected or connecting")
		return nil
	}
	select {
	case <-c.stopCh:
		return fmt.Errorf("feed client stopped")
	default:
	}

	c.setState(StateConnecting)

	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	conn, _, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		c.logger.Error("Failed to connect feed", zap.String("url", c.url), zap.Error(err))
		c.setState(StateFailed)
		c.scheduleReconnect(ctx)
		return err
	}

	c.connMu.Lock()
	c.conn = conn
	c.reconnectAttempts = 0
	c.connMu.Unlock()
	c.setState(StateConnected)

	c.logger.Info("Feed connected", zap.String("url", c.url))

	c.listenerWg.Add(1)
	go c.listen(ctx, conn)

	return nil
}

func (c *Client) listen(ctx context.Context, conn *websocket.Conn) {
	defer c.listenerWg.Done()
	defer c.logger.Debug("Feed listener stopped")

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-c.stopCh:
				return
			case <-ctx.Done():
				return
			default:
			}
			c.logger.Warn("Feed read error", zap.Error(err))
			c.connMu.Lock()
			if c.conn == conn {
				c.conn = nil
			}
			c.connMu.Unlock()
			_ = conn.Close()
			c.setState(StateDisconnected)
			c.scheduleReconnect(ctx)
			return
		}

		c.handleMessage(data)
	}
}

func (c *Client) handleMessage(data []byte) {
	var event conversation.Event
	if err := json.Unmarshal(data, &event); err != nil {
		dataStr := string(data)
		if len(dataStr) > 200 {
			dataStr = dataStr[:200]
		}
		c.logger.Error("Failed to parse feed event",
			zap.Error(err),
			zap.String("data", dataStr),
		)
		return
	}

	c.callbacksMu.RLock()
	callbacks := make([]eventEntry, len(c.eventCallbacks))
	copy(callbacks, c.eventCallbacks)
	c.callbacksMu.RUnlock()

	for _, entry := range callbacks {
		entry.callback(event)
	}
}

func (c *Client) scheduleReconnect(ctx context.Context) {
	c.connMu.Lock()
	c.reconnectAttempts++
	attempt := c.reconnectAttempts
	c.connMu.Unlock()

	if attempt > c.maxReconnectAttempts {
		c.logger.Error("Max reconnect attempts reached", zap.Int("attempts", attempt))
		c.setState(StateFailed)
		return
	}

	c.setState(StateReconnecting)

	c.logger.Info("Scheduling reconnect",
		zap.Int("attempt", attempt),
		zap.Int("max", c.maxReconnectAttempts),
		zap.Duration("delay", c.reconnectDelay),
	)

	go func() {
		select {
		case <-time.After(c.reconnectDelay):
			if err := c.Connect(ctx); err != nil {
				c.logger.Debug("Reconnect failed", zap.Error(err))
			}
		case <-c.stopCh:
		case <-ctx.Done():
		}
	}()
}

// OnEvent registers callback and returns a function that removes it.
func (c *Client) OnEvent(callback EventCallback) func() {
	c.callbacksMu.Lock()
	id := c.nextCallbackID
	c.nextCallbackID++
	c.eventCallbacks = append(c.eventCallbacks, eventEntry{id: id, callback: callback})
	c.callbacksMu.Unlock()

	return func() {
		c.callbacksMu.Lock()
		defer c.callbacksMu.Unlock()
		for i, entry := range c.eventCallbacks {
			if entry.id == id {
				c.eventCallbacks = append(c.eventCallbacks[:i], c.eventCallbacks[i+1:]...)
				break
			}
		}
	}
}

func (c *Client) OnStateChange(callback StateCallback) func() {
	c.callbacksMu.Lock()
	id := c.nextCallbackID
	c.nextCallbackID++
	c.stateCallbacks = append(c.stateCallbacks, stateEntry{id: id, callback: callback})
	c.callbacksMu.Unlock()

	return func() {
		c.callbacksMu.Lock()
		defer c.callbacksMu.Unlock()
		for i, entry := range c.stateCallbacks {
			if entry.id == id {
				c.stateCallbacks = append(c.stateCallbacks[:i], c.stateCallbacks[i+1:]...)
				break
			}
		}
	}
}

func (c *Client) setState(newState State) {
	c.stateMu.Lock()
	oldState := c.state
	c.state = newState
	c.stateMu.Unlock()

	if oldState == newState {
		return
	}
	c.logger.Debug("Feed state changed",
		zap.String("from", oldState.String()),
		zap.String("to", newState.String()),
	)

	c.callbacksMu.RLock()
	callbacks := make([]stateEntry, len(c.stateCallbacks))
	copy(callbacks, c.stateCallbacks)
	c.callbacksMu.RUnlock()

	for _, entry := range callbacks {
		entry.callback(newState)
	}
}

func (c *Client) GetState() State {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

func (c *Client) IsConnected() bool {
	return c.GetState() == StateConnected
}

// Disconnect stops reconnecting and waits briefly for the listener to exit.
func (c *Client) Disconnect() error {
	c.stopOnce.Do(func() {
		close(c.stopCh)
	})

	c.connMu.Lock()
	conn := c.conn
	c.conn = nil
	c.reconnectAttempts = 0
	c.connMu.Unlock()

	var closeErr error
	if conn != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		closeErr = conn.Close()
	}

	c.setState(StateDisconnected)

	done := make(chan struct{})
	go func() {
		c.listenerWg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		c.logger.Warn("Timeout waiting for feed listener to stop")
	}

	return closeErr
}
