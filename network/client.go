package network

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/automoto/dynamicai/internal/logging"
	"github.com/automoto/dynamicai/shared/gamemath"
	"github.com/automoto/dynamicai/shared/messages"
	"github.com/coder/websocket"
	"github.com/leap-fish/necs/esync"
	"github.com/leap-fish/necs/router"
	"github.com/leap-fish/necs/transports"
)

type ClientState int

const (
	StateDisconnected ClientState = iota
	StateConnecting
	StateConnected
	StateJoined
	StateError
)

var stateNames = [...]string{
	StateDisconnected: "disconnected",
	StateConnecting:   "connecting",
	StateConnected:    "connected",
	StateJoined:       "joined",
	StateError:        "error",
}

func (s ClientState) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

var ErrNotConnected = errors.New("not connected")

// Session is what the server told us when it accepted the join.
type Session struct {
	NetworkID  esync.NetworkId
	ServerName string
	TickRate   int
	Zone       string
}

// Client is an observer connection to a dynamic AI host. It reports its
// position, can change settings and receives the replicated world. Router
// callbacks run on necs goroutines, so everything below mu is guarded.
type Client struct {
	logger  logging.Logger
	name    string
	version string

	snapshots chan esync.WorldSnapshot // latest wins
	results   chan messages.SettingsResult

	mu      sync.RWMutex
	state   ClientState
	err     error
	session Session
	conn    *websocket.Conn
}

func NewClient(logger logging.Logger) *Client {
	if logger == nil {
		logger = logging.Noop()
	}
	return &Client{
		logger:    logger.With(logging.String("component", "client")),
		snapshots: make(chan esync.WorldSnapshot, 1),
		results:   make(chan messages.SettingsResult, 16),
	}
}

// Connect dials address in the background and joins as name once the
// socket is up. Progress is visible through State.
func (c *Client) Connect(address, version, name string) {
	c.name, c.version = name, version
	c.setState(StateConnecting, nil)

	router.OnConnect(c.onConnect)
	router.On(c.onJoinAccepted)
	router.On(c.onJoinRejected)
	router.On(c.onSnapshot)
	router.On(c.onSettingsResult)
	router.OnDisconnect(c.onDisconnect)
	router.OnError(func(_ *router.NetworkClient, err error) {
		c.logger.Warn("client error", logging.Err(err))
	})

	go func() {
		transport := transports.NewWsClientTransport("ws://" + address)
		err := transport.Start(func(conn *websocket.Conn) {
			c.mu.Lock()
			c.conn = conn
			c.mu.Unlock()
		})
		if err != nil {
			c.setState(StateError, fmt.Errorf("connect %s: %w", address, err))
		}
	}()
}

func (c *Client) onConnect(_ *router.NetworkClient) {
	c.logger.Info("connected, joining", logging.String("name", c.name))
	c.setState(StateConnected, nil)
	if err := c.SendMessage(messages.JoinRequest{Version: c.version, Name: c.name}); err != nil {
		c.setState(StateError, fmt.Errorf("send join request: %w", err))
	}
}

func (c *Client) onJoinAccepted(_ *router.NetworkClient, msg messages.JoinAccepted) {
	s := Session{
		NetworkID:  msg.NetworkID,
		ServerName: msg.ServerName,
		TickRate:   msg.TickRate,
		Zone:       msg.Zone,
	}
	c.logger.Info("joined",
		logging.String("server", s.ServerName),
		logging.String("zone", s.Zone),
		logging.Int("tick_rate", s.TickRate),
	)
	c.mu.Lock()
	c.session = s
	c.state = StateJoined
	c.mu.Unlock()
}

func (c *Client) onJoinRejected(_ *router.NetworkClient, msg messages.JoinRejected) {
	c.logger.Warn("join rejected", logging.String("reason", msg.Reason))
	c.setState(StateError, fmt.Errorf("join rejected: %s", msg.Reason))
}

func (c *Client) onSnapshot(_ *router.NetworkClient, snapshot esync.WorldSnapshot) {
	select {
	case <-c.snapshots:
	default:
	}
	c.snapshots <- snapshot
}

func (c *Client) onSettingsResult(_ *router.NetworkClient, res messages.SettingsResult) {
	select {
	case c.results <- res:
	default:
		c.logger.Warn("settings result dropped", logging.String("option", res.Option))
	}
}

func (c *Client) onDisconnect(_ *router.NetworkClient, err error) {
	c.logger.Info("disconnected", logging.Err(err))
	c.mu.Lock()
	if c.state != StateError {
		c.state = StateDisconnected
	}
	c.conn = nil
	c.mu.Unlock()
}

// Disconnect closes the socket and clears the necs router handlers.
func (c *Client) Disconnect() {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.state = StateDisconnected
	c.mu.Unlock()

	if conn != nil {
		_ = conn.CloseNow()
	}
	router.ResetRouter()
}

func (c *Client) State() ClientState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// LastError is the error that put the client into StateError.
func (c *Client) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// Session returns the join details; the zero value until StateJoined.
func (c *Client) Session() Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// LatestSnapshot returns the most recent WorldSnapshot, or nil. Non-blocking.
func (c *Client) LatestSnapshot() *esync.WorldSnapshot {
	select {
	case snap := <-c.snapshots:
		return &snap
	default:
		return nil
	}
}

// Move reports the observer's position.
func (c *Client) Move(pos gamemath.Vec3) error {
	return c.SendMessage(messages.ObserverMove{X: pos.X, Y: pos.Y, Z: pos.Z})
}

// ChangeSetting asks the server to apply one option. The outcome arrives
// through DrainSettingsResults.
func (c *Client) ChangeSetting(option, key, value string) error {
	return c.SendMessage(messages.SettingsChange{Option: option, Key: key, Value: value})
}

func (c *Client) SendMessage(msg any) error {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()
	if conn == nil {
		return ErrNotConnected
	}

	payload, err := router.Serialize(msg)
	if err != nil {
		return fmt.Errorf("serialize %T: %w", msg, err)
	}
	return conn.Write(context.Background(), websocket.MessageBinary, payload)
}

// DrainSettingsResults returns all pending settings results, non-blocking.
func (c *Client) DrainSettingsResults() []messages.SettingsResult {
	var out []messages.SettingsResult
	for {
		select {
		case res := <-c.results:
			out = append(out, res)
		default:
			return out
		}
	}
}

func (c *Client) setState(state ClientState, err error) {
	c.mu.Lock()
	c.state = state
	c.err = err
	c.mu.Unlock()
}
