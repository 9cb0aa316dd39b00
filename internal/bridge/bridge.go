package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/theblitlabs/starknet-env/internal/models"
	"github.com/theblitlabs/starknet-env/internal/notify"
	"github.com/theblitlabs/starknet-env/internal/telemetry"
	"github.com/theblitlabs/starknet-env/internal/wallet"
	"github.com/theblitlabs/starknet-env/pkg/logger"
)

var (
	ErrNoPeer   = errors.New("no wallet bridge peer connected")
	ErrPeerGone = errors.New("wallet bridge peer disconnected")
)

const (
	TypeConnect      = "connect"
	TypeDisconnect   = "disconnect"
	TypeEnable       = "enable"
	TypeGetChainID   = "getChainId"
	TypeResult       = "result"
	TypeNotification = "notification"
)

const eventBacklog = 32

type Config struct {
	RequestTimeout time.Duration
	WriteWait      time.Duration
	PongWait       time.Duration
	MaxMessageSize int64
}

func (c Config) withDefaults() Config {
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 2 * time.Minute
	}
	if c.WriteWait == 0 {
		c.WriteWait = 10 * time.Second
	}
	if c.PongWait == 0 {
		c.PongWait = 60 * time.Second
	}
	if c.MaxMessageSize == 0 {
		c.MaxMessageSize = 512 * 1024
	}
	return c
}

// Message is one frame on the bridge socket.
type Message struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   string          `json:"error,omitempty"`
}

type reply struct {
	msg Message
	err error
}

type pendingCall struct {
	peer *peer
	ch   chan reply
}

type peer struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	done    chan struct{}
	once    sync.Once
}

func (p *peer) close() {
	p.once.Do(func() {
		close(p.done)
		p.conn.Close()
	})
}

// Bridge relays wallet connector calls to the browser page hosting the
// plugin. The page runs get-starknet and answers requests over a websocket;
// one page is attached at a time and a new one replaces the old.
type Bridge struct {
	cfg      Config
	upgrader websocket.Upgrader

	mu      sync.Mutex
	peer    *peer
	pending map[string]pendingCall

	// hub carries events of the wallet the page last connected to.
	hub   *wallet.EventHub
	hubID string

	events    chan Message
	stopCh    chan struct{}
	closeOnce sync.Once
}

func New(cfg Config) *Bridge {
	b := &Bridge{
		cfg: cfg.withDefaults(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		pending: make(map[string]pendingCall),
		events:  make(chan Message, eventBacklog),
		stopCh:  make(chan struct{}),
	}
	go b.dispatch()
	return b
}

// Connected reports whether a browser page is attached.
func (b *Bridge) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.peer != nil
}

func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := logger.WithComponent("bridge")

	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Upgrade failed")
		return
	}

	p := &peer{conn: conn, done: make(chan struct{})}
	b.attach(p)
	log.Info().Str("remote_addr", r.RemoteAddr).Msg("Browser peer attached")

	go b.pingLoop(p)
	b.readLoop(p)
	b.detach(p)
}

func (b *Bridge) attach(p *peer) {
	b.mu.Lock()
	old := b.peer
	b.peer = p
	b.mu.Unlock()

	if old != nil {
		old.close()
	}
	telemetry.SetBridgePeerConnected(true)
}

func (b *Bridge) detach(p *peer) {
	log := logger.WithComponent("bridge")
	p.close()

	b.mu.Lock()
	if b.peer == p {
		b.peer = nil
		telemetry.SetBridgePeerConnected(false)
	}
	for id, call := range b.pending {
		if call.peer == p {
			call.ch <- reply{err: ErrPeerGone}
			delete(b.pending, id)
		}
	}
	b.mu.Unlock()

	log.Info().Msg("Browser peer detached")
}

func (b *Bridge) readLoop(p *peer) {
	log := logger.WithComponent("bridge")

	p.conn.SetReadLimit(b.cfg.MaxMessageSize)
	if err := p.conn.SetReadDeadline(time.Now().Add(b.cfg.PongWait)); err != nil {
		log.Debug().Err(err).Msg("Read deadline failed")
	}
	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(b.cfg.PongWait))
	})

	for {
		var msg Message
		if err := p.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("Unexpected close")
			}
			return
		}
		if err := p.conn.SetReadDeadline(time.Now().Add(b.cfg.PongWait)); err != nil {
			log.Debug().Err(err).Msg("Read deadline failed")
		}
		b.handleMessage(msg)
	}
}

func (b *Bridge) pingLoop(p *peer) {
	log := logger.WithComponent("bridge")
	ticker := time.NewTicker(b.cfg.PongWait * 9 / 10)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := p.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(b.cfg.WriteWait)); err != nil {
				log.Debug().Err(err).Msg("Ping failed")
				p.close()
				return
			}
		case <-p.done:
			return
		}
	}
}

func (b *Bridge) handleMessage(msg Message) {
	log := logger.WithComponent("bridge")

	switch msg.Type {
	case TypeResult:
		b.mu.Lock()
		call, ok := b.pending[msg.ID]
		if ok {
			delete(b.pending, msg.ID)
		}
		b.mu.Unlock()

		if !ok {
			log.Debug().Str("id", msg.ID).Msg("Result for unknown request")
			return
		}
		call.ch <- reply{msg: msg}
	case string(models.EventAccountsChanged), string(models.EventNetworkChanged):
		select {
		case b.events <- msg:
		default:
			log.Warn().Str("type", msg.Type).Msg("Event backlog full, dropping event")
		}
	default:
		log.Debug().
			Str("type", msg.Type).
			Str("payload", string(msg.Payload)).
			Msg("Unknown message type")
	}
}

// dispatch delivers wallet events off the read loop so a slow subscriber
// never stalls request results.
func (b *Bridge) dispatch() {
	for {
		select {
		case msg := <-b.events:
			b.emit(msg)
		case <-b.stopCh:
			return
		}
	}
}

func (b *Bridge) emit(msg Message) {
	log := logger.WithComponent("bridge")

	b.mu.Lock()
	hub := b.hub
	b.mu.Unlock()

	if hub == nil {
		log.Debug().Str("type", msg.Type).Msg("Event without connected wallet")
		return
	}

	switch msg.Type {
	case string(models.EventAccountsChanged):
		var accounts []string
		if len(msg.Payload) > 0 {
			if err := json.Unmarshal(msg.Payload, &accounts); err != nil {
				log.Warn().Err(err).Str("payload", string(msg.Payload)).Msg("Event parse failed")
			}
		}
		hub.EmitAccountsChanged(accounts)
	case string(models.EventNetworkChanged):
		var network string
		if len(msg.Payload) > 0 {
			if err := json.Unmarshal(msg.Payload, &network); err != nil {
				log.Warn().Err(err).Str("payload", string(msg.Payload)).Msg("Event parse failed")
			}
		}
		hub.EmitNetworkChanged(network)
	}
}

func (b *Bridge) write(p *peer, msg Message) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	if err := p.conn.SetWriteDeadline(time.Now().Add(b.cfg.WriteWait)); err != nil {
		return err
	}
	return p.conn.WriteJSON(msg)
}

// call sends a request to the page and waits for its result.
func (b *Bridge) call(ctx context.Context, typ string, payload interface{}, out interface{}) error {
	start := time.Now()

	b.mu.Lock()
	p := b.peer
	b.mu.Unlock()
	if p == nil {
		telemetry.RecordBridgeRequest(typ, "no_peer", time.Since(start))
		return ErrNoPeer
	}

	msg := Message{ID: uuid.NewString(), Type: typ}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal %s payload: %w", typ, err)
		}
		msg.Payload = raw
	}

	ch := make(chan reply, 1)
	b.mu.Lock()
	b.pending[msg.ID] = pendingCall{peer: p, ch: ch}
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		delete(b.pending, msg.ID)
		b.mu.Unlock()
	}()

	if err := b.write(p, msg); err != nil {
		telemetry.RecordBridgeRequest(typ, "error", time.Since(start))
		return fmt.Errorf("failed to send %s: %w", typ, err)
	}

	ctx, cancel := context.WithTimeout(ctx, b.cfg.RequestTimeout)
	defer cancel()

	select {
	case r := <-ch:
		if r.err != nil {
			telemetry.RecordBridgeRequest(typ, "error", time.Since(start))
			return r.err
		}
		if r.msg.Error != "" {
			telemetry.RecordBridgeRequest(typ, "error", time.Since(start))
			return fmt.Errorf("%s: %s", typ, r.msg.Error)
		}
		telemetry.RecordBridgeRequest(typ, "success", time.Since(start))
		if out != nil && len(r.msg.Payload) > 0 {
			if err := json.Unmarshal(r.msg.Payload, out); err != nil {
				return fmt.Errorf("failed to decode %s result: %w", typ, err)
			}
		}
		return nil
	case <-ctx.Done():
		telemetry.RecordBridgeRequest(typ, "timeout", time.Since(start))
		return fmt.Errorf("%s: %w", typ, ctx.Err())
	}
}

// Close detaches the page and stops event delivery.
func (b *Bridge) Close() {
	b.closeOnce.Do(func() {
		close(b.stopCh)
	})

	b.mu.Lock()
	p := b.peer
	b.mu.Unlock()
	if p != nil {
		p.close()
	}
}

type connectResult struct {
	ID      string `json:"id"`
	Icon    string `json:"icon"`
	Account *struct {
		Address string `json:"address"`
	} `json:"account"`
	Provider *struct {
		NodeURL string `json:"nodeUrl"`
	} `json:"provider"`
}

// Connect asks the page to run the wallet connector. A null result means the
// user picked no wallet.
func (b *Bridge) Connect(ctx context.Context, opts models.ConnectOptions) (wallet.Provider, error) {
	var raw json.RawMessage
	if err := b.call(ctx, TypeConnect, opts, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var res connectResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("failed to decode connect result: %w", err)
	}
	return b.bindProvider(res), nil
}

// bindProvider returns a fresh handle snapshot for each connect. Handles of
// the same wallet id share one event hub, so subscriptions made through an
// earlier handle keep receiving the page's events.
func (b *Bridge) bindProvider(res connectResult) *Provider {
	b.mu.Lock()
	if b.hub == nil || b.hubID != res.ID {
		b.hub = &wallet.EventHub{}
		b.hubID = res.ID
	}
	hub := b.hub
	b.mu.Unlock()

	provider := &Provider{EventHub: hub, bridge: b, id: res.ID, icon: res.Icon}
	if res.Account != nil {
		provider.account = &Account{bridge: b, address: res.Account.Address}
	}
	if res.Provider != nil {
		provider.rpc = &RPC{bridge: b, nodeURL: res.Provider.NodeURL}
	}
	return provider
}

func (b *Bridge) Disconnect(ctx context.Context, opts models.DisconnectOptions) error {
	err := b.call(ctx, TypeDisconnect, opts, nil)
	if errors.Is(err, ErrNoPeer) {
		log := logger.WithComponent("bridge")
		log.Debug().Msg("Disconnect without browser peer")
		return nil
	}
	return err
}

// Notify forwards a host notification to the page without waiting for an answer.
func (b *Bridge) Notify(_ context.Context, channel, level, message string) error {
	b.mu.Lock()
	p := b.peer
	b.mu.Unlock()
	if p == nil {
		return ErrNoPeer
	}

	payload, err := json.Marshal(notify.Message{Channel: channel, Level: level, Message: message})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	return b.write(p, Message{Type: TypeNotification, Payload: payload})
}

var (
	_ wallet.Connector = (*Bridge)(nil)
	_ notify.Notifier  = (*Bridge)(nil)
)
