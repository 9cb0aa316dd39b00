package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/theblitlabs/starknet-env/internal/connection"
	"github.com/theblitlabs/starknet-env/internal/models"
	"github.com/theblitlabs/starknet-env/internal/notify"
	"github.com/theblitlabs/starknet-env/internal/telemetry"
	"github.com/theblitlabs/starknet-env/internal/wallet"
	"github.com/theblitlabs/starknet-env/pkg/logger"
)

var (
	ErrConnection   = errors.New("failed to connect to wallet")
	ErrStaleConnect = errors.New("connect superseded by disconnect")
	errClosed       = errors.New("provider no longer accepts subscriptions")
)

const notifyTimeout = 5 * time.Second

// Session is a snapshot of the active wallet session.
type Session struct {
	Provider    wallet.Provider
	Generation  uint64
	ConnectedAt time.Time
}

// MirrorGuard runs apply only when wallet handles may be written to the
// connection state. It must not call back into the controller.
type MirrorGuard func(apply func())

type Config struct {
	StarknetVersion string
	ResyncTimeout   time.Duration
}

// binding ties one session to its two event subscriptions and relay goroutine.
type binding struct {
	session     Session
	accountsCh  chan []string
	networkCh   chan string
	accountsSub event.Subscription
	networkSub  event.Subscription
	quit        chan struct{}
}

// Controller owns the wallet session lifecycle. Wallet handles are mirrored
// into the connection state only while the mirror policy allows it.
type Controller struct {
	connector wallet.Connector
	notifier  notify.Notifier
	state     *connection.State
	cfg       Config

	mu         sync.Mutex
	mirror     MirrorGuard
	current    *binding
	generation uint64
	// epoch advances on every disconnect; connects started in an older epoch are discarded.
	epoch uint64
}

func NewController(connector wallet.Connector, notifier notify.Notifier, state *connection.State, cfg Config) *Controller {
	if cfg.StarknetVersion == "" {
		cfg.StarknetVersion = models.DefaultStarknetVersion
	}
	if cfg.ResyncTimeout == 0 {
		cfg.ResyncTimeout = 30 * time.Second
	}
	return &Controller{
		connector: connector,
		notifier:  notifier,
		state:     state,
		cfg:       cfg,
	}
}

// SetMirrorPolicy installs the guard consulted before writing wallet handles
// into the connection state. It is called with the controller lock held.
func (c *Controller) SetMirrorPolicy(guard MirrorGuard) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mirror = guard
}

// mirrorLocked applies a state write through the mirror guard. Must hold c.mu.
func (c *Controller) mirrorLocked(apply func()) {
	if c.mirror == nil {
		apply()
		return
	}
	c.mirror(apply)
}

// Current returns the active session or nil.
func (c *Controller) Current() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil
	}
	s := c.current.session
	return &s
}

func (c *Controller) Connect(ctx context.Context, opts models.ConnectOptions) error {
	log := logger.WithComponent("session")
	opts = opts.WithDefaults()

	c.mu.Lock()
	epoch := c.epoch
	c.mu.Unlock()

	log.Debug().
		Str("modal_mode", string(opts.ModalMode)).
		Str("modal_theme", string(opts.ModalTheme)).
		Msg("Connecting")

	provider, err := c.connector.Connect(ctx, opts)
	switch {
	case err != nil:
		return c.fail(ctx, opts, fmt.Errorf("%w: %v", ErrConnection, err))
	case provider == nil:
		return c.fail(ctx, opts, ErrConnection)
	}

	if err := provider.Enable(ctx, c.cfg.StarknetVersion); err != nil {
		return c.fail(ctx, opts, fmt.Errorf("%w: %v", ErrConnection, err))
	}

	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		telemetry.RecordWalletConnect(string(opts.ModalMode), "stale")
		log.Warn().Str("wallet", provider.ID()).Msg("Discarding connect superseded by disconnect")
		return ErrStaleConnect
	}

	c.dropLocked()
	c.generation++
	b, err := bind(provider, c.generation)
	if err != nil {
		c.current = nil
		c.mirrorLocked(c.state.Clear)
		c.mu.Unlock()
		telemetry.SetWalletSessionActive(false)
		return c.fail(ctx, opts, fmt.Errorf("%w: %v", ErrConnection, err))
	}
	c.current = b
	c.mirrorLocked(func() {
		c.state.Update(provider.Account(), provider.RPC())
	})
	c.mu.Unlock()

	go c.relay(b)

	telemetry.RecordWalletConnect(string(opts.ModalMode), "success")
	telemetry.SetWalletSessionActive(true)

	ev := log.Info().
		Str("wallet", provider.ID()).
		Uint64("generation", b.session.Generation)
	if account := provider.Account(); account != nil {
		ev = ev.Str("address", account.Address())
	}
	ev.Msg("Wallet connected")
	return nil
}

// Disconnect is idempotent: it always leaves no session and an empty
// connection state, even when nothing was connected.
func (c *Controller) Disconnect(ctx context.Context, opts models.DisconnectOptions) error {
	log := logger.WithComponent("session")

	c.mu.Lock()
	c.epoch++
	wasConnected := c.current != nil
	c.dropLocked()
	c.current = nil
	c.state.Clear()
	c.mu.Unlock()

	telemetry.RecordWalletDisconnect()
	telemetry.SetWalletSessionActive(false)

	if err := c.connector.Disconnect(ctx, opts); err != nil {
		log.Warn().Err(err).Msg("Wallet disconnect failed")
		return fmt.Errorf("wallet disconnect failed: %w", err)
	}

	log.Info().
		Bool("was_connected", wasConnected).
		Bool("clear_last_wallet", opts.ClearLastWallet).
		Msg("Wallet disconnected")
	return nil
}

// Reconnect forgets the last wallet and asks the user to pick one again.
func (c *Controller) Reconnect(ctx context.Context) error {
	if err := c.Disconnect(ctx, models.DefaultDisconnectOptions()); err != nil {
		log := logger.WithComponent("session")
		log.Warn().Err(err).Msg("Continuing reconnect after disconnect error")
	}
	return c.Connect(ctx, models.ReconnectOptions())
}

// Close drops the active session's subscriptions without talking to the wallet.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dropLocked()
	c.current = nil
}

func (c *Controller) fail(ctx context.Context, opts models.ConnectOptions, err error) error {
	log := logger.WithComponent("session")
	log.Error().Err(err).Str("modal_mode", string(opts.ModalMode)).Msg("Wallet connection failed")
	telemetry.RecordWalletConnect(string(opts.ModalMode), "error")

	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if nerr := c.notifier.Notify(nctx, notify.ChannelNotification, notify.LevelError, err.Error()); nerr != nil {
		log.Warn().Err(nerr).Msg("Host notification failed")
	}
	return err
}

func bind(provider wallet.Provider, generation uint64) (*binding, error) {
	b := &binding{
		session: Session{
			Provider:    provider,
			Generation:  generation,
			ConnectedAt: time.Now(),
		},
		accountsCh: make(chan []string, 1),
		networkCh:  make(chan string, 1),
		quit:       make(chan struct{}),
	}

	b.accountsSub = provider.SubscribeAccountsChanged(b.accountsCh)
	if b.accountsSub == nil {
		return nil, errClosed
	}
	b.networkSub = provider.SubscribeNetworkChanged(b.networkCh)
	if b.networkSub == nil {
		b.accountsSub.Unsubscribe()
		return nil, errClosed
	}
	return b, nil
}

// dropLocked removes the current subscriptions. Must hold c.mu.
func (c *Controller) dropLocked() {
	if c.current == nil {
		return
	}
	c.current.accountsSub.Unsubscribe()
	c.current.networkSub.Unsubscribe()
	close(c.current.quit)
}

func (c *Controller) isCurrent(generation uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != nil && c.current.session.Generation == generation
}

func (c *Controller) relay(b *binding) {
	log := logger.WithComponent("session")
	generation := b.session.Generation

	for {
		select {
		case accounts := <-b.accountsCh:
			log.Info().Strs("accounts", accounts).Uint64("generation", generation).Msg("Accounts changed")
			c.resync(generation, models.EventAccountsChanged)
			if c.handoff(b) {
				return
			}
		case network := <-b.networkCh:
			log.Info().Str("network", network).Uint64("generation", generation).Msg("Network changed")
			c.resync(generation, models.EventNetworkChanged)
			if c.handoff(b) {
				return
			}
		case <-b.quit:
			return
		case <-b.accountsSub.Err():
			return
		case <-b.networkSub.Err():
			return
		}
	}
}

// handoff reports whether b was superseded. An event that reached b while its
// resync was in flight is replayed once against the session that replaced it.
func (c *Controller) handoff(b *binding) bool {
	if c.isCurrent(b.session.Generation) {
		return false
	}

	var ev models.WalletEvent
	select {
	case <-b.accountsCh:
		ev = models.EventAccountsChanged
	case <-b.networkCh:
		ev = models.EventNetworkChanged
	default:
		return true
	}

	c.mu.Lock()
	var generation uint64
	if c.current != nil {
		generation = c.current.session.Generation
	}
	c.mu.Unlock()
	if generation == 0 {
		return true
	}

	log := logger.WithComponent("session")
	log.Info().
		Str("event", string(ev)).
		Uint64("from_generation", b.session.Generation).
		Uint64("generation", generation).
		Msg("Replaying event received during resync")
	c.resync(generation, ev)
	return true
}

// resync runs a silent connect for the session the event was delivered to.
// Events for a superseded generation are ignored.
func (c *Controller) resync(generation uint64, ev models.WalletEvent) {
	log := logger.WithComponent("session")
	if !c.isCurrent(generation) {
		log.Debug().Uint64("generation", generation).Str("event", string(ev)).Msg("Ignoring event for stale session")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.ResyncTimeout)
	defer cancel()

	if err := c.Connect(ctx, models.SilentConnectOptions()); err != nil {
		telemetry.RecordWalletResync(string(ev), "error")
		log.Warn().Err(err).Str("event", string(ev)).Msg("Silent reconnect failed")
		return
	}
	telemetry.RecordWalletResync(string(ev), "success")
}
