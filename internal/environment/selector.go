package environment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/theblitlabs/starknet-env/internal/connection"
	"github.com/theblitlabs/starknet-env/internal/devnet"
	"github.com/theblitlabs/starknet-env/internal/models"
	"github.com/theblitlabs/starknet-env/pkg/logger"
)

var (
	ErrInvalidMode     = errors.New("invalid environment mode")
	ErrDevnetNotFound  = errors.New("devnet not found")
	ErrAccountNotFound = errors.New("devnet account not found")
	ErrInvalidAddress  = errors.New("invalid account address")
	ErrNoRPCEndpoint   = errors.New("no rpc endpoint for manual account")
	ErrDevnetOffline   = errors.New("devnet accounts unavailable")
)

// Selector tracks the environment mode and the devnet account choice. It
// writes devnet and manual accounts into the connection state, and only
// while the matching mode is active.
type Selector struct {
	state   *connection.State
	timeout time.Duration

	mu           sync.RWMutex
	mode         models.EnvMode
	devnets      []models.Devnet
	clients      map[string]*devnet.Client
	selected     string
	accounts     []models.DevnetAccount
	accountIndex int
	manual       *devnet.ManualAccount
	manualNode   *devnet.Node
}

func NewSelector(state *connection.State, devnets []models.Devnet, mode models.EnvMode, timeout time.Duration) *Selector {
	if !mode.Valid() {
		mode = models.EnvModeDevnet
	}
	clients := make(map[string]*devnet.Client, len(devnets))
	for _, d := range devnets {
		clients[d.Name] = devnet.NewClient(d, timeout)
	}
	return &Selector{
		state:        state,
		timeout:      timeout,
		mode:         mode,
		devnets:      append([]models.Devnet(nil), devnets...),
		clients:      clients,
		accountIndex: -1,
	}
}

func (s *Selector) Mode() models.EnvMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// WhileMode runs fn if the selector is in mode, holding the mode steady
// until fn returns.
func (s *Selector) WhileMode(mode models.EnvMode, fn func()) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.mode != mode {
		return false
	}
	fn()
	return true
}

// SetMode switches the account source. Entering devnet or manual mode
// replaces whatever the connection state held with that mode's selection.
func (s *Selector) SetMode(mode models.EnvMode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.mode
	s.mode = mode
	s.applyLocked()

	log := logger.WithComponent("environment")
	log.Info().
		Str("from", string(prev)).
		Str("to", string(mode)).
		Msg("Environment mode changed")
	return nil
}

func (s *Selector) Devnets() []models.Devnet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Devnet(nil), s.devnets...)
}

// Selected returns the selected devnet name, its loaded accounts and the
// selected account index (-1 when none).
func (s *Selector) Selected() (string, []models.DevnetAccount, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected, append([]models.DevnetAccount(nil), s.accounts...), s.accountIndex
}

func (s *Selector) Client(name string) (*devnet.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	client, ok := s.clients[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrDevnetNotFound, name)
	}
	return client, nil
}

// Accounts lists the accounts of a devnet without selecting it.
func (s *Selector) Accounts(ctx context.Context, name string) ([]models.DevnetAccount, error) {
	s.mu.RLock()
	if name == s.selected && len(s.accounts) > 0 {
		accounts := append([]models.DevnetAccount(nil), s.accounts...)
		s.mu.RUnlock()
		return accounts, nil
	}
	s.mu.RUnlock()

	client, err := s.Client(name)
	if err != nil {
		return nil, err
	}
	return loadAccounts(ctx, client)
}

// SelectDevnet makes name the active devnet and loads its accounts. The
// first account becomes the selected one when the devnet has any.
func (s *Selector) SelectDevnet(ctx context.Context, name string) error {
	client, err := s.Client(name)
	if err != nil {
		return err
	}

	accounts, err := loadAccounts(ctx, client)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.selected = name
	s.accounts = accounts
	s.accountIndex = -1
	if len(accounts) > 0 {
		s.accountIndex = 0
	}
	s.applyLocked()

	log := logger.WithComponent("environment")
	log.Info().
		Str("devnet", name).
		Int("accounts", len(accounts)).
		Msg("Devnet selected")
	return nil
}

// SelectDevnetAccount picks the index-th account of the named devnet,
// selecting the devnet first when it is not the active one.
func (s *Selector) SelectDevnetAccount(ctx context.Context, name string, index int) error {
	s.mu.RLock()
	needsLoad := name != s.selected
	s.mu.RUnlock()

	if needsLoad {
		if err := s.SelectDevnet(ctx, name); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if name != s.selected {
		return fmt.Errorf("%w: devnet %q is no longer selected", ErrAccountNotFound, name)
	}
	if index < 0 || index >= len(s.accounts) {
		return fmt.Errorf("%w: index %d of %d", ErrAccountNotFound, index, len(s.accounts))
	}

	s.accountIndex = index
	s.applyLocked()

	log := logger.WithComponent("environment")
	log.Info().
		Str("devnet", name).
		Int("index", index).
		Str("address", s.accounts[index].Address).
		Msg("Devnet account selected")
	return nil
}

// UseManualAccount sets the account used in manual mode. An empty rpcURL
// falls back to the selected devnet's endpoint.
func (s *Selector) UseManualAccount(address, rpcURL string) error {
	address = strings.TrimSpace(address)
	if !strings.HasPrefix(address, "0x") || len(address) < 3 {
		return fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if rpcURL == "" {
		client, ok := s.clients[s.selected]
		if !ok {
			return ErrNoRPCEndpoint
		}
		rpcURL = client.Endpoint()
	}

	if s.manualNode != nil {
		s.manualNode.Close()
	}
	s.manualNode = devnet.NewNode(rpcURL, &http.Client{Timeout: s.timeout})
	s.manual = devnet.NewManualAccount(address, s.manualNode)
	s.applyLocked()

	log := logger.WithComponent("environment")
	log.Info().
		Str("address", address).
		Str("rpc_url", rpcURL).
		Msg("Manual account set")
	return nil
}

// Close releases the RPC clients held by the selector.
func (s *Selector) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, client := range s.clients {
		client.Close()
	}
	if s.manualNode != nil {
		s.manualNode.Close()
	}
}

// applyLocked writes the current mode's selection into the connection
// state. Wallet mode is left to the session controller. Must hold s.mu.
func (s *Selector) applyLocked() {
	switch s.mode {
	case models.EnvModeDevnet:
		client, ok := s.clients[s.selected]
		if !ok {
			s.state.Clear()
			return
		}
		s.state.SetProvider(client)
		if s.accountIndex < 0 || s.accountIndex >= len(s.accounts) {
			s.state.SetAccount(nil)
			return
		}
		s.state.SetAccount(client.Account(s.accounts[s.accountIndex]))
	case models.EnvModeManual:
		if s.manual == nil {
			s.state.Clear()
			return
		}
		s.state.SetAccount(s.manual)
		s.state.SetProvider(s.manualNode)
	}
}

func loadAccounts(ctx context.Context, client *devnet.Client) ([]models.DevnetAccount, error) {
	log := logger.WithComponent("environment")
	configured := client.Devnet().Accounts

	accounts, err := client.PredeployedAccounts(ctx)
	if err != nil {
		if len(configured) == 0 {
			return nil, fmt.Errorf("%w: %s: %v", ErrDevnetOffline, client.Devnet().Name, err)
		}
		log.Warn().Err(err).
			Str("devnet", client.Devnet().Name).
			Int("configured", len(configured)).
			Msg("Using configured accounts")
		return append([]models.DevnetAccount(nil), configured...), nil
	}
	return accounts, nil
}
