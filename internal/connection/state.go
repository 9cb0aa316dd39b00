package connection

import (
	"sync"

	"github.com/theblitlabs/starknet-env/internal/wallet"
)

// State is the shared (account, provider) pair read by contract interaction
// code. Wallet sessions and devnet accounts both write into the same slots.
type State struct {
	mu       sync.RWMutex
	account  wallet.Account
	provider wallet.RPCProvider
}

type Snapshot struct {
	Account  wallet.Account
	Provider wallet.RPCProvider
}

func NewState() *State {
	return &State{}
}

func (s *State) Account() wallet.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.account
}

func (s *State) Provider() wallet.RPCProvider {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.provider
}

// SetAccount replaces the account slot; nil clears it.
func (s *State) SetAccount(account wallet.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.account = account
}

// SetProvider replaces the provider slot; nil clears it.
func (s *State) SetProvider(provider wallet.RPCProvider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.provider = provider
}

// Update writes the non-nil arguments and leaves the other slot untouched.
func (s *State) Update(account wallet.Account, provider wallet.RPCProvider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if account != nil {
		s.account = account
	}
	if provider != nil {
		s.provider = provider
	}
}

func (s *State) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.account = nil
	s.provider = nil
}

func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Account: s.account, Provider: s.provider}
}
