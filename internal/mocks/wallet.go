package mocks

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"
	"github.com/theblitlabs/starknet-env/internal/models"
	"github.com/theblitlabs/starknet-env/internal/wallet"
)

type MockConnector struct {
	mock.Mock
}

func (m *MockConnector) Connect(ctx context.Context, opts models.ConnectOptions) (wallet.Provider, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(wallet.Provider), args.Error(1)
}

func (m *MockConnector) Disconnect(ctx context.Context, opts models.DisconnectOptions) error {
	args := m.Called(ctx, opts)
	return args.Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, channel, level, message string) error {
	args := m.Called(ctx, channel, level, message)
	return args.Error(0)
}

// FakeProvider is an in-memory wallet provider whose events are driven by tests.
type FakeProvider struct {
	wallet.EventHub

	WalletID   string
	WalletIcon string
	Acc        wallet.Account
	Rpc        wallet.RPCProvider
	EnableErr  error

	mu      sync.Mutex
	enabled []string
}

func (p *FakeProvider) ID() string   { return p.WalletID }
func (p *FakeProvider) Icon() string { return p.WalletIcon }

func (p *FakeProvider) Enable(_ context.Context, starknetVersion string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled = append(p.enabled, starknetVersion)
	return p.EnableErr
}

// EnableCalls returns the versions passed to Enable so far.
func (p *FakeProvider) EnableCalls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.enabled...)
}

func (p *FakeProvider) Account() wallet.Account {
	return p.Acc
}

func (p *FakeProvider) RPC() wallet.RPCProvider {
	return p.Rpc
}

type FakeAccount struct {
	Addr  string
	Chain string
	Err   error
}

func (a *FakeAccount) Address() string { return a.Addr }

func (a *FakeAccount) ChainID(context.Context) (string, error) {
	return a.Chain, a.Err
}

type FakeRPC struct {
	URL   string
	Chain string
}

func (r *FakeRPC) Endpoint() string { return r.URL }

func (r *FakeRPC) ChainID(context.Context) (string, error) {
	return r.Chain, nil
}
