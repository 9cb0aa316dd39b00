package wallet

import (
	"context"

	"github.com/ethereum/go-ethereum/event"
	"github.com/theblitlabs/starknet-env/internal/models"
)

// Connector is the wallet connector library (get-starknet on the browser side).
type Connector interface {
	// Connect returns a nil Provider and a nil error when the user picked no wallet.
	Connect(ctx context.Context, opts models.ConnectOptions) (Provider, error)
	Disconnect(ctx context.Context, opts models.DisconnectOptions) error
}

// Provider is a connected wallet capability provider.
type Provider interface {
	ID() string
	Icon() string
	Enable(ctx context.Context, starknetVersion string) error
	SubscribeAccountsChanged(ch chan<- []string) event.Subscription
	SubscribeNetworkChanged(ch chan<- string) event.Subscription
	// Account and RPC may return nil when the wallet has not exposed them yet.
	Account() Account
	RPC() RPCProvider
}

type Account interface {
	Address() string
	ChainID(ctx context.Context) (string, error)
}

type RPCProvider interface {
	Endpoint() string
	ChainID(ctx context.Context) (string, error)
}
