package bridge

import (
	"context"

	"github.com/theblitlabs/starknet-env/internal/wallet"
)

// Provider is the page's wallet object as one connect saw it. Its handles
// never change; a later connect yields a new Provider.
type Provider struct {
	*wallet.EventHub

	bridge  *Bridge
	id      string
	icon    string
	account *Account
	rpc     *RPC
}

func (p *Provider) ID() string {
	return p.id
}

func (p *Provider) Icon() string {
	return p.icon
}

func (p *Provider) Enable(ctx context.Context, starknetVersion string) error {
	return p.bridge.call(ctx, TypeEnable, map[string]string{"starknetVersion": starknetVersion}, nil)
}

func (p *Provider) Account() wallet.Account {
	if p.account == nil {
		return nil
	}
	return p.account
}

func (p *Provider) RPC() wallet.RPCProvider {
	if p.rpc == nil {
		return nil
	}
	return p.rpc
}

type Account struct {
	bridge  *Bridge
	address string
}

func (a *Account) Address() string {
	return a.address
}

func (a *Account) ChainID(ctx context.Context) (string, error) {
	return a.bridge.chainID(ctx)
}

// RPC is the node the wallet is pointed at.
type RPC struct {
	bridge  *Bridge
	nodeURL string
}

func (r *RPC) Endpoint() string {
	return r.nodeURL
}

func (r *RPC) ChainID(ctx context.Context) (string, error) {
	return r.bridge.chainID(ctx)
}

func (b *Bridge) chainID(ctx context.Context) (string, error) {
	var chainID string
	if err := b.call(ctx, TypeGetChainID, nil, &chainID); err != nil {
		return "", err
	}
	return chainID, nil
}

var _ wallet.Provider = (*Provider)(nil)
