package devnet

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/theblitlabs/starknet-env/internal/wallet"
)

// Node is a Starknet JSON-RPC endpoint. The RPC client is dialed lazily.
type Node struct {
	endpoint string
	http     *http.Client

	mu  sync.Mutex
	rpc *rpc.Client
}

func NewNode(endpoint string, httpClient *http.Client) *Node {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Node{endpoint: endpoint, http: httpClient}
}

func (n *Node) Endpoint() string {
	return n.endpoint
}

func (n *Node) ChainID(ctx context.Context) (string, error) {
	client, err := n.client(ctx)
	if err != nil {
		return "", err
	}

	var chainID string
	if err := client.CallContext(ctx, &chainID, "starknet_chainId"); err != nil {
		return "", fmt.Errorf("starknet_chainId failed: %w", err)
	}
	return chainID, nil
}

func (n *Node) client(ctx context.Context) (*rpc.Client, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.rpc != nil {
		return n.rpc, nil
	}

	client, err := rpc.DialOptions(ctx, n.endpoint, rpc.WithHTTPClient(n.http))
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", n.endpoint, err)
	}
	n.rpc = client
	return client, nil
}

func (n *Node) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.rpc != nil {
		n.rpc.Close()
		n.rpc = nil
	}
}

// ManualAccount is an account the user typed in, served by an arbitrary node.
type ManualAccount struct {
	address string
	node    *Node
}

func NewManualAccount(address string, node *Node) *ManualAccount {
	return &ManualAccount{address: address, node: node}
}

func (a *ManualAccount) Address() string {
	return a.address
}

func (a *ManualAccount) ChainID(ctx context.Context) (string, error) {
	return a.node.ChainID(ctx)
}

var (
	_ wallet.RPCProvider = (*Node)(nil)
	_ wallet.Account     = (*ManualAccount)(nil)
)
