package devnet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/theblitlabs/starknet-env/internal/models"
	"github.com/theblitlabs/starknet-env/internal/wallet"
	"github.com/theblitlabs/starknet-env/pkg/logger"
)

var ErrNotAlive = errors.New("devnet is not reachable")

// Client talks to a starknet-devnet instance: its REST helpers for the
// predeployed accounts and its JSON-RPC endpoint for chain queries.
type Client struct {
	devnet models.Devnet
	http   *http.Client
	node   *Node
}

func NewClient(devnet models.Devnet, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	httpClient := &http.Client{Timeout: timeout}
	c := &Client{
		devnet: devnet,
		http:   httpClient,
	}
	c.node = NewNode(c.Endpoint(), httpClient)
	return c
}

func (c *Client) Devnet() models.Devnet {
	return c.devnet
}

func (c *Client) baseURL() string {
	return strings.TrimRight(c.devnet.URL, "/")
}

// Endpoint is the JSON-RPC URL of the devnet.
func (c *Client) Endpoint() string {
	return c.baseURL() + "/rpc"
}

// IsAlive checks the devnet health endpoint.
func (c *Client) IsAlive(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL()+"/is_alive", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotAlive, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrNotAlive, resp.StatusCode)
	}
	return nil
}

// PredeployedAccounts fetches the pre-funded accounts the devnet was started with.
func (c *Client) PredeployedAccounts(ctx context.Context) ([]models.DevnetAccount, error) {
	log := logger.WithComponent("devnet")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL()+"/predeployed_accounts", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch predeployed accounts: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to fetch predeployed accounts: status %d: %s", resp.StatusCode, string(body))
	}

	var accounts []models.DevnetAccount
	if err := json.NewDecoder(resp.Body).Decode(&accounts); err != nil {
		return nil, fmt.Errorf("failed to decode predeployed accounts: %w", err)
	}

	log.Debug().
		Str("devnet", c.devnet.Name).
		Int("count", len(accounts)).
		Msg("Predeployed accounts fetched")
	return accounts, nil
}

// ChainID calls starknet_chainId on the devnet.
func (c *Client) ChainID(ctx context.Context) (string, error) {
	return c.node.ChainID(ctx)
}

func (c *Client) Close() {
	c.node.Close()
}

// Account binds a devnet account to this devnet for chain queries.
func (c *Client) Account(account models.DevnetAccount) *Account {
	return &Account{account: account, client: c}
}

// Account is a predeployed devnet account usable as the active account.
type Account struct {
	account models.DevnetAccount
	client  *Client
}

func (a *Account) Address() string {
	return a.account.Address
}

func (a *Account) ChainID(ctx context.Context) (string, error) {
	return a.client.ChainID(ctx)
}

func (a *Account) Details() models.DevnetAccount {
	return a.account
}

var (
	_ wallet.RPCProvider = (*Client)(nil)
	_ wallet.Account     = (*Account)(nil)
)
