package devnet_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/theblitlabs/starknet-env/internal/devnet"
	"github.com/theblitlabs/starknet-env/internal/models"
)

const goerliChainID = "0x534e5f474f45524c49"

var predeployed = []models.DevnetAccount{
	{
		Address:        "0x7e00d496e324876bbc8531f2d9a82bf154d1a04a50218ee74cdd372f75a551a",
		PublicKey:      "0x7e52885445756b313ea16849145363ccb73fb4ab0440dbac333cf9d13de82b9",
		PrivateKey:     "0xe3e70682c2094cac629f6fbed82c07cd",
		InitialBalance: "1000000000000000000000",
	},
	{
		Address:        "0x69b49c2cc8b16e80e86bfc5b0614a59aa8c9b601569c7b80dde04d3f3151b79",
		PublicKey:      "0x175666e92f540a19eb24fa299ce04c23f3b75cb2d2332e3ff2021bf6d615fa5",
		PrivateKey:     "0xf728b4fa42485e3a0a5d2f346baa9455",
		InitialBalance: "1000000000000000000000",
	},
}

// newDevnetServer fakes the starknet-devnet REST helpers and its JSON-RPC endpoint.
func newDevnetServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/is_alive", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Alive!!!"))
	})
	mux.HandleFunc("/predeployed_accounts", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		assert.NoError(t, json.NewEncoder(w).Encode(predeployed))
	})
	mux.HandleFunc("/rpc", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
		}
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			return
		}
		assert.Equal(t, "starknet_chainId", req.Method)

		w.Header().Set("Content-Type", "application/json")
		assert.NoError(t, json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  goerliChainID,
		}))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestClient(t *testing.T) {
	ctx := context.Background()

	t.Run("predeployed accounts", func(t *testing.T) {
		server := newDevnetServer(t)
		client := devnet.NewClient(models.Devnet{Name: "Local Devnet", URL: server.URL + "/"}, time.Second)
		defer client.Close()

		accounts, err := client.PredeployedAccounts(ctx)
		require.NoError(t, err)
		assert.Equal(t, predeployed, accounts)
	})

	t.Run("is alive", func(t *testing.T) {
		server := newDevnetServer(t)
		client := devnet.NewClient(models.Devnet{Name: "Local Devnet", URL: server.URL}, time.Second)
		assert.NoError(t, client.IsAlive(ctx))
	})

	t.Run("unreachable devnet", func(t *testing.T) {
		server := newDevnetServer(t)
		url := server.URL
		server.Close()

		client := devnet.NewClient(models.Devnet{Name: "Gone", URL: url}, time.Second)
		assert.ErrorIs(t, client.IsAlive(ctx), devnet.ErrNotAlive)

		_, err := client.PredeployedAccounts(ctx)
		assert.Error(t, err)
	})

	t.Run("chain id over json rpc", func(t *testing.T) {
		server := newDevnetServer(t)
		client := devnet.NewClient(models.Devnet{Name: "Local Devnet", URL: server.URL}, time.Second)
		defer client.Close()

		assert.Equal(t, server.URL+"/rpc", client.Endpoint())

		chainID, err := client.ChainID(ctx)
		require.NoError(t, err)
		assert.Equal(t, goerliChainID, chainID)

		account := client.Account(predeployed[0])
		assert.Equal(t, predeployed[0].Address, account.Address())
		chainID, err = account.ChainID(ctx)
		require.NoError(t, err)
		assert.Equal(t, goerliChainID, chainID)
	})

	t.Run("manual account uses its own node", func(t *testing.T) {
		server := newDevnetServer(t)
		node := devnet.NewNode(server.URL+"/rpc", nil)
		defer node.Close()

		account := devnet.NewManualAccount("0xabc", node)
		chainID, err := account.ChainID(ctx)
		require.NoError(t, err)
		assert.Equal(t, goerliChainID, chainID)
		assert.Equal(t, "0xabc", account.Address())
	})
}
