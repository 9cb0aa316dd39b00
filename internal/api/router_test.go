package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/theblitlabs/starknet-env/internal/api"
	"github.com/theblitlabs/starknet-env/internal/api/handlers"
	"github.com/theblitlabs/starknet-env/internal/bridge"
	"github.com/theblitlabs/starknet-env/internal/connection"
	"github.com/theblitlabs/starknet-env/internal/environment"
	"github.com/theblitlabs/starknet-env/internal/explorer"
	"github.com/theblitlabs/starknet-env/internal/mocks"
	"github.com/theblitlabs/starknet-env/internal/models"
	"github.com/theblitlabs/starknet-env/internal/notify"
	"github.com/theblitlabs/starknet-env/internal/session"
)

const accountAddress = "0x7e00d496e324876bbc8531f2d9a82bf154d1a04a50218ee74cdd372f75a551a"

func newDevnetServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/predeployed_accounts", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]models.DevnetAccount{
			{Address: accountAddress, InitialBalance: "1000000000000000000000"},
		})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

type fixture struct {
	router    *api.Router
	connector *mocks.MockConnector
	notifier  *mocks.MockNotifier
	env       *environment.Environment
}

func newFixture(t *testing.T, bridgeHandler http.Handler) *fixture {
	t.Helper()
	devnetServer := newDevnetServer(t)

	f := &fixture{
		connector: &mocks.MockConnector{},
		notifier:  &mocks.MockNotifier{},
	}
	state := connection.NewState()
	selector := environment.NewSelector(state, []models.Devnet{{Name: "local", URL: devnetServer.URL}}, models.EnvModeWallet, time.Second)
	ctrl := session.NewController(f.connector, f.notifier, state, session.Config{ResyncTimeout: time.Second})
	f.env = environment.New(state, selector, ctrl)
	t.Cleanup(f.env.Close)

	f.router = api.NewRouter(handlers.NewEnvironmentHandler(f.env), bridgeHandler, nil, "/api", "/wallet/bridge")
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func decodeView(t *testing.T, rr *httptest.ResponseRecorder) models.EnvironmentView {
	t.Helper()
	var view models.EnvironmentView
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&view))
	return view
}

func walletProvider() *mocks.FakeProvider {
	return &mocks.FakeProvider{
		WalletID: "braavos",
		Acc:      &mocks.FakeAccount{Addr: "0x0123456789abcdef0123456789abcdef", Chain: explorer.GoerliChainID},
		Rpc:      &mocks.FakeRPC{URL: "https://alpha4.starknet.io"},
	}
}

func TestHealth(t *testing.T) {
	f := newFixture(t, nil)
	rr := f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestEnvironmentRoutes(t *testing.T) {
	t.Run("mode switch", func(t *testing.T) {
		f := newFixture(t, nil)

		rr := f.do(t, http.MethodPut, "/api/environment/mode", `{"mode":"devnet"}`)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, models.EnvModeDevnet, decodeView(t, rr).Mode)

		rr = f.do(t, http.MethodPut, "/api/environment/mode", `{"mode":"mainnet"}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)

		rr = f.do(t, http.MethodPut, "/api/environment/mode", `not json`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("devnet account selection", func(t *testing.T) {
		f := newFixture(t, nil)
		require.Equal(t, http.StatusOK, f.do(t, http.MethodPut, "/api/environment/mode", `{"mode":"devnet"}`).Code)

		rr := f.do(t, http.MethodGet, "/api/devnets", "")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"name":"local"`)

		rr = f.do(t, http.MethodGet, "/api/devnets/local/accounts", "")
		require.Equal(t, http.StatusOK, rr.Code)
		var accounts []handlers.AccountResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&accounts))
		require.Len(t, accounts, 1)
		assert.Equal(t, "0x7e00...5a551a", accounts[0].AddressShort)
		assert.Equal(t, "1000", accounts[0].Balance)

		rr = f.do(t, http.MethodPost, "/api/devnets/local/accounts/0/select", "")
		require.Equal(t, http.StatusOK, rr.Code)
		view := decodeView(t, rr)
		assert.Equal(t, accountAddress, view.Account)
		assert.Equal(t, "local", view.Devnet)

		rr = f.do(t, http.MethodPost, "/api/devnets/local/accounts/3/select", "")
		assert.Equal(t, http.StatusNotFound, rr.Code)

		rr = f.do(t, http.MethodPost, "/api/devnets/mainnet/select", "")
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("manual account", func(t *testing.T) {
		f := newFixture(t, nil)
		require.Equal(t, http.StatusOK, f.do(t, http.MethodPut, "/api/environment/mode", `{"mode":"manual"}`).Code)

		rr := f.do(t, http.MethodPost, "/api/manual-account", `{"address":"0xabc","rpc_url":"http://localhost:5050/rpc"}`)
		require.Equal(t, http.StatusOK, rr.Code)
		view := decodeView(t, rr)
		assert.Equal(t, "0xabc", view.Account)
		assert.Equal(t, "http://localhost:5050/rpc", view.ProviderEndpoint)

		rr = f.do(t, http.MethodPost, "/api/manual-account", `{"address":"abc"}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestWalletRoutes(t *testing.T) {
	t.Run("connect and explorer link", func(t *testing.T) {
		f := newFixture(t, nil)
		f.connector.On("Connect", mock.Anything, models.ConnectOptions{ModalMode: models.ModalModeAlwaysAsk, ModalTheme: models.ModalThemeLight}).
			Return(walletProvider(), nil)

		rr := f.do(t, http.MethodPost, "/api/wallet/connect", `{"modal_theme":"light"}`)
		require.Equal(t, http.StatusOK, rr.Code)
		view := decodeView(t, rr)
		require.NotNil(t, view.Wallet)
		assert.Equal(t, "braavos", view.Wallet.ID)
		assert.Equal(t, "0x0123...abcdef", view.AccountShort)

		rr = f.do(t, http.MethodGet, "/api/wallet/explorer-link", "")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"url":"https://goerli.voyager.online/contract/0x0123456789abcdef0123456789abcdef"}`, rr.Body.String())
	})

	t.Run("explorer link without wallet", func(t *testing.T) {
		f := newFixture(t, nil)
		rr := f.do(t, http.MethodGet, "/api/wallet/explorer-link", "")
		assert.JSONEq(t, `{"url":"https://voyager.online"}`, rr.Body.String())
	})

	t.Run("connect failure answers bad gateway", func(t *testing.T) {
		f := newFixture(t, nil)
		f.connector.On("Connect", mock.Anything, mock.Anything).Return(nil, nil)
		f.notifier.On("Notify", mock.Anything, notify.ChannelNotification, notify.LevelError, session.ErrConnection.Error()).Return(nil).Once()

		rr := f.do(t, http.MethodPost, "/api/wallet/connect", "")
		assert.Equal(t, http.StatusBadGateway, rr.Code)
		assert.Contains(t, rr.Body.String(), "failed to connect to wallet")
		f.notifier.AssertExpectations(t)
	})

	t.Run("disconnect honours clear_last_wallet", func(t *testing.T) {
		f := newFixture(t, nil)
		f.connector.On("Disconnect", mock.Anything, models.DisconnectOptions{ClearLastWallet: false}).Return(nil).Once()
		f.connector.On("Disconnect", mock.Anything, models.DisconnectOptions{ClearLastWallet: true}).Return(nil).Once()

		assert.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/wallet/disconnect", `{"clear_last_wallet":false}`).Code)
		assert.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/wallet/disconnect", "").Code)
		f.connector.AssertExpectations(t)
	})

	t.Run("disconnect error", func(t *testing.T) {
		f := newFixture(t, nil)
		f.connector.On("Disconnect", mock.Anything, mock.Anything).Return(errors.New("page closed"))

		rr := f.do(t, http.MethodPost, "/api/wallet/disconnect", "")
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})

	t.Run("reconnect", func(t *testing.T) {
		f := newFixture(t, nil)
		f.connector.On("Disconnect", mock.Anything, models.DefaultDisconnectOptions()).Return(nil)
		f.connector.On("Connect", mock.Anything, models.ReconnectOptions()).Return(walletProvider(), nil)

		rr := f.do(t, http.MethodPost, "/api/wallet/reconnect", "")
		require.Equal(t, http.StatusOK, rr.Code)
		f.connector.AssertExpectations(t)
	})
}

func TestBridgeThroughRouter(t *testing.T) {
	b := bridge.New(bridge.Config{RequestTimeout: time.Second})
	defer b.Close()

	f := newFixture(t, b)
	server := httptest.NewServer(f.router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/wallet/bridge"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	assert.Eventually(t, b.Connected, time.Second, 10*time.Millisecond)
	require.NoError(t, b.Notify(context.Background(), notify.ChannelNotification, notify.LevelInfo, "hello"))

	var msg bridge.Message
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, bridge.TypeNotification, msg.Type)
}

func TestBridgePathFromConfig(t *testing.T) {
	b := bridge.New(bridge.Config{RequestTimeout: time.Second})
	defer b.Close()

	f := newFixture(t, nil)
	router := api.NewRouter(handlers.NewEnvironmentHandler(f.env), b, nil, "/api", "/ws")
	server := httptest.NewServer(router)
	defer server.Close()

	base := "ws" + strings.TrimPrefix(server.URL, "http")
	_, resp, err := websocket.DefaultDialer.Dial(base+"/api/wallet/bridge", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(base+"/api/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Eventually(t, b.Connected, time.Second, 10*time.Millisecond)
}
