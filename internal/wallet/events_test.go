package wallet_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/theblitlabs/starknet-env/internal/models"
	"github.com/theblitlabs/starknet-env/internal/wallet"
)

func TestEventHub(t *testing.T) {
	t.Run("delivers accounts to subscribers", func(t *testing.T) {
		var hub wallet.EventHub
		ch := make(chan []string, 1)
		sub := hub.SubscribeAccountsChanged(ch)
		require.NotNil(t, sub)
		defer sub.Unsubscribe()

		n := hub.EmitAccountsChanged([]string{"0xabc"})
		assert.Equal(t, 1, n)

		select {
		case got := <-ch:
			assert.Equal(t, []string{"0xabc"}, got)
		case <-time.After(time.Second):
			t.Fatal("accountsChanged not delivered")
		}
	})

	t.Run("counts listeners per event", func(t *testing.T) {
		var hub wallet.EventHub
		accounts := hub.SubscribeAccountsChanged(make(chan []string, 1))
		network := hub.SubscribeNetworkChanged(make(chan string, 1))

		assert.Equal(t, 1, hub.ListenerCount(models.EventAccountsChanged))
		assert.Equal(t, 1, hub.ListenerCount(models.EventNetworkChanged))

		accounts.Unsubscribe()
		assert.Equal(t, 0, hub.ListenerCount(models.EventAccountsChanged))
		assert.Equal(t, 1, hub.ListenerCount(models.EventNetworkChanged))

		network.Unsubscribe()
		assert.Equal(t, 0, hub.ListenerCount(models.EventNetworkChanged))
	})

	t.Run("emit without listeners", func(t *testing.T) {
		var hub wallet.EventHub
		assert.Equal(t, 0, hub.EmitNetworkChanged("SN_MAIN"))
	})

	t.Run("closed hub rejects subscriptions", func(t *testing.T) {
		var hub wallet.EventHub
		sub := hub.SubscribeNetworkChanged(make(chan string, 1))
		hub.Close()

		select {
		case <-sub.Err():
		case <-time.After(time.Second):
			t.Fatal("subscription not ended by Close")
		}
		assert.Nil(t, hub.SubscribeNetworkChanged(make(chan string, 1)))
		assert.Equal(t, 0, hub.ListenerCount(models.EventNetworkChanged))
	})
}
