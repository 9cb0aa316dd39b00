package wallet

import (
	"github.com/ethereum/go-ethereum/event"
	"github.com/theblitlabs/starknet-env/internal/models"
)

// EventHub fans provider notifications out to subscribers. The zero value is
// ready to use. Providers embed it to implement the Subscribe methods.
type EventHub struct {
	accountsFeed  event.Feed
	networkFeed   event.Feed
	accountsScope event.SubscriptionScope
	networkScope  event.SubscriptionScope
}

func (h *EventHub) SubscribeAccountsChanged(ch chan<- []string) event.Subscription {
	return track(&h.accountsScope, h.accountsFeed.Subscribe(ch))
}

func (h *EventHub) SubscribeNetworkChanged(ch chan<- string) event.Subscription {
	return track(&h.networkScope, h.networkFeed.Subscribe(ch))
}

// track returns nil once the scope is closed; the feed subscription must not leak then.
func track(scope *event.SubscriptionScope, sub event.Subscription) event.Subscription {
	tracked := scope.Track(sub)
	if tracked == nil {
		sub.Unsubscribe()
		return nil
	}
	return tracked
}

// EmitAccountsChanged delivers accounts to every subscriber and returns how
// many received it.
func (h *EventHub) EmitAccountsChanged(accounts []string) int {
	return h.accountsFeed.Send(accounts)
}

func (h *EventHub) EmitNetworkChanged(network string) int {
	return h.networkFeed.Send(network)
}

// ListenerCount reports the live subscriptions for one event.
func (h *EventHub) ListenerCount(name models.WalletEvent) int {
	switch name {
	case models.EventAccountsChanged:
		return h.accountsScope.Count()
	case models.EventNetworkChanged:
		return h.networkScope.Count()
	}
	return 0
}

// Close ends all subscriptions. Subscribing after Close returns nil.
func (h *EventHub) Close() {
	h.accountsScope.Close()
	h.networkScope.Close()
}
