package health

import (
	"context"
	"fmt"

	"github.com/theblitlabs/starknet-env/internal/environment"
)

// BridgeCheck reports whether a browser page is attached to the wallet bridge.
func BridgeCheck(connected func() bool) Check {
	return func(context.Context) (Status, string) {
		if connected() {
			return StatusOK, "browser page attached"
		}
		return StatusWarning, "no browser page attached"
	}
}

// DevnetCheck probes the selected devnet.
func DevnetCheck(selector *environment.Selector) Check {
	return func(ctx context.Context) (Status, string) {
		name, _, _ := selector.Selected()
		if name == "" {
			return StatusWarning, "no devnet selected"
		}
		client, err := selector.Client(name)
		if err != nil {
			return StatusError, err.Error()
		}
		if err := client.IsAlive(ctx); err != nil {
			return StatusError, err.Error()
		}
		return StatusOK, fmt.Sprintf("%s is alive", name)
	}
}
