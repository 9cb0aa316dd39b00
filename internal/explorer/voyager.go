package explorer

import (
	"context"
	"fmt"

	"github.com/theblitlabs/starknet-env/internal/wallet"
	"github.com/theblitlabs/starknet-env/pkg/logger"
)

const (
	// GoerliChainID is the hex encoding of "SN_GOERLI".
	GoerliChainID = "0x534e5f474f45524c49"

	VoyagerRoot   = "https://voyager.online"
	VoyagerGoerli = "https://goerli.voyager.online"
)

// VoyagerLink builds the explorer URL for the provider's account. Without a
// provider, an account or a chain id it falls back to the explorer root.
func VoyagerLink(ctx context.Context, provider wallet.Provider) string {
	if provider == nil {
		return VoyagerRoot
	}
	account := provider.Account()
	if account == nil {
		return VoyagerRoot
	}

	chainID, err := account.ChainID(ctx)
	if err != nil || chainID == "" {
		if err != nil {
			log := logger.WithComponent("explorer")
			log.Debug().Err(err).Str("address", account.Address()).Msg("Chain id unavailable")
		}
		return VoyagerRoot
	}

	base := VoyagerRoot
	if chainID == GoerliChainID {
		base = VoyagerGoerli
	}
	return fmt.Sprintf("%s/contract/%s", base, account.Address())
}
