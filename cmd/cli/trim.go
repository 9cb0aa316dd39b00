package cli

import (
	"fmt"
	"io"

	"github.com/theblitlabs/starknet-env/internal/utils"
)

// RunTrim prints the panel's short form of each address.
func RunTrim(out io.Writer, addresses []string) error {
	for _, addr := range addresses {
		if _, err := fmt.Fprintln(out, utils.TrimAddress(addr)); err != nil {
			return err
		}
	}
	return nil
}
