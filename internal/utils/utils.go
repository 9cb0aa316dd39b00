package utils

import (
	"fmt"
	"math/big"
	"strings"
)

// TrimAddress shortens a 0x-prefixed address to its first 6 and last 6
// characters. Anything else is returned unchanged.
func TrimAddress(addr string) string {
	if !strings.HasPrefix(addr, "0x") {
		return addr
	}
	n := len(addr)
	if n > 6 {
		n = 6
	}
	return addr[:n] + "..." + addr[len(addr)-n:]
}

// FormatEther converts a wei amount to ether with trailing zeros removed.
func FormatEther(wei *big.Int) string {
	ether := new(big.Float).SetInt(wei)
	ether.Quo(ether, new(big.Float).SetFloat64(1e18))
	s := fmt.Sprintf("%.18f", ether)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// FormatBalance formats a decimal or 0x-hex wei string as ether. Unparseable
// input is returned as is.
func FormatBalance(wei string) string {
	n, ok := new(big.Int).SetString(wei, 0)
	if !ok {
		return wei
	}
	return FormatEther(n)
}
