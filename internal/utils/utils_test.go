package utils_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/theblitlabs/starknet-env/internal/utils"
)

func TestTrimAddress(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"hex address", "0x1234567890abcdef", "0x1234...abcdef"},
		{"full starknet address", "0x064b48806902a367c8598f4f95c305e8c1a1acba5f082d294a43793113115691", "0x064b...115691"},
		{"no prefix", "1234567890abcdef", "1234567890abcdef"},
		{"empty", "", ""},
		{"uppercase prefix is not trimmed", "0X1234567890abcdef", "0X1234567890abcdef"},
		{"short address", "0x12", "0x12...0x12"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, utils.TrimAddress(tt.in))
		})
	}
}

func TestTrimAddressIdentityWithoutPrefix(t *testing.T) {
	for _, in := range []string{"abc", "SN_GOERLI", "x0123456789abcdef", "devnet-account-1"} {
		once := utils.TrimAddress(in)
		assert.Equal(t, in, once)
		assert.Equal(t, once, utils.TrimAddress(once))
	}
}

func TestFormatBalance(t *testing.T) {
	assert.Equal(t, "1000", utils.FormatBalance("1000000000000000000000"))
	assert.Equal(t, "1000", utils.FormatBalance("0x3635c9adc5dea00000"))
	assert.Equal(t, "1.5", utils.FormatEther(big.NewInt(1500000000000000000)))
	assert.Equal(t, "not-a-number", utils.FormatBalance("not-a-number"))
}
