package models

import "fmt"

// EnvMode selects which account source feeds the connection state.
type EnvMode string

const (
	EnvModeDevnet EnvMode = "devnet"
	EnvModeWallet EnvMode = "wallet"
	EnvModeManual EnvMode = "manual"
)

func (m EnvMode) Valid() bool {
	switch m {
	case EnvModeDevnet, EnvModeWallet, EnvModeManual:
		return true
	}
	return false
}

// ParseEnvMode converts user input into an EnvMode.
func ParseEnvMode(s string) (EnvMode, error) {
	mode := EnvMode(s)
	if !mode.Valid() {
		return "", fmt.Errorf("unknown environment mode %q", s)
	}
	return mode, nil
}

// EnvironmentView is what the panel renders for the current selection.
type EnvironmentView struct {
	Mode             EnvMode     `json:"mode"`
	Devnet           string      `json:"devnet,omitempty"`
	AccountIndex     int         `json:"account_index"`
	Account          string      `json:"account,omitempty"`
	AccountShort     string      `json:"account_short,omitempty"`
	ProviderEndpoint string      `json:"provider_endpoint,omitempty"`
	Wallet           *WalletView `json:"wallet,omitempty"`
}

type WalletView struct {
	ID         string `json:"id"`
	Icon       string `json:"icon,omitempty"`
	Address    string `json:"address,omitempty"`
	Generation uint64 `json:"generation"`
}
