package models

// Devnet describes a locally simulated network offering pre-funded accounts.
type Devnet struct {
	Name     string          `json:"name" mapstructure:"name"`
	URL      string          `json:"url" mapstructure:"url"`
	Accounts []DevnetAccount `json:"accounts,omitempty" mapstructure:"accounts"`
}

type DevnetAccount struct {
	Address        string `json:"address" mapstructure:"address"`
	PrivateKey     string `json:"private_key,omitempty" mapstructure:"private_key"`
	PublicKey      string `json:"public_key,omitempty" mapstructure:"public_key"`
	InitialBalance string `json:"initial_balance,omitempty" mapstructure:"initial_balance"`
}
