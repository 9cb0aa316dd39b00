package models

// ModalMode controls whether the wallet picker is shown on connect.
type ModalMode string

const (
	ModalModeAlwaysAsk ModalMode = "alwaysAsk"
	ModalModeNeverAsk  ModalMode = "neverAsk"
)

type ModalTheme string

const (
	ModalThemeDark   ModalTheme = "dark"
	ModalThemeLight  ModalTheme = "light"
	ModalThemeSystem ModalTheme = "system"
)

// WalletEvent names the provider notifications the session listens to.
type WalletEvent string

const (
	EventAccountsChanged WalletEvent = "accountsChanged"
	EventNetworkChanged  WalletEvent = "networkChanged"
)

// DefaultStarknetVersion is the protocol tag passed to Enable.
const DefaultStarknetVersion = "v4"

type ConnectOptions struct {
	ModalMode  ModalMode  `json:"modalMode"`
	ModalTheme ModalTheme `json:"modalTheme"`
}

type DisconnectOptions struct {
	ClearLastWallet bool `json:"clearLastWallet"`
}

// DefaultConnectOptions is used for user initiated connects.
func DefaultConnectOptions() ConnectOptions {
	return ConnectOptions{ModalMode: ModalModeAlwaysAsk, ModalTheme: ModalThemeDark}
}

// SilentConnectOptions never prompts; used to resync after wallet side changes.
func SilentConnectOptions() ConnectOptions {
	return ConnectOptions{ModalMode: ModalModeNeverAsk, ModalTheme: ModalThemeDark}
}

// ReconnectOptions mirrors the explicit "Reconnect" action.
func ReconnectOptions() ConnectOptions {
	return ConnectOptions{ModalMode: ModalModeAlwaysAsk, ModalTheme: ModalThemeSystem}
}

func DefaultDisconnectOptions() DisconnectOptions {
	return DisconnectOptions{ClearLastWallet: true}
}

// WithDefaults fills empty fields from DefaultConnectOptions.
func (o ConnectOptions) WithDefaults() ConnectOptions {
	def := DefaultConnectOptions()
	if o.ModalMode == "" {
		o.ModalMode = def.ModalMode
	}
	if o.ModalTheme == "" {
		o.ModalTheme = def.ModalTheme
	}
	return o
}
