package environment

import (
	"context"

	"github.com/theblitlabs/starknet-env/internal/connection"
	"github.com/theblitlabs/starknet-env/internal/models"
	"github.com/theblitlabs/starknet-env/internal/session"
	"github.com/theblitlabs/starknet-env/internal/utils"
)

// Environment ties the account selector and the wallet session controller
// to one connection state.
type Environment struct {
	state      *connection.State
	selector   *Selector
	controller *session.Controller
}

func New(state *connection.State, selector *Selector, controller *session.Controller) *Environment {
	e := &Environment{
		state:      state,
		selector:   selector,
		controller: controller,
	}
	controller.SetMirrorPolicy(func(apply func()) {
		selector.WhileMode(models.EnvModeWallet, apply)
	})
	return e
}

func (e *Environment) State() *connection.State {
	return e.state
}

func (e *Environment) Selector() *Selector {
	return e.selector
}

func (e *Environment) Controller() *session.Controller {
	return e.controller
}

// SetMode switches the environment. Entering wallet mode mirrors the live
// session's handles; leaving it keeps the wallet connected.
func (e *Environment) SetMode(mode models.EnvMode) error {
	if err := e.selector.SetMode(mode); err != nil {
		return err
	}
	if mode != models.EnvModeWallet {
		return nil
	}

	current := e.controller.Current()
	e.selector.WhileMode(models.EnvModeWallet, func() {
		if current == nil {
			e.state.Clear()
			return
		}
		e.state.SetAccount(current.Provider.Account())
		e.state.SetProvider(current.Provider.RPC())
	})
	return nil
}

// Init applies the configured starting devnet. A devnet that cannot be
// reached leaves the selection empty.
func (e *Environment) Init(ctx context.Context, defaultDevnet string) error {
	if defaultDevnet == "" {
		return nil
	}
	return e.selector.SelectDevnet(ctx, defaultDevnet)
}

// View renders the panel's current selection.
func (e *Environment) View() models.EnvironmentView {
	devnetName, _, index := e.selector.Selected()
	view := models.EnvironmentView{
		Mode:         e.selector.Mode(),
		Devnet:       devnetName,
		AccountIndex: index,
	}

	snap := e.state.Snapshot()
	if snap.Account != nil {
		view.Account = snap.Account.Address()
		view.AccountShort = utils.TrimAddress(view.Account)
	}
	if snap.Provider != nil {
		view.ProviderEndpoint = snap.Provider.Endpoint()
	}

	if current := e.controller.Current(); current != nil {
		w := &models.WalletView{
			ID:         current.Provider.ID(),
			Icon:       current.Provider.Icon(),
			Generation: current.Generation,
		}
		if account := current.Provider.Account(); account != nil {
			w.Address = account.Address()
		}
		view.Wallet = w
	}
	return view
}

func (e *Environment) Close() {
	e.controller.Close()
	e.selector.Close()
}
