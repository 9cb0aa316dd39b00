package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/theblitlabs/starknet-env/internal/environment"
	"github.com/theblitlabs/starknet-env/internal/explorer"
	"github.com/theblitlabs/starknet-env/internal/models"
	"github.com/theblitlabs/starknet-env/internal/session"
	"github.com/theblitlabs/starknet-env/internal/utils"
	"github.com/theblitlabs/starknet-env/pkg/logger"
)

type EnvironmentHandler struct {
	env *environment.Environment
}

func NewEnvironmentHandler(env *environment.Environment) *EnvironmentHandler {
	return &EnvironmentHandler{env: env}
}

type ModeRequest struct {
	Mode string `json:"mode"`
}

type ManualAccountRequest struct {
	Address string `json:"address"`
	RPCURL  string `json:"rpc_url"`
}

type ConnectRequest struct {
	ModalMode  models.ModalMode  `json:"modal_mode"`
	ModalTheme models.ModalTheme `json:"modal_theme"`
}

type DisconnectRequest struct {
	ClearLastWallet *bool `json:"clear_last_wallet"`
}

type AccountResponse struct {
	Index int `json:"index"`
	models.DevnetAccount
	AddressShort string `json:"address_short"`
	Balance      string `json:"balance,omitempty"`
}

type ExplorerLinkResponse struct {
	URL string `json:"url"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func (h *EnvironmentHandler) GetEnvironment(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.env.View())
}

func (h *EnvironmentHandler) SetMode(w http.ResponseWriter, r *http.Request) {
	var req ModeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.env.SetMode(models.EnvMode(req.Mode)); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.env.View())
}

func (h *EnvironmentHandler) ListDevnets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.env.Selector().Devnets())
}

func (h *EnvironmentHandler) SelectDevnet(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if err := h.env.Selector().SelectDevnet(r.Context(), name); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.env.View())
}

func (h *EnvironmentHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	accounts, err := h.env.Selector().Accounts(r.Context(), name)
	if err != nil {
		writeErr(w, err)
		return
	}

	resp := make([]AccountResponse, 0, len(accounts))
	for i, account := range accounts {
		resp = append(resp, AccountResponse{
			Index:         i,
			DevnetAccount: account,
			AddressShort:  utils.TrimAddress(account.Address),
			Balance:       utils.FormatBalance(account.InitialBalance),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *EnvironmentHandler) SelectAccount(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	index, err := strconv.Atoi(vars["index"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid account index")
		return
	}

	if err := h.env.Selector().SelectDevnetAccount(r.Context(), vars["name"], index); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.env.View())
}

func (h *EnvironmentHandler) SetManualAccount(w http.ResponseWriter, r *http.Request) {
	var req ManualAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.env.Selector().UseManualAccount(req.Address, req.RPCURL); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.env.View())
}

func (h *EnvironmentHandler) ConnectWallet(w http.ResponseWriter, r *http.Request) {
	var req ConnectRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	opts := models.ConnectOptions{ModalMode: req.ModalMode, ModalTheme: req.ModalTheme}
	if err := h.env.Controller().Connect(r.Context(), opts); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.env.View())
}

func (h *EnvironmentHandler) DisconnectWallet(w http.ResponseWriter, r *http.Request) {
	var req DisconnectRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	opts := models.DefaultDisconnectOptions()
	if req.ClearLastWallet != nil {
		opts.ClearLastWallet = *req.ClearLastWallet
	}
	if err := h.env.Controller().Disconnect(r.Context(), opts); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.env.View())
}

func (h *EnvironmentHandler) ReconnectWallet(w http.ResponseWriter, r *http.Request) {
	if err := h.env.Controller().Reconnect(r.Context()); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.env.View())
}

func (h *EnvironmentHandler) ExplorerLink(w http.ResponseWriter, r *http.Request) {
	link := explorer.VoyagerRoot
	if current := h.env.Controller().Current(); current != nil {
		link = explorer.VoyagerLink(r.Context(), current.Provider)
	}
	writeJSON(w, http.StatusOK, ExplorerLinkResponse{URL: link})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, environment.ErrInvalidMode),
		errors.Is(err, environment.ErrInvalidAddress),
		errors.Is(err, environment.ErrNoRPCEndpoint):
		return http.StatusBadRequest
	case errors.Is(err, environment.ErrDevnetNotFound),
		errors.Is(err, environment.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrStaleConnect):
		return http.StatusConflict
	case errors.Is(err, session.ErrConnection),
		errors.Is(err, environment.ErrDevnetOffline):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeErr(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log := logger.WithComponent("api")
		log.Error().Err(err).Msg("Request failed")
	}
	writeError(w, status, err.Error())
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log := logger.WithComponent("api")
		log.Debug().Err(err).Msg("Response write failed")
	}
}
