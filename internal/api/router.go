package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/theblitlabs/starknet-env/internal/api/handlers"
	"github.com/theblitlabs/starknet-env/internal/api/middleware"
	"github.com/theblitlabs/starknet-env/internal/telemetry"
)

// Router wraps mux.Router to add more functionality
type Router struct {
	*mux.Router
	middleware []mux.MiddlewareFunc
	endpoint   string
}

// NewRouter creates and configures a new router with all dependencies.
// bridge serves the browser wallet WebSocket at bridgePath under endpoint;
// bridge and health may be nil.
func NewRouter(
	envHandler *handlers.EnvironmentHandler,
	bridge http.Handler,
	health http.Handler,
	endpoint string,
	bridgePath string,
) *Router {
	r := &Router{
		Router: mux.NewRouter(),
		middleware: []mux.MiddlewareFunc{
			middleware.Logging,
			telemetry.MetricsMiddleware,
		},
		endpoint: endpoint,
	}

	r.setup(health)
	r.registerRoutes(envHandler, bridge, bridgePath)

	return r
}

// setup configures the base router with middleware and common settings
func (r *Router) setup(health http.Handler) {
	for _, m := range r.middleware {
		r.Use(m)
	}

	r.Handle("/metrics", telemetry.MetricsHandler()).Methods("GET")
	if health == nil {
		health = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"ok"}`))
		})
	}
	r.Handle("/health", health).Methods("GET")
}

func (r *Router) registerRoutes(envHandler *handlers.EnvironmentHandler, bridge http.Handler, bridgePath string) {
	api := r.PathPrefix(r.endpoint).Subrouter()

	api.HandleFunc("/environment", envHandler.GetEnvironment).Methods("GET")
	api.HandleFunc("/environment/mode", envHandler.SetMode).Methods("PUT")
	api.HandleFunc("/manual-account", envHandler.SetManualAccount).Methods("POST")

	devnets := api.PathPrefix("/devnets").Subrouter()
	devnets.HandleFunc("", envHandler.ListDevnets).Methods("GET")
	devnets.HandleFunc("/{name}/select", envHandler.SelectDevnet).Methods("POST")
	devnets.HandleFunc("/{name}/accounts", envHandler.ListAccounts).Methods("GET")
	devnets.HandleFunc("/{name}/accounts/{index:[0-9]+}/select", envHandler.SelectAccount).Methods("POST")

	wallet := api.PathPrefix("/wallet").Subrouter()
	wallet.HandleFunc("/connect", envHandler.ConnectWallet).Methods("POST")
	wallet.HandleFunc("/disconnect", envHandler.DisconnectWallet).Methods("POST")
	wallet.HandleFunc("/reconnect", envHandler.ReconnectWallet).Methods("POST")
	wallet.HandleFunc("/explorer-link", envHandler.ExplorerLink).Methods("GET")

	if bridge != nil {
		api.Handle(bridgePath, bridge).Methods("GET")
	}
}
