// Package api exposes the ledger over HTTP. Every ledger route requires a
// bearer token whose "id" claim names the owner the call is scoped to.
package api

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/ledger"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/logging"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/metrics"
)

type Handler struct {
	ledger   *ledger.Ledger
	validate *validator.Validate
	logger   *logging.Logger
}

func NewHandler(l *ledger.Ledger, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.L()
	}
	return &Handler{
		ledger:   l,
		validate: newValidator(),
		logger:   logger.Named("api"),
	}
}

type RouterConfig struct {
	JWTSecret []byte
	// Metrics, when set, wraps every route; Gatherer backs /metrics.
	Metrics  *metrics.HTTPMetrics
	Gatherer prometheus.Gatherer
}

func NewRouter(h *Handler, cfg RouterConfig) *mux.Router {
	r := mux.NewRouter()
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}

	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	api := r.NewRoute().Subrouter()
	api.Use(Authenticate(cfg.JWTSecret))

	api.HandleFunc("/accounts", h.CreateAccount).Methods(http.MethodPost)
	api.HandleFunc("/accounts", h.ListAccounts).Methods(http.MethodGet)
	api.HandleFunc("/accounts/{id}", h.GetAccount).Methods(http.MethodGet)
	api.HandleFunc("/accounts/{id}", h.UpdateAccount).Methods(http.MethodPut)
	api.HandleFunc("/accounts/{id}", h.DeleteAccount).Methods(http.MethodDelete)

	api.HandleFunc("/entries", h.CreateEntry).Methods(http.MethodPost)
	api.HandleFunc("/entries", h.ListEntries).Methods(http.MethodGet)
	api.HandleFunc("/entries/{id}", h.GetEntry).Methods(http.MethodGet)
	api.HandleFunc("/entries/{id}", h.UpdateEntry).Methods(http.MethodPut)
	api.HandleFunc("/entries/{id}", h.DeleteEntry).Methods(http.MethodDelete)

	api.HandleFunc("/ledger/verify", h.Verify).Methods(http.MethodGet)
	api.HandleFunc("/ledger/repair", h.Repair).Methods(http.MethodPost)

	return r
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// owner is only called behind Authenticate.
func owner(r *http.Request) string {
	id, _ := OwnerFromContext(r.Context())
	return id
}
