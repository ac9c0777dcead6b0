package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/ledger"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/models"
)

func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var in models.NewAccount
	if err := h.decode(r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}

	account, err := h.ledger.CreateAccount(r.Context(), owner(r), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.ledger.ListAccounts(r.Context(), owner(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	account, err := h.ledger.GetAccount(r.Context(), owner(r), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	var changes models.AccountChanges
	if err := h.decode(r, &changes); err != nil {
		writeError(w, h.logger, err)
		return
	}

	account, err := h.ledger.UpdateAccount(r.Context(), owner(r), mux.Vars(r)["id"], changes)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	result, err := h.ledger.DeleteAccount(r.Context(), owner(r), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type reconcileResponse struct {
	Consistent bool           `json:"consistent"`
	Drifts     []ledger.Drift `json:"drifts"`
}

func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	drifts, err := h.ledger.Verify(r.Context(), owner(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newReconcileResponse(drifts))
}

func (h *Handler) Repair(w http.ResponseWriter, r *http.Request) {
	drifts, err := h.ledger.Repair(r.Context(), owner(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newReconcileResponse(drifts))
}

func newReconcileResponse(drifts []ledger.Drift) reconcileResponse {
	if drifts == nil {
		drifts = []ledger.Drift{}
	}
	return reconcileResponse{Consistent: len(drifts) == 0, Drifts: drifts}
}
