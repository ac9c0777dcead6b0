package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/models"
)

func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var in models.NewEntry
	if err := h.decode(r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}

	entry, err := h.ledger.CreateEntry(r.Context(), owner(r), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := h.ledger.GetEntry(r.Context(), owner(r), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *Handler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	var changes models.EntryChanges
	if err := h.decode(r, &changes); err != nil {
		writeError(w, h.logger, err)
		return
	}

	entry, err := h.ledger.UpdateEntry(r.Context(), owner(r), mux.Vars(r)["id"], changes)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.DeleteEntry(r.Context(), owner(r), mux.Vars(r)["id"]); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "entry deleted"})
}

// ListEntries accepts page, limit, category, account and sortBy query
// parameters.
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	q, err := parseEntryQuery(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	page, err := h.ledger.ListEntries(r.Context(), owner(r), q)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func parseEntryQuery(r *http.Request) (models.EntryQuery, error) {
	values := r.URL.Query()
	q := models.EntryQuery{
		Category:  values.Get("category"),
		AccountID: values.Get("account"),
		Sort:      models.SortKey(values.Get("sortBy")),
	}

	var err error
	if q.Page, err = intParam(values.Get("page"), "page"); err != nil {
		return q, err
	}
	if q.Limit, err = intParam(values.Get("limit"), "limit"); err != nil {
		return q, err
	}
	return q, nil
}

func intParam(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, models.NewValidationError(name, name+" must be an integer")
	}
	return n, nil
}
