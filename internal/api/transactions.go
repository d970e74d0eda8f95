package api

import (
	"net/http"

	"github.com/Veraticus/finanzas/internal/model"
	"github.com/Veraticus/finanzas/internal/service"
	"github.com/gorilla/mux"
)

// transactionFilter reads the listing filters. Both account_id and the
// shorter account are accepted, likewise for category.
func transactionFilter(r *http.Request) (service.TransactionFilter, error) {
	q := newQuery(r.URL.Query())
	filter := service.TransactionFilter{
		AccountID:  q.str("account_id", "account"),
		CategoryID: q.str("category_id", "category"),
		Currency:   q.str("currency"),
		Type:       model.TransactionType(q.str("type")),
		From:       q.date("from"),
		To:         q.date("to"),
		Limit:      q.integer("limit"),
		Offset:     q.integer("offset"),
	}
	return filter, q.err
}

func (h *Handler) ListTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	filter, err := transactionFilter(r)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	txns, err := h.svc.Ledger.List(r.Context(), filter)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, txns)
}

func (h *Handler) GetTransactionHandler(w http.ResponseWriter, r *http.Request) {
	txn, err := h.svc.Ledger.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, txn)
}

func (h *Handler) CreateTransactionHandler(w http.ResponseWriter, r *http.Request) {
	var in service.TransactionInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	txn, err := h.svc.Ledger.Create(r.Context(), in)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/transactions/"+txn.ID)
	respondWithJSON(w, http.StatusCreated, txn)
}

func (h *Handler) UpdateTransactionHandler(w http.ResponseWriter, r *http.Request) {
	var in service.TransactionInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	txn, err := h.svc.Ledger.Update(r.Context(), mux.Vars(r)["id"], in)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, txn)
}

func (h *Handler) DeleteTransactionHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Ledger.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
