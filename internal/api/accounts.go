package api

import (
	"net/http"

	"github.com/Veraticus/finanzas/internal/model"
	"github.com/Veraticus/finanzas/internal/service"
	"github.com/gorilla/mux"
)

func (h *Handler) ListAccountsHandler(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r.URL.Query())
	filter := service.AccountFilter{
		Type:            model.AccountType(q.str("type")),
		Currency:        q.str("currency"),
		IncludeInactive: q.boolean("includeInactive"),
	}
	if q.err != nil {
		respondWithServiceError(w, r, q.err)
		return
	}

	accounts, err := h.svc.Accounts.List(r.Context(), filter)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, accounts)
}

func (h *Handler) GetAccountHandler(w http.ResponseWriter, r *http.Request) {
	account, err := h.svc.Accounts.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, account)
}

func (h *Handler) CreateAccountHandler(w http.ResponseWriter, r *http.Request) {
	var in service.AccountInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	account, err := h.svc.Accounts.Create(r.Context(), in)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/accounts/"+account.ID)
	respondWithJSON(w, http.StatusCreated, account)
}

func (h *Handler) UpdateAccountHandler(w http.ResponseWriter, r *http.Request) {
	var in service.AccountInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	account, err := h.svc.Accounts.Update(r.Context(), mux.Vars(r)["id"], in)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, account)
}

func (h *Handler) DeleteAccountHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Accounts.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AccountTransactionsHandler lists one account's transactions. It accepts
// the same filters as the transaction listing.
func (h *Handler) AccountTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := h.svc.Accounts.Get(r.Context(), id); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	filter, err := transactionFilter(r)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	filter.AccountID = id

	txns, err := h.svc.Ledger.List(r.Context(), filter)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, txns)
}
