package api

import (
	"net/http"

	"github.com/Veraticus/finanzas/internal/service"
	"github.com/gorilla/mux"
)

func (h *Handler) ListTransfersHandler(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r.URL.Query())
	filter := service.TransferFilter{
		AccountID: q.str("account_id", "account"),
		Limit:     q.integer("limit"),
	}
	if q.err != nil {
		respondWithServiceError(w, r, q.err)
		return
	}

	transfers, err := h.svc.Transfers.List(r.Context(), filter)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, transfers)
}

func (h *Handler) GetTransferHandler(w http.ResponseWriter, r *http.Request) {
	transfer, err := h.svc.Transfers.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, transfer)
}

func (h *Handler) CreateTransferHandler(w http.ResponseWriter, r *http.Request) {
	var in service.TransferInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	transfer, err := h.svc.Transfers.Create(r.Context(), in)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/transfers/"+transfer.ID)
	respondWithJSON(w, http.StatusCreated, transfer)
}
