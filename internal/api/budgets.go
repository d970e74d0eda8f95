package api

import (
	"net/http"

	"github.com/Veraticus/finanzas/internal/service"
	"github.com/Veraticus/finanzas/internal/status"
	"github.com/gorilla/mux"
)

func (h *Handler) ListBudgetsHandler(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r.URL.Query())
	filter := service.BudgetListFilter{
		BudgetFilter: service.BudgetFilter{
			Currency:   q.str("currency"),
			CategoryID: q.str("category_id", "category"),
			ActiveOnly: q.boolean("active"),
		},
		Status: status.BudgetLevel(q.str("status")),
	}
	if q.err != nil {
		respondWithServiceError(w, r, q.err)
		return
	}

	budgets, err := h.svc.Budgets.List(r.Context(), filter)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, budgets)
}

func (h *Handler) GetBudgetHandler(w http.ResponseWriter, r *http.Request) {
	budget, err := h.svc.Budgets.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, budget)
}

func (h *Handler) CreateBudgetHandler(w http.ResponseWriter, r *http.Request) {
	var in service.BudgetInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	budget, err := h.svc.Budgets.Create(r.Context(), in)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/budgets/"+budget.ID)
	respondWithJSON(w, http.StatusCreated, budget)
}

func (h *Handler) UpdateBudgetHandler(w http.ResponseWriter, r *http.Request) {
	var in service.BudgetInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	budget, err := h.svc.Budgets.Update(r.Context(), mux.Vars(r)["id"], in)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, budget)
}

func (h *Handler) DeleteBudgetHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Budgets.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
