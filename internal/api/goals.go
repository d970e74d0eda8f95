package api

import (
	"net/http"

	"github.com/Veraticus/finanzas/internal/model"
	"github.com/Veraticus/finanzas/internal/service"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

type contributionRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func (h *Handler) ListGoalsHandler(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r.URL.Query())
	filter := service.GoalFilter{
		Currency: q.str("currency"),
		Status:   model.GoalStatus(q.str("status")),
		Priority: model.GoalPriority(q.str("priority")),
	}

	goals, err := h.svc.Goals.List(r.Context(), filter)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, goals)
}

func (h *Handler) GetGoalHandler(w http.ResponseWriter, r *http.Request) {
	goal, err := h.svc.Goals.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, goal)
}

func (h *Handler) CreateGoalHandler(w http.ResponseWriter, r *http.Request) {
	var in service.GoalInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	goal, err := h.svc.Goals.Create(r.Context(), in)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/goals/"+goal.ID)
	respondWithJSON(w, http.StatusCreated, goal)
}

func (h *Handler) UpdateGoalHandler(w http.ResponseWriter, r *http.Request) {
	var in service.GoalInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	goal, err := h.svc.Goals.Update(r.Context(), mux.Vars(r)["id"], in)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, goal)
}

func (h *Handler) DeleteGoalHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Goals.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ContributeGoalHandler adds {"amount": n} to a goal's saved amount.
// Negative amounts withdraw.
func (h *Handler) ContributeGoalHandler(w http.ResponseWriter, r *http.Request) {
	var req contributionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	goal, err := h.svc.Goals.Contribute(r.Context(), mux.Vars(r)["id"], req.Amount)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, goal)
}
