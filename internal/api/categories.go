package api

import (
	"net/http"

	"github.com/Veraticus/finanzas/internal/model"
	"github.com/Veraticus/finanzas/internal/service"
	"github.com/gorilla/mux"
)

func (h *Handler) ListCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r.URL.Query())
	filter := service.CategoryFilter{
		Type:            model.CategoryType(q.str("type")),
		IncludeInactive: q.boolean("includeInactive"),
	}
	if q.err != nil {
		respondWithServiceError(w, r, q.err)
		return
	}

	categories, err := h.svc.Categories.List(r.Context(), filter)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, categories)
}

func (h *Handler) GetCategoryHandler(w http.ResponseWriter, r *http.Request) {
	category, err := h.svc.Categories.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, category)
}

func (h *Handler) CreateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	var in service.CategoryInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	category, err := h.svc.Categories.Create(r.Context(), in)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/categories/"+category.ID)
	respondWithJSON(w, http.StatusCreated, category)
}

func (h *Handler) UpdateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	var in service.CategoryInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	category, err := h.svc.Categories.Update(r.Context(), mux.Vars(r)["id"], in)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, category)
}

func (h *Handler) DeleteCategoryHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Categories.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
