package api

import (
	"net/http"

	"github.com/Veraticus/finanzas/internal/currency"
	"github.com/Veraticus/finanzas/internal/service"
)

func (h *Handler) DashboardHandler(w http.ResponseWriter, r *http.Request) {
	dash, err := h.svc.Dashboard.Get(r.Context())
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, dash)
}

func (h *Handler) GetSettingsHandler(w http.ResponseWriter, r *http.Request) {
	settings, err := h.svc.Settings.Get(r.Context())
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, settings)
}

func (h *Handler) UpdateSettingsHandler(w http.ResponseWriter, r *http.Request) {
	var in service.SettingsInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	settings, err := h.svc.Settings.Update(r.Context(), in)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, settings)
}

// ListCurrenciesHandler lists the supported currencies and how they display.
func (h *Handler) ListCurrenciesHandler(w http.ResponseWriter, _ *http.Request) {
	codes := currency.Codes()
	infos := make([]currency.Info, 0, len(codes))
	for _, code := range codes {
		info, _ := currency.Lookup(code)
		infos = append(infos, info)
	}
	respondWithJSON(w, http.StatusOK, infos)
}
