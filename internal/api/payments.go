package api

import (
	"net/http"

	"github.com/Veraticus/finanzas/internal/model"
	"github.com/Veraticus/finanzas/internal/service"
	"github.com/gorilla/mux"
)

func (h *Handler) ListPaymentsHandler(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r.URL.Query())
	filter := service.PaymentListFilter{
		PaymentFilter: service.PaymentFilter{
			Status:    model.PaymentStatus(q.str("status")),
			Currency:  q.str("currency"),
			Recurring: q.optionalBool("recurring"),
		},
		Overdue: q.optionalBool("overdue"),
	}
	if q.err != nil {
		respondWithServiceError(w, r, q.err)
		return
	}

	payments, err := h.svc.Payments.List(r.Context(), filter)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, payments)
}

func (h *Handler) GetPaymentHandler(w http.ResponseWriter, r *http.Request) {
	payment, err := h.svc.Payments.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, payment)
}

func (h *Handler) CreatePaymentHandler(w http.ResponseWriter, r *http.Request) {
	var in service.PaymentInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	payment, err := h.svc.Payments.Create(r.Context(), in)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/payments/"+payment.ID)
	respondWithJSON(w, http.StatusCreated, payment)
}

func (h *Handler) UpdatePaymentHandler(w http.ResponseWriter, r *http.Request) {
	var in service.PaymentInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	payment, err := h.svc.Payments.Update(r.Context(), mux.Vars(r)["id"], in)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, payment)
}

func (h *Handler) DeletePaymentHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Payments.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PayPaymentHandler settles a payment and returns what it produced.
func (h *Handler) PayPaymentHandler(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.Payments.Pay(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// ReconcilePaymentsHandler runs the overdue sweep.
func (h *Handler) ReconcilePaymentsHandler(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Payments.Reconcile(r.Context())
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]int64{"escalated": n})
}
