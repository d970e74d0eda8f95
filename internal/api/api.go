// Package api exposes the ledger services over a JSON HTTP interface.
package api

import (
	"net/http"

	"github.com/Veraticus/finanzas/internal/service"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler serves the HTTP endpoints.
type Handler struct {
	svc *service.Services
}

// NewHandler creates a handler backed by svc.
func NewHandler(svc *service.Services) *Handler {
	return &Handler{svc: svc}
}

// Router builds the route table. /metrics is only mounted when withMetrics
// is set.
func (h *Handler) Router(withMetrics bool) *mux.Router {
	r := mux.NewRouter()
	r.Use(recoverMiddleware, instrumentMiddleware)
	r.NotFoundHandler = http.HandlerFunc(routeNotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	r.HandleFunc("/health", h.HealthCheckHandler).Methods(http.MethodGet)
	if withMetrics {
		r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api").Subrouter()
	api.NotFoundHandler = http.HandlerFunc(routeNotFound)
	api.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	api.HandleFunc("/accounts", h.ListAccountsHandler).Methods(http.MethodGet)
	api.HandleFunc("/accounts", h.CreateAccountHandler).Methods(http.MethodPost)
	api.HandleFunc("/accounts/{id}", h.GetAccountHandler).Methods(http.MethodGet)
	api.HandleFunc("/accounts/{id}", h.UpdateAccountHandler).Methods(http.MethodPut)
	api.HandleFunc("/accounts/{id}", h.DeleteAccountHandler).Methods(http.MethodDelete)
	api.HandleFunc("/accounts/{id}/transactions", h.AccountTransactionsHandler).Methods(http.MethodGet)

	api.HandleFunc("/categories", h.ListCategoriesHandler).Methods(http.MethodGet)
	api.HandleFunc("/categories", h.CreateCategoryHandler).Methods(http.MethodPost)
	api.HandleFunc("/categories/{id}", h.GetCategoryHandler).Methods(http.MethodGet)
	api.HandleFunc("/categories/{id}", h.UpdateCategoryHandler).Methods(http.MethodPut)
	api.HandleFunc("/categories/{id}", h.DeleteCategoryHandler).Methods(http.MethodDelete)

	api.HandleFunc("/transactions", h.ListTransactionsHandler).Methods(http.MethodGet)
	api.HandleFunc("/transactions", h.CreateTransactionHandler).Methods(http.MethodPost)
	api.HandleFunc("/transactions/{id}", h.GetTransactionHandler).Methods(http.MethodGet)
	api.HandleFunc("/transactions/{id}", h.UpdateTransactionHandler).Methods(http.MethodPut)
	api.HandleFunc("/transactions/{id}", h.DeleteTransactionHandler).Methods(http.MethodDelete)

	api.HandleFunc("/transfers", h.ListTransfersHandler).Methods(http.MethodGet)
	api.HandleFunc("/transfers", h.CreateTransferHandler).Methods(http.MethodPost)
	api.HandleFunc("/transfers/{id}", h.GetTransferHandler).Methods(http.MethodGet)

	api.HandleFunc("/budgets", h.ListBudgetsHandler).Methods(http.MethodGet)
	api.HandleFunc("/budgets", h.CreateBudgetHandler).Methods(http.MethodPost)
	api.HandleFunc("/budgets/{id}", h.GetBudgetHandler).Methods(http.MethodGet)
	api.HandleFunc("/budgets/{id}", h.UpdateBudgetHandler).Methods(http.MethodPut)
	api.HandleFunc("/budgets/{id}", h.DeleteBudgetHandler).Methods(http.MethodDelete)

	api.HandleFunc("/goals", h.ListGoalsHandler).Methods(http.MethodGet)
	api.HandleFunc("/goals", h.CreateGoalHandler).Methods(http.MethodPost)
	api.HandleFunc("/goals/{id}", h.GetGoalHandler).Methods(http.MethodGet)
	api.HandleFunc("/goals/{id}", h.UpdateGoalHandler).Methods(http.MethodPut)
	api.HandleFunc("/goals/{id}", h.DeleteGoalHandler).Methods(http.MethodDelete)
	api.HandleFunc("/goals/{id}/contribute", h.ContributeGoalHandler).Methods(http.MethodPost)

	api.HandleFunc("/payments", h.ListPaymentsHandler).Methods(http.MethodGet)
	api.HandleFunc("/payments", h.CreatePaymentHandler).Methods(http.MethodPost)
	api.HandleFunc("/payments/reconcile", h.ReconcilePaymentsHandler).Methods(http.MethodPost)
	api.HandleFunc("/payments/{id}", h.GetPaymentHandler).Methods(http.MethodGet)
	api.HandleFunc("/payments/{id}", h.UpdatePaymentHandler).Methods(http.MethodPut)
	api.HandleFunc("/payments/{id}", h.DeletePaymentHandler).Methods(http.MethodDelete)
	api.HandleFunc("/payments/{id}/pay", h.PayPaymentHandler).Methods(http.MethodPost)

	api.HandleFunc("/dashboard", h.DashboardHandler).Methods(http.MethodGet)
	api.HandleFunc("/settings", h.GetSettingsHandler).Methods(http.MethodGet)
	api.HandleFunc("/settings", h.UpdateSettingsHandler).Methods(http.MethodPut)
	api.HandleFunc("/currencies", h.ListCurrenciesHandler).Methods(http.MethodGet)

	return r
}

// HealthCheckHandler reports liveness.
func (h *Handler) HealthCheckHandler(w http.ResponseWriter, _ *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func routeNotFound(w http.ResponseWriter, _ *http.Request) {
	respondWithError(w, http.StatusNotFound, "route not found")
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	respondWithError(w, http.StatusMethodNotAllowed, "method not allowed")
}
