package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iho/fintrack/internal/adapter/http/dto"
	"github.com/iho/fintrack/internal/domain"
)

// ReconciliationService defines the behavior needed by ReconciliationHandler.
type ReconciliationService interface {
	BalanceAsOf(ctx context.Context, accountID string, asOf time.Time) (domain.Money, error)
	CurrentBalance(ctx context.Context, accountID string) (domain.Money, error)
	AuditAccount(ctx context.Context, accountID string) ([]domain.Inconsistency, error)
}

// ReconciliationHandler serves derived balances and audits.
type ReconciliationHandler struct {
	reconUC ReconciliationService
}

// NewReconciliationHandler creates a new ReconciliationHandler.
func NewReconciliationHandler(reconUC ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{reconUC: reconUC}
}

// Balance returns the account's balance, optionally as of a past
// instant (?as_of=RFC3339). The current balance may be served from
// cache; historical balances are always derived.
func (h *ReconciliationHandler) Balance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	asOf, err := parseTimeQuery(r, "as_of")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid as_of parameter", err.Error())
		return
	}

	var balance domain.Money

	at := time.Now().UTC()
	if asOf != nil {
		at = asOf.UTC()
		balance, err = h.reconUC.BalanceAsOf(r.Context(), id, at)
	} else {
		balance, err = h.reconUC.CurrentBalance(r.Context(), id)
	}

	if err != nil {
		writeDomainError(w, err, "failed to derive balance")
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceFromDomain(id, balance, at))
}

// Audit scans the account's history for inconsistencies.
func (h *ReconciliationHandler) Audit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	findings, err := h.reconUC.AuditAccount(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "failed to audit account")
		return
	}

	writeJSON(w, http.StatusOK, dto.AuditFromDomain(id, findings))
}
