package dashboard

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/edupay/backend/internal/ledger"
	"github.com/edupay/backend/internal/middleware"
	"github.com/edupay/backend/internal/models"
)

// EarningsSource reads the commission reporting buckets.
type EarningsSource interface {
	EarningsSummary(ctx context.Context, userID uuid.UUID) (*models.EarningsSummary, error)
}

// Handler serves the user's balance overview: the authoritative ledger
// numbers plus the earnings buckets, fetched fresh on every call rather
// than cached client-side.
type Handler struct {
	ledger   ledger.Service
	earnings EarningsSource
	log      *slog.Logger
}

func NewHandler(ledgerSvc ledger.Service, earnings EarningsSource, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{ledger: ledgerSvc, earnings: earnings, log: log}
}

// GetBalance handles GET /api/v1/balance.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	if user == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	bal, err := h.ledger.Get(r.Context(), user.ID)
	if err != nil {
		h.log.Error("get balance", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	summary, err := h.earnings.EarningsSummary(r.Context(), user.ID)
	if err != nil {
		h.log.Error("get earnings", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"withdrawable":    bal.Withdrawable,
			"pending":         bal.Pending,
			"total_withdrawn": bal.TotalWithdrawn,
			"earnings":        summary,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
