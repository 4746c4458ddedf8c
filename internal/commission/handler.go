package commission

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/edupay/backend/internal/apperr"
	"github.com/edupay/backend/internal/middleware"
)

// Handler serves the purchase-confirmation endpoint (operator only).
type Handler struct {
	svc *Service
	log *slog.Logger
}

func NewHandler(svc *Service, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, log: log}
}

// ConfirmPurchase handles POST /api/v1/admin/purchases/{id}/confirm.
func (h *Handler) ConfirmPurchase(w http.ResponseWriter, r *http.Request) {
	operator := middleware.UserFromCtx(r.Context())
	if operator == nil {
		h.writeError(w, apperr.New(apperr.UnauthorizedAccess))
		return
	}
	purchaseID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.writeError(w, apperr.New(apperr.NotFound))
		return
	}
	p, err := h.svc.ConfirmPurchase(r.Context(), operator.ID, purchaseID)
	if err != nil {
		var ae *apperr.Error
		if errors.As(err, &ae) {
			h.writeError(w, ae)
			return
		}
		h.log.Error("confirm purchase", "error", err)
		h.writeError(w, apperr.New(apperr.InternalServerError))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": p})
}

func (h *Handler) writeError(w http.ResponseWriter, ae *apperr.Error) {
	writeJSON(w, ae.Kind.HTTPStatus(), map[string]any{
		"error": map[string]any{
			"code":            ae.Kind.Code(),
			"message":         ae.Kind.UserMessage(),
			"details":         ae.Details,
			"suggestedAction": ae.Kind.SuggestedAction(),
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
