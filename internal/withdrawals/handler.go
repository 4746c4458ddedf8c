package withdrawals

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/edupay/backend/internal/apperr"
	"github.com/edupay/backend/internal/middleware"
	"github.com/edupay/backend/internal/models"
)

// Handler serves the withdrawal endpoints. All routes sit behind JWTAuth;
// the operator routes additionally behind RequireOperator.
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

type createRequest struct {
	Amount         decimal.Decimal       `json:"amount"`
	Method         string                `json:"method"`
	PaymentDetails models.PaymentDetails `json:"payment_details"`
}

type approveRequest struct {
	TransactionReference string `json:"transaction_reference"`
}

type rejectRequest struct {
	RejectionReason string `json:"rejection_reason"`
}

type editRequest struct {
	PaymentDetails models.PaymentDetails `json:"payment_details"`
}

type pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

type listResponse struct {
	Data       []*models.Withdrawal `json:"data"`
	Pagination pagination           `json:"pagination"`
}

// Create handles POST /api/v1/withdrawals.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	if user == nil {
		h.writeError(w, apperr.New(apperr.UnauthorizedAccess))
		return
	}
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperr.New(apperr.MissingRequiredFields).WithDetail("reason", "invalid JSON"))
		return
	}
	created, err := h.svc.Create(r.Context(), user.ID, CreateRequest{
		Amount:         req.Amount,
		Method:         req.Method,
		PaymentDetails: req.PaymentDetails,
	})
	if err != nil {
		h.handleError(w, "create withdrawal", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"data": created})
}

// History handles GET /api/v1/withdrawals.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	if user == nil {
		h.writeError(w, apperr.New(apperr.UnauthorizedAccess))
		return
	}
	f := filterFromQuery(r)
	list, total, err := h.svc.History(r.Context(), user.ID, f)
	if err != nil {
		h.handleError(w, "list history", err)
		return
	}
	writeList(w, list, normalize(f), total)
}

// ListPending handles GET /api/v1/admin/withdrawals/pending.
func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	f := filterFromQuery(r)
	list, total, err := h.svc.ListPending(r.Context(), f.Page, f.Limit)
	if err != nil {
		h.handleError(w, "list pending", err)
		return
	}
	writeList(w, list, normalize(f), total)
}

// ListAll handles GET /api/v1/admin/withdrawals.
func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	f := filterFromQuery(r)
	list, total, err := h.svc.ListAll(r.Context(), f)
	if err != nil {
		h.handleError(w, "list all", err)
		return
	}
	writeList(w, list, normalize(f), total)
}

// Approve handles POST /api/v1/admin/withdrawals/{id}/approve.
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	operator, requestID, ok := h.operatorAndID(w, r)
	if !ok {
		return
	}
	var req approveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperr.New(apperr.MissingRequiredFields).WithDetail("reason", "invalid JSON"))
		return
	}
	updated, err := h.svc.Approve(r.Context(), operator.ID, requestID, req.TransactionReference)
	if err != nil {
		h.handleError(w, "approve withdrawal", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": updated})
}

// Reject handles POST /api/v1/admin/withdrawals/{id}/reject.
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	operator, requestID, ok := h.operatorAndID(w, r)
	if !ok {
		return
	}
	var req rejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperr.New(apperr.MissingRequiredFields).WithDetail("reason", "invalid JSON"))
		return
	}
	updated, err := h.svc.Reject(r.Context(), operator.ID, requestID, req.RejectionReason)
	if err != nil {
		h.handleError(w, "reject withdrawal", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": updated})
}

// Edit handles PATCH /api/v1/admin/withdrawals/{id}.
func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	_, requestID, ok := h.operatorAndID(w, r)
	if !ok {
		return
	}
	var req editRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperr.New(apperr.MissingRequiredFields).WithDetail("reason", "invalid JSON"))
		return
	}
	updated, err := h.svc.Edit(r.Context(), requestID, req.PaymentDetails)
	if err != nil {
		h.handleError(w, "edit withdrawal", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": updated})
}

func (h *Handler) operatorAndID(w http.ResponseWriter, r *http.Request) (*models.User, uuid.UUID, bool) {
	user := middleware.UserFromCtx(r.Context())
	if user == nil {
		h.writeError(w, apperr.New(apperr.UnauthorizedAccess))
		return nil, uuid.Nil, false
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.writeError(w, apperr.New(apperr.NotFound))
		return nil, uuid.Nil, false
	}
	return user, id, true
}

func (h *Handler) handleError(w http.ResponseWriter, op string, err error) {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		h.writeError(w, ae)
		return
	}
	h.log.Error(op, "error", err)
	h.writeError(w, apperr.New(apperr.InternalServerError))
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

func filterFromQuery(r *http.Request) ListFilter {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return ListFilter{
		Status:    q.Get("status"),
		Method:    q.Get("method"),
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
		Page:      page,
		Limit:     limit,
	}
}

func writeList(w http.ResponseWriter, list []*models.Withdrawal, f ListFilter, total int) {
	if list == nil {
		list = []*models.Withdrawal{}
	}
	writeJSON(w, http.StatusOK, listResponse{
		Data:       list,
		Pagination: pagination{Page: f.Page, Limit: f.Limit, Total: total},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
