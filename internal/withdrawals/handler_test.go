package withdrawals

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/edupay/backend/internal/middleware"
	"github.com/edupay/backend/internal/models"
)

// handlerFixture routes requests through a mux so path values resolve the
// same way they do behind the real router.
type handlerFixture struct {
	*fixture
	mux *http.ServeMux
}

func newHandlerFixture(t *testing.T, balance int64) *handlerFixture {
	t.Helper()
	f := newFixture(t, balance)
	h := NewHandler(f.svc, nil)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/withdrawals", h.Create)
	mux.HandleFunc("GET /api/v1/withdrawals", h.History)
	mux.HandleFunc("GET /api/v1/admin/withdrawals/pending", h.ListPending)
	mux.HandleFunc("GET /api/v1/admin/withdrawals", h.ListAll)
	mux.HandleFunc("POST /api/v1/admin/withdrawals/{id}/approve", h.Approve)
	mux.HandleFunc("POST /api/v1/admin/withdrawals/{id}/reject", h.Reject)
	mux.HandleFunc("PATCH /api/v1/admin/withdrawals/{id}", h.Edit)
	return &handlerFixture{fixture: f, mux: mux}
}

func (f *handlerFixture) do(t *testing.T, method, path string, user *models.User, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if user != nil {
		req = req.WithContext(middleware.WithUser(req.Context(), user))
	}
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

func (f *handlerFixture) user() *models.User {
	return &models.User{ID: f.userID, Role: models.RoleUser, KYCVerified: true}
}

func (f *handlerFixture) operator() *models.User {
	return &models.User{ID: f.opID, Role: models.RoleOperator, KYCVerified: true}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHandlerCreate(t *testing.T) {
	f := newHandlerFixture(t, 1000)

	rec := f.do(t, http.MethodPost, "/api/v1/withdrawals", f.user(), map[string]any{
		"amount": "500",
		"method": "bank_transfer",
		"payment_details": map[string]any{
			"bank_transfer": map[string]any{
				"bank_name":      "City Bank",
				"account_number": "1234567890",
				"account_name":   "Test Account",
			},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decodeBody(t, rec)
	data, ok := body["data"].(map[string]any)
	require.True(t, ok, "data envelope missing: %s", rec.Body.String())
	require.Equal(t, "pending", data["status"])
	require.Equal(t, "500", data["amount"])
}

func TestHandlerCreateErrorEnvelope(t *testing.T) {
	f := newHandlerFixture(t, 1000)

	rec := f.do(t, http.MethodPost, "/api/v1/withdrawals", f.user(), map[string]any{
		"amount": "2000",
		"method": "bank_transfer",
		"payment_details": map[string]any{
			"bank_transfer": map[string]any{
				"bank_name":      "City Bank",
				"account_number": "1234567890",
				"account_name":   "Test Account",
			},
		},
	})
	require.Equal(t, http.StatusPaymentRequired, rec.Code)

	body := decodeBody(t, rec)
	errObj, ok := body["error"].(map[string]any)
	require.True(t, ok, "error envelope missing: %s", rec.Body.String())
	require.Equal(t, "INSUFFICIENT_BALANCE", errObj["code"])
	require.NotEmpty(t, errObj["message"])
	require.NotEmpty(t, errObj["suggestedAction"])
	details, ok := errObj["details"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "1000", details["availableBalance"])
}

func TestHandlerCreateValidationError(t *testing.T) {
	f := newHandlerFixture(t, 1000)

	rec := f.do(t, http.MethodPost, "/api/v1/withdrawals", f.user(), map[string]any{
		"amount": "500",
		"method": "mobile_banking",
		"payment_details": map[string]any{
			"mobile_banking": map[string]any{
				"provider":            "bkash",
				"mobile_number":       "01112345678",
				"account_holder_name": "Test Holder",
			},
		},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	errObj := body["error"].(map[string]any)
	require.Equal(t, "INVALID_MOBILE_NUMBER", errObj["code"])
}

func TestHandlerCreateUnauthenticated(t *testing.T) {
	f := newHandlerFixture(t, 1000)
	rec := f.do(t, http.MethodPost, "/api/v1/withdrawals", nil, map[string]any{})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandlerApprove(t *testing.T) {
	f := newHandlerFixture(t, 1000)
	w, err := f.svc.Create(context.Background(), f.userID, bankRequest(500))
	require.NoError(t, err)

	rec := f.do(t, http.MethodPost, "/api/v1/admin/withdrawals/"+w.ID.String()+"/approve", f.operator(), map[string]any{
		"transaction_reference": "TXN-42",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	data := body["data"].(map[string]any)
	require.Equal(t, "approved", data["status"])
	require.Equal(t, "TXN-42", data["transaction_reference"])
}

func TestHandlerApproveBadID(t *testing.T) {
	f := newHandlerFixture(t, 1000)
	rec := f.do(t, http.MethodPost, "/api/v1/admin/withdrawals/not-a-uuid/approve", f.operator(), map[string]any{
		"transaction_reference": "TXN-42",
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerRejectConflictOnDecided(t *testing.T) {
	f := newHandlerFixture(t, 1000)
	ctx := context.Background()
	w, err := f.svc.Create(ctx, f.userID, bankRequest(500))
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, f.opID, w.ID, "TXN-1")
	require.NoError(t, err)

	rec := f.do(t, http.MethodPost, "/api/v1/admin/withdrawals/"+w.ID.String()+"/reject", f.operator(), map[string]any{
		"rejection_reason": "too late",
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	body := decodeBody(t, rec)
	errObj := body["error"].(map[string]any)
	require.Equal(t, "INVALID_STATE_TRANSITION", errObj["code"])
	require.Equal(t, "approved", errObj["details"].(map[string]any)["currentStatus"])
}

func TestHandlerHistoryPagination(t *testing.T) {
	f := newHandlerFixture(t, 10000)
	ctx := context.Background()
	_, err := f.svc.Create(ctx, f.userID, bankRequest(500))
	require.NoError(t, err)

	rec := f.do(t, http.MethodGet, "/api/v1/withdrawals?page=1&limit=20", f.user(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	require.Equal(t, 1, body.Pagination.Page)
	require.Equal(t, 20, body.Pagination.Limit)
	require.Equal(t, 1, body.Pagination.Total)
}

func TestHandlerHistoryEmptyIsArray(t *testing.T) {
	f := newHandlerFixture(t, 0)
	rec := f.do(t, http.MethodGet, "/api/v1/withdrawals", f.user(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"data":[]`)
}

func TestHandlerEdit(t *testing.T) {
	f := newHandlerFixture(t, 1000)
	w, err := f.svc.Create(context.Background(), f.userID, bankRequest(500))
	require.NoError(t, err)

	rec := f.do(t, http.MethodPatch, "/api/v1/admin/withdrawals/"+w.ID.String(), f.operator(), map[string]any{
		"payment_details": map[string]any{
			"bank_transfer": map[string]any{
				"bank_name":      "Prime Bank",
				"account_number": "9876543210",
				"account_name":   "Corrected Name",
			},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	data := body["data"].(map[string]any)
	details := data["payment_details"].(map[string]any)
	require.Equal(t, "Prime Bank", details["bank_transfer"].(map[string]any)["bank_name"])
}