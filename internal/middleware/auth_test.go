package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/edupay/backend/internal/models"
)

type stubTokens struct {
	userID uuid.UUID
	role   string
	err    error
}

func (s stubTokens) ValidateToken(_ context.Context, _ string) (uuid.UUID, string, error) {
	return s.userID, s.role, s.err
}

type stubUsers struct {
	users map[uuid.UUID]*models.User
}

func (s stubUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	return s.users[id], nil
}

func okHandler(t *testing.T, wantUser uuid.UUID) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := UserFromCtx(r.Context())
		if u == nil {
			t.Error("no user in context")
		} else if u.ID != wantUser {
			t.Errorf("user in context = %s, want %s", u.ID, wantUser)
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestJWTAuthLoadsUserIntoContext(t *testing.T) {
	userID := uuid.New()
	users := stubUsers{users: map[uuid.UUID]*models.User{
		userID: {ID: userID, Role: models.RoleUser},
	}}
	mw := JWTAuth(stubTokens{userID: userID, role: models.RoleUser}, users)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/balance", nil)
	req.Header.Set("Authorization", "Bearer some.jwt.token")
	rec := httptest.NewRecorder()
	mw(okHandler(t, userID)).ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
}

func TestJWTAuthRejectsMissingHeader(t *testing.T) {
	mw := JWTAuth(stubTokens{}, stubUsers{})
	for _, header := range []string{"", "Bearer", "Basic abc", "token abc"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/balance", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		mw(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Errorf("handler reached with header %q", header)
		})).ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("header %q: status = %d, want 401", header, rec.Code)
		}
	}
}

func TestJWTAuthRejectsInvalidToken(t *testing.T) {
	mw := JWTAuth(stubTokens{err: errors.New("token expired")}, stubUsers{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/balance", nil)
	req.Header.Set("Authorization", "Bearer expired.jwt")
	rec := httptest.NewRecorder()
	mw(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("handler reached with invalid token")
	})).ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestJWTAuthRejectsDeletedUser(t *testing.T) {
	// Valid token but the user no longer exists.
	mw := JWTAuth(stubTokens{userID: uuid.New()}, stubUsers{users: map[uuid.UUID]*models.User{}})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/balance", nil)
	req.Header.Set("Authorization", "Bearer stale.jwt")
	rec := httptest.NewRecorder()
	mw(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("handler reached for deleted user")
	})).ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRequireOperator(t *testing.T) {
	tests := []struct {
		name     string
		user     *models.User
		wantCode int
	}{
		{"operator", &models.User{ID: uuid.New(), Role: models.RoleOperator}, http.StatusNoContent},
		{"regular user", &models.User{ID: uuid.New(), Role: models.RoleUser}, http.StatusForbidden},
		{"unauthenticated", nil, http.StatusUnauthorized},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := RequireOperator(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			}))
			req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/withdrawals/pending", nil)
			if tc.user != nil {
				req = req.WithContext(WithUser(req.Context(), tc.user))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantCode)
			}
		})
	}
}
