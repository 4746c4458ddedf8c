package router

import (
	"net/http"

	"github.com/edupay/backend/internal/auth"
	"github.com/edupay/backend/internal/commission"
	"github.com/edupay/backend/internal/dashboard"
	"github.com/edupay/backend/internal/middleware"
	"github.com/edupay/backend/internal/withdrawals"
)

// New returns an http.Handler serving the API under /api/v1.
// Middleware chain: JWTAuth for every authenticated route, plus
// RequireOperator for the admin surface.
func New(
	authHandler *auth.Handler,
	withdrawalHandler *withdrawals.Handler,
	commissionHandler *commission.Handler,
	dashHandler *dashboard.Handler,
	authSvc auth.Service,
) http.Handler {
	mux := http.NewServeMux()
	base := "/api/v1"

	mux.HandleFunc("POST "+base+"/auth/register", authHandler.Register)
	mux.HandleFunc("POST "+base+"/auth/login", authHandler.Login)

	authed := middleware.JWTAuth(authSvc, authSvc)
	operator := func(h http.HandlerFunc) http.Handler {
		return authed(middleware.RequireOperator(h))
	}

	mux.Handle("GET "+base+"/balance", authed(http.HandlerFunc(dashHandler.GetBalance)))
	mux.Handle("POST "+base+"/withdrawals", authed(http.HandlerFunc(withdrawalHandler.Create)))
	mux.Handle("GET "+base+"/withdrawals", authed(http.HandlerFunc(withdrawalHandler.History)))

	mux.Handle("GET "+base+"/admin/withdrawals/pending", operator(withdrawalHandler.ListPending))
	mux.Handle("GET "+base+"/admin/withdrawals", operator(withdrawalHandler.ListAll))
	mux.Handle("POST "+base+"/admin/withdrawals/{id}/approve", operator(withdrawalHandler.Approve))
	mux.Handle("POST "+base+"/admin/withdrawals/{id}/reject", operator(withdrawalHandler.Reject))
	mux.Handle("PATCH "+base+"/admin/withdrawals/{id}", operator(withdrawalHandler.Edit))
	mux.Handle("POST "+base+"/admin/purchases/{id}/confirm", operator(commissionHandler.ConfirmPurchase))

	return mux
}
