package routes

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mtpultz/goal-digger/internal/app"
	"github.com/mtpultz/goal-digger/internal/handler"
	"github.com/mtpultz/goal-digger/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	debug := app.Cfg.AppDebug

	// Handlers
	health := handler.NewHealthHandler(app.DB)
	auth := handler.NewAuthHandler(app.AuthService, debug)
	goal := handler.NewGoalHandler(app.GoalService, app.Cfg.AppURL, debug)
	comment := handler.NewCommentHandler(app.CommentService, debug)
	buddy := handler.NewBuddyHandler(app.BuddyService, debug)

	mux := http.NewServeMux()

	// ============================================================================
	// OPERATIONS
	// ============================================================================

	mux.HandleFunc("GET /health", health.Health)
	mux.HandleFunc("GET /ready", health.Ready)
	mux.Handle("GET /metrics", promhttp.Handler())

	// ============================================================================
	// AUTH (rate limited)
	// ============================================================================

	rateLimiter := middleware.RateLimit(app.AuthLimiter)

	mux.HandleFunc("POST /auth/register", rateLimiter(auth.Register))
	mux.HandleFunc("POST /auth/login", rateLimiter(auth.Login))
	mux.HandleFunc("POST /auth/forgot-password", rateLimiter(auth.ForgotPassword))
	mux.HandleFunc("POST /auth/reset-password", rateLimiter(auth.ResetPassword))
	mux.HandleFunc("POST /auth/verify-email", rateLimiter(auth.VerifyEmail))
	mux.HandleFunc("POST /auth/resend-verification", rateLimiter(auth.ResendVerification))

	// ============================================================================
	// PROTECTED ROUTES
	// ============================================================================

	mux.HandleFunc("GET /user", middleware.RequireAuth(auth.CurrentUser))

	// Goals
	mux.HandleFunc("GET /goals/active", middleware.RequireAuth(goal.Active))
	mux.HandleFunc("POST /goals", middleware.RequireAuth(goal.Create))
	mux.HandleFunc("GET /goals/{id}", middleware.RequireAuth(goal.Get))
	mux.HandleFunc("PATCH /goals/{id}", middleware.RequireAuth(goal.Update))
	mux.HandleFunc("DELETE /goals/{id}", middleware.RequireAuth(goal.Delete))

	// Comments
	mux.HandleFunc("GET /goals/{goalId}/comments", middleware.RequireAuth(comment.List))
	mux.HandleFunc("POST /goals/{goalId}/comments", middleware.RequireAuth(comment.Create))
	mux.HandleFunc("PATCH /goals/{goalId}/comments/{id}", middleware.RequireAuth(comment.Update))
	mux.HandleFunc("DELETE /goals/{goalId}/comments/{id}", middleware.RequireAuth(comment.Delete))

	// Buddies
	mux.HandleFunc("POST /goals/{id}/buddies", middleware.RequireAuth(buddy.Invite))
	mux.HandleFunc("GET /buddy-goals", middleware.RequireAuth(buddy.Invitations))
	mux.HandleFunc("PATCH /buddy-goals/{id}", middleware.RequireAuth(buddy.Respond))

	// ============================================================================
	// FALLBACK
	// ============================================================================

	mux.HandleFunc("/", handler.NotFound)

	// Global middleware - executed in order (top to bottom)
	return middleware.Chain(
		mux,
		middleware.Recover,
		middleware.RequestID,
		middleware.RequestLogging,
		middleware.Authenticate(app.AuthService),
		middleware.Metrics, // Must stay last: reads the route pattern the mux sets
	)
}
