package api

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/opsdash/forget-me-not/internal/auth"
)

// Route paths for the exclusion management surfaces.
const (
	PathOverview     = "/admin/config/system/forget_me_not"
	PathSelectForm   = "/admin/config/system/forget_me_not/select_modules"
	PathRemoveModule = "/admin/config/system/forget_me_not/remove_module"
	PathUpdates      = "/api/updates"
)

// SetupRoutes configures all routes for the admin server.
func SetupRoutes(h *Handlers, authManager *auth.Manager) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	// CORS - allow credentials for the session cookie
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check (no auth required)
	r.Get("/health", h.HealthCheck)

	// Auth routes (no auth required)
	if authManager != nil {
		r.Get("/auth/login", authManager.HandleLogin)
		r.Get("/auth/callback", authManager.HandleCallback)
		r.Get("/auth/logout", authManager.HandleLogout)
	}

	devMode := os.Getenv("DEV_MODE") == "true" || os.Getenv("ENVIRONMENT") == "development"

	// Capability gate for HTML admin pages: unauthenticated users are sent
	// to login, authenticated users without the capability get a 403 page.
	// Runs before any handler touches the store.
	requireAdminPage := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if authManager == nil || devMode {
				next.ServeHTTP(w, req)
				return
			}
			if !authManager.IsAuthenticated(req) {
				http.Redirect(w, req, "/auth/login", http.StatusTemporaryRedirect)
				return
			}
			if !authManager.HasCapability(req, auth.CapAdministerSiteConfig) {
				http.Error(w, "Access denied", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, req)
		})
	}

	// Capability gate for JSON endpoints: same capability, JSON responses.
	requireAdminJSON := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if authManager == nil || devMode {
				next.ServeHTTP(w, req)
				return
			}
			if !authManager.IsAuthenticated(req) {
				respondError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if !authManager.HasCapability(req, auth.CapAdministerSiteConfig) {
				respondError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, req)
		})
	}

	// Exclusion management pages
	r.Group(func(r chi.Router) {
		r.Use(requireAdminPage)
		r.Get(PathOverview, h.Overview)
		r.Get(PathSelectForm, h.SelectModulesForm)
		r.Post(PathSelectForm, h.SubmitSelection)
	})

	// Removal endpoint: called asynchronously by the overview page script
	r.Group(func(r chi.Router) {
		r.Use(requireAdminJSON)
		r.Post(PathRemoveModule, h.RemoveModule)
	})

	// Update-check report (filtered through the exclusion list)
	r.Group(func(r chi.Router) {
		r.Use(requireAdminJSON)
		r.Get(PathUpdates, h.GetUpdates)
	})

	return r
}
