// Package adapthttp implements the HTTP adapter for the application.
package adapthttp

import (
	"net/http"

	"github.com/rs/zerolog"

	"baclog/internal/app"
)

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	drinks  *app.DrinkService
	profile *app.ProfileService
	coords  *app.Registry
	auth    *app.AuthService
	oidc    *OIDC
	log     zerolog.Logger

	// disableAuth injects a fixed test user instead of validating sessions.
	disableAuth bool
}

// New creates a Server wired to the given application services. oidc may be
// nil when SSO is not configured.
func New(drinks *app.DrinkService, profile *app.ProfileService, coords *app.Registry, auth *app.AuthService, oidc *OIDC, log zerolog.Logger) *Server {
	return &Server{drinks: drinks, profile: profile, coords: coords, auth: auth, oidc: oidc, log: log}
}

// WithoutAuth disables session validation and serves every request as a
// fixed test user. Test use only.
func (s *Server) WithoutAuth() *Server {
	s.disableAuth = true
	return s
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	public := http.NewServeMux()
	public.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	public.HandleFunc("/auth/signup", s.handleSignup)
	public.HandleFunc("/auth/login", s.handleLogin)
	public.HandleFunc("/auth/logout", s.handleLogout)
	public.HandleFunc("/auth/sso/login", s.handleSSOLogin)
	public.HandleFunc("/auth/sso/callback", s.handleSSOCallback)
	public.HandleFunc("/bac/effects", s.handleBACEffects)

	protected := http.NewServeMux()
	protected.HandleFunc("/profile", s.handleProfile)
	protected.HandleFunc("/drinks", s.handleDrinks)
	protected.HandleFunc("/drinks/recent", s.handleDrinksRecent)
	protected.HandleFunc("/drinks/remove", s.handleDrinksRemove)
	protected.HandleFunc("/drinks/undo-last", s.handleDrinksUndoLast)
	protected.HandleFunc("/bac/current", s.handleBACCurrent)
	protected.HandleFunc("/bac/recompute", s.handleBACRecompute)
	protected.HandleFunc("/bac/predict", s.handleBACPredict)

	api := http.NewServeMux()
	api.Handle("/auth/", public)
	api.Handle("/health", public)
	api.Handle("/bac/effects", public)
	api.Handle("/", s.authMiddleware(protected))

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))

	return s.loggingMiddleware(withNoCache(root))
}
