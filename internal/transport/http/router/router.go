package router

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/baechuer/contacts-api/internal/transport/http/middleware"
)

type HealthHandler interface {
	Healthz(w http.ResponseWriter, r *http.Request)
	Readyz(w http.ResponseWriter, r *http.Request)
}

type UsersHandler interface {
	Register(w http.ResponseWriter, r *http.Request)
	Login(w http.ResponseWriter, r *http.Request)
	Logout(w http.ResponseWriter, r *http.Request)
	Current(w http.ResponseWriter, r *http.Request)
	UpdateSubscription(w http.ResponseWriter, r *http.Request)
	UpdateAvatar(w http.ResponseWriter, r *http.Request)

	// Email verification
	VerifyEmail(w http.ResponseWriter, r *http.Request)
	ResendVerification(w http.ResponseWriter, r *http.Request)
}

type ContactsHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Create(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
	SetFavorite(w http.ResponseWriter, r *http.Request)
}

type Deps struct {
	Health   HealthHandler
	Users    UsersHandler
	Contacts ContactsHandler

	AuthMW func(http.Handler) http.Handler

	// Optional per-route limiters; nil means unlimited.
	RegisterLimit func(http.Handler) http.Handler
	LoginLimit    func(http.Handler) http.Handler
	VerifyLimit   func(http.Handler) http.Handler

	// AvatarDir is served under /avatars when avatars are stored locally.
	AvatarDir string
}

func New(deps Deps) (http.Handler, error) {
	if deps.Health == nil {
		return nil, fmt.Errorf("nil Health handler")
	}
	if deps.Users == nil {
		return nil, fmt.Errorf("nil Users handler")
	}
	if deps.Contacts == nil {
		return nil, fmt.Errorf("nil Contacts handler")
	}
	if deps.AuthMW == nil {
		return nil, fmt.Errorf("nil Auth middleware")
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)

	r.Get("/healthz", deps.Health.Healthz)
	r.Get("/readyz", deps.Health.Readyz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	if deps.AvatarDir != "" {
		fs := http.StripPrefix("/avatars/", http.FileServer(http.Dir(deps.AvatarDir)))
		r.Method(http.MethodGet, "/avatars/*", fs)
	}

	r.Route("/api/users", func(r chi.Router) {
		r.With(opt(deps.RegisterLimit)).Post("/register", deps.Users.Register)

		r.Group(func(r chi.Router) {
			r.Use(opt(deps.LoginLimit))
			r.Put("/login", deps.Users.Login)
			r.Post("/login", deps.Users.Login)
		})

		// --- Email verification ---
		r.Get("/verify/{verificationToken}", deps.Users.VerifyEmail)
		r.With(opt(deps.VerifyLimit)).Post("/verify", deps.Users.ResendVerification)

		// --- Authenticated ---
		r.Group(func(r chi.Router) {
			r.Use(deps.AuthMW)
			r.Put("/logout", deps.Users.Logout)
			r.Post("/logout", deps.Users.Logout)
			r.Get("/current", deps.Users.Current)
			r.Patch("/", deps.Users.UpdateSubscription)
			r.Patch("/avatars", deps.Users.UpdateAvatar)
		})
	})

	r.Route("/api/contacts", func(r chi.Router) {
		r.Use(deps.AuthMW)
		r.Get("/", deps.Contacts.List)
		r.Post("/", deps.Contacts.Create)
		r.Get("/{contactId}", deps.Contacts.Get)
		r.Put("/{contactId}", deps.Contacts.Update)
		r.Delete("/{contactId}", deps.Contacts.Delete)
		r.Patch("/{contactId}/favorite", deps.Contacts.SetFavorite)
	})

	return r, nil
}

func opt(mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	if mw == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return mw
}
