// Package router sets up all HTTP routes and middleware chains for the
// invitation platform. Routes fall into the public invitation pages, the
// guest-facing /api and the JSON admin API.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"undangan/internal/handlers"
	"undangan/internal/middleware"
)

// Deps holds everything the router mounts.
type Deps struct {
	Sessions    middleware.SessionReader
	RSVPLimiter *middleware.RateLimiter

	Public   *handlers.Public
	GuestAPI *handlers.GuestAPI
	Auth     *handlers.Auth
	Admin    *handlers.Admin
	Media    *handlers.Media

	// Uploads serves locally stored media under /uploads. Nil when media
	// lives in object storage.
	Uploads http.Handler

	RootDomain  string
	CORSOrigins []string
	// Secure marks a TLS deployment: secure cookies and HSTS.
	Secure bool
}

// New creates the HTTP handler with all middleware and route groups wired
// up. Host-based tenant routing runs in front of the router so that
// <sub>.<root>/ resolves to the /s/{subdomain} routes.
func New(d Deps) http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders(d.Secure))

	// Health check: no auth, no CSRF.
	r.Get("/health", healthHandler)

	// Guest-facing API, called from invitation pages that may be hosted on
	// any tenant subdomain.
	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: d.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))

		r.With(d.RSVPLimiter.Middleware).Post("/rsvp", d.GuestAPI.SubmitRSVP)
		r.Get("/rsvp/{subdomain}", d.GuestAPI.Submissions)
		r.Get("/wishes/{subdomain}", d.GuestAPI.Wishes)
		r.Get("/wishes/{subdomain}/ws", d.GuestAPI.WishSocket)
	})

	if d.Uploads != nil {
		r.Handle("/uploads/*", http.StripPrefix("/uploads", d.Uploads))
	}

	// Published invitations.
	r.Get("/s/{subdomain}", d.Public.Invitation)
	r.Get("/s/{subdomain}/rsvp", d.GuestAPI.Confirmations)
	r.Get("/s/{subdomain}/*", d.Public.InvitationAsset)
	r.Head("/s/{subdomain}/*", d.Public.InvitationAsset)

	// Template previews for the admin editor and the catalog.
	r.Get("/preview/{templateID}", d.Public.Preview)
	r.Get("/preview/{templateID}/*", d.Public.PreviewAsset)
	r.Head("/preview/{templateID}/*", d.Public.PreviewAsset)

	// Admin API. CSRF on every route, sessions required past login.
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.CSRF(d.Secure))
		r.Use(middleware.LoadSession(d.Sessions))

		r.Get("/csrf", d.Auth.CSRFToken)
		r.Post("/login", d.Auth.Login)
		r.Post("/logout", d.Auth.Logout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)

			r.Get("/me", d.Auth.Me)
			r.Post("/password", d.Auth.ChangePassword)

			// Templates
			r.Route("/templates", func(r chi.Router) {
				r.Get("/", d.Admin.TemplatesList)
				r.Post("/", d.Admin.TemplateCreate)
				r.Get("/{id}", d.Admin.TemplateGet)
				r.Put("/{id}", d.Admin.TemplateUpdate)
				r.Delete("/{id}", d.Admin.TemplateDelete)
				r.Get("/{id}/files", d.Admin.TemplateFiles)
				r.Put("/{id}/files", d.Admin.TemplateSaveFiles)
			})

			// Price tiers
			r.Route("/tiers", func(r chi.Router) {
				r.Get("/", d.Admin.TiersList)
				r.Post("/", d.Admin.TierCreate)
				r.Get("/{id}", d.Admin.TierGet)
				r.Put("/{id}", d.Admin.TierUpdate)
				r.Delete("/{id}", d.Admin.TierDelete)
			})

			// Invoices and their guest lists
			r.Route("/invoices", func(r chi.Router) {
				r.Get("/", d.Admin.InvoicesList)
				r.Post("/", d.Admin.InvoiceCreate)
				r.Get("/{id}", d.Admin.InvoiceGet)
				r.Put("/{id}", d.Admin.InvoiceUpdate)
				r.Delete("/{id}", d.Admin.InvoiceDelete)
				r.Put("/{id}/status", d.Admin.InvoiceSetStatus)
				r.Get("/{id}/files", d.Admin.InvoiceFiles)
				r.Put("/{id}/files", d.Admin.InvoiceSaveFiles)
				r.Post("/{id}/warm", d.Admin.InvoiceWarm)

				r.Get("/{id}/guests", d.Admin.GuestsList)
				r.Post("/{id}/guests", d.Admin.GuestAdd)
				r.Post("/{id}/guests/bulk", d.Admin.GuestsBulkAdd)
				r.Delete("/{id}/guests/{guestID}", d.Admin.GuestDelete)
			})

			// Media library
			r.Route("/media", func(r chi.Router) {
				r.Get("/", d.Media.List)
				r.Post("/", d.Media.Upload)
				r.Delete("/{id}", d.Media.Delete)
			})

			// Cache
			r.Post("/cache/purge", d.Admin.CachePurge)
			r.Get("/cache/log", d.Admin.CacheLog)
		})
	})

	return middleware.Subdomain(d.RootDomain)(r)
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
