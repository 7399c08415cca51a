package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/glossworks/detailing-platform/internal/analytics"
	"github.com/glossworks/detailing-platform/internal/appointments"
	"github.com/glossworks/detailing-platform/internal/catalog"
	"github.com/glossworks/detailing-platform/internal/clients"
	"github.com/glossworks/detailing-platform/internal/estimate"
	httpmiddleware "github.com/glossworks/detailing-platform/internal/http/middleware"
	"github.com/glossworks/detailing-platform/internal/invoices"
	"github.com/glossworks/detailing-platform/internal/reminders"
	"github.com/glossworks/detailing-platform/internal/settings"
	"github.com/glossworks/detailing-platform/internal/slots"
	"github.com/glossworks/detailing-platform/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger              *logging.Logger
	SlotsHandler        *slots.Handler
	AppointmentsHandler *appointments.Handler
	ClientsHandler      *clients.Handler
	CatalogHandler      *catalog.Handler
	EstimateHandler     *estimate.Handler
	InvoicesHandler     *invoices.Handler
	RemindersHandler    *reminders.Handler
	SettingsHandler     *settings.Handler
	AnalyticsHandler    *analytics.Handler
	AdminAnalytics      *analytics.AdminHandler
	MetricsHandler      http.Handler

	AdminJWTSecret     string
	CORSAllowedOrigins []string
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// New creates a new Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints: health, metrics, and the anonymous quote calculator
	// that marketing sites embed. The calculator gets a rate limit because it
	// takes unauthenticated traffic.
	r.Group(func(public chi.Router) {
		public.Get("/health", handleHealth)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.EstimateHandler != nil {
			rate, burst := cfg.RateLimitPerSecond, cfg.RateLimitBurst
			if rate <= 0 {
				rate, burst = 10, 20
			}
			public.With(httpmiddleware.RateLimit(rate, burst)).
				Post("/estimates/quick", cfg.EstimateHandler.QuickQuote)
		}
	})

	// Tenant-scoped API routes.
	r.Group(func(tenant chi.Router) {
		tenant.Use(requireOrgID)

		if cfg.SlotsHandler != nil {
			tenant.Route("/slots", func(r chi.Router) {
				r.Post("/", cfg.SlotsHandler.Open)
				r.Get("/", cfg.SlotsHandler.List)
				r.Delete("/{slotID}", cfg.SlotsHandler.CloseSlot)
			})
		}

		if cfg.AppointmentsHandler != nil {
			tenant.Route("/appointments", func(r chi.Router) {
				r.Post("/", cfg.AppointmentsHandler.Book)
				r.Get("/", cfg.AppointmentsHandler.List)
				r.Route("/{appointmentID}", func(r chi.Router) {
					r.Get("/", cfg.AppointmentsHandler.Get)
					r.Post("/cancel", cfg.AppointmentsHandler.Cancel)
					r.Post("/complete", cfg.AppointmentsHandler.Complete)
					r.Post("/no-show", cfg.AppointmentsHandler.NoShow)
					r.Post("/reschedule", cfg.AppointmentsHandler.Reschedule)
					if cfg.RemindersHandler != nil {
						r.Get("/reminders", cfg.RemindersHandler.ListForAppointment)
					}
				})
			})
		}

		if cfg.ClientsHandler != nil {
			tenant.Route("/clients", func(r chi.Router) {
				r.Post("/", cfg.ClientsHandler.Create)
				r.Get("/", cfg.ClientsHandler.List)
				r.Get("/{clientID}", cfg.ClientsHandler.Get)
				r.Put("/{clientID}", cfg.ClientsHandler.Update)
				r.Delete("/{clientID}", cfg.ClientsHandler.Delete)
			})
		}

		if cfg.CatalogHandler != nil {
			tenant.Route("/services", func(r chi.Router) {
				r.Post("/", cfg.CatalogHandler.Create)
				r.Get("/", cfg.CatalogHandler.List)
				r.Get("/{serviceID}", cfg.CatalogHandler.Get)
				r.Put("/{serviceID}", cfg.CatalogHandler.Update)
				r.Post("/{serviceID}/deactivate", cfg.CatalogHandler.Deactivate)
				r.Post("/{serviceID}/activate", cfg.CatalogHandler.Activate)
			})
		}

		if cfg.InvoicesHandler != nil {
			tenant.Route("/invoices", func(r chi.Router) {
				r.Post("/", cfg.InvoicesHandler.Create)
				r.Get("/", cfg.InvoicesHandler.List)
				r.Get("/{invoiceID}", cfg.InvoicesHandler.Get)
				r.Put("/{invoiceID}", cfg.InvoicesHandler.UpdateDraft)
				r.Post("/{invoiceID}/send", cfg.InvoicesHandler.Send)
				r.Post("/{invoiceID}/pay", cfg.InvoicesHandler.MarkPaid)
				r.Post("/{invoiceID}/void", cfg.InvoicesHandler.Void)
			})
		}

		if cfg.EstimateHandler != nil {
			tenant.Post("/estimates/itemized", cfg.EstimateHandler.ItemizedQuote)
		}

		if cfg.SettingsHandler != nil {
			tenant.Route("/settings", func(r chi.Router) {
				r.Get("/", cfg.SettingsHandler.Get)
				r.Put("/", cfg.SettingsHandler.Update)
			})
		}

		if cfg.AnalyticsHandler != nil {
			tenant.Get("/analytics/dashboard", cfg.AnalyticsHandler.Dashboard)
		}
	})

	// Admin routes (cross-tenant, protected by JWT).
	if cfg.AdminJWTSecret != "" && cfg.AdminAnalytics != nil {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminJWTSecret))
			admin.Get("/orgs", cfg.AdminAnalytics.ListOrgs)
			admin.Get("/orgs/{orgID}/overview", cfg.AdminAnalytics.GetOrgOverview)
		})
	}

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
