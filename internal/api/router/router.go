package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/openclinic/frontdesk/internal/http/handlers"
	httpmiddleware "github.com/openclinic/frontdesk/internal/http/middleware"
	"github.com/openclinic/frontdesk/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger       *logging.Logger
	Queues       *handlers.QueueHandler
	Kiosk        *handlers.KioskHandler
	Booking      *handlers.BookingHandler
	Registry     *handlers.RegistryHandler
	Appointments *handlers.AppointmentsHandler
	Display      *handlers.DisplayHandler

	// DisplaySocket upgrades waiting-room screens; nil disables the push
	// path and screens fall back to polling the board endpoint.
	DisplaySocket http.Handler

	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
}

// New creates a Chi router with all routes configured.
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

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api", func(api chi.Router) {
		if cfg.Queues != nil {
			api.Route("/queues", func(q chi.Router) {
				q.Get("/", cfg.Queues.Snapshot)
				q.Post("/", cfg.Queues.CreateQueue)
				q.Post("/{queueID}/call-next", cfg.Queues.CallNext)
			})
			api.Route("/tickets", func(t chi.Router) {
				t.Post("/{ticketID}/complete", cfg.Queues.Complete)
				t.Post("/{ticketID}/unredeemed", cfg.Queues.MarkUnredeemed)
				t.Post("/{ticketID}/redirect", cfg.Queues.Redirect)
			})
		}

		if cfg.Kiosk != nil {
			api.Post("/kiosk/tickets", cfg.Kiosk.IssueTicket)
		}

		if cfg.Booking != nil {
			api.Route("/booking", func(b chi.Router) {
				b.Get("/medics", cfg.Booking.SearchMedics)
				b.Get("/patients", cfg.Booking.SearchPatients)
				b.Post("/sessions", cfg.Booking.CreateSession)
				b.Route("/sessions/{sessionID}", func(s chi.Router) {
					s.Post("/medic", cfg.Booking.SelectMedic)
					s.Post("/month", cfg.Booking.SelectMonth)
					s.Post("/day", cfg.Booking.SelectDay)
					s.Post("/slot", cfg.Booking.SelectSlot)
					s.Post("/schedule", cfg.Booking.Schedule)
					s.Post("/reset", cfg.Booking.Reset)
				})
			})
		}

		if cfg.Registry != nil {
			mountRegistry(api, "/persons", cfg.Registry.ListPersons, cfg.Registry.CreatePerson, cfg.Registry.UpdatePerson, cfg.Registry.DeletePerson)
			mountRegistry(api, "/patients", cfg.Registry.ListPatients, cfg.Registry.CreatePatient, cfg.Registry.UpdatePatient, cfg.Registry.DeletePatient)
			mountRegistry(api, "/medics", cfg.Registry.ListMedics, cfg.Registry.CreateMedic, cfg.Registry.UpdateMedic, cfg.Registry.DeleteMedic)
			mountRegistry(api, "/attendants", cfg.Registry.ListAttendants, cfg.Registry.CreateAttendant, cfg.Registry.UpdateAttendant, cfg.Registry.DeleteAttendant)
		}

		if cfg.Appointments != nil {
			api.Get("/appointments", cfg.Appointments.Search)
			api.Delete("/appointments/{id}", cfg.Appointments.Cancel)
			api.Post("/schedules", cfg.Appointments.CreateSchedule)
		}

		if cfg.Display != nil {
			api.Get("/display/board", cfg.Display.Board)
		}
	})

	if cfg.DisplaySocket != nil {
		r.Handle("/display/ws", cfg.DisplaySocket)
	}

	return r
}

func mountRegistry(api chi.Router, path string, list, create, update, del http.HandlerFunc) {
	api.Route(path, func(rt chi.Router) {
		rt.Get("/", list)
		rt.Post("/", create)
		rt.Patch("/{id}", update)
		rt.Delete("/{id}", del)
	})
}
