package http

import (
	"net/http"
	"time"

	"github.com/gighall/calsync/pkg/usecase"
	"github.com/gighall/calsync/pkg/utils/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Server struct {
	router *chi.Mux
	uc     *usecase.UseCases
}

type Options func(*Server)

func New(uc *usecase.UseCases, opts ...Options) (*Server, error) {
	r := chi.NewRouter()

	s := &Server{
		router: r,
		uc:     uc,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Route("/microsoft", func(r chi.Router) {
			r.Get("/connect", connectHandler(s.uc))
			r.Get("/callback", callbackHandler(s.uc))
			r.Post("/disconnect", disconnectHandler(s.uc))
			r.Get("/calendars", calendarsHandler(s.uc))
		})

		r.Route("/roles/{roleID}", func(r chi.Router) {
			r.Put("/calendar", selectCalendarHandler(s.uc))
			r.Post("/sync", syncRoleHandler(s.uc))
			r.Post("/events/{eventID}/sync", syncEventHandler(s.uc))
		})

		r.Route("/groups", func(r chi.Router) {
			r.Get("/", listGroupsHandler(s.uc))
			r.Get("/{groupID}", getGroupHandler(s.uc))
		})

		r.Get("/rooms", roomsHandler(s.uc))
	})

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
