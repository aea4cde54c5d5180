package router

import (
	"net/http"

	"github.com/RoyceAzure/lab/crm/internal/api/handler"
	m "github.com/RoyceAzure/lab/crm/internal/api/middleware"
	"github.com/RoyceAzure/lab/crm/internal/metrics"
	"github.com/RoyceAzure/lab/crm/internal/pkg/ratelimit"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

type Server struct {
	GraphQLHandler *handler.GraphQLHandler
	HealthHandler  *handler.HealthHandler
	Metrics        *metrics.Metrics
	Limiter        ratelimit.Limiter
}

func SetupRouter(server *Server, logger zerolog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// 全局中間件
	r.Use(m.RequestIdMiddleware)
	r.Use(middleware.RealIP)
	r.Use(m.LoggerMiddleware(logger))
	if server.Metrics != nil {
		r.Use(m.MetricsMiddleware(server.Metrics))
	}

	r.Get("/healthz", server.HealthHandler.Healthz)
	if server.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", server.Metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		if server.Limiter != nil {
			r.Use(m.NewRateLimitMiddleware(server.Limiter))
		}
		r.Post("/graphql", server.GraphQLHandler.Serve)
	})

	logger.Debug().Func(func(e *zerolog.Event) {
		routes := make([]string, 0)
		chi.Walk(r, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
			routes = append(routes, method+" "+route)
			return nil
		})
		e.Strs("routes", routes)
	}).Msg("router ready")
	return r
}
