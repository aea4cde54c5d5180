package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type RequestObserver interface {
	ObserveRequest(route string, code int)
}

// MetricsMiddleware 依 chi route pattern 計數
func MetricsMiddleware(observer RequestObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			recoder := &StatusRecoder{ResponseWriter: w}
			next.ServeHTTP(recoder, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			observer.ObserveRequest(route, recoder.Status())
		})
	}
}
