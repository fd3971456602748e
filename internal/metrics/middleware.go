package metrics

import (
	"net/http"
	"strings"
	"time"
)

// statusRecorder captures the status a handler writes. A handler that never
// calls WriteHeader implicitly commits 200 on its first Write, so both paths
// are recorded.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	if sr.status == 0 {
		sr.status = code
	}
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	return sr.ResponseWriter.Write(b)
}

// routeLabel keeps the path label bounded. ServeMux fills in r.Pattern after
// routing, so requests that matched a route are labelled with the pattern
// (wildcards intact) rather than the raw URL; unrouted requests fall back to
// the path itself.
func routeLabel(r *http.Request) string {
	if r.Pattern == "" {
		return r.URL.Path
	}
	if _, route, ok := strings.Cut(r.Pattern, " "); ok {
		return route
	}
	return r.Pattern
}

// HTTPMiddleware records the request count, duration histogram, and in-flight
// gauge for every request passing through the wrapped handler.
func HTTPMiddleware(reg *Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reg.InFlightInc()
			defer reg.InFlightDec()

			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			reg.RecordRequest(r.Method, routeLabel(r), status, time.Since(start).Seconds())
		})
	}
}
