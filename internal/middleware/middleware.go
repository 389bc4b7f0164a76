// Package middleware holds the HTTP guards placed in front of the API.
package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/kaigi-sim/backend/pkg/utils"
	"k8s.io/klog/v2"
)

// AuthRealm is the basic-auth realm shown by browsers.
const AuthRealm = "Meeting Simulator"

// AdminUser is the only basic-auth account.
const AdminUser = "admin"

func passthrough(next http.Handler) http.Handler { return next }

// CORS allows credentialed requests from a single origin.
func CORS(allowedOrigin string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   []string{allowedOrigin},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}

// BasicAuth protects every route with the admin password. An empty password disables it.
func BasicAuth(password string) func(http.Handler) http.Handler {
	if password == "" {
		klog.Warningf("[middleware] ADMIN_PASSWORD is empty; basic auth disabled")
		return passthrough
	}
	return middleware.BasicAuth(AuthRealm, map[string]string{AdminUser: password})
}

// RateLimit caps requests per client IP within a window. max <= 0 disables it.
func RateLimit(max int, window time.Duration) func(http.Handler) http.Handler {
	if max <= 0 || window <= 0 {
		return passthrough
	}
	return httprate.Limit(max, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			klog.Warningf("[middleware] rate limit exceeded: remote=%s path=%s", r.RemoteAddr, r.URL.Path)
			utils.RespondError(w, http.StatusTooManyRequests, "リクエストが多すぎます。しばらく時間をおいて再度お試しください。")
		}),
	)
}

// RefererCheck rejects requests whose Referer (or Origin, for websocket
// handshakes) does not name the requested host.
func RefererCheck(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		source := r.Referer()
		if source == "" {
			source = r.Header.Get("Origin")
		}
		if source == "" || !strings.Contains(source, r.Host) {
			klog.Warningf("[middleware] referer rejected: remote=%s path=%s referer=%q", r.RemoteAddr, r.URL.Path, source)
			utils.RespondError(w, http.StatusForbidden, "不正なアクセスです")
			return
		}
		next.ServeHTTP(w, r)
	})
}
