package handler

import (
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"k8s.io/klog/v2"

	"github.com/kaigi-sim/backend/internal/analysis/roledisplay"
	"github.com/kaigi-sim/backend/internal/config"
	"github.com/kaigi-sim/backend/internal/handler/roles"
	simulationHandler "github.com/kaigi-sim/backend/internal/handler/simulation"
	"github.com/kaigi-sim/backend/internal/handler/stream"
	middlewarePkg "github.com/kaigi-sim/backend/internal/middleware"
	"github.com/kaigi-sim/backend/internal/model/role"
	simulationService "github.com/kaigi-sim/backend/internal/service/simulation"
	"github.com/kaigi-sim/backend/pkg/utils"
)

// Dependencies are the services the router exposes.
type Dependencies struct {
	Server         config.ServerConfig
	Simulation     *simulationService.Service
	Roles          role.Store
	Resolver       *roledisplay.Resolver
	TypingInterval time.Duration
	// Metrics serves /metrics when set.
	Metrics http.Handler
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(deps.Server.AllowedOrigin))
	r.Use(middlewarePkg.BasicAuth(deps.Server.AdminPassword))

	resolver := deps.Resolver
	if resolver == nil {
		resolver = roledisplay.FromStore(deps.Roles)
	}

	rolesHandler := roles.New(deps.Roles, resolver)
	simHandler := simulationHandler.New(deps.Simulation)
	streamHandler := stream.New(deps.Simulation, resolver, deps.TypingInterval)

	r.Route("/api", func(api chi.Router) {
		api.Use(middlewarePkg.RateLimit(deps.Server.RateLimitMax, deps.Server.RateLimitWindow))
		if deps.Server.RefererCheck {
			api.Use(middlewarePkg.RefererCheck)
		}

		api.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			utils.RespondJSON(w, http.StatusOK, map[string]any{
				"status":    "ok",
				"generator": deps.Simulation.Orchestrator().Available(),
			})
		})

		rolesHandler.RegisterRoutes(api)
		simHandler.RegisterRoutes(api)
		streamHandler.RegisterRoutes(api)
	})

	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics)
	}

	if dir := deps.Server.StaticDir; dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			r.Handle("/*", http.FileServer(http.Dir(dir)))
		} else {
			klog.Warningf("[router] static directory %q not found; front-end not served", dir)
		}
	}

	return r
}
