package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	_ "github.com/joestump/fera-prompt/docs/swagger"
	"github.com/joestump/fera-prompt/internal/api"
	"github.com/joestump/fera-prompt/internal/config"
)

// Deps holds all dependencies required to build the HTTP router.
type Deps struct {
	DB     *sqlx.DB
	API    api.Deps
	Config *config.Config
	Logger *zap.Logger
}

// NewRouter assembles the full chi router with all middleware and routes.
func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(deps.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.FrontendBaseURL},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Request-ID"},
		AllowCredentials: true,
	}).Handler)

	r.Get("/healthz", healthz(deps.DB))

	if cfg.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	// Swagger UI is served in Development unless configured otherwise.
	if cfg.SwaggerEnabled {
		r.Get("/swagger/*", httpSwagger.WrapHandler)
	}

	if deps.API.Logger == nil {
		deps.API.Logger = deps.Logger
	}
	r.Group(func(r chi.Router) {
		r.Use(httprate.Limit(
			cfg.RateLimit.Requests,
			cfg.RateLimit.Window,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(tooManyRequests),
		))
		r.Mount("/api", api.NewAPIRouter(deps.API))
	})

	return r
}

func tooManyRequests(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_, _ = w.Write([]byte(`{"message":"Too many requests. Try again later."}`))
}
