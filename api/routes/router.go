package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/localloop/localloop-backend/api/controllers"
	"github.com/localloop/localloop-backend/api/middleware"
	"github.com/localloop/localloop-backend/internal/actions"
	"github.com/localloop/localloop-backend/internal/assistant"
	"github.com/localloop/localloop-backend/internal/borrowings"
	"github.com/localloop/localloop-backend/internal/state"
	"github.com/localloop/localloop-backend/pkg/config"
	"github.com/localloop/localloop-backend/pkg/logger"
	"github.com/localloop/localloop-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	store *state.Store,
	borrowSvc *borrowings.Service,
	assistantSvc *assistant.Service,
	interp *actions.Interpreter,
	redisClient *redis.Client,
	registry *prometheus.Registry,
	readiness map[string]controllers.Pinger,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	chatPolicy := middleware.NewChatRateLimitPolicy(
		"chat",
		cfg.RateLimit.ChatWindow,
		cfg.RateLimit.ChatIPLimit,
		cfg.RateLimit.ChatUserLimit,
	)

	r.Route("/api", func(r chi.Router) {
		r.Get("/building-state", controllers.BuildingState(store, logg))
		r.Get("/items", controllers.ListItems(store, logg))
		r.Get("/events", controllers.ListEvents(store, logg))

		r.Route("/borrowings", func(r chi.Router) {
			r.Get("/", controllers.ListBorrowings(store, logg))
			r.Post("/", controllers.RequestBorrowing(borrowSvc, logg))
			r.Post("/confirm", controllers.ConfirmBorrowing(borrowSvc, logg))
			r.Post("/return", controllers.ReturnBorrowing(borrowSvc, logg))
		})

		r.Post("/actions", controllers.ApplyAction(interp, logg))

		chat := controllers.Chat(assistantSvc, logg)
		if redisClient != nil {
			r.With(middleware.ChatRateLimit(chatPolicy, redisClient, logg)).Post("/chat", chat)
		} else {
			r.Post("/chat", chat)
		}
	})

	return r
}
