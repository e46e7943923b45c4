package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kaiub/surplus-backend/api/controllers"
	"github.com/kaiub/surplus-backend/api/middleware"
	"github.com/kaiub/surplus-backend/internal/listings"
	"github.com/kaiub/surplus-backend/internal/matching"
	"github.com/kaiub/surplus-backend/internal/notify"
	"github.com/kaiub/surplus-backend/pkg/config"
	"github.com/kaiub/surplus-backend/pkg/logger"
	pkgredis "github.com/kaiub/surplus-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	idempotencyStore pkgredis.IdempotencyStore,
	readinessDeps map[string]controllers.Pinger,
	gatherer prometheus.Gatherer,
	listingsService listings.Service,
	matchingService matching.Service,
	notifyService notify.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readinessDeps))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Route("/listings", func(r chi.Router) {
			r.Get("/", controllers.ListListings(listingsService, logg))
			r.Post("/", controllers.CreateListing(listingsService, logg))
			r.Post("/{listingId}/claim", controllers.ClaimListing(listingsService, logg))
		})

		r.Route("/matching", func(r chi.Router) {
			r.Post("/generate", controllers.GenerateMatches(matchingService, logg))
		})
		r.Get("/matches", controllers.ListMatches(matchingService, logg))

		r.Route("/notifications", func(r chi.Router) {
			r.Post("/dispatch", controllers.DispatchNotification(notifyService, logg))
		})
	})

	return r
}
