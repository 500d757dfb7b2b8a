package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/plasa/shopper-settlement/api/controllers"
	"github.com/plasa/shopper-settlement/api/middleware"
	"github.com/plasa/shopper-settlement/internal/orderstatus"
	"github.com/plasa/shopper-settlement/internal/wallets"
	"github.com/plasa/shopper-settlement/pkg/auth/session"
	"github.com/plasa/shopper-settlement/pkg/config"
	"github.com/plasa/shopper-settlement/pkg/enums"
	"github.com/plasa/shopper-settlement/pkg/logger"
	pkgredis "github.com/plasa/shopper-settlement/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	readiness controllers.ReadinessChecks,
	sessions session.AccessSessionChecker,
	idempotencyStore pkgredis.IdempotencyStore,
	gatherer prometheus.Gatherer,
	orderStatusService orderstatus.Service,
	revenueService controllers.RevenueCalculator,
	walletService wallets.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})

	var verifier session.AccessSessionChecker
	if cfg.FeatureFlags.SessionCheck {
		verifier = sessions
	}
	idempotent := func(next http.Handler) http.Handler { return next }
	if cfg.FeatureFlags.HTTPIdempotent && idempotencyStore != nil {
		idempotent = middleware.Idempotency(idempotencyStore, cfg.FeatureFlags.RequireIdempotencyKey, logg)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, verifier, logg))

		r.Route("/shopper", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.ActorRoleShopper))
			r.With(idempotent).Post("/orders/status", controllers.ShopperUpdateOrderStatus(orderStatusService, logg))
			r.Get("/wallet", controllers.ShopperWallet(walletService, logg))
			r.Get("/wallet/transactions", controllers.ShopperWalletTransactions(walletService, logg))
		})

		r.Route("/revenue", func(r chi.Router) {
			r.Use(idempotent)
			r.Post("/commission", controllers.RevenueCommission(revenueService, logg))
			r.Post("/plasa-fee", controllers.RevenuePlasaFee(revenueService, logg))
			r.Post("/calculate", controllers.RevenueCalculate(revenueService, logg))
		})
	})

	return r
}
