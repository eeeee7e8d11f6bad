package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/wholesale-offers/api/controllers"
	offercontrollers "github.com/angelmondragon/wholesale-offers/api/controllers/offers"
	"github.com/angelmondragon/wholesale-offers/api/middleware"
	offersvc "github.com/angelmondragon/wholesale-offers/internal/offers"
	"github.com/angelmondragon/wholesale-offers/pkg/config"
	"github.com/angelmondragon/wholesale-offers/pkg/enums"
	"github.com/angelmondragon/wholesale-offers/pkg/logger"
)

// Dependencies groups the collaborators the router hands to controllers.
type Dependencies struct {
	Offers   offersvc.Service
	Gatherer prometheus.Gatherer
	// Pingers are probed by /health/ready, keyed by dependency name.
	Pingers map[string]controllers.Pinger
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Pingers))
	})

	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/offers/applicable", offercontrollers.ApplicableForItem(deps.Offers, logg))
		r.Post("/offers/applicable", offercontrollers.ApplicableForCart(deps.Offers, logg))
		r.Post("/cart/offers", offercontrollers.CalculateCart(deps.Offers, cfg.Offers.RoundingPlaces, logg))
	})

	r.Route("/api/admin/v1/offers", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.ActorRoleAdmin, enums.ActorRoleMerchandiser))
			r.Get("/", offercontrollers.AdminListOffers(deps.Offers, logg))
			r.Get("/{offerId}", offercontrollers.AdminGetOffer(deps.Offers, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.ActorRoleAdmin))
			r.Post("/", offercontrollers.AdminCreateOffer(deps.Offers, logg))
			r.Put("/{offerId}", offercontrollers.AdminUpdateOffer(deps.Offers, logg))
			r.Put("/{offerId}/scopes", offercontrollers.AdminReplaceOfferScopes(deps.Offers, logg))
			r.Delete("/{offerId}", offercontrollers.AdminDeleteOffer(deps.Offers, logg))
		})
	})

	return r
}
