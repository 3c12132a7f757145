package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tallycart/tallycart-backend/api/controllers"
	cartcontrollers "github.com/tallycart/tallycart-backend/api/controllers/cart"
	"github.com/tallycart/tallycart-backend/api/middleware"
	cartsvc "github.com/tallycart/tallycart-backend/internal/cart"
	"github.com/tallycart/tallycart-backend/pkg/config"
	"github.com/tallycart/tallycart-backend/pkg/db"
	"github.com/tallycart/tallycart-backend/pkg/logger"
	"github.com/tallycart/tallycart-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	cartService *cartsvc.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	var sessions cartcontrollers.SessionFactory
	if cartService != nil {
		sessions = func(identity cartsvc.Identity) cartcontrollers.Session {
			return cartService.Session(identity)
		}
	}

	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(middleware.Identity(cfg.JWT, cfg.Cookie, logg))
		r.Get("/", cartcontrollers.Fetch(sessions, logg))
		r.Get("/summary", cartcontrollers.Summary(sessions, logg))
		r.Delete("/", cartcontrollers.Clean(sessions, logg))
		r.Route("/items", func(r chi.Router) {
			r.Post("/", cartcontrollers.AddItem(sessions, logg))
			r.Patch("/{id}", cartcontrollers.UpdateItem(sessions, logg))
			r.Delete("/{id}", cartcontrollers.DeleteItem(sessions, logg))
		})
	})

	return r
}
