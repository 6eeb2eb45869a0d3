package http

import (
	"net/http"
	"time"

	"github.com/fjod/go_cart/purchase-service/internal/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const maxRequestBodySize = 1 << 20 // 1MB

type Handlers struct {
	Products  *ProductHandler
	Carts     *CartHandler
	Purchases *PurchaseHandler
	Sessions  *SessionHandler
	Users     *UserHandler
}

func NewRouter(h Handlers, validator auth.Validator, logger *zap.Logger, requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(MaxBodySize(maxRequestBodySize))

	authenticated := auth.NewMiddleware(validator)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.With(authenticated, auth.RequireAdmin).Post("/seed", h.Products.Seed)

	r.Route("/api", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.Products.ListProducts)
			r.Get("/{pid}", h.Products.GetProduct)

			r.Group(func(r chi.Router) {
				r.Use(authenticated, auth.RequireAdmin)
				r.Post("/", h.Products.CreateProduct)
				r.Put("/{pid}", h.Products.UpdateProduct)
				r.Delete("/{pid}", h.Products.DeleteProduct)
			})
		})

		r.Route("/carts", func(r chi.Router) {
			r.Post("/", h.Carts.CreateCart)
			r.Get("/{cid}", h.Carts.GetCart)
			r.Put("/{cid}", h.Carts.UpdateCart)
			r.Delete("/{cid}", h.Carts.ClearCart)
			r.Put("/{cid}/products/{pid}", h.Carts.UpdateQuantity)
			r.Delete("/{cid}/products/{pid}", h.Carts.RemoveItem)
			r.With(authenticated).Post("/{cid}/purchase", h.Purchases.Purchase)
		})

		r.With(authenticated).Get("/tickets/{code}", h.Purchases.GetTicket)

		r.Route("/users", func(r chi.Router) {
			r.Use(authenticated, auth.RequireAdmin)
			r.Get("/", h.Users.ListUsers)
			r.Post("/", h.Users.CreateUser)
			r.Get("/{uid}", h.Users.GetUser)
			r.Put("/{uid}", h.Users.UpdateUser)
			r.Delete("/{uid}", h.Users.DeleteUser)
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/register", h.Sessions.Register)
			r.Post("/login", h.Sessions.Login)
			r.Post("/forgot-password", h.Sessions.ForgotPassword)
			r.Post("/reset-password", h.Sessions.ResetPassword)

			r.Group(func(r chi.Router) {
				r.Use(authenticated)
				r.Get("/current", h.Sessions.Current)
				r.Get("/current/purchases", h.Sessions.Purchases)
			})
		})
	})

	return otelhttp.NewHandler(r, "purchase-api")
}
