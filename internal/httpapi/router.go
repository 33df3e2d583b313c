package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/safar/go-storefront/internal/auth"
)

func NewRouter(handler *Handler, jwtSecret string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(auth.Authenticate(jwtSecret))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, messageResponse{Msg: "ok"})
	})

	r.Route("/order", func(r chi.Router) {
		r.Post("/create-payment-intent", handler.CreatePaymentIntent)
		r.Put("/place/{order_id}", handler.PlaceOrder)
		r.Put("/confirm/{order_id}", handler.ConfirmOrder)
		r.Put("/error/{order_id}", handler.MarkError)
		r.Get("/detail/{order_id}", handler.GetOrderDetail)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequirePrincipal)
			r.Put("/accept/{order_id}", handler.AcceptOrder)
			r.Put("/complete/{order_id}", handler.CompleteOrder)
			r.Put("/cancel/{order_id}", handler.CancelOrder)
			r.Get("/all", handler.ListAllOrders)
		})
	})

	r.Route("/cart", func(r chi.Router) {
		r.Use(auth.RequirePrincipal)
		r.Get("/", handler.GetCart)
		r.Put("/", handler.SyncCart)
	})

	r.Route("/products", func(r chi.Router) {
		r.Get("/", handler.ListProducts)
		r.Get("/{product_id}", handler.GetProduct)
		r.With(auth.RequirePrincipal).Post("/", handler.CreateProduct)
	})

	return r
}
