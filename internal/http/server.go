package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Server struct {
	Router *chi.Mux
}

func NewServer(handler *Handler) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(cors)

	r.Get("/health", handler.Health)
	r.Get("/test/wayl", handler.TestWayl)

	r.Route("/webhooks", func(r chi.Router) {
		r.Post("/shopify/orders/create", handler.ShopifyOrderCreated)
		r.Post("/wayl/payment", handler.WaylPayment)
	})

	r.Get("/pay/{referenceID}", handler.Pay)
	r.Get("/orders/{orderID}/pay", handler.OrderPay)

	return &Server{Router: r}
}
