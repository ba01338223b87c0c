package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/brail/marketplace/internal/marketplace/core/domain/entity"
	"github.com/brail/marketplace/internal/marketplace/infra/httpx/middlewares"
)

func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middlewares.Trace)
	r.Use(middlewares.AttachTracingMetadata)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
			r.Post("/logout", h.Logout)
			r.With(h.requireAuth).Get("/me", h.Me)
		})

		r.Route("/product", func(r chi.Router) {
			r.Get("/categories", h.Categories)
			r.Get("/categories/{categoryId}", h.CategoryProducts)
			r.Get("/get_product/{productId}", h.Product)
			r.Get("/search", h.Search)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth)

			r.Route("/cart", func(r chi.Router) {
				r.Post("/getCartId", h.GetCartID)
				r.Get("/getCartId/{userId}", h.GetCartIDByUser)
				r.Get("/get_cart_data/{cartId}", h.CartData)
				r.Put("/update_item/{cartId}/{itemId}", h.UpdateItem)
				r.Post("/add_item", h.AddItem)
				r.Delete("/item", h.RemoveItem)
				r.Delete("/{cartId}", h.RemoveItems)
			})

			r.Route("/order", func(r chi.Router) {
				r.Post("/create", h.CreateOrder)
				r.Post("/checkout", h.Checkout)
				r.Post("/list", h.ListOrders)
				r.Get("/{orderId}", h.GetOrder)
				r.Get("/{orderId}/saga", h.OrderSaga)
				r.Post("/{orderId}/receipt", h.UploadReceipt)
			})

			r.Route("/pay", func(r chi.Router) {
				r.Post("/secret", h.PaymentSecret)
				r.Get("/status/{intentId}", h.PaymentStatus)
			})

			r.Route("/sample", func(r chi.Router) {
				r.Post("/purchase", h.PurchaseSample)
				r.Get("/purchases", h.SamplePurchases)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(requireRole(entity.RoleAdmin))
				r.Get("/orders", h.AdminOrders)
				r.Post("/orders/{orderId}/review", h.ReviewOrder)
				r.Get("/products", h.AdminProducts)
				r.Get("/suppliers", h.AdminSuppliers)
			})

			r.Route("/logistics", func(r chi.Router) {
				r.Use(requireRole(entity.RoleLogistics1, entity.RoleLogistics2, entity.RoleAdmin))
				r.Get("/orders", h.LogisticsOrders)
				r.Put("/orders/{orderId}/status", h.AdvanceOrder)
			})
		})
	})
	return r
}
