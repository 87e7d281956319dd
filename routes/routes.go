package routes

import (
	"github.com/gorilla/mux"

	"quickbasket/controllers"
	"quickbasket/middleware"
)

// RegisterRoutes sets up all the routes for the application. The Stripe
// webhook is registered on the public router: it authenticates by signature
// over the raw body, never by session token.
func RegisterRoutes(router *mux.Router, userController *controllers.UserController, productController *controllers.ProductController, cartController *controllers.CartController, addressController *controllers.AddressController, orderController *controllers.OrderController) {
	// Public routes
	router.HandleFunc("/register", userController.Register).Methods("POST")
	router.HandleFunc("/login", userController.Login).Methods("POST")

	// Webhook: raw body, signature-verified, no auth middleware.
	router.HandleFunc("/order/webhook/stripe", orderController.StripeWebhook).Methods("POST")

	// Product routes
	router.HandleFunc("/products", productController.GetProducts).Methods("GET")
	router.HandleFunc("/products/{id}", productController.GetProductByID).Methods("GET")

	// Admin routes
	admin := router.PathPrefix("/products").Subrouter()
	admin.Use(middleware.AuthMiddleware)
	admin.Use(middleware.AdminMiddleware)
	admin.HandleFunc("", productController.CreateProduct).Methods("POST")
	admin.HandleFunc("/{id}", productController.UpdateProduct).Methods("PUT")
	admin.HandleFunc("/{id}", productController.DeleteProduct).Methods("DELETE")

	// Protected routes
	protected := router.PathPrefix("/").Subrouter()
	protected.Use(middleware.AuthMiddleware)

	protected.HandleFunc("/profile", userController.GetProfile).Methods("GET")

	// Cart routes
	protected.HandleFunc("/cart/add/{productId}", cartController.AddToCart).Methods("POST")
	protected.HandleFunc("/cart/fetch", cartController.FetchCartItems).Methods("GET")
	protected.HandleFunc("/cart/update/{itemId}", cartController.UpdateCartItem).Methods("PUT")
	protected.HandleFunc("/cart/delete/{itemId}", cartController.DeleteCartItem).Methods("DELETE")

	// Address routes
	protected.HandleFunc("/address/create", addressController.CreateAddress).Methods("POST")
	protected.HandleFunc("/address/fetch", addressController.FetchAddresses).Methods("GET")
	protected.HandleFunc("/address/update/{addressId}", addressController.UpdateAddress).Methods("PUT")
	protected.HandleFunc("/address/delete/{addressId}", addressController.DeleteAddress).Methods("DELETE")

	// Order routes
	protected.HandleFunc("/order/create/cod", orderController.CreateOrderCOD).Methods("POST")
	protected.HandleFunc("/order/create/checkout-online", orderController.CreateCheckoutSession).Methods("POST")
	protected.HandleFunc("/order/fetch", orderController.FetchOrders).Methods("GET")
}
