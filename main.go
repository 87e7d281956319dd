// main.go
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/streadway/amqp"

	"quickbasket/controllers"
	"quickbasket/pkg/rabbitmq"
	"quickbasket/routes"
	"quickbasket/utils"
)

func main() {
	// Load configuration from .env / environment
	cfg := utils.LoadConfig()

	// Set the JWT secret key
	utils.JwtKey = []byte(cfg.JWTSecret)

	// Initialize EmailService
	var emailService *utils.EmailService
	if cfg.SendGridAPIKey != "" {
		emailService = utils.NewEmailService(cfg.SendGridAPIKey, cfg.EmailSender)
	} else {
		log.Println("SENDGRID_API_KEY not set. Order confirmation emails disabled.")
	}

	// Connect to MongoDB
	client := utils.ConnectDB(cfg.MongoURI)
	defer func() {
		if err := client.Disconnect(context.TODO()); err != nil {
			log.Fatal(err)
		}
	}()

	// Connect to RabbitMQ for order events (optional in development)
	var events *rabbitmq.Client
	if cfg.RabbitMQURL != "" {
		var err error
		events, err = rabbitmq.NewClient(cfg.RabbitMQURL)
		if err != nil {
			log.Printf("Failed to initialize RabbitMQ client: %v. Order events disabled.", err)
		} else {
			defer events.Close()
		}
	}

	// Initialize the payment gateway
	gateway := utils.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret)

	// Initialize controllers
	userController := controllers.NewUserController(client, cfg.MongoDatabase)
	productController := controllers.NewProductController(client, cfg.MongoDatabase)
	cartController := controllers.NewCartController(client, cfg.MongoDatabase)
	addressController := controllers.NewAddressController(client, cfg.MongoDatabase)
	orderController := controllers.NewOrderController(client, cfg.MongoDatabase, gateway, emailService, events, cfg.FrontendURL)

	// Set up the router
	router := mux.NewRouter()
	routes.RegisterRoutes(router, userController, productController, cartController, addressController, orderController)

	// Consume order events for operational visibility. Reconcile failures
	// land here so operators can tell them apart from benign no-ops.
	if events != nil {
		if err := events.ConsumeOrderEvents(func(msg amqp.Delivery) error {
			log.Printf("Order event (tag %d): %s", msg.DeliveryTag, string(msg.Body))
			return nil
		}); err != nil {
			log.Printf("Failed to start order events consumer: %v", err)
		}
	}

	// Start the server
	fmt.Printf("Server is running on port %s\n", cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, router))
}
