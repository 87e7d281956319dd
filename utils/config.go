package utils

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds everything main needs to wire the application.
type Config struct {
	Port                string
	MongoURI            string
	MongoDatabase       string
	JWTSecret           string
	StripeSecretKey     string
	StripeWebhookSecret string
	FrontendURL         string
	RabbitMQURL         string
	SendGridAPIKey      string
	EmailSender         string
}

// LoadConfig reads configuration from a .env file (if present) and the
// environment. Defaults cover local development; secrets have no defaults.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Proceeding with environment variables.")
	}

	viper.SetDefault("PORT", "8000")
	viper.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	viper.SetDefault("MONGO_DATABASE", "quickbasket")
	viper.SetDefault("FRONTEND_URL", "http://localhost:5173")
	viper.SetDefault("RABBITMQ_URL", "")
	viper.AutomaticEnv()

	return &Config{
		Port:                viper.GetString("PORT"),
		MongoURI:            viper.GetString("MONGO_URI"),
		MongoDatabase:       viper.GetString("MONGO_DATABASE"),
		JWTSecret:           viper.GetString("JWT_SECRET"),
		StripeSecretKey:     viper.GetString("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: viper.GetString("STRIPE_WEBHOOK_SECRET"),
		FrontendURL:         viper.GetString("FRONTEND_URL"),
		RabbitMQURL:         viper.GetString("RABBITMQ_URL"),
		SendGridAPIKey:      viper.GetString("SENDGRID_API_KEY"),
		EmailSender:         viper.GetString("EMAIL_SENDER"),
	}
}
