package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"klord-backend/config"
	"klord-backend/models"
	"klord-backend/routes"
	"klord-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func init() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	config.ConnectDB()

	config.DB.AutoMigrate(
		&models.Customer{},
		&models.Partner{},
		&models.Admin{},
		&models.Staff{},
		&models.Lead{},
		&models.LeadStep{},
		&models.AmcRequest{},
		&models.Post{},
		&models.NotificationLog{},
	)
}

func main() {
	ctx := context.Background()

	storage, err := services.NewStorage(ctx)
	if err != nil {
		log.Fatalf("Failed to configure storage: %v", err)
	}
	services.Blobs = storage
	services.Certificates = services.NewCertificateGenerator(storage)

	if os.Getenv("SMS_ENABLED") == "true" {
		sender, err := services.NewTwilioSender()
		if err != nil {
			log.Fatalf("SMS_ENABLED but %v", err)
		}
		services.SMS = sender

		reminders := services.NewAmcReminderService(config.DB, sender)
		reminders.StartScheduler()
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	r := routes.SetupRouter()
	printRoutes(r)
	r.Run(":" + port)
}

func printRoutes(r *gin.Engine) {
	routes := r.Routes()
	for _, route := range routes {
		fmt.Printf("%-6s %s\n", route.Method, route.Path)
	}
}
