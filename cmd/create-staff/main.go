// Creates a demo staff account from SEED_STAFF_* env vars.
package main

import (
	"log"
	"os"

	"klord-backend/config"
	"klord-backend/models"
	"klord-backend/utils"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	email := envOr("SEED_STAFF_EMAIL", "staff@example.com")
	name := envOr("SEED_STAFF_NAME", "Demo Staff")
	password := envOr("SEED_STAFF_PASSWORD", "password123")

	config.ConnectDB()
	config.DB.AutoMigrate(&models.Staff{})

	var existing models.Staff
	if err := config.DB.Where("email = ?", email).First(&existing).Error; err == nil {
		log.Printf("[create-staff] Staff already exists: %s", email)
		return
	}

	hash, err := utils.HashPassword(password, 10)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	staff := models.Staff{Email: email, Name: name, PasswordHash: hash}
	if err := config.DB.Create(&staff).Error; err != nil {
		log.Fatalf("Failed to create staff: %v", err)
	}

	log.Printf("[create-staff] Created staff: %s", staff.Email)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
