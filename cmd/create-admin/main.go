// Creates an admin account. Usage:
//
//	go run ./cmd/create-admin <email> <name> <password>
package main

import (
	"fmt"
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

	args := os.Args[1:]
	if len(args) != 3 {
		fmt.Fprintln(os.Stderr, "Usage: create-admin <email> <name> <password>")
		os.Exit(1)
	}
	email, name, password := args[0], args[1], args[2]

	config.ConnectDB()
	config.DB.AutoMigrate(&models.Admin{})

	var existing models.Admin
	if err := config.DB.Where("email = ?", email).First(&existing).Error; err == nil {
		log.Fatalf("An admin with the email %q already exists.", email)
	}

	hash, err := utils.HashPassword(password, 10)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	admin := models.Admin{Email: email, Name: name, PasswordHash: hash}
	if err := config.DB.Create(&admin).Error; err != nil {
		log.Fatalf("Failed to create admin: %v", err)
	}

	log.Printf("Admin created: %s (%s)", admin.Name, admin.Email)
}
