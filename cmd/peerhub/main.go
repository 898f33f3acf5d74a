package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/peerhub-dev/peerhub/db"
	"github.com/peerhub-dev/peerhub/internal/auth"
	"github.com/peerhub-dev/peerhub/internal/router"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	if err := auth.InitJWTSecret(); err != nil {
		log.Fatalf("JWT configuration error: %v", err)
	}

	if err := auth.InitOAuth(); err != nil {
		log.Fatalf("OAuth configuration error: %v", err)
	}

	if err := db.ConnectDatabase(os.Getenv("DATABASE_URL")); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.MigrateDatabase(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	if err := db.SeedCatalog(); err != nil {
		log.Fatalf("Failed to seed project catalog: %v", err)
	}

	if err := db.ConnectRedis(os.Getenv("REDIS_URL")); err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}

	r := router.NewRouter()

	port := os.Getenv("PORT")

	if port == "" {
		port = "3000"
		log.Println("PORT not set, defaulting to 3000")
	}

	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
