package main

import (
	"context"
	"log"
	"os"

	"finance/src/config"
	"finance/src/database"
)

func main() {
	cfg, err := config.LoadConfig("./settings", os.Getenv("ENV"))
	if err != nil {
		log.Fatalf("Error loading config for environment: %v", err)
	}

	pool, err := database.SetupDB(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	sqlDB := database.OpenSQL(pool)
	defer sqlDB.Close()

	if err := database.Migrate(sqlDB); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	log.Println("Database migration completed successfully")
}
