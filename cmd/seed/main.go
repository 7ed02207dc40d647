package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"campusbook/api/routes"
	"campusbook/internal/seed"
	"campusbook/internal/shared/config"
	"campusbook/internal/shared/database"
	"campusbook/internal/users"

	"github.com/joho/godotenv"
)

type Seeder struct {
	db *database.DB
}

func main() {
	fmt.Println("Starting campusbook database seeder...")

	_ = godotenv.Load()

	// Load configuration; seeding only makes sense against Postgres
	cfg := config.Load()
	cfg.Ledger.Store = "postgres"
	cfg.Ledger.Lock = "none"
	cfg.RateLimit.Enabled = false

	// Initialize database
	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	seeder := &Seeder{db: db}

	fmt.Println("\nCleaning database...")
	if err := seeder.CleanDatabase(); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}
	fmt.Println("Database cleaned successfully")

	fmt.Println("\nSeeding database...")
	summary, err := seeder.SeedAll(cfg)
	if err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}
	fmt.Printf("Seeded %d users, %d events, %d resource assignments\n",
		summary.Users, len(summary.Events), summary.Assignments)
}

// CleanDatabase truncates the ledger tables, dependants first
func (s *Seeder) CleanDatabase() error {
	tables := []string{
		"attendees",
		"resource_assignments",
		"resources",
		"events",
		"users",
	}

	tx := s.db.PostgreSQL.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	for _, table := range tables {
		fmt.Printf("  Truncating table: %s\n", table)
		if err := tx.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return tx.Commit().Error
}

// SeedAll goes through the same services the API uses, so seeded events pass venue conflict
// checks and assignments land in the ledger with their approval state.
func (s *Seeder) SeedAll(cfg *config.Config) (*seed.Summary, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	services := routes.NewRouter(cfg, s.db, nil, nil).Services()
	seeder := seed.New(
		users.NewRepository(s.db.PostgreSQL),
		services.Events,
		services.Resources,
		cfg.Scheduling.Location(),
	)
	return seeder.SeedAll(ctx, time.Now())
}
