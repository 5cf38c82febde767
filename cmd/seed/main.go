package main

import (
	"context"
	"log"

	"golang.org/x/crypto/bcrypt"

	"qrattend/internal/config"
	"qrattend/internal/store"
)

// demo accounts for local development; passwords come from config.
var demoUsers = []struct {
	username string
	email    string
	role     string
}{
	{"student1", "student1@test.com", "student"},
	{"student2", "student2@test.com", "student"},
	{"student3", "student3@test.com", "student"},
	{"faculty1", "faculty1@test.com", "faculty"},
	{"admin", "admin@test.com", "faculty"},
}

// Seed is the explicit provisioning step: it migrates the schema and inserts
// the demo accounts, skipping any that already exist.
func main() {
	log.Println("Starting seed...")

	cfg := config.Load()
	ctx := context.Background()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	if err := db.ApplyMigrations(); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}
	log.Println("Migrations applied")

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.SeedPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("hash failed: %v", err)
	}

	seeded := 0
	for _, u := range demoUsers {
		res, err := db.Client.ExecContext(ctx, `
			INSERT INTO users (username, email, password_hash, role)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (username) DO NOTHING
		`, u.username, u.email, string(hash), u.role)
		if err != nil {
			log.Fatalf("seed %s failed: %v", u.username, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			seeded++
		}
	}

	log.Printf("Seed complete: %d of %d accounts created", seeded, len(demoUsers))
}
