// seed inserts the development interest catalog for local testing.
// Idempotent: terms already present are left untouched.
package main

import (
	"context"
	"database/sql"
	"log"
	"time"

	"connectme/backend/internal/config"
	"connectme/backend/internal/db"
)

// devCatalog maps an interest's English term to its translations.
var devCatalog = map[string]map[string]string{
	"hiking":      {"de": "wandern", "fr": "randonnée"},
	"chess":       {"de": "schach", "fr": "échecs"},
	"jazz":        {"de": "jazz"},
	"photography": {"de": "fotografie", "fr": "photographie"},
	"cooking":     {"de": "kochen", "fr": "cuisine"},
	"climbing":    {"de": "klettern", "fr": "escalade"},
	"painting":    {"de": "malen", "fr": "peinture"},
	"running":     {"de": "laufen", "fr": "course à pied"},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for english, translations := range devCatalog {
		if err := seedInterest(ctx, conn, english, translations); err != nil {
			log.Fatalf("seed %q: %v", english, err)
		}
	}
	log.Printf("seeded %d interests", len(devCatalog))
}

func seedInterest(ctx context.Context, conn *sql.DB, english string, translations map[string]string) error {
	var interestID int64
	err := conn.QueryRowContext(ctx, `
		SELECT interest_id FROM interest_terms WHERE lower(term) = lower($1) AND language = 'en'
	`, english).Scan(&interestID)
	if err == sql.ErrNoRows {
		if err := conn.QueryRowContext(ctx, `
			INSERT INTO interests DEFAULT VALUES RETURNING id
		`).Scan(&interestID); err != nil {
			return err
		}
		if _, err := conn.ExecContext(ctx, `
			INSERT INTO interest_terms (interest_id, term, language) VALUES ($1, $2, 'en')
		`, interestID, english); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	for lang, term := range translations {
		_, err := conn.ExecContext(ctx, `
			INSERT INTO interest_terms (interest_id, term, language)
			SELECT $1, $2, $3
			WHERE NOT EXISTS (
				SELECT 1 FROM interest_terms WHERE interest_id = $1 AND language = $3
			)
		`, interestID, term, lang)
		if err != nil {
			return err
		}
	}
	return nil
}
