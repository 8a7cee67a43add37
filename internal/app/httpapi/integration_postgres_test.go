//go:build integration && postgres

package httpapi

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	app "github.com/R3E-Network/exercise_tracker/internal/app"
	pgstore "github.com/R3E-Network/exercise_tracker/internal/app/storage/postgres"
	"github.com/R3E-Network/exercise_tracker/internal/platform/migrations"
)

// Integration test against Postgres to ensure migrations + core flows work with persistence.
func TestIntegrationPostgres(t *testing.T) {
	_ = godotenv.Load() // allow .env for local runs
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set; skipping Postgres integration")
	}

	ctx := context.Background()
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := migrations.Apply(ctx, db); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	store := pgstore.New(db)
	application, err := app.New(app.Stores{Users: store, Exercises: store}, app.Options{}, nil)
	if err != nil {
		t.Fatalf("new application: %v", err)
	}
	h := NewHandler(application, nil)

	username := fmt.Sprintf("integration-%d", time.Now().UnixNano())
	id := registerUser(t, h, username)
	if again := registerUser(t, h, username); again != id {
		t.Fatalf("expected idempotent registration, got %s then %s", id, again)
	}

	resp := do(t, h, http.MethodPost, "/api/users/"+id+"/exercises", map[string]any{
		"description": "rowing",
		"duration":    "25.9",
		"date":        "2024-03-01",
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("add exercise: expected 200, got %d (%s)", resp.Code, resp.Body.String())
	}

	resp = do(t, h, http.MethodGet, "/api/users/"+id+"/logs?from=2024-02-01&to=2024-03-31", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("log: expected 200, got %d", resp.Code)
	}
	var log logResponse
	decode(t, resp, &log)
	if log.Count != 1 || log.Log[0].Duration != 25 || log.Log[0].Date != "Fri Mar 01 2024" {
		t.Fatalf("unexpected log %+v", log)
	}
}
