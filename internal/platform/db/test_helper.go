package db

import (
	"database/sql"
	"testing"

	"github.com/ferdiebergado/gopherkit/env"

	"github.com/cxuy/cxkit/internal/config"
)

// Setup connects to the database named by DB_URL in .env.testing at the
// project root. Tests using it must be behind the integration build tag.
func Setup(t *testing.T) *sql.DB {
	t.Helper()

	const projRoot = "../../"

	if err := env.Load(projRoot + ".env.testing"); err != nil {
		t.Fatalf("failed to load environment file: %v", err)
	}

	cfg, err := config.Load(projRoot + "config.json")
	if err != nil {
		t.Fatalf("failed to load config file: %v", err)
	}

	conn, err := NewPostgresDB(t.Context(), cfg.DB)
	if err != nil {
		t.Fatalf("failed to connect to the database: %v", err)
	}

	t.Cleanup(func() {
		if err := conn.Close(); err != nil {
			t.Logf("failed to close database: %v", err)
		}
	})

	return conn
}
