package analytics

import (
	"errors"
	"os"
	"testing"

	"github.com/monkichi27/number-guessing-game/internal/db"
)

func TestGetPlayerLifetimeStats_UnknownPlayer(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping database tests")
	}
	database, err := db.Connect(dsn)
	if err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	defer database.Close()
	if err := database.Migrate(); err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}

	_, err = NewQueries(database).GetPlayerLifetimeStats("nobody-has-this-name")
	if !errors.Is(err, ErrPlayerNotFound) {
		t.Errorf("err = %v, want ErrPlayerNotFound", err)
	}
}
