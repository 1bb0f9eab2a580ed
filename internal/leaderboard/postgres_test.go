package leaderboard

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startPostgres(t *testing.T) *PostgresStore {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("leaderboard"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}
	store, err := NewPostgresStore(ctx, url)
	if err != nil {
		t.Fatalf("NewPostgresStore: %v", err)
	}
	t.Cleanup(store.Close)
	return store
}

func TestPostgresStore(t *testing.T) {
	store := startPostgres(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if err := store.Record(ctx, testEntry("fresh", 120, now)); err != nil {
		t.Fatal(err)
	}
	if err := store.Record(ctx, testEntry("stale", 300, now.Add(-8*24*time.Hour))); err != nil {
		t.Fatal(err)
	}
	// Duplicate game ids are a no-op.
	if err := store.Record(ctx, testEntry("fresh", 999, now)); err != nil {
		t.Fatal(err)
	}

	payload, err := store.Payload(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(payload.Recent) != 1 || payload.Recent[0].GameID != "fresh" {
		t.Errorf("recent = %v, want only the fresh game", payload.Recent)
	}
	if payload.Recent[0].Points != 120 {
		t.Errorf("duplicate record overwrote points: %d", payload.Recent[0].Points)
	}
	if len(payload.Alltime) != 2 {
		t.Errorf("alltime = %d entries, want 2", len(payload.Alltime))
	}
	if payload.Alltime[0].Points != 300 {
		t.Errorf("alltime not sorted: first has %d", payload.Alltime[0].Points)
	}
	if payload.Stats.GamesPlayed != 2 {
		t.Errorf("games played = %d, want 2", payload.Stats.GamesPlayed)
	}

	entry, err := store.Game(ctx, "stale")
	if err != nil {
		t.Fatal(err)
	}
	if entry == nil || entry.Points != 300 {
		t.Fatalf("Game lookup = %v", entry)
	}
	missing, err := store.Game(ctx, "nope")
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Error("unknown game id returned an entry")
	}
}
