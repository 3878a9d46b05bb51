package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dimitrije/pluginhub-api/internal/config"
	"github.com/dimitrije/pluginhub-api/internal/database"
	"github.com/dimitrije/pluginhub-api/internal/lock"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const containerStartup = 60 * time.Second

// TestDB is a migrated Postgres running in a container for the lifetime of a test.
type TestDB struct {
	DB        *database.DB
	Container testcontainers.Container
}

// startContainer runs req, registers termination with t and returns host:port
// of its first exposed port.
func startContainer(t *testing.T, req testcontainers.ContainerRequest) (testcontainers.Container, string) {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("failed to start %s container: %v", req.Image, err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate %s container: %v", req.Image, err)
		}
	})

	endpoint, err := container.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("failed to resolve %s endpoint: %v", req.Image, err)
	}
	return container, endpoint
}

func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()
	ctx := context.Background()

	container, endpoint := startContainer(t, testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "pluginhub",
			"POSTGRES_PASSWORD": "pluginhub",
			"POSTGRES_DB":       "pluginhub_test",
		},
		// Postgres logs readiness once for the init server and once for the real one.
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(containerStartup),
	})

	pool, err := pgxpool.New(ctx, fmt.Sprintf("postgres://pluginhub:pluginhub@%s/pluginhub_test?sslmode=disable", endpoint))
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}
	t.Cleanup(pool.Close)

	db := &database.DB{Pool: pool}
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return &TestDB{DB: db, Container: container}
}

// SetupTestRedis starts Redis and returns a connected lock client.
func SetupTestRedis(t *testing.T) *lock.Client {
	t.Helper()

	_, endpoint := startContainer(t, testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(containerStartup),
	})

	client, err := lock.NewClient(context.Background(), config.RedisConfig{
		URL:         "redis://" + endpoint + "/0",
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("failed to connect to test redis: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

// CleanTables empties every table, children first.
func (tdb *TestDB) CleanTables(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	tables := []string{
		"projects", "project_templates", "activity_logs", "notifications", "messages",
		"plugin_installations", "plugins", "sites", "team_invites", "team_members", "teams", "users",
	}
	for _, table := range tables {
		if _, err := tdb.DB.Pool.Exec(ctx, "TRUNCATE TABLE "+table+" CASCADE"); err != nil {
			t.Fatalf("failed to truncate table %s: %v", table, err)
		}
	}
}
