package infra

import (
	"context"
	"io"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// OpenTestPool returns a migrated pool in an isolated schema. It reuses
// DREAMDWELL_TEST_PG_DSN when set, starts a container when Docker is
// available, and skips the test otherwise.
func OpenTestPool(t testing.TB) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping Postgres integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	dsn := os.Getenv(DSNEnv)
	if dsn == "" {
		if !DockerAvailable(ctx) {
			t.Skipf("neither %s nor Docker available", DSNEnv)
		}
		container, containerDSN, err := StartPostgres16(ctx, "")
		if err != nil {
			t.Skipf("start postgres container: %v", err)
		}
		t.Cleanup(func() { _ = container.Terminate(context.Background()) })
		dsn = containerDSN
	}

	pool, teardown, err := ApplyMigrations(ctx, dsn, true)
	if err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	t.Cleanup(func() {
		pool.Close()
		if err := teardown(context.Background()); err != nil {
			t.Logf("teardown warning: %v", err)
		}
	})
	return pool
}

// DockerAvailable reports whether a Docker daemon answers.
func DockerAvailable(ctx context.Context) bool {
	if _, err := exec.LookPath("docker"); err != nil {
		return false
	}
	c := exec.CommandContext(ctx, "docker", "info")
	c.Stdout = io.Discard
	c.Stderr = io.Discard
	return c.Run() == nil
}
