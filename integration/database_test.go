//go:build database

package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestBinforecastWithMySQL tests the binforecast CLI with a MySQL backend.
func TestBinforecastWithMySQL(t *testing.T) {
	ctx := context.Background()

	// Start MySQL container
	req := testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "binforecast",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60 * time.Second),
	}
	mysqlC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = mysqlC.Terminate(ctx) }()

	// Get connection details
	host, err := mysqlC.Host(ctx)
	require.NoError(t, err)
	port, err := mysqlC.MappedPort(ctx, "3306")
	require.NoError(t, err)

	connStr := fmt.Sprintf("root:secret123@tcp(%s:%s)/binforecast?parseTime=true", host, port.Port())
	runBackendScenario(t, "mysql", connStr)
}

// TestBinforecastWithPostgres tests the binforecast CLI with a PostgreSQL backend.
func TestBinforecastWithPostgres(t *testing.T) {
	ctx := context.Background()

	// Start Postgres container
	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = pgC.Terminate(ctx) }()

	// Get connection details
	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connStr := fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres sslmode=disable", host, port.Port())
	runBackendScenario(t, "postgresql", connStr)
}

// runBackendScenario drives cache and history commands against one database.
func runBackendScenario(t *testing.T, backend, connStr string) {
	t.Helper()

	// Set environment variables
	t.Setenv("BINFORECAST_CACHE_BACKEND", backend)
	t.Setenv("BINFORECAST_CACHE_DB_CONNECT", connStr)
	t.Setenv("BINFORECAST_HISTORY_BACKEND", backend)
	t.Setenv("BINFORECAST_HISTORY_DB_CONNECT", connStr)

	steps := [][]string{
		{"cache", "clear"},
		{"history", "clear"},
		{"history", "migrate"},
		{"forecast", "--seed", "42", "--date", "2025-12-04", "--limit", "5"},
		{"range", "--seed", "42", "--date", "2025-12-05", "--days", "2"},
		{"metrics"},
		{"cache", "status"},
	}
	for _, args := range steps {
		_, err := runCommand(t, args...)
		require.NoError(t, err, "binforecast %v", args)
	}

	status, err := runCommand(t, "history", "status")
	require.NoError(t, err)
	assert.Contains(t, status, "Total Runs: 3")
	assert.Contains(t, status, "Total Predictions: 240")

	show, err := runCommand(t, "history", "show", "--district", "9", "--output", "csv")
	require.NoError(t, err)
	assert.Contains(t, show, "2025-12-05")
	assert.Contains(t, show, "2025-12-07")

	// Migrations roll back cleanly
	_, err = runCommand(t, "history", "migrate", "--target-version", "0")
	require.NoError(t, err)
}
