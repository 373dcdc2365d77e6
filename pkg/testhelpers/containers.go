// Package testhelpers provides Postgres containers and token helpers for integration tests.
package testhelpers

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/url"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-counsel/pkg/database"
)

// PostgresTestImage is the PostgreSQL image used for integration tests.
const PostgresTestImage = "postgres:16-alpine"

// CounselDB is a migrated Postgres container shared by every test in a run.
type CounselDB struct {
	Container testcontainers.Container
	DB        *database.DB
	ConnStr   string
}

var (
	counselOnce sync.Once
	counselDB   *CounselDB
	counselErr  error
)

// GetCounselDB returns the shared container, starting it on first use.
// Tests are skipped in -short mode since they need Docker.
func GetCounselDB(t *testing.T) *CounselDB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	counselOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		counselDB, counselErr = startCounselDB(ctx)
	})
	if counselErr != nil {
		t.Fatalf("Failed to setup test database: %v", counselErr)
	}
	return counselDB
}

// MigrationsPath returns the absolute path of the repository migrations directory.
func MigrationsPath() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "migrations")
}

func startCounselDB(ctx context.Context) (*CounselDB, error) {
	const user, password, dbName = "counsel", "test_password", "counsel_test"

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        PostgresTestImage,
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_DB":       dbName,
				"POSTGRES_USER":     user,
				"POSTGRES_PASSWORD": password,
			},
			// Postgres logs readiness twice: once for the init server, once for the real one.
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start test container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	connStr := (&url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, password),
		Host:     net.JoinHostPort(host, port.Port()),
		Path:     dbName,
		RawQuery: "sslmode=disable",
	}).String()

	if err := database.MigrateURL(connStr, MigrationsPath(), zap.NewNop()); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	db, err := database.NewConnection(ctx, &database.Config{URL: connStr, MaxConnections: 5})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to test database: %w", err)
	}

	return &CounselDB{Container: container, DB: db, ConnStr: connStr}, nil
}

// FirmContext returns a context holding a firm-scoped connection. The cleanup
// function releases the connection.
func (c *CounselDB) FirmContext(t *testing.T, firmID uuid.UUID) (context.Context, func()) {
	t.Helper()
	ctx, release, err := c.DB.FirmContext(context.Background(), firmID)
	if err != nil {
		t.Fatalf("failed to create firm scope: %v", err)
	}
	return ctx, release
}

// Truncate empties the case and lookup tables for every firm.
func (c *CounselDB) Truncate(t *testing.T) {
	t.Helper()
	_, err := c.DB.Exec(context.Background(),
		`TRUNCATE cases, case_counters, clients, courts, case_types, case_statuses RESTART IDENTITY CASCADE`)
	if err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
}

// InsertLookup adds an active row with a plain name to one of the lookup
// tables (clients, courts, case_types, case_statuses) and returns its id.
func (c *CounselDB) InsertLookup(t *testing.T, firmID uuid.UUID, table, name string) int64 {
	t.Helper()
	switch table {
	case "clients", "courts", "case_types", "case_statuses":
	default:
		t.Fatalf("unknown lookup table %q", table)
	}

	encoded, err := json.Marshal(name)
	if err != nil {
		t.Fatalf("failed to encode name: %v", err)
	}

	var id int64
	err = c.DB.QueryRow(context.Background(),
		`INSERT INTO `+table+` (firm_id, name, status) VALUES ($1, $2, 'active') RETURNING id`,
		firmID, encoded).Scan(&id)
	if err != nil {
		t.Fatalf("failed to insert into %s: %v", table, err)
	}
	return id
}
