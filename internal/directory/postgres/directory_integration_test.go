package postgres

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"clinicflow/flow-service/internal/directory"
	"clinicflow/flow-service/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

func newTestDirectory(t *testing.T, ctx context.Context) (*Directory, func()) {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		dsn = os.Getenv("DB_DSN")
	}
	if dsn == "" {
		t.Skip("TEST_DB_DSN or DB_DSN is required for integration tests")
	}

	schema := "test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	if err := createSchema(ctx, dsn, schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}

	pool, err := newPoolWithSchema(ctx, dsn, schema)
	if err != nil {
		t.Fatalf("open pool: %v", err)
	}

	if err := applyMigrations(ctx, pool); err != nil {
		pool.Close()
		t.Fatalf("apply migrations: %v", err)
	}

	cleanup := func() {
		pool.Close()
		_ = dropSchema(context.Background(), dsn, schema)
	}
	return New(pool), cleanup
}

func createSchema(ctx context.Context, dsn, schema string) error {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)
	_, err = conn.Exec(ctx, "CREATE SCHEMA "+schema)
	return err
}

func dropSchema(ctx context.Context, dsn, schema string) error {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)
	_, err = conn.Exec(ctx, "DROP SCHEMA "+schema+" CASCADE")
	return err
}

func newPoolWithSchema(ctx context.Context, dsn, schema string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	cfg.ConnConfig.RuntimeParams["search_path"] = schema
	return pgxpool.NewWithConfig(ctx, cfg)
}

func applyMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	dir := filepath.Join("..", "..", "..", "migrations")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)
	for _, name := range files {
		content, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return err
		}
		if strings.TrimSpace(string(content)) == "" {
			continue
		}
		if _, err := pool.Exec(ctx, string(content)); err != nil {
			return err
		}
	}
	return nil
}

func TestIntegrationCreateAndLookup(t *testing.T) {
	ctx := context.Background()
	d, cleanup := newTestDirectory(t, ctx)
	defer cleanup()

	created, err := d.Create(ctx, models.Patient{
		Name:   "Ramanathan S",
		Age:    65,
		Gender: "Male",
		Phone:  "9876543210",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.PatientID == "" {
		t.Fatalf("expected generated patient id")
	}

	byID, err := d.Lookup(ctx, created.PatientID)
	if err != nil {
		t.Fatalf("lookup by id: %v", err)
	}
	if byID.Name != "Ramanathan S" || byID.Age != 65 {
		t.Fatalf("unexpected patient: %+v", byID)
	}

	byPhone, err := d.Lookup(ctx, "9876543210")
	if err != nil {
		t.Fatalf("lookup by phone: %v", err)
	}
	if byPhone.PatientID != created.PatientID {
		t.Fatalf("phone lookup found %s, want %s", byPhone.PatientID, created.PatientID)
	}
}

func TestIntegrationLookupMissing(t *testing.T) {
	ctx := context.Background()
	d, cleanup := newTestDirectory(t, ctx)
	defer cleanup()

	if _, err := d.Lookup(ctx, "AEH9999"); err != directory.ErrPatientNotFound {
		t.Fatalf("expected ErrPatientNotFound, got %v", err)
	}
}

func TestIntegrationCreateUpsertsExisting(t *testing.T) {
	ctx := context.Background()
	d, cleanup := newTestDirectory(t, ctx)
	defer cleanup()

	first, err := d.Create(ctx, models.Patient{Name: "Asha K", Phone: "9000000001", CreatedAt: time.Now().UTC()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := d.Create(ctx, models.Patient{PatientID: first.PatientID, Name: "Asha Kumar", Phone: "9000000001"})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if updated.PatientID != first.PatientID {
		t.Fatalf("upsert changed id: %s -> %s", first.PatientID, updated.PatientID)
	}

	found, err := d.Lookup(ctx, first.PatientID)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if found.Name != "Asha Kumar" {
		t.Fatalf("name not updated: %q", found.Name)
	}
}
