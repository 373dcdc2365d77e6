//go:build integration

package testhelpers

import (
	"context"
	"testing"
)

func TestCounselDB_MigrationsApplied(t *testing.T) {
	testDB := GetCounselDB(t)

	ctx := context.Background()

	for _, table := range []string{"clients", "courts", "case_types", "case_statuses", "cases", "case_counters"} {
		var exists bool
		err := testDB.DB.Pool.QueryRow(ctx,
			"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = 'public' AND table_name = $1)",
			table).Scan(&exists)
		if err != nil {
			t.Fatalf("failed to check table %s: %v", table, err)
		}
		if !exists {
			t.Errorf("expected table %s to exist after migrations", table)
		}
	}
}

func TestCounselDB_RowLevelSecurityEnabled(t *testing.T) {
	testDB := GetCounselDB(t)

	ctx := context.Background()

	var count int
	err := testDB.DB.Pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM pg_class WHERE relname IN ('clients', 'courts', 'case_types', 'case_statuses', 'cases', 'case_counters') AND relrowsecurity").
		Scan(&count)
	if err != nil {
		t.Fatalf("failed to query pg_class: %v", err)
	}
	if count != 6 {
		t.Errorf("expected RLS on 6 tables, got %d", count)
	}
}
