package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/angelmondragon/quoteengine-backend/pkg/migrate"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no %s migration file found", suffix)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestMigrationsDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("ValidateDir: %v", err)
	}
}

func TestProjectsMigrationEncodesFinancialLock(t *testing.T) {
	content := readMigration(t, "create_projects_and_quotes")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS projects",
		"CHECK (financial_status IN ('ABIERTO', 'CERRADO'))",
		"CHECK (financial_status = 'ABIERTO' OR status = 'closed')",
		"CHECK (is_approved = (status = 'approved'))",
		"FOREIGN KEY (quote_id) REFERENCES quotes(id) ON DELETE CASCADE",
		"DROP TABLE IF EXISTS projects",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestLedgerMigrationRejectsNonPositiveAmounts(t *testing.T) {
	content := readMigration(t, "create_supplier_orders_and_ledger")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS incomes",
		"CREATE TABLE IF NOT EXISTS variable_expenses",
		"CHECK (amount > 0)",
		"CHECK (payment_status IN ('PENDING', 'PARTIAL', 'PAID'))",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestIncomesReferenceQuotes(t *testing.T) {
	content := readMigration(t, "add_incomes_quote_fk")

	checks := []string{
		"FOREIGN KEY (quote_id) REFERENCES quotes(id)",
		"DROP CONSTRAINT IF EXISTS incomes_quote_id_fkey",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
	if strings.Contains(content, "ON DELETE CASCADE") {
		t.Error("deleting a quote must not cascade to its incomes")
	}
}

func TestCreateSQLMigrationSanitizesName(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Quote Notes!")
	if err != nil {
		t.Fatalf("CreateSQLMigration: %v", err)
	}
	if !strings.HasSuffix(path, "_add_quote_notes.sql") {
		t.Fatalf("unexpected migration path %q", path)
	}
	if err := migrate.ValidateDir(dir); err != nil {
		t.Fatalf("generated migration should validate: %v", err)
	}
}

func TestEmbeddedMigrationsMatchDirectory(t *testing.T) {
	embeddedFS, err := migrate.Source("")
	if err != nil {
		t.Fatalf("Source(embedded): %v", err)
	}
	fromEmbed, err := migrate.Validate(embeddedFS)
	if err != nil {
		t.Fatalf("Validate(embedded): %v", err)
	}
	fromDisk, err := migrate.Validate(os.DirFS("migrations"))
	if err != nil {
		t.Fatalf("Validate(dir): %v", err)
	}
	if strings.Join(fromEmbed, ",") != strings.Join(fromDisk, ",") {
		t.Fatalf("embedded versions %v differ from disk %v", fromEmbed, fromDisk)
	}
	if len(fromEmbed) != 6 {
		t.Fatalf("expected 6 migrations, got %d", len(fromEmbed))
	}
}

func TestValidateRejectsDownBeforeUp(t *testing.T) {
	fsys := fstest.MapFS{
		"20260101000000_bad.sql": {Data: []byte("-- +goose Down\nDROP TABLE x;\n-- +goose Up\nCREATE TABLE x();\n")},
	}
	if _, err := migrate.Validate(fsys); err == nil {
		t.Fatal("expected ordering error")
	}
}

func TestValidateRejectsDuplicateVersions(t *testing.T) {
	body := []byte("-- +goose Up\nSELECT 1;\n-- +goose Down\nSELECT 1;\n")
	fsys := fstest.MapFS{
		"20260101000000_a.sql": {Data: body},
		"20260101000000_b.sql": {Data: body},
	}
	if _, err := migrate.Validate(fsys); err == nil {
		t.Fatal("expected duplicate version error")
	}
}

func TestCreateSQLMigrationOrdersAfterExistingFiles(t *testing.T) {
	dir := t.TempDir()
	future := filepath.Join(dir, "29991231235959_future.sql")
	if err := os.WriteFile(future, []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatalf("seed migration: %v", err)
	}
	path, err := migrate.CreateSQLMigration(dir, "next")
	if err != nil {
		t.Fatalf("CreateSQLMigration: %v", err)
	}
	if filepath.Base(path) != "29991231235960_next.sql" {
		t.Fatalf("expected version after the newest file, got %q", filepath.Base(path))
	}
}

func TestParseVersion(t *testing.T) {
	if v, err := migrate.ParseVersion("20260105120200"); err != nil || v != 20260105120200 {
		t.Fatalf("unexpected result %d, %v", v, err)
	}
	for _, bad := range []string{"", "2026", "2026010512020x"} {
		if _, err := migrate.ParseVersion(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
