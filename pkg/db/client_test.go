package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/angelmondragon/quoteengine-backend/pkg/config"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testModel struct {
	ID   int
	Name string
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&testModel{}); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	return conn
}

func TestWithTx_CommitsAndRollbacks(t *testing.T) {
	db := newTestDB(t)
	client := &Client{conn: db}

	ctx := context.Background()
	if err := client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&testModel{Name: "committed"}).Error
	}); err != nil {
		t.Fatalf("WithTx commit failed: %v", err)
	}

	var count int64
	if err := db.Model(&testModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 record, got %d", count)
	}

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&testModel{Name: "rolled"}).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected WithTx to return an error")
	}
	if err := db.Model(&testModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed after rollback: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected rollback to leave 1 record, got %d", count)
	}
}

func TestWithTx_RollsBackOnPanic(t *testing.T) {
	db := newTestDB(t)
	if err := db.Exec("DELETE FROM test_models").Error; err != nil {
		t.Fatalf("reset table: %v", err)
	}
	client := NewFromConn(db)

	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Fatal("expected panic to propagate")
			}
		}()
		_ = client.WithTx(context.Background(), func(tx *gorm.DB) error {
			if err := tx.Create(&testModel{Name: "panicked"}).Error; err != nil {
				return err
			}
			panic("boom")
		})
	}()

	var count int64
	if err := db.Model(&testModel{}).Where("name = ?", "panicked").Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected panic to roll back insert, got %d rows", count)
	}
}

func TestIsSQLite(t *testing.T) {
	client := NewFromConn(newTestDB(t))
	if !client.IsSQLite() {
		t.Fatal("expected sqlite dialect")
	}
}

func TestDialectorForRejectsUnknownDriver(t *testing.T) {
	if _, err := dialectorFor(config.DBConfig{Driver: "mysql", DSN: "x"}); err == nil {
		t.Fatal("expected unsupported driver error")
	}
	d, err := dialectorFor(config.DBConfig{DSN: "postgres://localhost/db"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Name() != DriverPostgres {
		t.Fatalf("expected postgres dialector, got %s", d.Name())
	}
}

func TestErrorClassifiers(t *testing.T) {
	if !IsUniqueViolation(errors.New("UNIQUE constraint failed: clients.name"), "") {
		t.Fatal("expected sqlite unique violation to be detected")
	}
	if IsUniqueViolation(errors.New("UNIQUE constraint failed: clients.name"), "customizations") {
		t.Fatal("expected constraint filter to reject other tables")
	}
	if !IsForeignKeyViolation(errors.New("FOREIGN KEY constraint failed")) {
		t.Fatal("expected sqlite fk violation to be detected")
	}
	if !IsNotFound(fmt.Errorf("load: %w", gorm.ErrRecordNotFound)) {
		t.Fatal("expected wrapped not found to be detected")
	}
}

func TestPostgresErrorClassifiers(t *testing.T) {
	unique := fmt.Errorf("insert client: %w", &pgconn.PgError{Code: "23505", ConstraintName: "idx_clients_name"})
	if !IsUniqueViolation(unique, "") || !IsUniqueViolation(unique, "idx_clients_name") {
		t.Fatal("expected pgx unique violation to be detected")
	}
	if IsUniqueViolation(unique, "idx_other") {
		t.Fatal("expected constraint mismatch to be rejected")
	}
	if !IsForeignKeyViolation(&pq.Error{Code: "23503"}) {
		t.Fatal("expected lib/pq fk violation to be detected")
	}
	if IsForeignKeyViolation(unique) {
		t.Fatal("unique violation is not a fk violation")
	}
	if !IsRetryable(&pgconn.PgError{Code: "40001"}) || !IsRetryable(&pgconn.PgError{Code: "40P01"}) {
		t.Fatal("expected serialization and deadlock failures to be retryable")
	}
	if IsRetryable(errors.New("serialization failure")) {
		t.Fatal("plain errors are never retryable")
	}
}

func TestPing(t *testing.T) {
	db := newTestDB(t)
	client := &Client{conn: db}
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}
}

func TestWithTxRetriesSerializationFailures(t *testing.T) {
	client := &Client{conn: newTestDB(t), txRetries: 2}

	calls := 0
	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		calls++
		if calls < 3 {
			return &pgconn.PgError{Code: "40001"}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected third attempt to succeed, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestWithTxDoesNotRetryOtherErrors(t *testing.T) {
	client := &Client{conn: newTestDB(t), txRetries: 3}

	calls := 0
	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		calls++
		return &pgconn.PgError{Code: "23505"}
	})
	if !IsUniqueViolation(err, "") {
		t.Fatalf("expected unique violation to surface, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single attempt, got %d", calls)
	}
}
