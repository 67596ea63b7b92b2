package kv

import (
	"errors"
	"testing"

	"github.com/zulandar/flightbag/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.Setting{}); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}

// storeContract runs the behaviour every Store must share.
func storeContract(t *testing.T, s Store) {
	t.Helper()

	if _, ok, err := s.Get("missing"); err != nil || ok {
		t.Errorf("Get(missing) = ok %v, err %v; want false, nil", ok, err)
	}

	if err := s.Set("events_f001", `[{"type":"START"}]`); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, ok, err := s.Get("events_f001")
	if err != nil || !ok || v != `[{"type":"START"}]` {
		t.Errorf("Get after Set = %q, %v, %v", v, ok, err)
	}

	if err := s.Set("events_f001", "[]"); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	if v, _, _ := s.Get("events_f001"); v != "[]" {
		t.Errorf("Get after overwrite = %q, want []", v)
	}

	if err := s.Set("api_base", ""); err != nil {
		t.Fatalf("Set empty value: %v", err)
	}
	if v, ok, _ := s.Get("api_base"); !ok || v != "" {
		t.Errorf("empty value: ok = %v, v = %q; want stored empty string", ok, v)
	}

	if err := s.Remove("events_f001"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok, _ := s.Get("events_f001"); ok {
		t.Error("key still present after Remove")
	}
	if err := s.Remove("events_f001"); err != nil {
		t.Errorf("Remove missing key: %v", err)
	}

	for _, fn := range []func() error{
		func() error { _, _, err := s.Get(""); return err },
		func() error { return s.Set("", "x") },
		func() error { return s.Remove("") },
	} {
		if err := fn(); !errors.Is(err, ErrEmptyKey) {
			t.Errorf("empty key error = %v, want ErrEmptyKey", err)
		}
	}
}

func TestMemoryStore_Contract(t *testing.T) {
	storeContract(t, NewMemoryStore())
}

func TestGormStore_Contract(t *testing.T) {
	s, err := NewGormStore(openTestDB(t))
	if err != nil {
		t.Fatalf("NewGormStore: %v", err)
	}
	storeContract(t, s)
}

func TestNewGormStore_NilDB(t *testing.T) {
	if _, err := NewGormStore(nil); err == nil {
		t.Fatal("expected error for nil db")
	}
}

func TestGetString(t *testing.T) {
	s := NewMemoryStore()
	if got := GetString(s, "va_user"); got != "" {
		t.Errorf("GetString(missing) = %q, want empty", got)
	}
	s.Set("va_user", "PILOT123")
	if got := GetString(s, "va_user"); got != "PILOT123" {
		t.Errorf("GetString = %q, want PILOT123", got)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}
