package config

import (
	"strings"
	"testing"
)

func TestDatabaseDriver(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", "sqlite3", false},
		{"SQLite", "sqlite3", false},
		{"postgresql", "postgres", false},
		{"mysql", "", true},
	}
	for _, c := range cases {
		cfg := &Config{Database: DatabaseConfig{Driver: c.in}}
		got, err := cfg.DatabaseDriver()
		if (err != nil) != c.wantErr {
			t.Fatalf("%q: unexpected error state: %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("%q: want %q got %q", c.in, c.want, got)
		}
	}
}

func TestDatabaseURL(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{Driver: "sqlite3", Path: "/tmp/k.db"}}
	dsn, err := cfg.DatabaseURL()
	if err != nil {
		t.Fatalf("DatabaseURL: %v", err)
	}
	if !strings.HasPrefix(dsn, "file:/tmp/k.db?") || !strings.Contains(dsn, "_fk=1") {
		t.Fatalf("unexpected sqlite dsn %q", dsn)
	}

	cfg = &Config{Database: DatabaseConfig{Driver: "postgres"}}
	if _, err := cfg.DatabaseURL(); err == nil {
		t.Fatalf("expected error for postgres without url")
	}

	cfg.Database.URL = "postgres://u:p@localhost/kana"
	dsn, err = cfg.DatabaseURL()
	if err != nil || dsn != cfg.Database.URL {
		t.Fatalf("expected explicit url, got %q, %v", dsn, err)
	}
}
