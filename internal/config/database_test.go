package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

func TestSetupDatabaseSQLite(t *testing.T) {
	tests := []struct {
		name         string
		pool         PoolConfig
		wantMaxOpen  int
		wantErr      bool
		errSubstring string
	}{
		{
			name:        "explicit pool settings",
			pool:        PoolConfig{MaxIdleConns: 5, MaxOpenConns: 50, ConnMaxLifetime: "30m"},
			wantMaxOpen: 50,
		},
		{
			name:        "zero pool falls back to defaults",
			pool:        PoolConfig{},
			wantMaxOpen: 100,
		},
		{
			name:         "invalid lifetime",
			pool:         PoolConfig{ConnMaxLifetime: "not-a-duration"},
			wantErr:      true,
			errSubstring: "conn_max_lifetime",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &DatabaseConfig{
				Driver: "sqlite",
				SQLite: SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db")},
				Pool:   tt.pool,
			}

			db, err := SetupDatabase(cfg, testLogger(slog.LevelDebug))
			if tt.wantErr {
				if err == nil {
					t.Fatal("SetupDatabase() expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.errSubstring) {
					t.Fatalf("error = %v; want contains %q", err, tt.errSubstring)
				}
				return
			}
			if err != nil {
				t.Fatalf("SetupDatabase() error = %v", err)
			}

			sqlDB, err := db.DB()
			if err != nil {
				t.Fatalf("db.DB() error = %v", err)
			}
			t.Cleanup(func() { sqlDB.Close() })

			if err := sqlDB.Ping(); err != nil {
				t.Fatalf("Ping() error = %v", err)
			}
			if got := sqlDB.Stats().MaxOpenConnections; got != tt.wantMaxOpen {
				t.Errorf("MaxOpenConnections = %d; want %d", got, tt.wantMaxOpen)
			}
		})
	}
}

func TestSetupDatabaseUnsupportedDriver(t *testing.T) {
	_, err := SetupDatabase(&DatabaseConfig{Driver: "mysql"}, testLogger(slog.LevelInfo))
	if err == nil {
		t.Fatal("SetupDatabase() expected error for unsupported driver, got nil")
	}
	if want := "unsupported database driver: mysql"; err.Error() != want {
		t.Errorf("error = %q; want %q", err.Error(), want)
	}
}

func TestSetupDatabaseNilConfig(t *testing.T) {
	if _, err := SetupDatabase(nil, testLogger(slog.LevelInfo)); err == nil {
		t.Fatal("SetupDatabase(nil) expected error, got nil")
	}
}

func TestEffectivePoolDefaults(t *testing.T) {
	if got := effectiveMaxIdleConns(0); got != 10 {
		t.Errorf("effectiveMaxIdleConns(0) = %d; want 10", got)
	}
	if got := effectiveMaxOpenConns(0); got != 100 {
		t.Errorf("effectiveMaxOpenConns(0) = %d; want 100", got)
	}
	if got := effectiveConnMaxLifetime("   "); got != "1h" {
		t.Errorf("effectiveConnMaxLifetime(blank) = %q; want 1h", got)
	}
	if got := effectiveConnMaxLifetime("30m"); got != "30m" {
		t.Errorf("effectiveConnMaxLifetime(30m) = %q; want 30m", got)
	}
}
