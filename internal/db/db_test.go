package db

import (
	"path/filepath"
	"testing"

	"github.com/zulandar/fireteam/internal/config"
)

func TestConnectSQLite_InMemory(t *testing.T) {
	gdb, err := ConnectSQLite(":memory:")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	defer sqlDB.Close()
	if err := sqlDB.Ping(); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestConnectSQLite_FileCreated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fireteam.db")
	gdb, err := ConnectSQLite(path)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	sqlDB, _ := gdb.DB()
	defer sqlDB.Close()
	if err := sqlDB.Ping(); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestOpen_DefaultsToSQLite(t *testing.T) {
	gdb, err := Open(config.StorageConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	sqlDB, _ := gdb.DB()
	sqlDB.Close()
}

func TestDSN(t *testing.T) {
	got := DSN("10.0.0.5", 3307, "fireteam")
	want := "root@tcp(10.0.0.5:3307)/fireteam?parseTime=true"
	if got != want {
		t.Errorf("DSN = %q, want %q", got, want)
	}
}
