package engine

import (
	"os"
	"path/filepath"
	"testing"
)

// TestOpenInMemory verifies that an in-memory database can be opened through
// the shared driver and used for a trivial round trip.
func TestOpenInMemory(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("CREATE TABLE t(x INTEGER)"); err != nil {
		t.Fatalf("CREATE TABLE failed: %v", err)
	}
	if _, err := db.Exec("INSERT INTO t(x) VALUES (1),(2),(3)"); err != nil {
		t.Fatalf("INSERT failed: %v", err)
	}
	var n int
	if err := db.QueryRow("SELECT count(*) FROM t").Scan(&n); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if n != 3 {
		t.Fatalf("count = %d, want 3", n)
	}
}

// TestOpenReadOnly verifies that writes through a read-only handle fail and
// that a missing file is not created.
func TestOpenReadOnly(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "space #1 100%.sqlite")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := db.Exec("CREATE TABLE t(x INTEGER)"); err != nil {
		t.Fatalf("CREATE TABLE failed: %v", err)
	}
	if _, err := db.Exec("INSERT INTO t VALUES (7)"); err != nil {
		t.Fatalf("INSERT failed: %v", err)
	}
	db.Close()

	ro, err := OpenReadOnly(path)
	if err != nil {
		t.Fatalf("OpenReadOnly failed: %v", err)
	}
	defer ro.Close()
	var x int
	if err := ro.QueryRow("SELECT x FROM t").Scan(&x); err != nil || x != 7 {
		t.Fatalf("read failed: x=%d err=%v", x, err)
	}
	if _, err := ro.Exec("INSERT INTO t VALUES (8)"); err == nil {
		t.Fatalf("write through read-only handle succeeded")
	}

	missing := filepath.Join(dir, "missing.sqlite")
	m, err := OpenReadOnly(missing)
	if err != nil {
		t.Fatalf("OpenReadOnly(missing) failed: %v", err)
	}
	defer m.Close()
	if err := m.Ping(); err == nil {
		t.Fatalf("Ping on missing read-only file succeeded")
	}
	if _, err := os.Stat(missing); !os.IsNotExist(err) {
		t.Fatalf("missing file was created: %v", err)
	}
}
