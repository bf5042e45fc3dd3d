package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestOpen_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); err != nil {
		t.Errorf("firing log not created: %v", err)
	}
}

func TestOpen_ReopenKeepsFirings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.db")
	ctx := t.Context()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if err := s.RecordFiring(ctx, createTestFiring("c1", "Weaken", 1)); err != nil {
		t.Fatalf("RecordFiring() failed: %v", err)
	}
	s.Close()

	for i := 0; i < 2; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("reopen %d failed: %v", i, err)
		}
		got, err := s.ListFirings(ctx, "")
		s.Close()
		if err != nil {
			t.Fatalf("ListFirings() failed: %v", err)
		}
		if len(got) != 1 {
			t.Errorf("reopen %d: got %d firings, want 1", i, len(got))
		}
	}
}

func TestOpen_Memory(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	defer s.Close()

	if err := s.RecordFiring(t.Context(), createTestFiring("c1", "Weaken", 1)); err != nil {
		t.Fatalf("RecordFiring() failed: %v", err)
	}
	seq, err := s.LastSeq(t.Context())
	if err != nil || seq != 1 {
		t.Errorf("LastSeq() = %d, %v; want 1", seq, err)
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	if _, err := Open("/nonexistent/dir/log.db"); err == nil {
		t.Error("expected error for a path in a missing directory")
	}
}

func TestClose(t *testing.T) {
	if err := (&Store{}).Close(); err != nil {
		t.Errorf("Close() on a zero Store: %v", err)
	}

	s, err := Open(filepath.Join(t.TempDir(), "log.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close() failed: %v", err)
	}
	_ = s.Close()
}

func TestPragmas(t *testing.T) {
	s := createTestStore(t)

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"synchronous", "1"},
		{"busy_timeout", "5000"},
		{"foreign_keys", "1"},
	}
	for _, tt := range tests {
		t.Run(tt.pragma, func(t *testing.T) {
			var got string
			if err := s.db.QueryRow("PRAGMA " + tt.pragma).Scan(&got); err != nil {
				t.Fatalf("query %s: %v", tt.pragma, err)
			}
			if got != tt.want {
				t.Errorf("%s = %q, want %q", tt.pragma, got, tt.want)
			}
		})
	}
}

func TestSchema(t *testing.T) {
	s := createTestStore(t)

	firings := tableColumns(t, s.db, "firings")
	for _, col := range []string{
		"id", "chain_id", "seq", "parent_seq", "kind", "host", "ruleset",
		"ruleset_hash", "participants", "outcome", "aborted_at", "error",
		"engine_version", "ir_version",
	} {
		if !slices.Contains(firings, col) {
			t.Errorf("firings missing column %q", col)
		}
	}

	effects := tableColumns(t, s.db, "effects")
	for _, col := range []string{"firing_id", "component", "via", "target", "error"} {
		if !slices.Contains(effects, col) {
			t.Errorf("effects missing column %q", col)
		}
	}

	indexes := tableIndexes(t, s.db, "firings")
	for _, idx := range []string{"idx_firings_chain", "idx_firings_kind", "idx_firings_ruleset", "idx_firings_outcome"} {
		if !slices.Contains(indexes, idx) {
			t.Errorf("firings missing index %q", idx)
		}
	}
}

func TestSchema_Constraints(t *testing.T) {
	const insertFiring = `
		INSERT INTO firings (id, chain_id, seq, kind, ruleset, participants, outcome, engine_version, ir_version)
		VALUES (?, 'c1', ?, 'WhenCrush', 'R', '{}', ?, '0.1.0', '1')`

	s := createTestStore(t)

	if _, err := s.db.Exec(insertFiring, "f0", 9, "exploded"); err == nil {
		t.Error("expected CHECK violation for an unknown outcome")
	}
	if _, err := s.db.Exec(insertFiring, "f1", 1, "executed"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if _, err := s.db.Exec(insertFiring, "f2", 1, "executed"); err == nil {
		t.Error("expected UNIQUE violation for a repeated (chain_id, seq)")
	}
	if _, err := s.db.Exec(`INSERT INTO effects (firing_id, component, via, target) VALUES ('missing', 0, 'Me', 1)`); err == nil {
		t.Error("expected foreign key violation for an effect without a firing")
	}
}

func TestMigrate_FromEveryVersion(t *testing.T) {
	for from := 0; from <= schemaVersion; from++ {
		path := filepath.Join(t.TempDir(), "log.db")

		// A log at version from has the base schema plus the first from migrations.
		db, err := sql.Open("sqlite3", path)
		if err != nil {
			t.Fatalf("sql.Open: %v", err)
		}
		if _, err := db.Exec(schemaSQL); err != nil {
			t.Fatalf("schema: %v", err)
		}
		for _, m := range migrations[:from] {
			if _, err := db.Exec(m.stmt); err != nil {
				t.Fatalf("v%d: %v", m.version, err)
			}
		}
		db.Close()
		if from > 0 {
			setUserVersion(t, path, from)
		}

		s, err := Open(path)
		if err != nil {
			t.Fatalf("from v%d: Open() failed: %v", from, err)
		}
		if got := userVersion(t, s.db); got != schemaVersion {
			t.Errorf("from v%d: user_version = %d, want %d", from, got, schemaVersion)
		}
		if !slices.Contains(tableIndexes(t, s.db, "firings"), "idx_firings_outcome") {
			t.Errorf("from v%d: idx_firings_outcome missing", from)
		}
		s.Close()
	}
}

func setUserVersion(t *testing.T, path string, v int) {
	t.Helper()
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", v)); err != nil {
		t.Fatalf("set user_version: %v", err)
	}
}

func userVersion(t *testing.T, db *sql.DB) int {
	t.Helper()
	var v int
	if err := db.QueryRow("PRAGMA user_version").Scan(&v); err != nil {
		t.Fatalf("read user_version: %v", err)
	}
	return v
}

func tableColumns(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()
	return queryNames(t, db, "SELECT name FROM pragma_table_info(?)", table)
}

func tableIndexes(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()
	return queryNames(t, db, "SELECT name FROM sqlite_master WHERE type = 'index' AND tbl_name = ?", table)
}

func queryNames(t *testing.T, db *sql.DB, query string, args ...any) []string {
	t.Helper()
	rows, err := db.Query(query, args...)
	if err != nil {
		t.Fatalf("%s: %v", query, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("scan: %v", err)
		}
		names = append(names, name)
	}
	return names
}
