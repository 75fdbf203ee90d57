package db

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func tableColumns(t *testing.T, db *sql.DB, table string) map[string]bool {
	t.Helper()
	rows, err := db.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		t.Fatalf("pragmas: %v", err)
	}
	defer rows.Close()
	cols := map[string]bool{}
	for rows.Next() {
		var cid int
		var colName, ctype string
		var notnull, pk int
		var dfltVal interface{}
		if err := rows.Scan(&cid, &colName, &ctype, &notnull, &dfltVal, &pk); err != nil {
			t.Fatalf("scan col: %v", err)
		}
		cols[colName] = true
	}
	return cols
}

// TestInitDBCreatesSchema verifies a fresh database gets every table and the
// schedule columns the card store reads.
func TestInitDBCreatesSchema(t *testing.T) {
	dbConn, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer dbConn.Close()
	dbConn.SetMaxOpenConns(1)

	if err := InitDB(dbConn); err != nil {
		t.Fatalf("InitDB failed: %v", err)
	}

	for _, table := range []string{"cards", "sources", "sentences", "card_sources"} {
		var name string
		if err := dbConn.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name); err != nil {
			t.Fatalf("%s table missing: %v", table, err)
		}
	}

	cols := tableColumns(t, dbConn, "cards")
	for _, c := range []string{"record_id", "meaning_index", "meanings", "stage", "interval_days", "ease_factor", "next_review"} {
		if !cols[c] {
			t.Fatalf("expected column %s in cards, got %v", c, cols)
		}
	}
	if !tableColumns(t, dbConn, "sources")["last_processed_sentence"] {
		t.Fatalf("expected last_processed_sentence in sources")
	}
}

func TestInitDBIsIdempotent(t *testing.T) {
	dbConn := setupTestDB(t)
	defer dbConn.Close()
	if _, _, err := CreateOrGetCard(dbConn, catCard(), 2.5, testNow); err != nil {
		t.Fatalf("create card: %v", err)
	}
	if err := InitDB(dbConn); err != nil {
		t.Fatalf("second InitDB failed: %v", err)
	}
	n, err := CountCards(dbConn)
	if err != nil || n != 1 {
		t.Fatalf("expected card to survive re-init, got %d (%v)", n, err)
	}
}

func TestOpenFileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cards.db")
	conn, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, _, err := CreateOrGetCard(conn, catCard(), 2.5, testNow); err != nil {
		t.Fatalf("create card: %v", err)
	}
	conn.Close()

	conn, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer conn.Close()
	n, err := CountCards(conn)
	if err != nil || n != 1 {
		t.Fatalf("expected persisted card, got %d (%v)", n, err)
	}
}
