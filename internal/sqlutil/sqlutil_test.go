package sqlutil

import (
	"database/sql"
	"reflect"
	"testing"

	_ "modernc.org/sqlite"
)

func TestScanRows(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	if _, err := db.Exec("CREATE TABLE t (v TEXT); INSERT INTO t VALUES ('a'), ('b')"); err != nil {
		t.Fatal(err)
	}

	scan := func(r *sql.Rows) (string, error) {
		var v string
		err := r.Scan(&v)
		return v, err
	}

	rows, err := db.Query("SELECT v FROM t ORDER BY v")
	if err != nil {
		t.Fatal(err)
	}
	got, err := ScanRows(rows, scan)
	if err != nil {
		t.Fatalf("ScanRows() error = %v", err)
	}
	if !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("ScanRows() = %v", got)
	}

	rows, err = db.Query("SELECT v FROM t WHERE v = 'z'")
	if err != nil {
		t.Fatal(err)
	}
	got, err = ScanRows(rows, scan)
	if err != nil || got == nil || len(got) != 0 {
		t.Fatalf("ScanRows() on no rows = %#v, %v", got, err)
	}
}
