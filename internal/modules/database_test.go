package modules

import (
	"testing"

	"github.com/aquascript/aqua/internal/value"
)

func TestDatabaseExecQueryAndClose(t *testing.T) {
	mod := dbModule()
	open, ok := mod.Dict.Get(value.Str("open"))
	if !ok || open.Kind != value.KNativeFunc {
		t.Fatal("db module has no native function \"open\"")
	}

	connVal, err := open.Native.Fn([]value.Value{value.Str(":memory:")})
	if err != nil {
		t.Fatal(err)
	}
	if connVal.Kind != value.KDict {
		t.Fatalf("expected db.open to return a connection dict, got %v", connVal)
	}

	exec, ok := connVal.Dict.Get(value.Str("exec"))
	if !ok {
		t.Fatal("connection has no \"exec\" member")
	}
	_, err = exec.Native.Fn([]value.Value{value.Str("CREATE TABLE t (id INTEGER, name TEXT)")})
	if err != nil {
		t.Fatal(err)
	}
	n, err := exec.Native.Fn([]value.Value{value.Str("INSERT INTO t (id, name) VALUES (?, ?)"), value.Int(1), value.Str("ada")})
	if err != nil {
		t.Fatal(err)
	}
	if n.Int != 1 {
		t.Fatalf("expected 1 row affected, got %v", n)
	}

	query, ok := connVal.Dict.Get(value.Str("query"))
	if !ok {
		t.Fatal("connection has no \"query\" member")
	}
	rows, err := query.Native.Fn([]value.Value{value.Str("SELECT id, name FROM t WHERE id = ?"), value.Int(1)})
	if err != nil {
		t.Fatal(err)
	}
	if rows.Kind != value.KList || len(*rows.List) != 1 {
		t.Fatalf("expected a single-row result, got %v", rows)
	}
	row := (*rows.List)[0]
	name, ok := row.Dict.Get(value.Str("name"))
	if !ok || name.Str != "ada" {
		t.Fatalf("expected name = ada, got %v, %v", name, ok)
	}

	closeFn, ok := connVal.Dict.Get(value.Str("close"))
	if !ok {
		t.Fatal("connection has no \"close\" member")
	}
	if _, err := closeFn.Native.Fn(nil); err != nil {
		t.Fatal(err)
	}
}

func TestDatabaseOpenRejectsNonStringPath(t *testing.T) {
	mod := dbModule()
	open, _ := mod.Dict.Get(value.Str("open"))
	if _, err := open.Native.Fn([]value.Value{value.Int(1)}); err == nil {
		t.Fatal("expected db.open to reject a non-str argument")
	}
}
