package modules

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/aquascript/aqua/internal/value"
)

// dbModule implements SPEC_FULL.md §B's "db" host module: db.open(path)
// opens a SQLite database (via the pure-Go modernc.org/sqlite driver)
// and returns a connection object exposing exec/query/close, in the
// same module-shaped-Dict convention wsModule uses for connections.
func dbModule() value.Value {
	d := value.NewDict()
	d.Set(value.Str("open"), value.NativeFn("db.open", dbOpen))
	return value.DictOf(d)
}

func dbOpen(args []value.Value) (value.Value, error) {
	if len(args) != 1 || args[0].Kind != value.KString {
		return value.Nil(), fmt.Errorf("db.open(path) expects a single str argument")
	}
	conn, err := sql.Open("sqlite", args[0].Str)
	if err != nil {
		return value.Nil(), fmt.Errorf("db.open: %w", err)
	}
	return dbConnValue(conn), nil
}

func dbConnValue(conn *sql.DB) value.Value {
	d := value.NewDict()
	d.Set(value.Str("exec"), value.NativeFn("db.exec", func(args []value.Value) (value.Value, error) {
		return dbExec(conn, args)
	}))
	d.Set(value.Str("query"), value.NativeFn("db.query", func(args []value.Value) (value.Value, error) {
		return dbQuery(conn, args)
	}))
	d.Set(value.Str("close"), value.NativeFn("db.close", func(args []value.Value) (value.Value, error) {
		if len(args) != 0 {
			return value.Nil(), fmt.Errorf("conn.close() takes no arguments")
		}
		if err := conn.Close(); err != nil {
			return value.Nil(), fmt.Errorf("conn.close: %w", err)
		}
		return value.Nil(), nil
	}))
	return value.DictOf(d)
}

func dbExec(conn *sql.DB, args []value.Value) (value.Value, error) {
	if len(args) == 0 || args[0].Kind != value.KString {
		return value.Nil(), fmt.Errorf("conn.exec(sql, ...) expects a str query")
	}
	params, err := toSQLArgs(args[1:])
	if err != nil {
		return value.Nil(), err
	}
	res, err := conn.Exec(args[0].Str, params...)
	if err != nil {
		return value.Nil(), fmt.Errorf("conn.exec: %w", err)
	}
	n, _ := res.RowsAffected()
	return value.Int(n), nil
}

func dbQuery(conn *sql.DB, args []value.Value) (value.Value, error) {
	if len(args) == 0 || args[0].Kind != value.KString {
		return value.Nil(), fmt.Errorf("conn.query(sql, ...) expects a str query")
	}
	params, err := toSQLArgs(args[1:])
	if err != nil {
		return value.Nil(), err
	}
	rows, err := conn.Query(args[0].Str, params...)
	if err != nil {
		return value.Nil(), fmt.Errorf("conn.query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return value.Nil(), fmt.Errorf("conn.query: %w", err)
	}

	var out []value.Value
	for rows.Next() {
		raw := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return value.Nil(), fmt.Errorf("conn.query: %w", err)
		}
		row := value.NewDict()
		for i, col := range cols {
			row.Set(value.Str(col), fromSQLValue(raw[i]))
		}
		out = append(out, value.DictOf(row))
	}
	if err := rows.Err(); err != nil {
		return value.Nil(), fmt.Errorf("conn.query: %w", err)
	}
	return value.List(out), nil
}

func toSQLArgs(args []value.Value) ([]interface{}, error) {
	out := make([]interface{}, len(args))
	for i, a := range args {
		switch a.Kind {
		case value.KInt:
			out[i] = a.Int
		case value.KFloat:
			out[i] = a.Flt
		case value.KString:
			out[i] = a.Str
		case value.KBool:
			out[i] = a.Bool
		case value.KNil:
			out[i] = nil
		default:
			return nil, fmt.Errorf("unsupported query argument type %s", a.TypeName())
		}
	}
	return out, nil
}

func fromSQLValue(raw interface{}) value.Value {
	switch v := raw.(type) {
	case nil:
		return value.Nil()
	case int64:
		return value.Int(v)
	case float64:
		return value.Float(v)
	case bool:
		return value.Bool(v)
	case []byte:
		return value.Str(string(v))
	case string:
		return value.Str(v)
	default:
		return value.Str(fmt.Sprintf("%v", v))
	}
}
