package pkg

import (
	"database/sql/driver"
	"strings"

	gosqlite "github.com/glebarez/go-sqlite"
)

// SQLite's built-in lower() only folds ASCII letters. Replacing it on every
// connection keeps SQL LOWER in step with strings.ToLower for names such as
// "École" or "МОСКВА".
func init() {
	gosqlite.MustRegisterDeterministicScalarFunction("lower", 1, unicodeLower)
}

// unicodeLower lowercases text and blob arguments. NULL and numeric values
// are returned unchanged.
func unicodeLower(_ *gosqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}
