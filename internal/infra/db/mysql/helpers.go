package mysql

import (
	"database/sql"
	"encoding/json"
	"reflect"
	"strings"
)

// stringOrDash returns "-" when the input is empty/whitespace
func stringOrDash(s string) string {
    if strings.TrimSpace(s) == "" {
        return "-"
    }
    return s
}

// jsonColumn marshals v for a JSON/TEXT column; nil-ish values become
// SQL NULL so empty evidence stays distinguishable from empty objects.
// Typed-nil pointers arrive as non-nil interfaces and must be caught
// before Marshal turns them into the string "null".
func jsonColumn(v any) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Ptr && rv.IsNil() {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

// scanJSON decodes a nullable JSON column into out, leaving out untouched
// for NULL.
func scanJSON(col sql.NullString, out any) error {
	if !col.Valid || col.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(col.String), out)
}
