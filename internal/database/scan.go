package database

import (
	"database/sql"
	"fmt"
	"time"

	"conia-sync/internal/model"
)

// scanner covers both *sql.Row and *sql.Rows so each entity needs only one
// scan function.
type scanner interface {
	Scan(dest ...any) error
}

// nullTime converts a scanned nullable timestamp column.
func nullTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid {
		return nil, nil
	}
	t, err := model.ParseTime(v.String)
	if err != nil {
		return nil, fmt.Errorf("parsing timestamp %q: %w", v.String, err)
	}
	return &t, nil
}

// nullID converts a scanned nullable integer reference column.
func nullID(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	id := v.Int64
	return &id
}

// timeArg converts an optional timestamp into a bind parameter.
func timeArg(t *time.Time) any {
	if t == nil {
		return nil
	}
	return model.FormatTime(*t)
}

// idArg converts an optional reference into a bind parameter.
func idArg(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}
