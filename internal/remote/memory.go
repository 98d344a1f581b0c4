package remote

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"conia-sync/internal/conia"
)

// MemoryRemote is an in-memory backend, useful for tests and for running the
// CLI against nothing. Rows are stored per table keyed by primary key; all
// rows going in and out are copied, so callers can never alias the stored
// state. Safe for concurrent use.
type MemoryRemote struct {
	mu     sync.RWMutex
	tables map[string]map[string]conia.Row

	// FailUpsert, when set, is consulted before every upsert. Returning a
	// non-nil error makes the upsert fail with it, simulating a backend
	// rejection.
	FailUpsert func(table string, row conia.Row) error
	// FailSelect, when set, is consulted before every read.
	FailSelect func(table string) error
	// FailDelete, when set, is consulted before every delete.
	FailDelete func(table string) error
}

var _ conia.RemoteStore = (*MemoryRemote)(nil)

// NewMemoryRemote creates an empty in-memory backend.
func NewMemoryRemote() *MemoryRemote {
	return &MemoryRemote{tables: make(map[string]map[string]conia.Row)}
}

// Seed stores rows directly, bypassing the failure hooks.
func (m *MemoryRemote) Seed(table string, rows ...conia.Row) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range rows {
		m.table(table)[rowKey(table, row)] = copyRow(row)
	}
}

// Len reports how many rows a table holds.
func (m *MemoryRemote) Len(table string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tables[table])
}

// Get returns the stored row for an id, or nil.
func (m *MemoryRemote) Get(table string, id int64) conia.Row {
	m.mu.RLock()
	defer m.mu.RUnlock()
	row, ok := m.tables[table][fmt.Sprint(id)]
	if !ok {
		return nil
	}
	return copyRow(row)
}

func (m *MemoryRemote) Upsert(ctx context.Context, table string, row conia.Row) (conia.Row, error) {
	if m.FailUpsert != nil {
		if err := m.FailUpsert(table, row); err != nil {
			return nil, err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := rowKey(table, row)
	stored, ok := m.table(table)[key]
	if !ok {
		stored = conia.Row{}
	}
	// Merge: the backend keeps columns the caller did not send.
	for k, v := range row {
		stored[k] = v
	}
	m.table(table)[key] = stored
	return copyRow(stored), nil
}

func (m *MemoryRemote) SelectAll(ctx context.Context, table string) ([]conia.Row, error) {
	if m.FailSelect != nil {
		if err := m.FailSelect(table); err != nil {
			return nil, err
		}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]conia.Row, 0, len(m.tables[table]))
	for _, row := range m.tables[table] {
		out = append(out, copyRow(row))
	}
	sortByID(out)
	return out, nil
}

func (m *MemoryRemote) SelectWhere(ctx context.Context, table string, column string, value any) ([]conia.Row, error) {
	if m.FailSelect != nil {
		if err := m.FailSelect(table); err != nil {
			return nil, err
		}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []conia.Row
	for _, row := range m.tables[table] {
		if sameValue(row[column], value) {
			out = append(out, copyRow(row))
		}
	}
	sortByID(out)
	return out, nil
}

func (m *MemoryRemote) SelectNewerThan(ctx context.Context, table string, after time.Time) ([]conia.Row, error) {
	if m.FailSelect != nil {
		if err := m.FailSelect(table); err != nil {
			return nil, err
		}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []conia.Row
	for _, row := range m.tables[table] {
		at, ok := row.Time("updated_at")
		if ok && at.After(after) {
			out = append(out, copyRow(row))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, _ := out[i].Time("updated_at")
		b, _ := out[j].Time("updated_at")
		return a.Before(b)
	})
	return out, nil
}

func (m *MemoryRemote) Delete(ctx context.Context, table string, id int64) error {
	return m.DeleteWhere(ctx, table, "id", id)
}

func (m *MemoryRemote) DeleteWhere(ctx context.Context, table string, column string, value any) error {
	if m.FailDelete != nil {
		if err := m.FailDelete(table); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, row := range m.tables[table] {
		if sameValue(row[column], value) {
			delete(m.tables[table], key)
		}
	}
	return nil
}

func (m *MemoryRemote) table(name string) map[string]conia.Row {
	t, ok := m.tables[name]
	if !ok {
		t = make(map[string]conia.Row)
		m.tables[name] = t
	}
	return t
}

// rowKey builds the primary key string for a row. The link table is keyed by
// its pair; everything else by id.
func rowKey(table string, row conia.Row) string {
	if table == conia.TableTaskTagLinks {
		taskID, _ := row.Int64("task_id")
		tagID, _ := row.Int64("tag_id")
		return fmt.Sprintf("%d:%d", taskID, tagID)
	}
	id, _ := row.Int64("id")
	return fmt.Sprint(id)
}

func copyRow(row conia.Row) conia.Row {
	out := make(conia.Row, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}

// sameValue compares loosely across the numeric types that reach a Row from
// JSON decoding versus Go callers.
func sameValue(a, b any) bool {
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func sortByID(rows []conia.Row) {
	sort.Slice(rows, func(i, j int) bool {
		a, _ := rows[i].Int64("id")
		b, _ := rows[j].Int64("id")
		return a < b
	})
}
