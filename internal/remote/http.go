package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"conia-sync/internal/conia"
	"conia-sync/internal/model"
)

// HTTPRemote talks to a PostgREST-style backend: one resource per table,
// filters in the query string, JSON rows on the wire. The backend enforces
// its own constraints; this client only translates calls and errors.
type HTTPRemote struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  conia.Logger
}

var _ conia.RemoteStore = (*HTTPRemote)(nil)

// Error is a failure reported by the backend.
type Error struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
}

func (e *Error) Error() string {
	if e.Code != "" || e.Message != "" {
		return fmt.Sprintf("backend responded %d: %s %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("backend responded %d", e.Status)
}

// NewHTTPRemote creates a client for the REST root at baseURL, for example
// "https://example.supabase.co/rest/v1". apiKey is sent both as the apikey
// header and as a bearer token.
func NewHTTPRemote(baseURL, apiKey string, timeout time.Duration, logger conia.Logger) *HTTPRemote {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	for len(baseURL) > 0 && baseURL[len(baseURL)-1] == '/' {
		baseURL = baseURL[:len(baseURL)-1]
	}
	return &HTTPRemote{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Upsert inserts or updates one row keyed by the table's primary key and
// returns the row as the backend stored it.
func (r *HTTPRemote) Upsert(ctx context.Context, table string, row conia.Row) (conia.Row, error) {
	query := url.Values{}
	query.Set("on_conflict", primaryKey(table))

	body, err := json.Marshal([]conia.Row{row})
	if err != nil {
		return nil, fmt.Errorf("encoding %s row: %w", table, err)
	}

	rows, err := r.do(ctx, http.MethodPost, table, query, body, map[string]string{
		"Prefer": "resolution=merge-duplicates,return=representation",
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("upserting into %s: backend returned no representation", table)
	}
	return rows[0], nil
}

// SelectAll returns every row in the table.
func (r *HTTPRemote) SelectAll(ctx context.Context, table string) ([]conia.Row, error) {
	query := url.Values{}
	query.Set("select", "*")
	return r.do(ctx, http.MethodGet, table, query, nil, nil)
}

// SelectWhere returns the rows where column equals value.
func (r *HTTPRemote) SelectWhere(ctx context.Context, table string, column string, value any) ([]conia.Row, error) {
	query := url.Values{}
	query.Set("select", "*")
	query.Set(column, "eq."+formatValue(value))
	return r.do(ctx, http.MethodGet, table, query, nil, nil)
}

// SelectNewerThan returns rows updated strictly after the given time,
// oldest first.
func (r *HTTPRemote) SelectNewerThan(ctx context.Context, table string, after time.Time) ([]conia.Row, error) {
	query := url.Values{}
	query.Set("select", "*")
	query.Set("updated_at", "gt."+model.FormatTime(after))
	query.Set("order", "updated_at.asc")
	return r.do(ctx, http.MethodGet, table, query, nil, nil)
}

// Delete removes the row with the given id. Deleting an absent row is not
// an error.
func (r *HTTPRemote) Delete(ctx context.Context, table string, id int64) error {
	return r.DeleteWhere(ctx, table, "id", id)
}

// DeleteWhere removes every row where column equals value.
func (r *HTTPRemote) DeleteWhere(ctx context.Context, table string, column string, value any) error {
	query := url.Values{}
	query.Set(column, "eq."+formatValue(value))
	_, err := r.do(ctx, http.MethodDelete, table, query, nil, nil)
	return err
}

// do performs one request and decodes the JSON row array, when there is one.
func (r *HTTPRemote) do(ctx context.Context, method, table string, query url.Values, body []byte, headers map[string]string) ([]conia.Row, error) {
	endpoint := r.baseURL + "/" + table
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("building %s %s request: %w", method, table, err)
	}
	req.Header.Set("apikey", r.apiKey)
	req.Header.Set("Authorization", "Bearer "+r.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, table, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("%s %s: reading response: %w", method, table, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s %s: %w", method, table, decodeError(resp.StatusCode, raw))
	}
	if len(raw) == 0 || resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}

	var rows []conia.Row
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("%s %s: decoding response: %w", method, table, err)
	}
	return rows, nil
}

func decodeError(status int, body []byte) error {
	e := &Error{Status: status}
	if len(body) > 0 {
		if err := json.Unmarshal(body, e); err != nil {
			// Not the structured error shape; keep a slice of the raw body.
			msg := string(body)
			if len(msg) > 200 {
				msg = msg[:200]
			}
			e.Message = msg
		}
	}
	return e
}

// primaryKey names the conflict target for upserts.
func primaryKey(table string) string {
	if table == conia.TableTaskTagLinks {
		return "task_id,tag_id"
	}
	return "id"
}

// formatValue renders a filter operand for the query string.
func formatValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return model.FormatTime(v)
	default:
		return fmt.Sprint(v)
	}
}
