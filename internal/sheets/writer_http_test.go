package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// fakeSheetsAPI serves the handful of Sheets v4 endpoints the writer uses
// and records each call as "<METHOD> <target>".
type fakeSheetsAPI struct {
	mu    sync.Mutex
	calls []string

	// existing lists the tabs a Get of "sheet-1" reports.
	existing []string
	// throttle names an update range that answers 429 exactly once.
	throttle string
}

func (f *fakeSheetsAPI) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeSheetsAPI) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeSheetsAPI) takeThrottle(target string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if target != f.throttle {
		return false
	}
	f.throttle = ""
	return true
}

func (f *fakeSheetsAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v4/spreadsheets")
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodPost && path == "":
		f.record("CREATE")
		writeJSON(w, spreadsheetWith("created-1", CustomersTab, SummaryTab))

	case r.Method == http.MethodGet && path == "/sheet-1":
		f.record("GET")
		writeJSON(w, spreadsheetWith("sheet-1", f.existing...))

	case r.Method == http.MethodPost && strings.HasSuffix(path, ":batchUpdate"):
		var req sheets.BatchUpdateSpreadsheetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		resp := sheets.BatchUpdateSpreadsheetResponse{SpreadsheetId: "sheet-1"}
		if len(req.Requests) > 0 && req.Requests[0].AddSheet != nil {
			for i, add := range req.Requests {
				f.record("ADD " + add.AddSheet.Properties.Title)
				resp.Replies = append(resp.Replies, &sheets.Response{
					AddSheet: &sheets.AddSheetResponse{Properties: &sheets.SheetProperties{
						SheetId: int64(100 + i),
						Title:   add.AddSheet.Properties.Title,
					}},
				})
			}
		} else {
			f.record(fmt.Sprintf("FORMAT %d", len(req.Requests)))
		}
		writeJSON(w, resp)

	case r.Method == http.MethodPost && strings.HasSuffix(path, ":clear"):
		_, target, _ := strings.Cut(strings.TrimSuffix(path, ":clear"), "/values/")
		f.record("CLEAR " + target)
		writeJSON(w, sheets.ClearValuesResponse{ClearedRange: target})

	case r.Method == http.MethodPut:
		_, target, _ := strings.Cut(path, "/values/")
		if f.takeThrottle(target) {
			f.record("THROTTLED " + target)
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"code":429,"message":"Quota exceeded","status":"RESOURCE_EXHAUSTED"}}`))
			return
		}
		var body sheets.ValueRange
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.record(fmt.Sprintf("PUT %s %s rows=%d", target, r.URL.Query().Get("valueInputOption"), len(body.Values)))
		writeJSON(w, sheets.UpdateValuesResponse{UpdatedRange: target, UpdatedRows: int64(len(body.Values))})

	default:
		http.Error(w, "unexpected "+r.Method+" "+r.URL.Path, http.StatusNotFound)
	}
}

func spreadsheetWith(id string, tabs ...string) *sheets.Spreadsheet {
	s := &sheets.Spreadsheet{
		SpreadsheetId:  id,
		SpreadsheetUrl: "https://docs.google.com/spreadsheets/d/" + id,
	}
	for i, tab := range tabs {
		s.Sheets = append(s.Sheets, &sheets.Sheet{
			Properties: &sheets.SheetProperties{SheetId: int64(i), Title: tab},
		})
	}
	return s
}

func writeJSON(w http.ResponseWriter, v any) {
	_ = json.NewEncoder(w).Encode(v)
}

func newTestWriter(t *testing.T, api *fakeSheetsAPI, cfg Config) *Writer {
	t.Helper()

	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	svc, err := sheets.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	return newWriter(svc, cfg, nil)
}

func batchedConfig() Config {
	return Config{
		SpreadsheetName: DefaultSpreadsheetName,
		BatchSize:       2,
		RetryAttempts:   3,
		RetryDelay:      time.Millisecond,
		MaxRetryDelay:   time.Millisecond,
	}
}

func TestWriter_Write_CreatesSpreadsheet(t *testing.T) {
	api := &fakeSheetsAPI{}
	cfg := batchedConfig()
	cfg.EnableFormatting = true
	w := newTestWriter(t, api, cfg)

	require.NoError(t, w.Write(context.Background(), testResult()))

	assert.Equal(t, []string{
		"CREATE",
		"CLEAR Customers!A:Z",
		"PUT Customers!A1 RAW rows=2",
		"PUT Customers!A3 RAW rows=2",
		"PUT Customers!A5 RAW rows=1",
		"CLEAR Summary!A:Z",
		"PUT Summary!A1 RAW rows=2",
		"PUT Summary!A3 RAW rows=2",
		"PUT Summary!A5 RAW rows=2",
		"PUT Summary!A7 RAW rows=2",
		"PUT Summary!A9 RAW rows=2",
		"FORMAT 10",
	}, api.recorded())
	assert.Equal(t, "created-1", w.config.SpreadsheetID)
}

func TestWriter_Write_AddsMissingTabAndRetriesThrottledBatch(t *testing.T) {
	api := &fakeSheetsAPI{
		existing: []string{CustomersTab},
		throttle: "Summary!A3",
	}
	cfg := batchedConfig()
	cfg.SpreadsheetID = "sheet-1"
	w := newTestWriter(t, api, cfg)

	start := time.Now()
	require.NoError(t, w.Write(context.Background(), testResult()))
	assert.Less(t, time.Since(start), 5*time.Second, "rate-limit backoff must honour MaxRetryDelay")

	assert.Equal(t, []string{
		"GET",
		"ADD Summary",
		"CLEAR Customers!A:Z",
		"PUT Customers!A1 RAW rows=2",
		"PUT Customers!A3 RAW rows=2",
		"PUT Customers!A5 RAW rows=1",
		"CLEAR Summary!A:Z",
		"PUT Summary!A1 RAW rows=2",
		"THROTTLED Summary!A3",
		"CLEAR Summary!A:Z",
		"PUT Summary!A1 RAW rows=2",
		"PUT Summary!A3 RAW rows=2",
		"PUT Summary!A5 RAW rows=2",
		"PUT Summary!A7 RAW rows=2",
		"PUT Summary!A9 RAW rows=2",
	}, api.recorded())
}

func TestWriter_Write_PermanentErrorStopsRetrying(t *testing.T) {
	api := &fakeSheetsAPI{existing: []string{CustomersTab, SummaryTab}}
	cfg := batchedConfig()
	cfg.SpreadsheetID = "missing"
	w := newTestWriter(t, api, cfg)

	err := w.Write(context.Background(), testResult())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get spreadsheet")
	assert.Empty(t, api.recorded())
}
