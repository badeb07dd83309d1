package main

import (
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/deusflow/trendsky/internal/ledger"
)

func testLedger(t *testing.T) *ledger.Ledger {
	t.Helper()
	l, err := ledger.Open(filepath.Join(t.TempDir(), "trends.db"))
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestMetricsHandler_IncludesLedgerTotals(t *testing.T) {
	l := testLedger(t)
	if err := l.MarkPosted("天気"); err != nil {
		t.Fatalf("mark posted: %v", err)
	}

	rec := httptest.NewRecorder()
	metricsHandler(l)(rec, httptest.NewRequest("GET", "/metrics", nil))

	var stats map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatalf("decode metrics response: %v", err)
	}

	total, ok := stats["total_posted"].(float64)
	if !ok || total != 1 {
		t.Errorf("total_posted = %v, want 1", stats["total_posted"])
	}
	if _, ok := stats["posted_last_24h"]; !ok {
		t.Error("response missing posted_last_24h")
	}
	if _, ok := stats["posts_published"]; !ok {
		t.Error("response missing run counters")
	}
}

func TestRecentHandler_ListsPostedTrends(t *testing.T) {
	l := testLedger(t)
	if err := l.MarkPosted("サッカー"); err != nil {
		t.Fatalf("mark posted: %v", err)
	}

	rec := httptest.NewRecorder()
	recentHandler(l)(rec, httptest.NewRequest("GET", "/recent", nil))

	var entries []struct {
		Title    string `json:"title"`
		PostedAt string `json:"posted_at"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&entries); err != nil {
		t.Fatalf("decode recent response: %v", err)
	}

	if len(entries) != 1 || entries[0].Title != "サッカー" {
		t.Errorf("entries = %+v, want the one posted title", entries)
	}
	if len(entries) == 1 && entries[0].PostedAt == "" {
		t.Error("posted_at must be set")
	}
}
