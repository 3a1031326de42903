package eodhd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetDailyRange(t *testing.T) {
	mockResp := `[
		{
			"date": "2025-03-28",
			"open": 42.10,
			"high": 43.50,
			"low": 41.80,
			"close": 43.25,
			"adjusted_close": 43.25,
			"volume": 5000000
		}
	]`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("from"); got != "2025-03-28" {
			t.Errorf("from = %q, want 2025-03-28", got)
		}
		if got := r.URL.Query().Get("to"); got != "2025-03-28" {
			t.Errorf("to = %q, want 2025-03-28", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(mockResp))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	rng, err := client.GetDailyRange(context.Background(), "BHP.AU", "2025-03-28")
	if err != nil {
		t.Fatalf("GetDailyRange failed: %v", err)
	}
	if rng == nil {
		t.Fatal("expected a range, got nil")
	}
	if rng.Low != 41.80 {
		t.Errorf("low = %.2f, want 41.80", rng.Low)
	}
	if rng.High != 43.50 {
		t.Errorf("high = %.2f, want 43.50", rng.High)
	}
	if !rng.Contains(42.00) {
		t.Error("expected 42.00 inside range")
	}
	if rng.Contains(44.00) {
		t.Error("expected 44.00 outside range")
	}
}

func TestGetDailyRange_NoBar(t *testing.T) {
	// Weekends and holidays return an empty array
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	rng, err := client.GetDailyRange(context.Background(), "BHP.AU", "2025-03-30")
	if err != nil {
		t.Fatalf("GetDailyRange failed: %v", err)
	}
	if rng != nil {
		t.Errorf("expected nil range for empty response, got %+v", rng)
	}
}

func TestGetEOD(t *testing.T) {
	mockResp := `[
		{"date": "2025-03-27", "open": 41.00, "high": 42.00, "low": 40.50, "close": 41.75, "adjusted_close": 41.75, "volume": 4200000},
		{"date": "2025-03-28", "open": 42.10, "high": 43.50, "low": 41.80, "close": 43.25, "adjusted_close": 43.25, "volume": 5000000}
	]`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(mockResp))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	bars, err := client.GetEOD(context.Background(), "BHP.AU")
	if err != nil {
		t.Fatalf("GetEOD failed: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(bars))
	}
	if bars[0].Date != "2025-03-27" {
		t.Errorf("bars[0].Date = %q, want 2025-03-27", bars[0].Date)
	}
	if bars[1].Close != 43.25 {
		t.Errorf("bars[1].Close = %.2f, want 43.25", bars[1].Close)
	}
}

func TestGetExchangeSymbols(t *testing.T) {
	mockResp := `[
		{"Code": "BHP", "Name": "BHP Group", "Exchange": "AU", "Type": "Common Stock"},
		{"Code": "CBA", "Name": "Commonwealth Bank", "Exchange": "AU", "Type": "Common Stock"}
	]`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(mockResp))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	symbols, err := client.GetExchangeSymbols(context.Background(), "AU")
	if err != nil {
		t.Fatalf("GetExchangeSymbols failed: %v", err)
	}
	if len(symbols) != 2 {
		t.Fatalf("expected 2 symbols, got %d", len(symbols))
	}
	if symbols[0].Code != "BHP" {
		t.Errorf("symbols[0].Code = %q, want BHP", symbols[0].Code)
	}
}

func TestGet_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Invalid API key", http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewClient("bad-key", WithBaseURL(srv.URL))
	_, err := client.GetEOD(context.Background(), "BHP.AU")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusForbidden {
		t.Errorf("StatusCode = %d, want 403", apiErr.StatusCode)
	}
}
