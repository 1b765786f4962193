package alert

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tokenwatch/internal/domain"
)

func TestWebhookDispatcher_PostsAlert(t *testing.T) {
	var (
		gotBody        []byte
		gotContentType string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	d := NewWebhookDispatcher(server.URL)
	a := &Alert{
		Unit:         "unit1",
		Ticker:       "SNEK",
		Score:        8,
		Verdict:      domain.VerdictExtreme,
		TopHolderPct: 62.5,
		Factors:      []string{"top holder controls 62.5% of supply"},
	}

	if err := d.Dispatch(context.Background(), a); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}

	if gotContentType != "application/json" {
		t.Errorf("Content-Type = %q", gotContentType)
	}

	var decoded Alert
	if err := json.Unmarshal(gotBody, &decoded); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if decoded.Unit != "unit1" || decoded.Score != 8 {
		t.Errorf("payload mismatch: %+v", decoded)
	}
}

func TestWebhookDispatcher_Non2xxIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	d := NewWebhookDispatcher(server.URL)
	err := d.Dispatch(context.Background(), &Alert{Unit: "unit1"})
	if err == nil {
		t.Fatal("expected error for 502 response")
	}
	if !strings.Contains(err.Error(), "502") {
		t.Errorf("error should mention status code: %v", err)
	}
}

func TestAlert_Headline(t *testing.T) {
	a := &Alert{Ticker: "SNEK", Score: 7, Verdict: domain.VerdictHigh, TopHolderPct: 41.2}
	h := a.Headline()
	if !strings.Contains(h, "SNEK") || !strings.Contains(h, "7/10") {
		t.Errorf("unexpected headline: %q", h)
	}

	// Falls back to unit when no ticker is known.
	a = &Alert{Unit: "unitX", Score: 9, Verdict: domain.VerdictExtreme}
	if !strings.Contains(a.Headline(), "unitX") {
		t.Errorf("headline should fall back to unit: %q", a.Headline())
	}
}
