package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"tokenwatch/internal/alert"
	"tokenwatch/internal/analyzer"
	"tokenwatch/internal/domain"
	"tokenwatch/internal/monitor"
	"tokenwatch/internal/storage/memory"
)

type stubPipeline struct {
	report *domain.AnalysisReport
	err    error
	gold   bool
}

func (p *stubPipeline) Analyze(context.Context, string) (*domain.AnalysisReport, error) {
	return p.report, p.err
}

func (p *stubPipeline) AnalyzeGold(context.Context, string) (*domain.AnalysisReport, error) {
	p.gold = true
	return p.report, p.err
}

type stubMonitor struct{ status monitor.Status }

func (m *stubMonitor) Status() monitor.Status { return m.status }

type stubDispatcher struct {
	alerts []*alert.Alert
	err    error
}

func (d *stubDispatcher) Dispatch(_ context.Context, a *alert.Alert) error {
	d.alerts = append(d.alerts, a)
	return d.err
}

func newTestServer(t *testing.T) (*Server, *stubPipeline, *memory.TokenStore, *memory.AnalysisHistoryStore, *stubDispatcher) {
	t.Helper()
	pipeline := &stubPipeline{report: &domain.AnalysisReport{
		ReportID: "r1",
		Unit:     "unit1",
		Risk:     &domain.RiskAssessment{Score: 5, Verdict: domain.VerdictModerate},
	}}
	tokens := memory.NewTokenStore()
	history := memory.NewAnalysisHistoryStore()
	dispatcher := &stubDispatcher{}
	s := New(Config{
		Port:       0,
		Pipeline:   pipeline,
		Monitor:    &stubMonitor{status: monitor.Status{Running: true, KnownTokens: 7}},
		Tokens:     tokens,
		History:    history,
		Dispatcher: dispatcher,
		Log:        zerolog.Nop(),
	})
	return s, pipeline, tokens, history, dispatcher
}

func doRequest(s *Server, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON response: %v (%s)", err, rec.Body.String())
	}
	return body
}

func TestHealth(t *testing.T) {
	s, _, _, _, _ := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["success"] != true {
		t.Errorf("success flag missing: %v", body)
	}
}

func TestStatus(t *testing.T) {
	s, _, _, _, _ := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	mon, ok := body["monitor"].(map[string]any)
	if !ok {
		t.Fatalf("monitor block missing: %v", body)
	}
	if mon["known_tokens"] != float64(7) {
		t.Errorf("known_tokens = %v", mon["known_tokens"])
	}
}

func TestSuspiciousTokens(t *testing.T) {
	s, _, tokens, _, _ := newTestServer(t)
	ctx := context.Background()

	for i, unit := range []string{"a", "b", "c"} {
		if err := tokens.Upsert(ctx, &domain.Token{Unit: unit, RiskScore: 6 + i, AnalyzedAt: 1}); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}

	rec := doRequest(s, http.MethodGet, "/suspicious-tokens?limit=2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["count"] != float64(2) {
		t.Errorf("count = %v", body["count"])
	}

	rec = doRequest(s, http.MethodGet, "/suspicious-tokens?limit=bogus", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bogus limit: status = %d", rec.Code)
	}
	if decodeBody(t, rec)["success"] != false {
		t.Error("failure envelope missing success:false")
	}
}

func TestMonitoringHistory(t *testing.T) {
	s, _, _, history, _ := newTestServer(t)
	ctx := context.Background()

	nowMs := int64(1756600000000)
	if err := history.Append(ctx, &domain.AnalysisRecord{RecordID: "old-record", Unit: "old", CreatedAt: 1}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if err := history.Append(ctx, &domain.AnalysisRecord{RecordID: "recent-record", Unit: "recent", CreatedAt: nowMs}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	rec := doRequest(s, http.MethodGet, "/monitoring-history?hours=1000000", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	rec = doRequest(s, http.MethodGet, "/monitoring-history?hours=-5", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative hours: status = %d", rec.Code)
	}
}

func TestAnalyze(t *testing.T) {
	s, pipeline, _, _, _ := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/analyze", `{"identifier":"SNEK"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	report, ok := body["report"].(map[string]any)
	if !ok {
		t.Fatalf("report missing: %v", body)
	}
	if report["report_id"] != "r1" {
		t.Errorf("report_id = %v", report["report_id"])
	}

	rec = doRequest(s, http.MethodPost, "/analyze", `{"identifier":"SNEK","mode":"gold"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("gold status = %d", rec.Code)
	}
	if !pipeline.gold {
		t.Error("gold mode did not reach the pipeline")
	}
}

func TestAnalyze_UnresolvedIs404(t *testing.T) {
	s, pipeline, _, _, _ := newTestServer(t)
	pipeline.report = nil
	pipeline.err = fmt.Errorf("%w: NOPE", analyzer.ErrUnresolvedToken)

	rec := doRequest(s, http.MethodPost, "/analyze", `{"identifier":"NOPE"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if decodeBody(t, rec)["success"] != false {
		t.Error("failure envelope missing success:false")
	}
}

func TestAnalyze_MissingIdentifier(t *testing.T) {
	s, _, _, _, _ := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/analyze", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestTriggerAnalysis_DispatchesNotification(t *testing.T) {
	s, _, _, _, dispatcher := newTestServer(t)

	payload := `{
		"ticker": "SNEK",
		"source": "MANUAL",
		"analysis": {
			"unit": "unit1",
			"risk": {"Score": 8, "Verdict": "EXTREME_RISK"},
			"holder_summary": {"Top1Pct": 55.0}
		}
	}`
	rec := doRequest(s, http.MethodPost, "/trigger-analysis", payload)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	if len(dispatcher.alerts) != 1 {
		t.Fatalf("alerts dispatched = %d", len(dispatcher.alerts))
	}
	a := dispatcher.alerts[0]
	if a.Ticker != "SNEK" || a.Score != 8 || a.TopHolderPct != 55.0 {
		t.Errorf("alert fields wrong: %+v", a)
	}
}

func TestTriggerGoldAnalysis_UsesResultField(t *testing.T) {
	s, _, _, _, dispatcher := newTestServer(t)

	payload := `{"ticker": "SNEK", "result": {"unit": "unit1", "risk": {"Score": 6}}}`
	rec := doRequest(s, http.MethodPost, "/trigger-gold-analysis", payload)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if len(dispatcher.alerts) != 1 || dispatcher.alerts[0].Score != 6 {
		t.Errorf("alert not dispatched from result payload")
	}
}

func TestTriggerAnalysis_Validation(t *testing.T) {
	s, _, _, _, _ := newTestServer(t)

	// missing ticker
	rec := doRequest(s, http.MethodPost, "/trigger-analysis", `{"analysis":{}}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing ticker: status = %d", rec.Code)
	}

	// missing payload
	rec = doRequest(s, http.MethodPost, "/trigger-analysis", `{"ticker":"SNEK"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing payload: status = %d", rec.Code)
	}

	// malformed JSON
	rec = doRequest(s, http.MethodPost, "/trigger-analysis", `{`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body: status = %d", rec.Code)
	}
}
