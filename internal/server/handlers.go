package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"tokenwatch/internal/alert"
	"tokenwatch/internal/analyzer"
	"tokenwatch/internal/domain"
)

// envelope is the uniform response shape. Success responses embed their
// payload next to the flag; failures carry only the error.
type envelope map[string]any

func (s *Server) writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Error().Err(err).Msg("write response failed")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, envelope{"success": false, "error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, envelope{"success": true, "status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	body := envelope{"success": true}
	if s.monitor != nil {
		body["monitor"] = s.monitor.Status()
	}
	if s.gw != nil {
		body["api_calls"] = s.gw.CallStats()
	}
	s.writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleSuspiciousTokens(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	minScore := 6
	if raw := r.URL.Query().Get("min_score"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "min_score must be an integer")
			return
		}
		minScore = parsed
	}

	tokens, err := s.tokens.ListSuspicious(r.Context(), minScore, limit)
	if err != nil {
		s.log.Error().Err(err).Msg("list suspicious tokens failed")
		s.writeError(w, http.StatusInternalServerError, "storage unavailable")
		return
	}

	s.writeJSON(w, http.StatusOK, envelope{"success": true, "tokens": tokens, "count": len(tokens)})
}

func (s *Server) handleMonitoringHistory(w http.ResponseWriter, r *http.Request) {
	hours := 24
	if raw := r.URL.Query().Get("hours"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.writeError(w, http.StatusBadRequest, "hours must be a positive integer")
			return
		}
		hours = parsed
	}

	since := time.Now().Add(-time.Duration(hours) * time.Hour).UnixMilli()
	records, err := s.history.GetSince(r.Context(), since)
	if err != nil {
		s.log.Error().Err(err).Msg("get monitoring history failed")
		s.writeError(w, http.StatusInternalServerError, "storage unavailable")
		return
	}

	s.writeJSON(w, http.StatusOK, envelope{"success": true, "records": records, "count": len(records)})
}

type analyzeRequest struct {
	Identifier string `json:"identifier"`
	Mode       string `json:"mode,omitempty"` // "deep" (default) or "gold"
}

// handleAnalyze runs the pipeline on demand for a unit or ticker.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Identifier == "" {
		s.writeError(w, http.StatusBadRequest, "identifier is required")
		return
	}

	var (
		report *domain.AnalysisReport
		err    error
	)
	if req.Mode == "gold" {
		report, err = s.pipeline.AnalyzeGold(r.Context(), req.Identifier)
	} else {
		report, err = s.pipeline.Analyze(r.Context(), req.Identifier)
	}
	if err != nil {
		if errors.Is(err, analyzer.ErrUnresolvedToken) {
			s.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.log.Error().Err(err).Str("identifier", req.Identifier).Msg("analysis failed")
		s.writeError(w, http.StatusInternalServerError, "analysis failed")
		return
	}

	s.writeJSON(w, http.StatusOK, envelope{"success": true, "report": report})
}

type triggerRequest struct {
	Ticker   string          `json:"ticker"`
	Analysis json.RawMessage `json:"analysis,omitempty"`
	Result   json.RawMessage `json:"result,omitempty"`
	Source   string          `json:"source,omitempty"`
}

// handleTriggerAnalysis fires a notification for an analysis computed
// elsewhere. The analysis document is parsed only for the alert summary
// fields; the rest passes through untouched.
func (s *Server) handleTriggerAnalysis(w http.ResponseWriter, r *http.Request) {
	s.triggerNotification(w, r, false)
}

func (s *Server) handleTriggerGoldAnalysis(w http.ResponseWriter, r *http.Request) {
	s.triggerNotification(w, r, true)
}

func (s *Server) triggerNotification(w http.ResponseWriter, r *http.Request, gold bool) {
	var req triggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Ticker == "" {
		s.writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	payload := req.Analysis
	if gold {
		payload = req.Result
	}
	if len(payload) == 0 {
		s.writeError(w, http.StatusBadRequest, "analysis payload is required")
		return
	}

	var report domain.AnalysisReport
	if err := json.Unmarshal(payload, &report); err != nil {
		s.writeError(w, http.StatusBadRequest, "analysis payload is not a valid report")
		return
	}

	a := &alert.Alert{
		Unit:         report.Unit,
		Ticker:       req.Ticker,
		Name:         report.Name,
		Score:        report.Score(),
		TopHolderPct: report.TopHolderPct(),
		Source:       domain.Source(req.Source),
		TriggeredAt:  time.Now().UnixMilli(),
	}
	if report.Risk != nil {
		a.Verdict = report.Risk.Verdict
		a.Factors = report.Risk.Factors
	}

	if err := s.dispatcher.Dispatch(r.Context(), a); err != nil {
		s.log.Error().Err(err).Str("ticker", req.Ticker).Msg("triggered notification failed")
		s.writeError(w, http.StatusBadGateway, "notification dispatch failed")
		return
	}

	s.writeJSON(w, http.StatusOK, envelope{"success": true, "ticker": req.Ticker})
}
