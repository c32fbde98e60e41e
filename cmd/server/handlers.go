package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"trading-risk-assistant-go/internal/coach"
	"trading-risk-assistant-go/internal/journal"
	"trading-risk-assistant-go/internal/metrics"
	"trading-risk-assistant-go/internal/risk"
)

// APIHandler holds dependencies for the API endpoints. The assistant and its
// config are shared by reference across requests; both are read-only, so no
// locking is needed.
type APIHandler struct {
	log       *zap.Logger
	assistant *risk.Assistant
	store     *journal.Store
	coach     *coach.Coach
}

// NewAPIHandler creates a new APIHandler.
func NewAPIHandler(log *zap.Logger, assistant *risk.Assistant, store *journal.Store, c *coach.Coach) *APIHandler {
	return &APIHandler{log: log, assistant: assistant, store: store, coach: c}
}

// EvaluateRequest is the body of POST /api/evaluate.
type EvaluateRequest struct {
	Answers      risk.Answers       `json:"answers"`
	Stats        risk.Stats         `json:"stats"`
	TradeDetails *risk.TradeDetails `json:"trade_details,omitempty"`
	Notes        string             `json:"notes,omitempty"`
	Save         bool               `json:"save,omitempty"`
}

// EvaluateResponse wraps the decision with the journal id when the session
// was saved.
type EvaluateResponse struct {
	Decision  *risk.Decision `json:"decision"`
	SessionID string         `json:"session_id,omitempty"`
}

// EvaluateHandler runs one evaluation and optionally journals it.
func (h *APIHandler) EvaluateHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Answers) == 0 {
		http.Error(w, "answers are required", http.StatusBadRequest)
		return
	}
	if err := h.assistant.ValidateAnswers(req.Answers); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	decision, err := h.assistant.Evaluate(req.Answers, req.Stats, req.TradeDetails)
	if err != nil {
		var validationErr *risk.ValidationError
		if errors.As(err, &validationErr) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.log.Error("Evaluation failed", zap.Error(err))
		http.Error(w, "evaluation failed", http.StatusInternalServerError)
		return
	}
	metrics.RecordDecision(decision)

	response := EvaluateResponse{Decision: decision}
	if req.Save {
		session, err := h.store.Append(req.Answers, req.Stats, decision, req.Notes)
		if err != nil {
			h.log.Error("Failed to journal session", zap.Error(err))
			http.Error(w, "failed to save session", http.StatusInternalServerError)
			return
		}
		metrics.SessionsJournaled.Inc()
		response.SessionID = session.SessionID
	}

	writeJSON(w, response)
}

// SessionsHandler returns recent journal sessions, newest first.
func (h *APIHandler) SessionsHandler(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20)
	tradedOnly := r.URL.Query().Get("traded") == "true"

	sessions, err := h.store.Recent(limit, tradedOnly)
	if err != nil {
		h.log.Error("Failed to get sessions from database", zap.Error(err))
		http.Error(w, "failed to get sessions", http.StatusInternalServerError)
		return
	}
	writeJSON(w, sessions)
}

// StatsHandler returns the journal summary for a trailing window of days.
func (h *APIHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days", 7)
	if days <= 0 {
		http.Error(w, "days must be positive", http.StatusBadRequest)
		return
	}

	summary, err := h.store.Stats(days)
	if err != nil {
		h.log.Error("Failed to compute journal stats", zap.Error(err))
		http.Error(w, "failed to compute stats", http.StatusInternalServerError)
		return
	}
	writeJSON(w, summary)
}

// InsightsHandler returns the coach findings over the journal.
func (h *APIHandler) InsightsHandler(w http.ResponseWriter, r *http.Request) {
	insights, err := h.coach.Insights()
	if err != nil {
		h.log.Error("Coach analysis failed", zap.Error(err))
		http.Error(w, "failed to compute insights", http.StatusInternalServerError)
		return
	}
	if insights == nil {
		insights = []coach.Insight{}
	}
	writeJSON(w, insights)
}

// QuestionsHandler returns the configured question lists so clients can
// collect answers without a copy of the rule config.
func (h *APIHandler) QuestionsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.assistant.Questions())
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
