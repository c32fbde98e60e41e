package main

import (
	"bytes"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"trading-risk-assistant-go/internal/coach"
	"trading-risk-assistant-go/internal/config"
	"trading-risk-assistant-go/internal/database"
	"trading-risk-assistant-go/internal/journal"
	"trading-risk-assistant-go/internal/models"
	"trading-risk-assistant-go/internal/risk"
)

func testConfig() *config.Config {
	return &config.Config{
		HardStops: config.HardStops{
			MaxConsecutiveLosses: 3,
			MaxDailyLossPercent:  5,
			MinSleepHours:        6,
			PsychologyMinScore:   3,
			RequireClearBias:     true,
			SleepQuestion:        "sleep_quality",
			MentalStateQuestion:  "mental_state",
			BiasQuestion:         "clear_bias",
		},
		Questions: map[string][]config.QuestionSpec{
			config.CategoryPsychology: {
				{ID: "sleep_quality", Question: "Hours of sleep?", Type: config.QuestionTypeNumber, Min: 0, Max: 12},
				{ID: "mental_state", Question: "Mental state?", Type: config.QuestionTypeScale, Min: 1, Max: 5},
			},
			config.CategoryMarketConditions: {
				{ID: "clear_bias", Question: "Clear bias?", Type: config.QuestionTypeBoolean},
			},
			config.CategoryTechnicalConfluence: {
				{ID: "setup_quality", Question: "Setup quality?", Type: config.QuestionTypeScale, Min: 1, Max: 5},
			},
		},
		Scoring: config.Scoring{
			Weights: map[string]float64{
				config.CategoryPsychology:          40,
				config.CategoryMarketConditions:    30,
				config.CategoryTechnicalConfluence: 30,
			},
			Thresholds: config.Thresholds{NoTrade: 50, Risk2Percent: 70},
		},
		LotCalculation: config.LotCalculation{
			PipValues:  map[string]float64{"EURUSD": 10},
			MinLotSize: 0.01,
			MaxLotSize: 10,
		},
		Coach: config.Coach{DaysInactiveWarning: 3},
	}
}

func testHandler(t *testing.T) *APIHandler {
	t.Helper()

	cfg := testConfig()
	log := zap.NewNop()
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "server.db"))
	require.NoError(t, err)

	store := journal.NewStore(db, log)
	rng := rand.New(rand.NewSource(1))
	return NewAPIHandler(log, risk.NewAssistant(cfg, log), store, coach.New(cfg, store, log, rng))
}

func passingRequest() EvaluateRequest {
	return EvaluateRequest{
		Answers: risk.Answers{
			"sleep_quality": 8.0,
			"mental_state":  5,
			"clear_bias":    true,
			"setup_quality": 5,
		},
		Stats: risk.Stats{ConsecutiveLosses: 0, DailyLossPercent: 0},
	}
}

func postEvaluate(t *testing.T, handler *APIHandler, req EvaluateRequest) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	handler.EvaluateHandler(rec, httptest.NewRequest(http.MethodPost, "/api/evaluate", bytes.NewReader(body)))
	return rec
}

func TestEvaluateHandler(t *testing.T) {
	t.Run("passing session returns the full decision", func(t *testing.T) {
		handler := testHandler(t)

		req := passingRequest()
		req.TradeDetails = &risk.TradeDetails{AccountBalance: 10000, StopLossPips: 20, Instrument: "EURUSD"}
		rec := postEvaluate(t, handler, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var response EvaluateResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		assert.True(t, response.Decision.HardStops.Passed)
		assert.True(t, response.Decision.ShouldTrade)
		assert.Equal(t, 3.0, response.Decision.RiskPercent)
		require.NotNil(t, response.Decision.LotSize)
		assert.Equal(t, 1.5, *response.Decision.LotSize)
		assert.Empty(t, response.SessionID) // save was not requested
	})

	t.Run("hard stop failure still answers 200 with a blocked decision", func(t *testing.T) {
		handler := testHandler(t)

		req := passingRequest()
		req.Stats.ConsecutiveLosses = 3
		rec := postEvaluate(t, handler, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var response EvaluateResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		assert.False(t, response.Decision.HardStops.Passed)
		assert.False(t, response.Decision.ShouldTrade)
		assert.Nil(t, response.Decision.LotSize)
	})

	t.Run("save journals the session and returns its id", func(t *testing.T) {
		handler := testHandler(t)

		req := passingRequest()
		req.Save = true
		req.Notes = "api session"
		rec := postEvaluate(t, handler, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var response EvaluateResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		assert.NotEmpty(t, response.SessionID)

		sessions, err := handler.store.Recent(0, false)
		require.NoError(t, err)
		require.Len(t, sessions, 1)
		assert.Equal(t, response.SessionID, sessions[0].SessionID)
		assert.Equal(t, "api session", sessions[0].Notes)
	})

	t.Run("malformed answers are rejected with 400", func(t *testing.T) {
		handler := testHandler(t)

		req := passingRequest()
		req.Answers["mental_state"] = "fine"
		rec := postEvaluate(t, handler, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "mental_state")
	})

	t.Run("invalid trade details are rejected with 400", func(t *testing.T) {
		handler := testHandler(t)

		req := passingRequest()
		req.TradeDetails = &risk.TradeDetails{AccountBalance: -1, StopLossPips: 20, Instrument: "EURUSD"}
		rec := postEvaluate(t, handler, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "account_balance")
	})

	t.Run("missing answers are rejected with 400", func(t *testing.T) {
		handler := testHandler(t)

		rec := postEvaluate(t, handler, EvaluateRequest{})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("GET is not allowed", func(t *testing.T) {
		handler := testHandler(t)

		rec := httptest.NewRecorder()
		handler.EvaluateHandler(rec, httptest.NewRequest(http.MethodGet, "/api/evaluate", nil))

		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestSessionsHandler(t *testing.T) {
	handler := testHandler(t)

	// Arrange: one traded and one blocked session in the journal.
	req := passingRequest()
	req.Save = true
	require.Equal(t, http.StatusOK, postEvaluate(t, handler, req).Code)
	blocked := passingRequest()
	blocked.Save = true
	blocked.Stats.DailyLossPercent = 6
	require.Equal(t, http.StatusOK, postEvaluate(t, handler, blocked).Code)

	// Act
	rec := httptest.NewRecorder()
	handler.SessionsHandler(rec, httptest.NewRequest(http.MethodGet, "/api/sessions?traded=true", nil))

	// Assert
	require.Equal(t, http.StatusOK, rec.Code)
	var sessions []models.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sessions))
	require.Len(t, sessions, 1)
	assert.True(t, sessions[0].ShouldTrade)
}

func TestStatsHandler(t *testing.T) {
	handler := testHandler(t)

	req := passingRequest()
	req.Save = true
	require.Equal(t, http.StatusOK, postEvaluate(t, handler, req).Code)

	rec := httptest.NewRecorder()
	handler.StatsHandler(rec, httptest.NewRequest(http.MethodGet, "/api/stats?days=7", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var summary journal.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 7, summary.Days)
	assert.Equal(t, 1, summary.TotalSessions)
	assert.Equal(t, 1, summary.TradesTaken)

	rec = httptest.NewRecorder()
	handler.StatsHandler(rec, httptest.NewRequest(http.MethodGet, "/api/stats?days=-1", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInsightsHandlerEmptyJournal(t *testing.T) {
	handler := testHandler(t)

	rec := httptest.NewRecorder()
	handler.InsightsHandler(rec, httptest.NewRequest(http.MethodGet, "/api/insights", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestQuestionsHandler(t *testing.T) {
	handler := testHandler(t)

	rec := httptest.NewRecorder()
	handler.QuestionsHandler(rec, httptest.NewRequest(http.MethodGet, "/api/questions", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var questions map[string][]config.QuestionSpec
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &questions))
	require.Len(t, questions[config.CategoryPsychology], 2)
	assert.Equal(t, "sleep_quality", questions[config.CategoryPsychology][0].ID)
}
