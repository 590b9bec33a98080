package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gart/risk-api/internal/alert"
	"gart/risk-api/internal/domain"
	"gart/risk-api/internal/model"
	"gart/risk-api/internal/scoring"
	"gart/risk-api/internal/store"
)

// ─── Test fixtures ────────────────────────────────────────────────────────────

type stubClassifier struct {
	prob float64
}

func (c stubClassifier) Predict(domain.FeatureRecord) (float64, error) {
	return c.prob, nil
}

// newTestServer wires the full router against a memory-only log and a
// classifier that always reports 10% risk.
func newTestServer(t *testing.T) (http.Handler, *store.EventLog) {
	t.Helper()
	log := store.OpenMemory()
	adapter := model.NewRiskAdapter(stubClassifier{prob: 0.1}, model.NewMapper(nil))
	engine := scoring.New(log, adapter)
	notifier := alert.New("", 60, zap.NewNop())
	h := NewHandler(engine, log, notifier, zap.NewNop())
	return NewRouter(h), log
}

func validAttempt(userID int) map[string]any {
	return map[string]any{
		"user_id":       userID,
		"country":       "Saudi Arabia (KSA)",
		"device":        "mobile",
		"action":        "view_profile",
		"hour":          10,
		"vpn_used":      false,
		"failed_logins": 0,
		"typing_speed":  4.0,
	}
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeData(t *testing.T, rr *httptest.ResponseRecorder, out any) {
	t.Helper()
	var env struct {
		Data  json.RawMessage `json:"data"`
		Error *apiError       `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	require.Nil(t, env.Error, "expected a success envelope")
	require.NoError(t, json.Unmarshal(env.Data, out))
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) *apiError {
	t.Helper()
	var env struct {
		Error *apiError `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	require.NotNil(t, env.Error, "expected an error envelope")
	return env.Error
}

// ─── Health ───────────────────────────────────────────────────────────────────

func TestHealth(t *testing.T) {
	router, _ := newTestServer(t)

	rr := doJSON(t, router, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var data map[string]string
	decodeData(t, rr, &data)
	assert.Equal(t, "ok", data["status"])
	assert.Equal(t, "gart-risk-api", data["service"])
}

// ─── Submit attempt ───────────────────────────────────────────────────────────

func TestSubmitAttempt_Valid(t *testing.T) {
	router, log := newTestServer(t)

	rr := doJSON(t, router, http.MethodPost, "/api/v1/attempts", validAttempt(1))
	require.Equal(t, http.StatusCreated, rr.Code)

	var ev domain.Evaluation
	decodeData(t, rr, &ev)

	assert.NotEmpty(t, ev.Record.ID)
	assert.Equal(t, 1, ev.Record.UserID)
	assert.Equal(t, 10, ev.Record.ModelRisk)
	assert.Equal(t, 0, ev.Record.BehaviorRisk)
	assert.Equal(t, 6, ev.Record.FinalRisk)
	assert.Equal(t, domain.LevelLow, ev.Record.Level)
	assert.Equal(t, domain.DecisionAllow, ev.Record.Decision)
	require.Len(t, ev.Reasons, 1)
	assert.Contains(t, ev.Reasons[0], "baseline is being established")

	assert.Equal(t, 1, log.Len(), "the record must be appended")
}

func TestSubmitAttempt_InvalidJSON(t *testing.T) {
	router, log := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/attempts", bytes.NewBufferString("{not json"))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "INVALID_JSON", decodeError(t, rr).Code)
	assert.Equal(t, 0, log.Len(), "nothing may be appended on rejection")
}

func TestSubmitAttempt_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]any)
	}{
		{"zero user id", func(m map[string]any) { m["user_id"] = 0 }},
		{"negative user id", func(m map[string]any) { m["user_id"] = -3 }},
		{"missing country", func(m map[string]any) { m["country"] = "" }},
		{"unknown device", func(m map[string]any) { m["device"] = "tablet" }},
		{"missing action", func(m map[string]any) { m["action"] = "" }},
		{"hour too large", func(m map[string]any) { m["hour"] = 24 }},
		{"negative hour", func(m map[string]any) { m["hour"] = -1 }},
		{"negative failed logins", func(m map[string]any) { m["failed_logins"] = -1 }},
		{"zero typing speed", func(m map[string]any) { m["typing_speed"] = 0.0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, log := newTestServer(t)

			body := validAttempt(1)
			tt.mutate(body)

			rr := doJSON(t, router, http.MethodPost, "/api/v1/attempts", body)
			require.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, "VALIDATION_ERROR", decodeError(t, rr).Code)
			assert.Equal(t, 0, log.Len())
		})
	}
}

// ─── List attempts ────────────────────────────────────────────────────────────

func TestListAttempts(t *testing.T) {
	router, _ := newTestServer(t)

	for i := 1; i <= 3; i++ {
		rr := doJSON(t, router, http.MethodPost, "/api/v1/attempts", validAttempt(i))
		require.Equal(t, http.StatusCreated, rr.Code)
	}

	rr := doJSON(t, router, http.MethodGet, "/api/v1/attempts", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var records []domain.AttemptRecord
	decodeData(t, rr, &records)
	require.Len(t, records, 3)
	assert.Equal(t, 1, records[0].UserID)
	assert.Equal(t, 3, records[2].UserID)
}

func TestListAttempts_Limit(t *testing.T) {
	router, _ := newTestServer(t)

	for i := 1; i <= 3; i++ {
		doJSON(t, router, http.MethodPost, "/api/v1/attempts", validAttempt(i))
	}

	rr := doJSON(t, router, http.MethodGet, "/api/v1/attempts?limit=2", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var records []domain.AttemptRecord
	decodeData(t, rr, &records)
	require.Len(t, records, 2)
	assert.Equal(t, 2, records[0].UserID, "limit keeps the most recent records")
	assert.Equal(t, 3, records[1].UserID)
}

func TestListAttempts_BadLimit(t *testing.T) {
	router, _ := newTestServer(t)

	for _, q := range []string{"limit=0", "limit=-1", "limit=abc"} {
		rr := doJSON(t, router, http.MethodGet, "/api/v1/attempts?"+q, nil)
		require.Equal(t, http.StatusBadRequest, rr.Code, q)
		assert.Equal(t, "INVALID_PARAM", decodeError(t, rr).Code)
	}
}

// ─── Per-user views ───────────────────────────────────────────────────────────

func TestGetUserAttempts(t *testing.T) {
	router, _ := newTestServer(t)

	doJSON(t, router, http.MethodPost, "/api/v1/attempts", validAttempt(1))
	doJSON(t, router, http.MethodPost, "/api/v1/attempts", validAttempt(2))
	doJSON(t, router, http.MethodPost, "/api/v1/attempts", validAttempt(1))

	rr := doJSON(t, router, http.MethodGet, "/api/v1/users/1/attempts", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var records []domain.AttemptRecord
	decodeData(t, rr, &records)
	assert.Len(t, records, 2)
}

func TestGetUserAttempts_UnknownUserIsEmpty(t *testing.T) {
	router, _ := newTestServer(t)

	rr := doJSON(t, router, http.MethodGet, "/api/v1/users/99/attempts", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var records []domain.AttemptRecord
	decodeData(t, rr, &records)
	assert.Empty(t, records)
}

func TestGetUserAttempts_BadID(t *testing.T) {
	router, _ := newTestServer(t)

	for _, id := range []string{"abc", "0", "-1"} {
		rr := doJSON(t, router, http.MethodGet, "/api/v1/users/"+id+"/attempts", nil)
		require.Equal(t, http.StatusBadRequest, rr.Code, id)
		assert.Equal(t, "INVALID_USER_ID", decodeError(t, rr).Code)
	}
}

func TestGetUserBaseline(t *testing.T) {
	router, _ := newTestServer(t)

	type baselineResp struct {
		UserID      int                  `json:"user_id"`
		HasBaseline bool                 `json:"has_baseline"`
		Baseline    *domain.UserBaseline `json:"baseline"`
	}

	rr := doJSON(t, router, http.MethodGet, "/api/v1/users/5/baseline", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var before baselineResp
	decodeData(t, rr, &before)
	assert.False(t, before.HasBaseline)
	assert.Nil(t, before.Baseline)

	doJSON(t, router, http.MethodPost, "/api/v1/attempts", validAttempt(5))

	rr = doJSON(t, router, http.MethodGet, "/api/v1/users/5/baseline", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var after baselineResp
	decodeData(t, rr, &after)
	assert.True(t, after.HasBaseline)
	require.NotNil(t, after.Baseline)
	assert.Equal(t, "Saudi Arabia (KSA)", after.Baseline.Country)
	assert.Equal(t, 1, after.Baseline.SampleCount)
}

func TestGetUserSummary(t *testing.T) {
	router, _ := newTestServer(t)

	rr := doJSON(t, router, http.MethodGet, "/api/v1/users/5/summary", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, rr).Code)

	doJSON(t, router, http.MethodPost, "/api/v1/attempts", validAttempt(5))
	doJSON(t, router, http.MethodPost, "/api/v1/attempts", validAttempt(5))

	rr = doJSON(t, router, http.MethodGet, "/api/v1/users/5/summary", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var sum domain.UserSummary
	decodeData(t, rr, &sum)
	assert.Equal(t, 5, sum.UserID)
	assert.Equal(t, 2, sum.Attempts)
	assert.InDelta(t, 6.0, sum.AvgFinalRisk, 1e-9)
	assert.Equal(t, domain.DecisionAllow, sum.LastDecision)
	assert.Equal(t, domain.LevelLow, sum.LastLevel)
}

// ─── Overview report ──────────────────────────────────────────────────────────

func TestGetOverview(t *testing.T) {
	router, _ := newTestServer(t)

	doJSON(t, router, http.MethodPost, "/api/v1/attempts", validAttempt(1))
	doJSON(t, router, http.MethodPost, "/api/v1/attempts", validAttempt(2))
	doJSON(t, router, http.MethodPost, "/api/v1/attempts", validAttempt(2))

	rr := doJSON(t, router, http.MethodGet, "/api/v1/reports/overview", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var report domain.OverviewReport
	decodeData(t, rr, &report)
	assert.Equal(t, 3, report.TotalAttempts)
	assert.Equal(t, 3, report.Allowed)
	assert.Equal(t, 0, report.Challenged)
	assert.Equal(t, 0, report.Blocked)
	assert.Equal(t, 2, report.UniqueUsers)
	assert.Equal(t, 3, report.LevelCounts[domain.LevelLow])
	assert.Equal(t, 0, report.HighRiskCount)
	require.Len(t, report.TopCountries, 1)
	assert.Equal(t, domain.CountEntry{Value: "Saudi Arabia (KSA)", Count: 3}, report.TopCountries[0])
}

func TestBuildOverview_TopNOrdering(t *testing.T) {
	var records []domain.AttemptRecord
	add := func(country string, n int) {
		for i := 0; i < n; i++ {
			records = append(records, domain.AttemptRecord{
				UserID: 1, Country: country, Action: "view_profile",
				Level: domain.LevelLow, Decision: domain.DecisionAllow,
			})
		}
	}
	add("KSA", 3)
	add("Bahrain", 2)
	add("Qatar", 2)
	add("Germany", 1)

	report := buildOverview(records)
	require.Len(t, report.TopCountries, 4)
	assert.Equal(t, "KSA", report.TopCountries[0].Value)
	// Ties break lexicographically so the ordering is stable.
	assert.Equal(t, "Bahrain", report.TopCountries[1].Value)
	assert.Equal(t, "Qatar", report.TopCountries[2].Value)
	assert.Equal(t, "Germany", report.TopCountries[3].Value)
}

func TestBuildOverview_Empty(t *testing.T) {
	report := buildOverview(nil)
	assert.Equal(t, 0, report.TotalAttempts)
	assert.Equal(t, 0.0, report.HighRiskPercent)
	assert.Empty(t, report.TopCountries)
	assert.Equal(t, 0, report.UniqueUsers)
}

// ─── Seed ─────────────────────────────────────────────────────────────────────

func TestSeedData(t *testing.T) {
	router, log := newTestServer(t)

	bad := validAttempt(0) // invalid user id, must be skipped
	body := []map[string]any{validAttempt(1), validAttempt(2), bad}

	rr := doJSON(t, router, http.MethodPost, "/api/v1/admin/seed", body)
	require.Equal(t, http.StatusOK, rr.Code)

	var result map[string]int
	decodeData(t, rr, &result)
	assert.Equal(t, 2, result["loaded"])
	assert.Equal(t, 1, result["skipped"])
	assert.Equal(t, 2, log.Len())
}

func TestSeedData_InvalidBody(t *testing.T) {
	router, _ := newTestServer(t)

	rr := doJSON(t, router, http.MethodPost, "/api/v1/admin/seed", map[string]any{"not": "an array"})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "INVALID_JSON", decodeError(t, rr).Code)
}

// ─── Validation unit coverage ─────────────────────────────────────────────────

func TestValidateAttemptInput_AcceptsBoundaryValues(t *testing.T) {
	for _, hour := range []int{0, 23} {
		in := domain.AttemptInput{
			UserID: 1, Country: "KSA", Device: domain.DeviceDesktop,
			Action: "view_profile", Hour: hour, TypingSpeed: 0.1,
		}
		assert.NoError(t, validateAttemptInput(&in), fmt.Sprintf("hour %d", hour))
	}
}
