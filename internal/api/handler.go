package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"gart/risk-api/internal/alert"
	"gart/risk-api/internal/domain"
	"gart/risk-api/internal/metrics"
	"gart/risk-api/internal/scoring"
	"gart/risk-api/internal/store"
)

// Handler holds the dependencies shared across all HTTP handlers.
type Handler struct {
	engine   *scoring.Engine
	log      *store.EventLog
	notifier *alert.Notifier
	logger   *zap.Logger
}

// NewHandler creates a Handler wired to the given dependencies.
func NewHandler(e *scoring.Engine, l *store.EventLog, n *alert.Notifier, logger *zap.Logger) *Handler {
	return &Handler{engine: e, log: l, notifier: n, logger: logger}
}

// ─── POST /api/v1/attempts ────────────────────────────────────────────────────

// SubmitAttempt accepts one attempt, runs the full evaluation pipeline, and
// returns the scored record with the analyst-facing reasons. The record is
// durably appended before this responds.
func (h *Handler) SubmitAttempt(w http.ResponseWriter, r *http.Request) {
	var in domain.AttemptInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		badRequest(w, "INVALID_JSON", "request body must be valid JSON")
		return
	}

	if err := validateAttemptInput(&in); err != nil {
		badRequest(w, "VALIDATION_ERROR", err.Error())
		return
	}

	ev, err := h.engine.Evaluate(in)
	if err != nil {
		h.logger.Error("evaluation failed", zap.Int("user_id", in.UserID), zap.Error(err))
		metrics.EvaluationErrorsTotal.Inc()
		internalError(w)
		return
	}

	metrics.ObserveEvaluation(ev.Record.Level, ev.Record.Decision, ev.Record.FinalRisk)
	h.notifier.NotifyAsync(ev)

	created(w, ev)
}

// ─── GET /api/v1/attempts ────────────────────────────────────────────────────

// ListAttempts returns the full event log in insertion order.
//
// Query params:
//
//	limit — return only the most recent N records (default: all)
func (h *Handler) ListAttempts(w http.ResponseWriter, r *http.Request) {
	records := h.log.All()

	if l := r.URL.Query().Get("limit"); l != "" {
		limit, err := strconv.Atoi(l)
		if err != nil || limit < 1 {
			badRequest(w, "INVALID_PARAM", "limit must be a positive integer")
			return
		}
		if limit < len(records) {
			records = records[len(records)-limit:]
		}
	}

	ok(w, records)
}

// ─── GET /api/v1/users/{id}/attempts ─────────────────────────────────────────

// GetUserAttempts returns one user's history in insertion order. Unknown
// users get an empty list, matching the store contract.
func (h *Handler) GetUserAttempts(w http.ResponseWriter, r *http.Request) {
	userID, ok2 := userIDParam(w, r)
	if !ok2 {
		return
	}
	ok(w, h.log.QueryByUser(userID))
}

// ─── GET /api/v1/users/{id}/baseline ─────────────────────────────────────────

// GetUserBaseline returns the computed behavioral baseline for a user, or an
// explicit "no baseline yet" response when the user has no history.
func (h *Handler) GetUserBaseline(w http.ResponseWriter, r *http.Request) {
	userID, ok2 := userIDParam(w, r)
	if !ok2 {
		return
	}

	baseline, has := h.engine.Baseline(userID)
	resp := struct {
		UserID      int                  `json:"user_id"`
		HasBaseline bool                 `json:"has_baseline"`
		Baseline    *domain.UserBaseline `json:"baseline,omitempty"`
	}{UserID: userID, HasBaseline: has}
	if has {
		resp.Baseline = &baseline
	}
	ok(w, resp)
}

// ─── GET /api/v1/users/{id}/summary ──────────────────────────────────────────

// GetUserSummary returns the per-user inspection panel.
func (h *Handler) GetUserSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok2 := userIDParam(w, r)
	if !ok2 {
		return
	}

	records := h.log.QueryByUser(userID)
	if len(records) == 0 {
		notFound(w, fmt.Sprintf("no attempts recorded for user %d", userID))
		return
	}

	var total int
	for _, rec := range records {
		total += rec.FinalRisk
	}
	last := records[len(records)-1]

	ok(w, domain.UserSummary{
		UserID:       userID,
		Attempts:     len(records),
		AvgFinalRisk: float64(total) / float64(len(records)),
		LastDecision: last.Decision,
		LastLevel:    last.Level,
	})
}

// ─── GET /api/v1/reports/overview ────────────────────────────────────────────

// GetOverview returns the SOC dashboard aggregates over the whole log.
func (h *Handler) GetOverview(w http.ResponseWriter, r *http.Request) {
	ok(w, buildOverview(h.log.All()))
}

func buildOverview(records []domain.AttemptRecord) domain.OverviewReport {
	report := domain.OverviewReport{
		GeneratedAt:   time.Now().UTC(),
		TotalAttempts: len(records),
		LevelCounts: map[string]int{
			domain.LevelLow:    0,
			domain.LevelMedium: 0,
			domain.LevelHigh:   0,
		},
	}

	users := make(map[int]bool)
	countryCounts := make(map[string]int)
	actionCounts := make(map[string]int)

	for _, rec := range records {
		switch rec.Decision {
		case domain.DecisionAllow:
			report.Allowed++
		case domain.DecisionChallenge:
			report.Challenged++
		case domain.DecisionBlock:
			report.Blocked++
		}
		report.LevelCounts[rec.Level]++
		users[rec.UserID] = true
		countryCounts[rec.Country]++
		actionCounts[rec.Action]++
	}

	report.HighRiskCount = report.LevelCounts[domain.LevelHigh]
	if len(records) > 0 {
		report.HighRiskPercent = float64(report.HighRiskCount) / float64(len(records)) * 100
	}
	report.UniqueUsers = len(users)
	report.TopCountries = topN(countryCounts, 10)
	report.TopActions = topN(actionCounts, 10)
	return report
}

// topN turns a frequency map into its N most common entries, ties broken
// lexicographically so the report is stable.
func topN(counts map[string]int, n int) []domain.CountEntry {
	entries := make([]domain.CountEntry, 0, len(counts))
	for v, c := range counts {
		entries = append(entries, domain.CountEntry{Value: v, Count: c})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Value < entries[j].Value
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

// ─── POST /api/v1/admin/seed ─────────────────────────────────────────────────

// SeedData evaluates an array of attempts through the real pipeline, so the
// log fills with internally consistent history. Invalid entries are skipped
// and counted, not fatal.
func (h *Handler) SeedData(w http.ResponseWriter, r *http.Request) {
	var inputs []domain.AttemptInput
	if err := json.NewDecoder(r.Body).Decode(&inputs); err != nil {
		badRequest(w, "INVALID_JSON", "body must be a JSON array of attempts")
		return
	}

	var loaded, skipped int
	for i := range inputs {
		if err := validateAttemptInput(&inputs[i]); err != nil {
			skipped++
			continue
		}
		ev, err := h.engine.Evaluate(inputs[i])
		if err != nil {
			h.logger.Warn("seed evaluation failed", zap.Int("index", i), zap.Error(err))
			skipped++
			continue
		}
		metrics.ObserveEvaluation(ev.Record.Level, ev.Record.Decision, ev.Record.FinalRisk)
		loaded++
	}

	ok(w, map[string]int{"loaded": loaded, "skipped": skipped})
}

// ─── Validation ───────────────────────────────────────────────────────────────

// validateAttemptInput enforces the caller contract on numeric ranges and
// the device enum. Country and action are never rejected; the vocabulary
// mapper has explicit defaults for anything unrecognised.
func validateAttemptInput(in *domain.AttemptInput) error {
	if in.UserID < 1 {
		return fmt.Errorf("user_id must be a positive integer")
	}
	if in.Country == "" {
		return fmt.Errorf("country is required")
	}
	if in.Device != domain.DeviceMobile && in.Device != domain.DeviceDesktop {
		return fmt.Errorf("device must be 'mobile' or 'desktop'")
	}
	if in.Action == "" {
		return fmt.Errorf("action is required")
	}
	if in.Hour < 0 || in.Hour > 23 {
		return fmt.Errorf("hour must be between 0 and 23")
	}
	if in.FailedLogins < 0 {
		return fmt.Errorf("failed_logins must not be negative")
	}
	if in.TypingSpeed <= 0 {
		return fmt.Errorf("typing_speed must be greater than 0")
	}
	return nil
}

// userIDParam parses the {id} path parameter, writing a 400 on failure.
func userIDParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 1 {
		badRequest(w, "INVALID_USER_ID", "user id must be a positive integer")
		return 0, false
	}
	return id, true
}
