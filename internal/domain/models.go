// Package domain contains all core types used across the application.
// Keeping domain types in one place makes the risk pipeline easy to reason about.
package domain

import "time"

// ─── Constants ───────────────────────────────────────────────────────────────

// Risk level labels that correspond to final-risk bands.
const (
	LevelLow    = "LOW"    // [0, 30)
	LevelMedium = "MEDIUM" // [30, 60)
	LevelHigh   = "HIGH"   // [60, 100]
)

// Decisions for the portal's login/action flow.
const (
	DecisionAllow     = "Allow"     // proceed without friction
	DecisionChallenge = "Challenge" // require secondary verification (OTP / Face ID)
	DecisionBlock     = "Block"     // reject and flag for security review
)

// Country categories in the classifier's training vocabulary.
const (
	CountryKSA      = "KSA"
	CountryUnknown  = "Unknown"
	CountryHighRisk = "HighRiskCountry"
)

// Action categories in the classifier's training vocabulary.
const (
	ActionView          = "view"
	ActionPay           = "pay"
	ActionRenewPassport = "renew_passport"
	ActionUpdateMobile  = "update_mobile"
)

// Device types the portal reports.
const (
	DeviceMobile  = "mobile"
	DeviceDesktop = "desktop"
)

// ─── Decision thresholds ──────────────────────────────────────────────────────

// Final-risk thresholds. Half-open intervals: [0,30) allows, [30,60)
// challenges, [60,100] blocks.
const (
	ThresholdChallenge = 30
	ThresholdBlock     = 60
)

// Risk blend weights. Model risk dominates.
const (
	ModelWeight    = 0.6
	BehaviorWeight = 0.4
)

// ─── Core domain types ────────────────────────────────────────────────────────

// AttemptInput is the raw payload submitted by the portal for one
// login/action attempt. Country and action use the UI vocabulary; the
// pipeline derives the model-vocabulary fields.
type AttemptInput struct {
	UserID       int     `json:"user_id"`
	Country      string  `json:"country"`
	Device       string  `json:"device"` // mobile | desktop
	Action       string  `json:"action"`
	Hour         int     `json:"hour"` // 0-23
	VPNUsed      bool    `json:"vpn_used"`
	FailedLogins int     `json:"failed_logins"`
	TypingSpeed  float64 `json:"typing_speed"` // chars/sec, > 0
}

// FeatureRecord is the structured input the classifier was trained on.
// Categorical fields use the training vocabulary, never the UI one.
type FeatureRecord struct {
	UserID               int     `json:"user_id"`
	TimeOfDay            int     `json:"time_of_day"` // 0-23
	Country              string  `json:"country"`     // KSA | Unknown | HighRiskCountry
	DeviceType           string  `json:"device_type"` // mobile | desktop
	FailedLoginsLastHour int     `json:"failed_logins_last_hour"`
	ActionType           string  `json:"action_type"` // view | pay | renew_passport | update_mobile
	IsVPN                int     `json:"is_vpn"`      // 0 | 1
	TypingSpeed          float64 `json:"typing_speed"`
}

// AttemptRecord is an AttemptInput enriched with its full risk evaluation.
// This is the canonical record appended to the event log. Once written a
// record is never mutated; history for a given attempt is always the set of
// records appended strictly before it.
type AttemptRecord struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	UserID       int       `json:"user_id"`
	Country      string    `json:"country"`       // UI vocabulary
	Device       string    `json:"device"`        // mobile | desktop
	Action       string    `json:"action"`        // UI vocabulary
	CountryModel string    `json:"country_model"` // training vocabulary
	ActionModel  string    `json:"action_model"`  // training vocabulary
	Hour         int       `json:"hour"`
	VPNUsed      bool      `json:"vpn_used"`
	FailedLogins int       `json:"failed_logins"`
	TypingSpeed  float64   `json:"typing_speed"`
	ModelRisk    int       `json:"model_risk"`    // 0-100
	BehaviorRisk int       `json:"behavior_risk"` // 0-100
	FinalRisk    int       `json:"final_risk"`    // 0-100
	Level        string    `json:"level"`         // LOW | MEDIUM | HIGH
	Decision     string    `json:"decision"`      // Allow | Challenge | Block
}

// UserBaseline is a user's typical profile derived from all of their prior
// records: most-frequent categorical values and arithmetic means of the
// numeric signals. It is recomputed on demand and never stored.
type UserBaseline struct {
	Country      string  `json:"country"`      // most frequent (UI vocabulary)
	Device       string  `json:"device"`       // most frequent
	ActionModel  string  `json:"action_model"` // most frequent (training vocabulary)
	MeanHour     float64 `json:"mean_hour"`
	MeanSpeed    float64 `json:"mean_typing_speed"`
	MeanFailures float64 `json:"mean_failed_logins"`
	SampleCount  int     `json:"sample_count"`
}

// Evaluation is the full result of scoring one attempt. Reasons mirror what
// a security analyst sees: one line per triggered deviation check, or a
// single informational line when nothing deviated.
type Evaluation struct {
	Record  AttemptRecord `json:"record"`
	Reasons []string      `json:"reasons"`
}

// ─── Alerting ─────────────────────────────────────────────────────────────────

// AlertPayload is the body posted to the SOC endpoint when an evaluation
// crosses the alert threshold.
type AlertPayload struct {
	Event       string        `json:"event"` // always "high_risk_attempt"
	TriggeredAt time.Time     `json:"triggered_at"`
	Record      AttemptRecord `json:"record"`
	Reasons     []string      `json:"reasons"`
}

// ─── Reporting ────────────────────────────────────────────────────────────────

// OverviewReport is the SOC dashboard aggregate over the whole event log.
type OverviewReport struct {
	GeneratedAt     time.Time      `json:"generated_at"`
	TotalAttempts   int            `json:"total_attempts"`
	Allowed         int            `json:"allowed"`
	Challenged      int            `json:"challenged"`
	Blocked         int            `json:"blocked"`
	HighRiskCount   int            `json:"high_risk_count"`
	HighRiskPercent float64        `json:"high_risk_percent"`
	UniqueUsers     int            `json:"unique_users"`
	TopCountries    []CountEntry   `json:"top_countries"`
	TopActions      []CountEntry   `json:"top_actions"`
	LevelCounts     map[string]int `json:"level_counts"`
}

// CountEntry is one row of a top-N frequency table.
type CountEntry struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// UserSummary is the per-user inspection panel: how often the user appears,
// how risky they have been on average, and what the engine last decided.
type UserSummary struct {
	UserID       int     `json:"user_id"`
	Attempts     int     `json:"attempts"`
	AvgFinalRisk float64 `json:"avg_final_risk"`
	LastDecision string  `json:"last_decision"`
	LastLevel    string  `json:"last_level"`
}
