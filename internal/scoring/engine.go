// Package scoring implements GART's risk decision engine.
//
// Architecture:
//
//	One evaluation = one read-only history snapshot for the user, the model
//	risk from the classifier, the behavior risk from the deviation checks,
//	a weighted blend, a threshold decision, and exactly one append to the
//	event log. The snapshot is taken once, before scoring, so the current
//	attempt is never compared against itself.
//
// Concurrent evaluations for the same user may observe the same prior
// snapshot. That race is accepted: each decision remains explainable from
// the history it actually saw, and the event log guarantees no append is
// lost regardless of ordering.
package scoring

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"gart/risk-api/internal/domain"
	"gart/risk-api/internal/model"
	"gart/risk-api/internal/store"
)

// Engine is the evaluation pipeline. It owns the only write path into the
// event log; everything else reads.
type Engine struct {
	log     *store.EventLog
	adapter *model.RiskAdapter
}

// New creates an Engine backed by the given event log and model adapter.
func New(log *store.EventLog, adapter *model.RiskAdapter) *Engine {
	return &Engine{log: log, adapter: adapter}
}

// Evaluate runs the full pipeline for one attempt: model risk, behavior
// risk, blend, decision, durable append. The returned record is final and
// immutable; the reasons list explains the behavior score to an analyst.
func (e *Engine) Evaluate(in domain.AttemptInput) (domain.Evaluation, error) {
	// Snapshot history before anything else; all scoring for this request
	// works off this one consistent view.
	history := e.log.QueryByUser(in.UserID)

	modelRisk, countryModel, actionModel, err := e.adapter.Score(in)
	if err != nil {
		return domain.Evaluation{}, fmt.Errorf("model risk: %w", err)
	}

	baseline, hasBaseline := ComputeBaseline(history)
	behaviorRisk, reasons := ScoreDeviation(in, actionModel, baseline, hasBaseline)

	finalRisk := Combine(modelRisk, behaviorRisk)
	level, decision := Decide(finalRisk)

	rec := domain.AttemptRecord{
		ID:           uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		UserID:       in.UserID,
		Country:      in.Country,
		Device:       in.Device,
		Action:       in.Action,
		CountryModel: countryModel,
		ActionModel:  actionModel,
		Hour:         in.Hour,
		VPNUsed:      in.VPNUsed,
		FailedLogins: in.FailedLogins,
		TypingSpeed:  in.TypingSpeed,
		ModelRisk:    modelRisk,
		BehaviorRisk: behaviorRisk,
		FinalRisk:    finalRisk,
		Level:        level,
		Decision:     decision,
	}

	if err := e.log.Append(rec); err != nil {
		return domain.Evaluation{}, fmt.Errorf("append attempt record: %w", err)
	}

	return domain.Evaluation{Record: rec, Reasons: reasons}, nil
}

// Baseline exposes the computed baseline for a user, for analyst inspection.
func (e *Engine) Baseline(userID int) (domain.UserBaseline, bool) {
	return ComputeBaseline(e.log.QueryByUser(userID))
}

// Combine blends the two risk estimates with fixed weights, model risk
// dominant, truncating to an integer and clamping to [0, 100].
func Combine(modelRisk, behaviorRisk int) int {
	blended := int(domain.ModelWeight*float64(modelRisk) + domain.BehaviorWeight*float64(behaviorRisk))
	if blended < 0 {
		return 0
	}
	if blended > 100 {
		return 100
	}
	return blended
}

// Decide maps a final risk to its level and decision. Intervals are
// half-open: [0,30) allows, [30,60) challenges, [60,100] blocks.
func Decide(finalRisk int) (level, decision string) {
	switch {
	case finalRisk < domain.ThresholdChallenge:
		return domain.LevelLow, domain.DecisionAllow
	case finalRisk < domain.ThresholdBlock:
		return domain.LevelMedium, domain.DecisionChallenge
	default:
		return domain.LevelHigh, domain.DecisionBlock
	}
}
