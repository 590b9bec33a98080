package scoring

import "gart/risk-api/internal/domain"

// ComputeBaseline derives a user's typical profile from their prior records:
// the most frequent country, device and model-vocabulary action, and the
// arithmetic mean of hour, typing speed and failed logins. The whole history
// is used unweighted; there is no decay or windowing.
//
// Returns ok=false for an empty history — a brand-new user has no baseline.
func ComputeBaseline(history []domain.AttemptRecord) (domain.UserBaseline, bool) {
	if len(history) == 0 {
		return domain.UserBaseline{}, false
	}

	var hourSum, speedSum, failSum float64
	countries := newModeCounter()
	devices := newModeCounter()
	actions := newModeCounter()

	for _, rec := range history {
		countries.add(rec.Country)
		devices.add(rec.Device)
		actions.add(rec.ActionModel)
		hourSum += float64(rec.Hour)
		speedSum += rec.TypingSpeed
		failSum += float64(rec.FailedLogins)
	}

	n := float64(len(history))
	return domain.UserBaseline{
		Country:      countries.mode(),
		Device:       devices.mode(),
		ActionModel:  actions.mode(),
		MeanHour:     hourSum / n,
		MeanSpeed:    speedSum / n,
		MeanFailures: failSum / n,
		SampleCount:  len(history),
	}, true
}

// modeCounter tracks value frequencies while remembering first-occurrence
// order, so ties resolve deterministically to the value seen earliest in
// the history (the store guarantees insertion order).
type modeCounter struct {
	counts map[string]int
	order  []string
}

func newModeCounter() *modeCounter {
	return &modeCounter{counts: make(map[string]int)}
}

func (c *modeCounter) add(v string) {
	if _, seen := c.counts[v]; !seen {
		c.order = append(c.order, v)
	}
	c.counts[v]++
}

func (c *modeCounter) mode() string {
	best := ""
	bestCount := 0
	for _, v := range c.order {
		if c.counts[v] > bestCount {
			best = v
			bestCount = c.counts[v]
		}
	}
	return best
}
