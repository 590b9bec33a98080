package scoring

import (
	"fmt"
	"math"

	"gart/risk-api/internal/domain"
)

// Deviation check tolerances. These are fixed operational rules, chosen to
// be explainable to a security analyst, not learned parameters.
const (
	hourTolerance    = 5.0 // hours away from the user's mean login hour
	speedTolerance   = 2.0 // chars/sec away from the user's mean typing speed
	failedSpikeDelta = 2.0 // failed logins at or above mean + this margin
	deviationChecks  = 6
)

// noBaselineReason is returned for users with no recorded history.
const noBaselineReason = "First login or limited history: baseline is being established for this user."

// conformingReason is returned when all six checks pass.
const conformingReason = "Behavior closely matches user's historical pattern."

// ScoreDeviation compares a candidate attempt against the user's baseline
// across six equally-weighted signals and returns a 0-100 behavior risk with
// one human-readable reason per triggered check.
//
// A user without a baseline scores 0 with a single informational reason:
// new users are never penalized for lack of history.
//
// Pure function: same (attempt, baseline) in, same (score, reasons) out.
func ScoreDeviation(in domain.AttemptInput, actionModel string, baseline domain.UserBaseline, hasBaseline bool) (int, []string) {
	if !hasBaseline {
		return 0, []string{noBaselineReason}
	}

	var reasons []string
	triggered := 0

	if in.Country != baseline.Country {
		triggered++
		reasons = append(reasons, fmt.Sprintf(
			"Unusual country: user usually logs in from %s, now from %s.",
			baseline.Country, in.Country))
	}

	if in.Device != baseline.Device {
		triggered++
		reasons = append(reasons, fmt.Sprintf(
			"Unusual device: typical device is %s, now using %s.",
			baseline.Device, in.Device))
	}

	if actionModel != baseline.ActionModel {
		triggered++
		reasons = append(reasons, fmt.Sprintf(
			"Unusual action: usual action is %s, now requesting %s.",
			baseline.ActionModel, actionModel))
	}

	if math.Abs(float64(in.Hour)-baseline.MeanHour) > hourTolerance {
		triggered++
		reasons = append(reasons, fmt.Sprintf(
			"Unusual time: average login around %.1fh, now at %dh.",
			baseline.MeanHour, in.Hour))
	}

	if math.Abs(in.TypingSpeed-baseline.MeanSpeed) > speedTolerance {
		triggered++
		reasons = append(reasons, fmt.Sprintf(
			"Typing pattern changed: normal speed ~%.1f chars/sec, now %.1f.",
			baseline.MeanSpeed, in.TypingSpeed))
	}

	if float64(in.FailedLogins) >= baseline.MeanFailures+failedSpikeDelta {
		triggered++
		reasons = append(reasons, fmt.Sprintf(
			"More failed logins than usual: average %.1f, now %d.",
			baseline.MeanFailures, in.FailedLogins))
	}

	// Six equal weights restrict the score to multiples of 100/6:
	// {0, 17, 33, 50, 67, 83, 100}.
	risk := int(math.Round(float64(triggered) / deviationChecks * 100))

	if triggered == 0 {
		reasons = append(reasons, conformingReason)
	}
	return risk, reasons
}
