// Command seed generates a realistic demo dataset for the GART risk API and
// writes it to data/seed.json, plus a demo classifier artifact at
// data/model.json.
//
// Usage:
//
//	go run ./cmd/seed
//
// The generated dataset contains ~300 attempts spanning a few dozen users:
//   - regular citizens with stable habits (KSA, one device, daytime hours)
//   - travellers whose country occasionally changes
//   - account-takeover patterns (foreign origin, VPN, failed-login bursts,
//     abnormal typing speed, sensitive actions)
//
// Feed it to a running server with:
//
//	curl -X POST localhost:8080/api/v1/admin/seed -d @data/seed.json
package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"

	"gart/risk-api/internal/domain"
	"gart/risk-api/internal/model"
)

var viewActions = []string{
	"view_profile", "view_services", "view_violations",
	"view_vehicle_list", "view_passport_details",
}

var sensitiveActions = []string{
	"renew_passport", "update_mobile", "update_email",
	"pay_violation", "digital_id_access",
}

var foreignCountries = []string{
	"United Arab Emirates", "Egypt", "Germany", "United Kingdom", "India",
}

var highRiskCountries = []string{"Iraq", "Syria", "Yemen", "Sudan"}

func main() {
	rng := rand.New(rand.NewSource(42)) // deterministic for reproducible demos

	attempts := buildDataset(rng)

	if err := os.MkdirAll("data", 0o755); err != nil {
		fatal("mkdir", err)
	}
	if err := writeJSON("data/seed.json", attempts); err != nil {
		fatal("write seed", err)
	}

	artifact, err := model.BuildDemoArtifact()
	if err != nil {
		fatal("build model artifact", err)
	}
	if err := os.WriteFile("data/model.json", artifact, 0o644); err != nil {
		fatal("write model artifact", err)
	}

	fmt.Printf("wrote %d attempts to data/seed.json and demo model to data/model.json\n", len(attempts))
}

// buildDataset assembles the full attempt list. Users are interleaved by
// shuffling whole per-user blocks: each user's attempts must stay in
// generation order because anomalies are only anomalous against the habits
// recorded before them.
func buildDataset(rng *rand.Rand) []domain.AttemptInput {
	var blocks [][]domain.AttemptInput
	blocks = append(blocks, generateRegularUsers(rng)...)
	blocks = append(blocks, generateTravellers(rng)...)
	blocks = append(blocks, generateTakeovers(rng)...)

	rng.Shuffle(len(blocks), func(i, j int) {
		blocks[i], blocks[j] = blocks[j], blocks[i]
	})

	var attempts []domain.AttemptInput
	for _, block := range blocks {
		attempts = append(attempts, block...)
	}
	return attempts
}

// generateRegularUsers produces citizens with stable habits: home country,
// one preferred device, daytime hours, steady typing, no VPN. One block
// per user.
func generateRegularUsers(rng *rand.Rand) [][]domain.AttemptInput {
	var out [][]domain.AttemptInput
	for userID := 1; userID <= 30; userID++ {
		device := domain.DeviceMobile
		if rng.Float64() < 0.3 {
			device = domain.DeviceDesktop
		}
		habitualHour := 8 + rng.Intn(6) // 08:00-13:00
		baseSpeed := 3.0 + rng.Float64()*2.0

		var block []domain.AttemptInput
		n := 5 + rng.Intn(6)
		for i := 0; i < n; i++ {
			action := viewActions[rng.Intn(len(viewActions))]
			if rng.Float64() < 0.15 {
				action = sensitiveActions[rng.Intn(len(sensitiveActions))]
			}
			block = append(block, domain.AttemptInput{
				UserID:       userID,
				Country:      "Saudi Arabia (KSA)",
				Device:       device,
				Action:       action,
				Hour:         clampHour(habitualHour + rng.Intn(3) - 1),
				VPNUsed:      false,
				FailedLogins: rng.Intn(2),
				TypingSpeed:  round1(baseSpeed + rng.Float64()*0.6 - 0.3),
			})
		}
		out = append(out, block)
	}
	return out
}

// generateTravellers produces users whose location occasionally changes but
// whose other habits stay intact.
func generateTravellers(rng *rand.Rand) [][]domain.AttemptInput {
	var out [][]domain.AttemptInput
	for userID := 31; userID <= 40; userID++ {
		baseSpeed := 3.5 + rng.Float64()
		var block []domain.AttemptInput
		for i := 0; i < 6; i++ {
			country := "Saudi Arabia (KSA)"
			if i >= 4 { // last trips abroad
				country = foreignCountries[rng.Intn(len(foreignCountries))]
			}
			block = append(block, domain.AttemptInput{
				UserID:       userID,
				Country:      country,
				Device:       domain.DeviceMobile,
				Action:       viewActions[rng.Intn(len(viewActions))],
				Hour:         clampHour(9 + rng.Intn(4)),
				VPNUsed:      false,
				FailedLogins: 0,
				TypingSpeed:  round1(baseSpeed + rng.Float64()*0.4),
			})
		}
		out = append(out, block)
	}
	return out
}

// generateTakeovers produces account-takeover shapes: a short normal history
// followed by a burst from a high-risk origin with everything wrong at once.
func generateTakeovers(rng *rand.Rand) [][]domain.AttemptInput {
	var out [][]domain.AttemptInput
	for userID := 41; userID <= 48; userID++ {
		var block []domain.AttemptInput
		for i := 0; i < 5; i++ {
			block = append(block, domain.AttemptInput{
				UserID:       userID,
				Country:      "Saudi Arabia (KSA)",
				Device:       domain.DeviceMobile,
				Action:       "view_profile",
				Hour:         10,
				VPNUsed:      false,
				FailedLogins: 0,
				TypingSpeed:  4.0,
			})
		}
		block = append(block, domain.AttemptInput{
			UserID:       userID,
			Country:      highRiskCountries[rng.Intn(len(highRiskCountries))],
			Device:       domain.DeviceDesktop,
			Action:       sensitiveActions[rng.Intn(len(sensitiveActions))],
			Hour:         2 + rng.Intn(3),
			VPNUsed:      true,
			FailedLogins: 3 + rng.Intn(4),
			TypingSpeed:  round1(7.0 + rng.Float64()*2.0),
		})
		out = append(out, block)
	}
	return out
}

func clampHour(h int) int {
	if h < 0 {
		return 0
	}
	if h > 23 {
		return 23
	}
	return h
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func fatal(what string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", what, err)
	os.Exit(1)
}
