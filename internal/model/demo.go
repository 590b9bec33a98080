package model

import "encoding/json"

// demoFeatures is the canonical feature order: one-hot categoricals first,
// numerics passthrough after, matching the training-time encoding.
var demoFeatures = []string{
	"country=KSA",
	"country=Unknown",
	"country=HighRiskCountry",
	"device_type=mobile",
	"device_type=desktop",
	"action_type=view",
	"action_type=pay",
	"action_type=renew_passport",
	"action_type=update_mobile",
	"user_id",
	"time_of_day",
	"failed_logins_last_hour",
	"is_vpn",
	"typing_speed",
}

const leaf = -1

// BuildDemoArtifact returns a small hand-built forest artifact for demo and
// test environments where no trained model is available. Each tree encodes
// one of the known risky patterns: foreign logins late at night, repeated
// failed logins, VPN passport renewals, and abnormally slow typing from
// abroad.
func BuildDemoArtifact() ([]byte, error) {
	art := forestArtifact{
		Features: demoFeatures,
		Trees: [][]treeNode{
			// Foreign origin at night.
			{
				{Feature: 0, Threshold: 0.5, Left: 1, Right: 2},  // country=KSA?
				{Feature: 10, Threshold: 21.5, Left: 3, Right: 4}, // time_of_day
				{Feature: leaf, Prob: 0.08},
				{Feature: leaf, Prob: 0.35},
				{Feature: leaf, Prob: 0.90},
			},
			// Failed-login burst.
			{
				{Feature: 11, Threshold: 2.5, Left: 1, Right: 2},
				{Feature: leaf, Prob: 0.10},
				{Feature: leaf, Prob: 0.92},
			},
			// Passport renewal over VPN.
			{
				{Feature: 12, Threshold: 0.5, Left: 1, Right: 2}, // is_vpn?
				{Feature: leaf, Prob: 0.10},
				{Feature: 7, Threshold: 0.5, Left: 3, Right: 4}, // action_type=renew_passport?
				{Feature: leaf, Prob: 0.30},
				{Feature: leaf, Prob: 0.95},
			},
			// Very slow typing from abroad.
			{
				{Feature: 13, Threshold: 1.95, Left: 1, Right: 4}, // typing_speed
				{Feature: 0, Threshold: 0.5, Left: 2, Right: 3},   // country=KSA?
				{Feature: leaf, Prob: 0.90},
				{Feature: leaf, Prob: 0.20},
				{Feature: leaf, Prob: 0.10},
			},
			// High-risk origin carries elevated base risk.
			{
				{Feature: 2, Threshold: 0.5, Left: 1, Right: 2},
				{Feature: leaf, Prob: 0.12},
				{Feature: leaf, Prob: 0.60},
			},
		},
	}
	return json.MarshalIndent(art, "", "  ")
}
