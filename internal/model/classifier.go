// Package model adapts raw portal input into the classifier's training
// vocabulary and queries the classifier for a probability of risk.
//
// The classifier itself is an opaque capability behind the Classifier
// interface: the engine only needs predict(features) -> probability. The
// shipped backend is a decision forest exported as a JSON artifact
// (one-hot categorical features, passthrough numerics, per-tree leaf
// probabilities averaged). The artifact is loaded once at process start;
// a missing or malformed artifact is fatal — the engine cannot produce a
// model risk without it.
package model

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gart/risk-api/internal/domain"
)

// Classifier scores a feature record with a probability of risk in [0,1].
type Classifier interface {
	Predict(f domain.FeatureRecord) (float64, error)
}

// ─── Forest artifact ──────────────────────────────────────────────────────────

// treeNode is one node of a serialized decision tree. Internal nodes route
// on vector[Feature] <= Threshold; leaves carry the probability of risk.
type treeNode struct {
	Feature   int     `json:"feature"` // index into the feature list; -1 for leaves
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Prob      float64 `json:"prob"`
}

func (n treeNode) leaf() bool { return n.Feature < 0 }

type forestArtifact struct {
	Features []string     `json:"features"`
	Trees    [][]treeNode `json:"trees"`
}

// Forest is a decision-forest Classifier loaded from a JSON artifact.
type Forest struct {
	features []string
	trees    [][]treeNode
}

// LoadForest reads and validates a forest artifact. Any structural problem
// is returned as an error; callers treat it as a fatal startup condition.
func LoadForest(path string) (*Forest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}
	return ParseForest(data)
}

// ParseForest builds a Forest from raw artifact bytes.
func ParseForest(data []byte) (*Forest, error) {
	var art forestArtifact
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, fmt.Errorf("decode model artifact: %w", err)
	}
	if len(art.Features) == 0 {
		return nil, fmt.Errorf("model artifact has no features")
	}
	if len(art.Trees) == 0 {
		return nil, fmt.Errorf("model artifact has no trees")
	}
	for i, name := range art.Features {
		if err := checkFeatureName(name); err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
	}
	for ti, nodes := range art.Trees {
		if len(nodes) == 0 {
			return nil, fmt.Errorf("tree %d is empty", ti)
		}
		for ni, n := range nodes {
			if n.leaf() {
				if n.Prob < 0 || n.Prob > 1 {
					return nil, fmt.Errorf("tree %d node %d: leaf probability %v out of [0,1]", ti, ni, n.Prob)
				}
				continue
			}
			if n.Feature >= len(art.Features) {
				return nil, fmt.Errorf("tree %d node %d: feature index %d out of range", ti, ni, n.Feature)
			}
			if n.Left < 0 || n.Left >= len(nodes) || n.Right < 0 || n.Right >= len(nodes) {
				return nil, fmt.Errorf("tree %d node %d: child index out of range", ti, ni)
			}
		}
	}
	return &Forest{features: art.Features, trees: art.Trees}, nil
}

// Predict walks every tree with the vectorized record and returns the mean
// leaf probability.
func (f *Forest) Predict(rec domain.FeatureRecord) (float64, error) {
	vec, err := f.vectorize(rec)
	if err != nil {
		return 0, err
	}

	var sum float64
	for ti, nodes := range f.trees {
		node := nodes[0]
		// Bounded walk: a well-formed tree terminates well before len(nodes)
		// hops; the bound turns a malformed cycle into an error instead of a hang.
		steps := 0
		for !node.leaf() {
			if steps++; steps > len(nodes) {
				return 0, fmt.Errorf("tree %d does not terminate", ti)
			}
			if vec[node.Feature] <= node.Threshold {
				node = nodes[node.Left]
			} else {
				node = nodes[node.Right]
			}
		}
		sum += node.Prob
	}
	return sum / float64(len(f.trees)), nil
}

// vectorize resolves the artifact's feature names against a record.
// Categorical features use "name=value" one-hot form; bare names are
// numeric passthrough, mirroring the training-time encoding.
func (f *Forest) vectorize(rec domain.FeatureRecord) ([]float64, error) {
	vec := make([]float64, len(f.features))
	for i, name := range f.features {
		if field, value, ok := strings.Cut(name, "="); ok {
			actual, err := categorical(rec, field)
			if err != nil {
				return nil, err
			}
			if actual == value {
				vec[i] = 1
			}
			continue
		}
		v, err := numeric(rec, name)
		if err != nil {
			return nil, err
		}
		vec[i] = v
	}
	return vec, nil
}

// checkFeatureName rejects any feature name the vectorizer cannot resolve,
// so an artifact with an unknown or misspelled name fails at load time
// instead of on every prediction.
func checkFeatureName(name string) error {
	if field, _, ok := strings.Cut(name, "="); ok {
		_, err := categorical(domain.FeatureRecord{}, field)
		return err
	}
	_, err := numeric(domain.FeatureRecord{}, name)
	return err
}

func categorical(rec domain.FeatureRecord, field string) (string, error) {
	switch field {
	case "country":
		return rec.Country, nil
	case "device_type":
		return rec.DeviceType, nil
	case "action_type":
		return rec.ActionType, nil
	}
	return "", fmt.Errorf("unknown categorical feature %q", field)
}

func numeric(rec domain.FeatureRecord, field string) (float64, error) {
	switch field {
	case "user_id":
		return float64(rec.UserID), nil
	case "time_of_day":
		return float64(rec.TimeOfDay), nil
	case "failed_logins_last_hour":
		return float64(rec.FailedLoginsLastHour), nil
	case "is_vpn":
		return float64(rec.IsVPN), nil
	case "typing_speed":
		return rec.TypingSpeed, nil
	}
	return 0, fmt.Errorf("unknown numeric feature %q", field)
}
