// Package alert notifies the security operations endpoint when an attempt
// crosses the alert threshold.
//
// Notifications are sent in a goroutine so they never block the evaluation
// response. Failed deliveries are logged and counted but not retried (a
// production deployment would put a persistent queue with backoff here).
package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"gart/risk-api/internal/domain"
	"gart/risk-api/internal/metrics"
)

// Notifier posts high-risk evaluations to a single configured SOC endpoint.
// An empty URL disables alerting entirely.
type Notifier struct {
	url       string
	threshold int
	client    *http.Client
	logger    *zap.Logger
}

// New creates a Notifier. Alerts fire when final risk >= threshold.
func New(url string, threshold int, logger *zap.Logger) *Notifier {
	return &Notifier{
		url:       url,
		threshold: threshold,
		client:    &http.Client{Timeout: 5 * time.Second},
		logger:    logger,
	}
}

// NotifyAsync fires an alert in the background if the evaluation qualifies.
func (n *Notifier) NotifyAsync(ev domain.Evaluation) {
	if n.url == "" || ev.Record.FinalRisk < n.threshold {
		return
	}
	go n.send(ev)
}

func (n *Notifier) send(ev domain.Evaluation) {
	payload := domain.AlertPayload{
		Event:       "high_risk_attempt",
		TriggeredAt: time.Now().UTC(),
		Record:      ev.Record,
		Reasons:     ev.Reasons,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		n.logger.Error("alert: marshal payload", zap.Error(err))
		metrics.AlertsSentTotal.WithLabelValues("failed").Inc()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		n.logger.Error("alert: build request", zap.Error(err))
		metrics.AlertsSentTotal.WithLabelValues("failed").Inc()
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GART-Event", "high_risk_attempt")

	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Warn("alert: delivery failed",
			zap.String("url", n.url),
			zap.Error(err),
		)
		metrics.AlertsSentTotal.WithLabelValues("failed").Inc()
		return
	}
	defer resp.Body.Close()

	n.logger.Info("alert: delivered",
		zap.String("url", n.url),
		zap.Int("status", resp.StatusCode),
		zap.String("record_id", ev.Record.ID),
		zap.Int("final_risk", ev.Record.FinalRisk),
	)
	metrics.AlertsSentTotal.WithLabelValues("delivered").Inc()
}
