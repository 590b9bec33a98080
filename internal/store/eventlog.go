// Package store provides the append-only event log backing the risk engine.
//
// Design rationale: the engine's per-user baselines are cheap to recompute,
// so the store only has to answer two queries — "everything for this user,
// in insertion order" and "everything". Records live in memory with a
// per-user index; durability comes from a row-oriented CSV file that is
// read in full at startup and fsynced on every append. There are no update
// or delete operations: a record, once appended, is immutable.
package store

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"gart/risk-api/internal/domain"
)

// timestampLayout is the on-disk timestamp format.
const timestampLayout = time.RFC3339

// columns is the stable on-disk column order. New columns may only ever be
// appended, never reordered, or old logs stop parsing.
var columns = []string{
	"id", "timestamp", "user_id", "country", "device", "action",
	"country_model", "action_model", "hour", "vpn_used", "failed_logins",
	"typing_speed", "model_risk", "behavior_risk", "final_risk",
	"level", "decision",
}

// EventLog is a thread-safe, append-only store of attempt records.
// A zero file path means memory-only mode (used by tests and demos).
type EventLog struct {
	mu       sync.RWMutex
	filePath string

	records []domain.AttemptRecord
	byUser  map[int][]int // user id → indexes into records, insertion order
}

// Open creates an EventLog backed by the CSV file at path, loading any
// existing history. A missing file is a normal cold start, not an error.
func Open(path string) (*EventLog, error) {
	l := &EventLog{
		filePath: path,
		byUser:   make(map[int][]int),
	}

	if path == "" {
		return l, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create event log directory: %w", err)
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read event log: %w", err)
	}

	records, err := parseCSV(data)
	if err != nil {
		return nil, fmt.Errorf("parse event log %s: %w", path, err)
	}
	for _, rec := range records {
		l.index(rec)
	}
	return l, nil
}

// OpenMemory creates a memory-only EventLog with no file backing.
func OpenMemory() *EventLog {
	l, _ := Open("")
	return l
}

// Append persists a record. The write is durable (flushed and fsynced)
// before Append returns; identical repeats are stored as separate rows.
// Safe for concurrent callers — appends serialize on the store lock, so
// every record lands, in some order, with none lost.
func (l *EventLog) Append(rec domain.AttemptRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.filePath != "" {
		if err := l.writeRow(rec); err != nil {
			return err
		}
	}
	l.index(rec)
	return nil
}

// QueryByUser returns all records for the given user in insertion order.
// Unknown users get an empty slice, never an error.
func (l *EventLog) QueryByUser(userID int) []domain.AttemptRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	idxs := l.byUser[userID]
	out := make([]domain.AttemptRecord, len(idxs))
	for i, idx := range idxs {
		out[i] = l.records[idx]
	}
	return out
}

// All returns every record in insertion order.
func (l *EventLog) All() []domain.AttemptRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.AttemptRecord, len(l.records))
	copy(out, l.records)
	return out
}

// Len returns the number of stored records.
func (l *EventLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// index adds a record to the in-memory state. Caller must hold the lock
// (or be the single-threaded loader).
func (l *EventLog) index(rec domain.AttemptRecord) {
	l.records = append(l.records, rec)
	l.byUser[rec.UserID] = append(l.byUser[rec.UserID], len(l.records)-1)
}

// writeRow appends one CSV row and fsyncs. The file is opened in append
// mode per call; O_APPEND keeps concurrent process writers from
// interleaving partial rows.
func (l *EventLog) writeRow(rec domain.AttemptRecord) error {
	f, err := os.OpenFile(l.filePath, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("open event log for append: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(encodeRow(rec)); err != nil {
		return fmt.Errorf("write event log row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush event log row: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync event log: %w", err)
	}
	return nil
}

// ─── CSV codec ────────────────────────────────────────────────────────────────

func encodeRow(rec domain.AttemptRecord) []string {
	return []string{
		rec.ID,
		rec.Timestamp.UTC().Format(timestampLayout),
		strconv.Itoa(rec.UserID),
		rec.Country,
		rec.Device,
		rec.Action,
		rec.CountryModel,
		rec.ActionModel,
		strconv.Itoa(rec.Hour),
		strconv.FormatBool(rec.VPNUsed),
		strconv.Itoa(rec.FailedLogins),
		strconv.FormatFloat(rec.TypingSpeed, 'f', -1, 64),
		strconv.Itoa(rec.ModelRisk),
		strconv.Itoa(rec.BehaviorRisk),
		strconv.Itoa(rec.FinalRisk),
		rec.Level,
		rec.Decision,
	}
}

func parseCSV(data []byte) ([]domain.AttemptRecord, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = len(columns)

	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	records := make([]domain.AttemptRecord, 0, len(rows))
	for i, row := range rows {
		rec, err := decodeRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func decodeRow(row []string) (domain.AttemptRecord, error) {
	var rec domain.AttemptRecord
	var err error

	rec.ID = row[0]
	if rec.Timestamp, err = time.Parse(timestampLayout, row[1]); err != nil {
		return rec, fmt.Errorf("timestamp: %w", err)
	}
	if rec.UserID, err = strconv.Atoi(row[2]); err != nil {
		return rec, fmt.Errorf("user_id: %w", err)
	}
	rec.Country = row[3]
	rec.Device = row[4]
	rec.Action = row[5]
	rec.CountryModel = row[6]
	rec.ActionModel = row[7]
	if rec.Hour, err = strconv.Atoi(row[8]); err != nil {
		return rec, fmt.Errorf("hour: %w", err)
	}
	if rec.VPNUsed, err = strconv.ParseBool(row[9]); err != nil {
		return rec, fmt.Errorf("vpn_used: %w", err)
	}
	if rec.FailedLogins, err = strconv.Atoi(row[10]); err != nil {
		return rec, fmt.Errorf("failed_logins: %w", err)
	}
	if rec.TypingSpeed, err = strconv.ParseFloat(row[11], 64); err != nil {
		return rec, fmt.Errorf("typing_speed: %w", err)
	}
	if rec.ModelRisk, err = strconv.Atoi(row[12]); err != nil {
		return rec, fmt.Errorf("model_risk: %w", err)
	}
	if rec.BehaviorRisk, err = strconv.Atoi(row[13]); err != nil {
		return rec, fmt.Errorf("behavior_risk: %w", err)
	}
	if rec.FinalRisk, err = strconv.Atoi(row[14]); err != nil {
		return rec, fmt.Errorf("final_risk: %w", err)
	}
	rec.Level = row[15]
	rec.Decision = row[16]
	return rec, nil
}
