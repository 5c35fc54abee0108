package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Trigger records what started a pass.
type Trigger string

const (
	TriggerCLI      Trigger = "cli"
	TriggerWebhook  Trigger = "webhook"
	TriggerWatcher  Trigger = "watcher"
	TriggerSchedule Trigger = "schedule"
)

// failedOutcomes matches the outcome strings of every failure.
const failedOutcomes = `(outcome LIKE 'failed\_%' ESCAPE '\' OR outcome = 'verify_failed')`

// Pass is one run of the organizer.
type Pass struct {
	ID         string     `json:"id"`
	Trigger    Trigger    `json:"trigger"`
	DryRun     bool       `json:"dry_run"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// RenameRecord is one recorded rename outcome.
type RenameRecord struct {
	ID         int64     `json:"id"`
	PassID     string    `json:"pass_id"`
	ItemID     string    `json:"item_id"`
	Kind       string    `json:"kind"`
	SourcePath string    `json:"source_path"`
	TargetPath string    `json:"target_path"`
	Outcome    string    `json:"outcome"`
	Error      string    `json:"error,omitempty"`
	DryRun     bool      `json:"dry_run"`
	CreatedAt  time.Time `json:"created_at"`
}

// StartPass records a new pass and returns its id.
func (h *HistoryDB) StartPass(trigger Trigger, dryRun bool) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := uuid.NewString()
	_, err := h.db.Exec(`INSERT INTO rename_passes (id, trigger, dry_run) VALUES (?, ?, ?)`, id, string(trigger), dryRun)
	if err != nil {
		return "", fmt.Errorf("starting pass: %w", err)
	}
	return id, nil
}

// FinishPass stamps the pass as finished, keeping passErr if non-nil.
func (h *HistoryDB) FinishPass(id string, passErr error) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	msg := ""
	if passErr != nil {
		msg = passErr.Error()
	}
	res, err := h.db.Exec(`UPDATE rename_passes SET finished_at = CURRENT_TIMESTAMP, error = ? WHERE id = ?`, msg, id)
	if err != nil {
		return fmt.Errorf("finishing pass %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finishing pass %s: %w", id, sql.ErrNoRows)
	}
	return nil
}

// RecentPasses returns the newest passes first.
func (h *HistoryDB) RecentPasses(limit int) ([]Pass, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	rows, err := h.db.Query(`
		SELECT id, trigger, dry_run, started_at, finished_at, error
		FROM rename_passes
		ORDER BY rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var passes []Pass
	for rows.Next() {
		var p Pass
		var trigger string
		var finished sql.NullTime
		if err := rows.Scan(&p.ID, &trigger, &p.DryRun, &p.StartedAt, &finished, &p.Error); err != nil {
			return nil, err
		}
		p.Trigger = Trigger(trigger)
		if finished.Valid {
			t := finished.Time
			p.FinishedAt = &t
		}
		passes = append(passes, p)
	}
	return passes, rows.Err()
}

// RecordRename stores one outcome and returns its row id.
func (h *HistoryDB) RecordRename(r RenameRecord) (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	res, err := h.db.Exec(`
		INSERT INTO rename_history (
			pass_id, item_id, kind, source_path, target_path, outcome, error, dry_run
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, r.PassID, r.ItemID, r.Kind, r.SourcePath, r.TargetPath, r.Outcome, r.Error, r.DryRun)
	if err != nil {
		return 0, fmt.Errorf("recording rename: %w", err)
	}
	return res.LastInsertId()
}

// RecentRenames returns the newest records first.
func (h *HistoryDB) RecentRenames(limit int) ([]RenameRecord, error) {
	return h.queryRecords(`ORDER BY id DESC LIMIT ?`, limit)
}

// RecentFailures returns the newest failed records first.
func (h *HistoryDB) RecentFailures(limit int) ([]RenameRecord, error) {
	return h.queryRecords(`WHERE `+failedOutcomes+` ORDER BY id DESC LIMIT ?`, limit)
}

// PassRenames returns a pass's records in the order they were made.
func (h *HistoryDB) PassRenames(passID string) ([]RenameRecord, error) {
	return h.queryRecords(`WHERE pass_id = ? ORDER BY id`, passID)
}

func (h *HistoryDB) queryRecords(tail string, args ...interface{}) ([]RenameRecord, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	rows, err := h.db.Query(`
		SELECT id, pass_id, item_id, kind, source_path, target_path,
		       outcome, error, dry_run, created_at
		FROM rename_history `+tail, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []RenameRecord
	for rows.Next() {
		var r RenameRecord
		if err := rows.Scan(
			&r.ID, &r.PassID, &r.ItemID, &r.Kind, &r.SourcePath, &r.TargetPath,
			&r.Outcome, &r.Error, &r.DryRun, &r.CreatedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// CountByOutcome counts records per outcome. An empty passID counts all.
func (h *HistoryDB) CountByOutcome(passID string) (map[string]int, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	query := `SELECT outcome, COUNT(*) FROM rename_history GROUP BY outcome`
	var args []interface{}
	if passID != "" {
		query = `SELECT outcome, COUNT(*) FROM rename_history WHERE pass_id = ? GROUP BY outcome`
		args = append(args, passID)
	}

	rows, err := h.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var outcome string
		var count int
		if err := rows.Scan(&outcome, &count); err != nil {
			return nil, err
		}
		counts[outcome] = count
	}
	return counts, rows.Err()
}
