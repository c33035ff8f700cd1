// history.go persists verify runs into a local SQLite database so repeated
// runs can be compared after remediation.
package checkup

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const historyRetention = 200

// HistoryEntry is one persisted verify run.
type HistoryEntry struct {
	GeneratedAt time.Time
	Failures    int
	Warnings    int
	Halted      bool
	Outcomes    []Outcome
}

func historyPath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		dir, _ = os.UserHomeDir()
	}
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, "uxctl", "verify", "history.db")
}

// AppendHistory stores the report, pruning entries beyond the retention cap.
func AppendHistory(report Report) error {
	return appendHistory(historyPath(), report)
}

func appendHistory(path string, report Report) error {
	db, err := openHistoryDB(path)
	if err != nil {
		return err
	}
	defer db.Close()
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	res, err := tx.Exec("INSERT INTO verify_runs(generated_at, failures, warnings, halted) VALUES(?, ?, ?, ?)",
		report.GeneratedAt.Format(time.RFC3339Nano), report.Failures, report.Warnings, report.Halted)
	if err != nil {
		return err
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return err
	}
	for _, outcome := range report.Outcomes {
		detailsJSON, _ := json.Marshal(outcome.Result.Details)
		if _, err := tx.Exec(`INSERT INTO verify_results(run_id, name, status, advisory, summary, details)
		VALUES(?, ?, ?, ?, ?, ?)`,
			runID, outcome.Name, string(outcome.Result.Status), outcome.Advisory, outcome.Result.Summary, string(detailsJSON)); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(`DELETE FROM verify_runs WHERE id NOT IN (
		SELECT id FROM verify_runs ORDER BY generated_at DESC LIMIT ?
	)`, historyRetention); err != nil {
		return err
	}
	return tx.Commit()
}

// LoadHistory returns up to limit recent runs, newest first.
func LoadHistory(limit int) ([]HistoryEntry, error) {
	return loadHistory(historyPath(), limit)
}

func loadHistory(path string, limit int) ([]HistoryEntry, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("no verify history recorded yet (run uxctl verify first)")
	}
	db, err := openHistoryDB(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	if limit <= 0 {
		limit = 10
	}
	rows, err := db.Query(`SELECT id, generated_at, failures, warnings, halted FROM verify_runs ORDER BY generated_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []HistoryEntry
	var ids []int64
	for rows.Next() {
		var id int64
		var ts string
		var entry HistoryEntry
		if err := rows.Scan(&id, &ts, &entry.Failures, &entry.Warnings, &entry.Halted); err != nil {
			return nil, err
		}
		entry.GeneratedAt, _ = time.Parse(time.RFC3339Nano, ts)
		entries = append(entries, entry)
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, id := range ids {
		resultRows, err := db.Query(`SELECT name, status, advisory, summary, details FROM verify_results WHERE run_id = ? ORDER BY rowid`, id)
		if err != nil {
			return nil, err
		}
		for resultRows.Next() {
			var outcome Outcome
			var status, details string
			if err := resultRows.Scan(&outcome.Name, &status, &outcome.Advisory, &outcome.Result.Summary, &details); err != nil {
				resultRows.Close()
				return nil, err
			}
			outcome.Result.Status = Status(status)
			if details != "" {
				_ = json.Unmarshal([]byte(details), &outcome.Result.Details)
			}
			entries[i].Outcomes = append(entries[i].Outcomes, outcome)
		}
		resultRows.Close()
	}
	return entries, nil
}

// openHistoryDB enables foreign keys through the DSN so every pooled
// connection enforces them; a one-shot PRAGMA would only cover the
// connection it happened to run on, and the retention prune relies on
// ON DELETE CASCADE.
func openHistoryDB(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, err
	}
	if err := ensureHistorySchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func ensureHistorySchema(db *sql.DB) error {
	const runs = `
CREATE TABLE IF NOT EXISTS verify_runs(
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	generated_at TEXT NOT NULL,
	failures INTEGER NOT NULL,
	warnings INTEGER NOT NULL,
	halted INTEGER NOT NULL
);`
	const results = `
CREATE TABLE IF NOT EXISTS verify_results(
	run_id INTEGER NOT NULL,
	name TEXT NOT NULL,
	status TEXT NOT NULL,
	advisory INTEGER NOT NULL,
	summary TEXT,
	details TEXT,
	FOREIGN KEY(run_id) REFERENCES verify_runs(id) ON DELETE CASCADE
);`
	if _, err := db.Exec(runs); err != nil {
		return err
	}
	if _, err := db.Exec(results); err != nil {
		return err
	}
	return nil
}
