package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"form-agent/internal/application/port/output"
	"form-agent/internal/domain/entity"
	"form-agent/internal/infrastructure/recorder"

	jsoniter "github.com/json-iterator/go"
	_ "modernc.org/sqlite"
)

var _ output.RecorderPort = (*Store)(nil)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Store keeps run history and answers in a single sqlite file.
type Store struct {
	db   *sql.DB
	path string
}

type RunRow struct {
	ID         string
	URL        string
	StartedAt  time.Time
	FinishedAt time.Time
	Completed  bool
	Outcome    string
	Stats      entity.RunStats
	Screenshot string
	Error      string
}

type AnswerRow struct {
	RunID        string
	Page         int
	Number       int
	QuestionID   string
	QuestionText string
	QuestionType entity.QuestionType
	Required     bool
	Options      []string
	Answer       recorder.AnswerRecord
	RecordedAt   time.Time
}

func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// sqlite has a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db, path: path}
	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if err := s.createTables(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME,
		completed INTEGER NOT NULL DEFAULT 0,
		outcome TEXT,
		pages INTEGER NOT NULL DEFAULT 0,
		answered INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0,
		skipped INTEGER NOT NULL DEFAULT 0,
		screenshot TEXT,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	CREATE TABLE IF NOT EXISTS answers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		page INTEGER NOT NULL,
		number INTEGER NOT NULL,
		question_id TEXT,
		question_text TEXT NOT NULL,
		question_type TEXT NOT NULL,
		required INTEGER NOT NULL DEFAULT 0,
		options_json TEXT,
		answer_json TEXT NOT NULL,
		recorded_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_answers_run ON answers(run_id);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

func (s *Store) RecordAnswer(ctx context.Context, rec entity.AnswerRecord) error {
	r := recorder.NewRecord(rec)

	options, err := json.Marshal(r.Question.Options)
	if err != nil {
		return fmt.Errorf("failed to serialize options: %w", err)
	}
	answer, err := json.Marshal(r.Answer)
	if err != nil {
		return fmt.Errorf("failed to serialize answer: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
	INSERT INTO answers (run_id, page, number, question_id, question_text, question_type, required, options_json, answer_json, recorded_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID,
		r.Page,
		r.Question.Number,
		r.Question.ID,
		r.Question.Text,
		r.Question.Type.String(),
		r.Question.Required,
		string(options),
		string(answer),
		r.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert answer: %w", err)
	}
	return nil
}

// RecordRun upserts the run row, so recording the same run twice keeps the
// latest state.
func (s *Store) RecordRun(ctx context.Context, res *entity.RunResult) error {
	outcome := ""
	if last, ok := res.LastOutcome(); ok {
		outcome = last.String()
	}
	errText := ""
	if res.Err != nil {
		errText = res.Err.Error()
	}

	_, err := s.db.ExecContext(ctx, `
	INSERT INTO runs (id, url, started_at, finished_at, completed, outcome, pages, answered, failed, skipped, screenshot, error)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		finished_at = excluded.finished_at,
		completed = excluded.completed,
		outcome = excluded.outcome,
		pages = excluded.pages,
		answered = excluded.answered,
		failed = excluded.failed,
		skipped = excluded.skipped,
		screenshot = excluded.screenshot,
		error = excluded.error`,
		res.RunID,
		res.URL,
		res.StartedAt.UTC(),
		res.FinishedAt.UTC(),
		res.Completed,
		outcome,
		res.Stats.PagesProcessed,
		res.Stats.QuestionsAnswered,
		res.Stats.QuestionsFailed,
		res.Stats.QuestionsSkipped,
		res.Screenshot,
		errText,
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

const runColumns = `id, url, started_at, finished_at, completed, outcome, pages, answered, failed, skipped, screenshot, error`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (RunRow, error) {
	var (
		r                           RunRow
		finished                    sql.NullTime
		outcome, screenshot, errStr sql.NullString
	)
	err := row.Scan(&r.ID, &r.URL, &r.StartedAt, &finished, &r.Completed, &outcome,
		&r.Stats.PagesProcessed, &r.Stats.QuestionsAnswered, &r.Stats.QuestionsFailed, &r.Stats.QuestionsSkipped,
		&screenshot, &errStr)
	r.FinishedAt = finished.Time
	r.Outcome = outcome.String
	r.Screenshot = screenshot.String
	r.Error = errStr.String
	return r, err
}

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]RunRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var out []RunRow
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Run loads a single run; IsNotFound reports an unknown id.
func (s *Store) Run(ctx context.Context, id string) (*RunRow, error) {
	r, err := scanRun(s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", id, err)
	}
	return &r, nil
}

func (s *Store) Answers(ctx context.Context, runID string) ([]AnswerRow, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT run_id, page, number, question_id, question_text, question_type, required, options_json, answer_json, recorded_at
	FROM answers WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query answers: %w", err)
	}
	defer rows.Close()

	var out []AnswerRow
	for rows.Next() {
		var (
			a               AnswerRow
			typ             string
			options, answer string
			questionID      sql.NullString
		)
		if err := rows.Scan(&a.RunID, &a.Page, &a.Number, &questionID, &a.QuestionText, &typ, &a.Required,
			&options, &answer, &a.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan answer: %w", err)
		}
		a.QuestionID = questionID.String
		if a.QuestionType, err = entity.ParseQuestionType(typ); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(options), &a.Options); err != nil {
			return nil, fmt.Errorf("failed to decode options: %w", err)
		}
		if err := json.Unmarshal([]byte(answer), &a.Answer); err != nil {
			return nil, fmt.Errorf("failed to decode answer: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
