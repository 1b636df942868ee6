package runstore

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/tursodatabase/go-libsql"
)

// Job status values.
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Job is one recorded preparation run.
type Job struct {
	ID            uuid.UUID
	BaseModel     string
	Status        string
	Seed          int64
	TrainExamples int
	EvalExamples  int
	CreatedAt     time.Time
	FinishedAt    *time.Time
}

// Event is a timestamped log line attached to a job.
type Event struct {
	ID        uuid.UUID
	JobID     uuid.UUID
	Level     string
	Message   string
	CreatedAt time.Time
}

// Checkpoint records a saved training checkpoint reported by the external
// trainer.
type Checkpoint struct {
	ID        uuid.UUID
	JobID     uuid.UUID
	Step      int
	TrainLoss float64
	Path      string
	CreatedAt time.Time
}

// Store persists run metadata in a local libsql database.
type Store struct {
	db *sql.DB
}

// Open opens or initializes the run database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("could not create run database directory: %w", err)
		}
	}

	db, err := sql.Open("libsql", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("open run database: %w", err)
	}

	s := &Store{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}

	slog.Info("Run database ready", "path", path)
	return s, nil
}

// init sets up the run database tables.
func (s *Store) init() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY UNIQUE,
		base_model TEXT NOT NULL,
		status TEXT NOT NULL,
		seed INTEGER NOT NULL,
		train_examples INTEGER NOT NULL,
		eval_examples INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		finished_at TEXT
	)`)
	if err != nil {
		return fmt.Errorf("failed to create jobs table: %w", err)
	}

	_, err = s.db.Exec(`CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY UNIQUE,
		job_id TEXT NOT NULL,
		level TEXT NOT NULL,
		message TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("failed to create events table: %w", err)
	}

	_, err = s.db.Exec(`CREATE TABLE IF NOT EXISTS checkpoints (
		id TEXT PRIMARY KEY UNIQUE,
		job_id TEXT NOT NULL,
		step INTEGER NOT NULL,
		train_loss REAL NOT NULL,
		path TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("failed to create checkpoints table: %w", err)
	}

	return nil
}

// CreateJob records a new running job and returns it.
func (s *Store) CreateJob(baseModel string, seed int64, trainExamples, evalExamples int) (*Job, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Will be a no-op if transaction is committed

	job := Job{
		ID:            uuid.New(),
		BaseModel:     baseModel,
		Status:        StatusRunning,
		Seed:          seed,
		TrainExamples: trainExamples,
		EvalExamples:  evalExamples,
		CreatedAt:     time.Now().UTC(),
	}

	result, err := tx.Exec(
		"INSERT INTO jobs (id, base_model, status, seed, train_examples, eval_examples, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		job.ID.String(), job.BaseModel, job.Status, job.Seed, job.TrainExamples, job.EvalExamples, job.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("failed to insert job: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected != 1 {
		return nil, fmt.Errorf("expected 1 row affected, got %d", rowsAffected)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	slog.Debug("Job recorded", "id", job.ID, "base_model", job.BaseModel)
	return &job, nil
}

// FinishJob marks a job with its terminal status.
func (s *Store) FinishJob(id uuid.UUID, status string) error {
	res, err := s.db.Exec(
		"UPDATE jobs SET status = ?, finished_at = ? WHERE id = ?",
		status, time.Now().UTC().Format(time.RFC3339Nano), id.String())
	if err != nil {
		return fmt.Errorf("failed to finish job: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("job %s not found", id)
	}
	return nil
}

// AddEvent attaches a log line to a job.
func (s *Store) AddEvent(jobID uuid.UUID, level, message string) error {
	_, err := s.db.Exec(
		"INSERT INTO events (id, job_id, level, message, created_at) VALUES (?, ?, ?, ?, ?)",
		uuid.New().String(), jobID.String(), level, message, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// AddCheckpoint records a checkpoint reported by the external trainer.
func (s *Store) AddCheckpoint(jobID uuid.UUID, step int, trainLoss float64, path string) error {
	_, err := s.db.Exec(
		"INSERT INTO checkpoints (id, job_id, step, train_loss, path, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		uuid.New().String(), jobID.String(), step, trainLoss, path, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to insert checkpoint: %w", err)
	}
	return nil
}

// GetJob fetches one job by id.
func (s *Store) GetJob(id uuid.UUID) (*Job, error) {
	row := s.db.QueryRow(
		"SELECT id, base_model, status, seed, train_examples, eval_examples, created_at, finished_at FROM jobs WHERE id = ?",
		id.String())
	return scanJob(row)
}

// ListJobs returns all recorded jobs, newest first.
func (s *Store) ListJobs() ([]Job, error) {
	rows, err := s.db.Query(
		"SELECT id, base_model, status, seed, train_examples, eval_examples, created_at, finished_at FROM jobs ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

// Events returns all events for a job in insertion order.
func (s *Store) Events(jobID uuid.UUID) ([]Event, error) {
	rows, err := s.db.Query(
		"SELECT id, job_id, level, message, created_at FROM events WHERE job_id = ? ORDER BY created_at",
		jobID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			e                    Event
			idStr, jobStr, tsStr string
		)
		if err := rows.Scan(&idStr, &jobStr, &e.Level, &e.Message, &tsStr); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if e.ID, err = uuid.Parse(idStr); err != nil {
			return nil, fmt.Errorf("invalid event id %q: %w", idStr, err)
		}
		if e.JobID, err = uuid.Parse(jobStr); err != nil {
			return nil, fmt.Errorf("invalid event job id %q: %w", jobStr, err)
		}
		if e.CreatedAt, err = time.Parse(time.RFC3339Nano, tsStr); err != nil {
			return nil, fmt.Errorf("invalid event timestamp %q: %w", tsStr, err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// Checkpoints returns all checkpoints for a job ordered by step.
func (s *Store) Checkpoints(jobID uuid.UUID) ([]Checkpoint, error) {
	rows, err := s.db.Query(
		"SELECT id, job_id, step, train_loss, path, created_at FROM checkpoints WHERE job_id = ? ORDER BY step",
		jobID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list checkpoints: %w", err)
	}
	defer rows.Close()

	var cps []Checkpoint
	for rows.Next() {
		var (
			c                    Checkpoint
			idStr, jobStr, tsStr string
		)
		if err := rows.Scan(&idStr, &jobStr, &c.Step, &c.TrainLoss, &c.Path, &tsStr); err != nil {
			return nil, fmt.Errorf("failed to scan checkpoint: %w", err)
		}
		if c.ID, err = uuid.Parse(idStr); err != nil {
			return nil, fmt.Errorf("invalid checkpoint id %q: %w", idStr, err)
		}
		if c.JobID, err = uuid.Parse(jobStr); err != nil {
			return nil, fmt.Errorf("invalid checkpoint job id %q: %w", jobStr, err)
		}
		if c.CreatedAt, err = time.Parse(time.RFC3339Nano, tsStr); err != nil {
			return nil, fmt.Errorf("invalid checkpoint timestamp %q: %w", tsStr, err)
		}
		cps = append(cps, c)
	}
	return cps, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*Job, error) {
	var (
		job           Job
		idStr, tsStr  string
		finishedAtStr sql.NullString
	)
	if err := row.Scan(&idStr, &job.BaseModel, &job.Status, &job.Seed,
		&job.TrainExamples, &job.EvalExamples, &tsStr, &finishedAtStr); err != nil {
		return nil, fmt.Errorf("failed to scan job: %w", err)
	}

	var err error
	if job.ID, err = uuid.Parse(idStr); err != nil {
		return nil, fmt.Errorf("invalid job id %q: %w", idStr, err)
	}
	if job.CreatedAt, err = time.Parse(time.RFC3339Nano, tsStr); err != nil {
		return nil, fmt.Errorf("invalid job timestamp %q: %w", tsStr, err)
	}
	if finishedAtStr.Valid {
		t, err := time.Parse(time.RFC3339Nano, finishedAtStr.String)
		if err != nil {
			return nil, fmt.Errorf("invalid job finish timestamp %q: %w", finishedAtStr.String, err)
		}
		job.FinishedAt = &t
	}
	return &job, nil
}
