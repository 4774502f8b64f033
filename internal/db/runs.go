package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/valeriodiste/shared-app/internal/evaluation"
	"github.com/valeriodiste/shared-app/internal/pose"
	"github.com/valeriodiste/shared-app/internal/timeutil"
)

// ErrRunNotFound is returned when a run id does not exist.
var ErrRunNotFound = errors.New("run not found")

// Run is one archived evaluation run.
type Run struct {
	RunID        string       `json:"run_id"`
	SamplesDir   string       `json:"samples_dir"`
	ResultsDir   string       `json:"results_dir"`
	SampleCount  int          `json:"sample_count"`
	FailureCount int          `json:"failure_count"`
	Camera       *pose.Camera `json:"camera,omitempty"`
	StartedAt    int64        `json:"started_at"`
	DurationMs   int64        `json:"duration_ms"`
	CreatedAt    int64        `json:"created_at"`
}

// AlgorithmStats are frame-weighted aggregates of one algorithm's errors
// within a run.
type AlgorithmStats struct {
	Kind                 evaluation.Kind `json:"kind"`
	Algorithm            string          `json:"algorithm"`
	Frames               int             `json:"frames"`
	Detected             int             `json:"detected"`
	Usable               int             `json:"usable"`
	MeanTranslationError *float64        `json:"mean_translation_error"`
	MeanRotationError    *float64        `json:"mean_rotation_error"`
}

// FrameRecord is one archived frame comparison.
type FrameRecord struct {
	Sample           int      `json:"sample"`
	Frame            int      `json:"frame"`
	TranslationError *float64 `json:"translation_error"`
	RotationError    *float64 `json:"rotation_error"`
	Quality          string   `json:"quality"`
}

// RunStore persists evaluation runs and their per-frame errors.
type RunStore struct {
	db    *DB
	clock timeutil.Clock
}

// NewRunStore creates a RunStore. A nil clock uses the real clock.
func NewRunStore(db *DB, clock timeutil.Clock) *RunStore {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &RunStore{db: db, clock: clock}
}

// Insert persists a run. An empty RunID gets a new UUID and a zero
// CreatedAt is taken from the store clock.
func (s *RunStore) Insert(run *Run) error {
	s.prepareRun(run)
	return s.retryOnBusy(func() error {
		return insertRun(s.db, run)
	})
}

// InsertFrameErrors stores every frame of set under runID, graded with th.
// All rows are written in a single transaction.
func (s *RunStore) InsertFrameErrors(runID string, kind evaluation.Kind, set evaluation.ErrorSet, th pose.Thresholds) error {
	return s.retryOnBusy(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback()

		if err := insertFrameErrors(tx, runID, kind, set, th); err != nil {
			return err
		}
		return tx.Commit()
	})
}

// Archive stores a finished evaluation and all of its frame errors in one
// transaction. Nothing is kept when any insert fails.
func (s *RunStore) Archive(out *evaluation.Outcome, samplesDir, resultsDir string, cam pose.Camera, th pose.Thresholds) (*Run, error) {
	run := &Run{
		SamplesDir:   samplesDir,
		ResultsDir:   resultsDir,
		SampleCount:  out.Samples,
		FailureCount: len(out.Failures),
		Camera:       &cam,
		StartedAt:    out.StartedAt.UnixNano(),
		DurationMs:   out.Duration.Milliseconds(),
	}
	s.prepareRun(run)

	err := s.retryOnBusy(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback()

		if err := insertRun(tx, run); err != nil {
			return fmt.Errorf("insert run: %w", err)
		}
		for _, ks := range out.Sets() {
			if err := insertFrameErrors(tx, run.RunID, ks.Kind, ks.Errors, th); err != nil {
				return fmt.Errorf("insert %s errors: %w", ks.Kind, err)
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return nil, err
	}
	logf("archived run %s (%d samples)", run.RunID, run.SampleCount)
	return run, nil
}

func (s *RunStore) prepareRun(run *Run) {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt == 0 {
		run.CreatedAt = s.clock.Now().UnixNano()
	}
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
	Prepare(query string) (*sql.Stmt, error)
}

func insertRun(ex execer, run *Run) error {
	var cameraJSON any
	if run.Camera != nil {
		b, err := json.Marshal(run.Camera)
		if err != nil {
			return fmt.Errorf("marshal camera: %w", err)
		}
		cameraJSON = string(b)
	}
	_, err := ex.Exec(`
		INSERT INTO evaluation_runs (
			run_id, samples_dir, results_dir, sample_count, failure_count,
			camera_json, started_at, duration_ms, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.SamplesDir, run.ResultsDir, run.SampleCount, run.FailureCount,
		cameraJSON, run.StartedAt, run.DurationMs, run.CreatedAt,
	)
	return err
}

func insertFrameErrors(ex execer, runID string, kind evaluation.Kind, set evaluation.ErrorSet, th pose.Thresholds) error {
	stmt, err := ex.Prepare(`
		INSERT INTO frame_errors (
			run_id, kind, algorithm, sample_index, frame_index,
			translation_error, rotation_error, quality
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, series := range set {
		for i, frames := range series.Samples {
			for j, e := range frames {
				quality := string(pose.GradeError(e, th))
				if _, err := stmt.Exec(runID, string(kind), series.Algorithm, i, j,
					nullable(e.TranslationError), nullable(e.RotationError), quality); err != nil {
					return fmt.Errorf("insert %s frame %d/%d: %w", series.Algorithm, i, j, err)
				}
			}
		}
	}
	return nil
}

// Get returns a run by id.
func (s *RunStore) Get(runID string) (*Run, error) {
	row := s.db.QueryRow(`
		SELECT run_id, samples_dir, results_dir, sample_count, failure_count,
		       camera_json, started_at, duration_ms, created_at
		FROM evaluation_runs
		WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return r, err
}

// List returns the most recent runs first. A non-positive limit returns
// every run.
func (s *RunStore) List(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`
		SELECT run_id, samples_dir, results_dir, sample_count, failure_count,
		       camera_json, started_at, duration_ms, created_at
		FROM evaluation_runs
		ORDER BY created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Delete removes a run and its frame errors.
func (s *RunStore) Delete(runID string) error {
	return s.retryOnBusy(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback()

		if _, err := tx.Exec(`DELETE FROM frame_errors WHERE run_id = ?`, runID); err != nil {
			return fmt.Errorf("delete frame errors: %w", err)
		}
		result, err := tx.Exec(`DELETE FROM evaluation_runs WHERE run_id = ?`, runID)
		if err != nil {
			return fmt.Errorf("delete run: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return tx.Commit()
	})
}

// AlgorithmSummary aggregates each algorithm's archived frames in a run,
// detection before tracking and algorithms in insertion order. Means are
// over frames, not over sample means.
func (s *RunStore) AlgorithmSummary(runID string) ([]AlgorithmStats, error) {
	rows, err := s.db.Query(`
		SELECT kind, algorithm,
		       COUNT(*),
		       COUNT(translation_error),
		       SUM(CASE WHEN quality IN (?, ?, ?) THEN 1 ELSE 0 END),
		       AVG(translation_error),
		       AVG(rotation_error)
		FROM frame_errors
		WHERE run_id = ?
		GROUP BY kind, algorithm
		ORDER BY kind, MIN(rowid)`,
		string(pose.ErrorQualityExcellent), string(pose.ErrorQualityGood), string(pose.ErrorQualityFair), runID)
	if err != nil {
		return nil, fmt.Errorf("query algorithm summary: %w", err)
	}
	defer rows.Close()

	var out []AlgorithmStats
	for rows.Next() {
		var (
			a       AlgorithmStats
			kind    string
			tr, rot sql.NullFloat64
		)
		if err := rows.Scan(&kind, &a.Algorithm, &a.Frames, &a.Detected, &a.Usable, &tr, &rot); err != nil {
			return nil, fmt.Errorf("scan algorithm summary: %w", err)
		}
		a.Kind = evaluation.Kind(kind)
		a.MeanTranslationError = nullFloat(tr)
		a.MeanRotationError = nullFloat(rot)
		out = append(out, a)
	}
	return out, rows.Err()
}

// FrameErrors returns one algorithm's archived frames ordered by sample
// and frame.
func (s *RunStore) FrameErrors(runID string, kind evaluation.Kind, algorithm string) ([]FrameRecord, error) {
	rows, err := s.db.Query(`
		SELECT sample_index, frame_index, translation_error, rotation_error, quality
		FROM frame_errors
		WHERE run_id = ? AND kind = ? AND algorithm = ?
		ORDER BY sample_index, frame_index`, runID, string(kind), algorithm)
	if err != nil {
		return nil, fmt.Errorf("query frame errors: %w", err)
	}
	defer rows.Close()

	var out []FrameRecord
	for rows.Next() {
		var (
			f       FrameRecord
			tr, rot sql.NullFloat64
			quality sql.NullString
		)
		if err := rows.Scan(&f.Sample, &f.Frame, &tr, &rot, &quality); err != nil {
			return nil, fmt.Errorf("scan frame error: %w", err)
		}
		f.TranslationError = nullFloat(tr)
		f.RotationError = nullFloat(rot)
		f.Quality = quality.String
		out = append(out, f)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		r          Run
		cameraJSON sql.NullString
	)
	err := row.Scan(&r.RunID, &r.SamplesDir, &r.ResultsDir, &r.SampleCount, &r.FailureCount,
		&cameraJSON, &r.StartedAt, &r.DurationMs, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	if cameraJSON.Valid {
		var cam pose.Camera
		if err := json.Unmarshal([]byte(cameraJSON.String), &cam); err != nil {
			return nil, fmt.Errorf("decode camera for run %s: %w", r.RunID, err)
		}
		r.Camera = &cam
	}
	return &r, nil
}

func nullable(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

const (
	maxBusyRetries   = 5
	initialBusyDelay = 10 * time.Millisecond
)

// retryOnBusy runs fn, retrying with exponential backoff while SQLite
// reports the database as locked.
func (s *RunStore) retryOnBusy(fn func() error) error {
	delay := initialBusyDelay
	var err error
	for attempt := 1; attempt <= maxBusyRetries; attempt++ {
		err = fn()
		if !isSQLiteBusy(err) {
			return err
		}
		if attempt < maxBusyRetries {
			s.clock.Sleep(delay)
			delay *= 2
		}
	}
	return fmt.Errorf("database busy after %d attempts: %w", maxBusyRetries, err)
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}
