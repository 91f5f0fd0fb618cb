package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrRunNotFound is returned when a run ID is not in the ledger.
var ErrRunNotFound = errors.New("run not found")

const runColumns = "id, input_root, output_root, status, started_at, finished_at, grid_xmin, grid_ymin, grid_xmax, grid_ymax, grid_resolution, grid_crs, error_message"

// BeginRun inserts a new run in the running state.
func (s *Store) BeginRun(ctx context.Context, id, inputRoot, outputRoot string) (*Run, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("run id is required")
	}
	now := time.Now().UTC()
	if _, err := s.execWithRetry(ctx,
		`INSERT INTO runs (id, input_root, output_root, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		id, inputRoot, outputRoot, RunRunning, now.Format(time.RFC3339Nano),
	); err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return &Run{ID: id, InputRoot: inputRoot, OutputRoot: outputRoot, Status: RunRunning, StartedAt: now}, nil
}

// RecordGrid stores the reference grid computed for a run.
func (s *Store) RecordGrid(ctx context.Context, runID string, grid Grid) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE runs SET grid_xmin = ?, grid_ymin = ?, grid_xmax = ?, grid_ymax = ?, grid_resolution = ?, grid_crs = ? WHERE id = ?`,
		grid.Extent[0], grid.Extent[1], grid.Extent[2], grid.Extent[3], grid.Resolution, grid.CRS, runID,
	)
	if err != nil {
		return fmt.Errorf("record grid: %w", err)
	}
	return requireRow(res, runID)
}

// RecordFile appends a file outcome to a run.
func (s *Store) RecordFile(ctx context.Context, rec FileRecord) error {
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now().UTC()
	}
	if _, err := s.execWithRetry(ctx,
		`INSERT INTO run_files (run_id, rel_path, kind, status, output_path, algorithm, native_size, cropped_to_reference, error_message, recorded_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.RelPath, rec.Kind, rec.Status,
		nullableString(rec.OutputPath), nullableString(rec.Algorithm), nullableFloat(rec.NativeSize),
		boolToInt(rec.CroppedToReference), nullableString(rec.Error),
		rec.RecordedAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("record file %s: %w", rec.RelPath, err)
	}
	return nil
}

// FinishRun marks a run as ended with the given status.
func (s *Store) FinishRun(ctx context.Context, runID string, status RunStatus, runErr error) error {
	var message any
	if runErr != nil {
		message = runErr.Error()
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE runs SET status = ?, finished_at = ?, error_message = ? WHERE id = ?`,
		status, time.Now().UTC().Format(time.RFC3339Nano), message, runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return requireRow(res, runID)
}

// MarkAbandoned moves runs still flagged as running to abandoned. It is called
// at the start of a run, while the output lock is held, and returns the
// number of rows changed.
func (s *Store) MarkAbandoned(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`UPDATE runs SET status = ?, finished_at = ?, error_message = COALESCE(error_message, 'process exited before the run finished') WHERE status = ?`,
		RunAbandoned, time.Now().UTC().Format(time.RFC3339Nano), RunRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("mark abandoned runs: %w", err)
	}
	return res.RowsAffected()
}

// GetRun fetches a run with its file counts.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	if err := s.fillCounts(ctx, []*Run{run}); err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns the most recent runs first. A non-positive limit returns
// every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := s.fillCounts(ctx, runs); err != nil {
		return nil, err
	}
	return runs, nil
}

// RunFiles lists the file outcomes of a run in the order they were recorded.
func (s *Store) RunFiles(ctx context.Context, runID string) ([]FileRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, rel_path, kind, status, output_path, algorithm, native_size, cropped_to_reference, error_message, recorded_at
         FROM run_files WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list run files: %w", err)
	}
	defer rows.Close()

	var records []FileRecord
	for rows.Next() {
		var (
			rec        FileRecord
			status     string
			output     sql.NullString
			algorithm  sql.NullString
			nativeSize sql.NullFloat64
			cropped    int
			message    sql.NullString
			recorded   string
		)
		if err := rows.Scan(&rec.RunID, &rec.RelPath, &rec.Kind, &status, &output, &algorithm, &nativeSize, &cropped, &message, &recorded); err != nil {
			return nil, fmt.Errorf("scan run file: %w", err)
		}
		rec.Status = FileStatus(status)
		rec.OutputPath = output.String
		rec.Algorithm = algorithm.String
		rec.NativeSize = nativeSize.Float64
		rec.CroppedToReference = cropped != 0
		rec.Error = message.String
		rec.RecordedAt = parseTime(recorded)
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *Store) fillCounts(ctx context.Context, runs []*Run) error {
	for _, run := range runs {
		rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM run_files WHERE run_id = ? GROUP BY status`, run.ID)
		if err != nil {
			return fmt.Errorf("count run files: %w", err)
		}
		for rows.Next() {
			var status string
			var count int
			if err := rows.Scan(&status, &count); err != nil {
				rows.Close()
				return err
			}
			switch FileStatus(status) {
			case FileAligned:
				run.Aligned = count
			case FileRasterized:
				run.Rasterized = count
			case FileFailed:
				run.Failed = count
			}
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return err
		}
	}
	return nil
}
