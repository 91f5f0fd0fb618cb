package ledger

import (
	"database/sql"
	"fmt"
	"time"
)

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run        Run
		status     string
		startedRaw string
		finished   sql.NullString
		xmin, ymin sql.NullFloat64
		xmax, ymax sql.NullFloat64
		resolution sql.NullFloat64
		crs        sql.NullString
		message    sql.NullString
	)
	if err := scanner.Scan(
		&run.ID, &run.InputRoot, &run.OutputRoot, &status, &startedRaw, &finished,
		&xmin, &ymin, &xmax, &ymax, &resolution, &crs, &message,
	); err != nil {
		return nil, err
	}
	run.Status = RunStatus(status)
	run.StartedAt = parseTime(startedRaw)
	if finished.Valid {
		run.FinishedAt = parseTime(finished.String)
	}
	if resolution.Valid {
		run.Grid = &Grid{
			Extent:     [4]float64{xmin.Float64, ymin.Float64, xmax.Float64, ymax.Float64},
			Resolution: resolution.Float64,
			CRS:        crs.String,
		}
	}
	run.Error = message.String
	return &run, nil
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return ts
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableFloat(value float64) any {
	if value == 0 {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func requireRow(res sql.Result, runID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}
