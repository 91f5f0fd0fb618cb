package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

const (
	scanBufferInitial = 64 * 1024
	scanBufferMax     = 1024 * 1024
	followPoll        = 250 * time.Millisecond
)

// TailOptions controls a Tail call. A negative Offset reads the last Limit
// lines; otherwise reading starts at Offset. With Follow set, an empty read
// waits up to Wait for new lines.
type TailOptions struct {
	Offset int64
	Limit  int
	Follow bool
	Wait   time.Duration
}

// TailResult carries the lines read and the offset to resume from.
type TailResult struct {
	Lines  []string
	Offset int64
}

// Tail reads lines from the log at path. A missing file yields an empty
// result rather than an error since a run log appears only once the run
// starts.
func Tail(ctx context.Context, path string, opts TailOptions) (TailResult, error) {
	result := TailResult{Offset: opts.Offset}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			result.Offset = 0
			return result, nil
		}
		return result, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return result, fmt.Errorf("log path %q is a directory", path)
	}
	opts.Wait = max(opts.Wait, 0)

	if opts.Offset < 0 {
		lines, offset, err := lastLines(path, opts.Limit)
		if err != nil {
			return result, err
		}
		result = TailResult{Lines: lines, Offset: offset}
		if opts.Follow && opts.Wait > 0 && len(lines) == 0 {
			return waitForLines(ctx, path, offset, opts.Wait)
		}
		return result, nil
	}

	offset := opts.Offset
	if offset > info.Size() {
		// The file was truncated or replaced; start again from its end.
		offset = info.Size()
	}
	lines, next, err := linesFrom(path, offset)
	if err != nil {
		return result, err
	}
	if opts.Follow && opts.Wait > 0 && len(lines) == 0 {
		return waitForLines(ctx, path, next, opts.Wait)
	}
	return TailResult{Lines: lines, Offset: next}, nil
}

func newScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, scanBufferInitial), scanBufferMax)
	return scanner
}

// lastLines keeps the final limit lines in a ring while scanning the file
// once. A non-positive limit returns no lines and the end offset.
func lastLines(path string, limit int) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if limit <= 0 {
		end, err := file.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, 0, fmt.Errorf("seek log file: %w", err)
		}
		return nil, end, nil
	}

	ring := make([]string, limit)
	count, next := 0, 0
	scanner := newScanner(file)
	for scanner.Scan() {
		ring[next] = scanner.Text()
		next = (next + 1) % limit
		count = min(count+1, limit)
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("read log file: %w", err)
	}
	end, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, 0, fmt.Errorf("seek log file: %w", err)
	}

	lines := make([]string, count)
	start := 0
	if count == limit {
		start = next
	}
	for i := range count {
		lines[i] = ring[(start+i)%limit]
	}
	return lines, end, nil
}

func linesFrom(path string, offset int64) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return nil, 0, fmt.Errorf("seek log file: %w", err)
	}
	var lines []string
	scanner := newScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("read log file: %w", err)
	}
	next, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, 0, fmt.Errorf("determine log offset: %w", err)
	}
	return lines, next, nil
}

func waitForLines(ctx context.Context, path string, offset int64, wait time.Duration) (TailResult, error) {
	deadline := time.Now().Add(wait)
	ticker := time.NewTicker(followPoll)
	defer ticker.Stop()

	for {
		lines, next, err := linesFrom(path, offset)
		if err != nil {
			return TailResult{Offset: offset}, err
		}
		if len(lines) > 0 || time.Now().After(deadline) {
			return TailResult{Lines: lines, Offset: next}, nil
		}
		select {
		case <-ctx.Done():
			return TailResult{Offset: next}, ctx.Err()
		case <-ticker.C:
		}
	}
}
