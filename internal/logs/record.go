package logs

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Record is one decoded JSON log line.
type Record struct {
	Time      time.Time
	Level     string
	Message   string
	Component string
	RunID     string
	File      string
	Stage     string
	EventType string
	Error     string
	// Attrs holds every other key, rendered as text.
	Attrs map[string]string
}

var reservedKeys = map[string]struct{}{
	"ts": {}, "time": {}, "level": {}, "msg": {}, "source": {},
	"component": {}, "run_id": {}, "file": {}, "stage": {}, "event_type": {}, "error": {},
}

// ParseRecord decodes a JSON log line. Lines that are not JSON objects, such
// as console output, report false.
func ParseRecord(line string) (Record, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "{") {
		return Record{}, false
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return Record{}, false
	}
	rec := Record{
		Level:     strings.ToLower(text(raw["level"])),
		Message:   text(raw["msg"]),
		Component: text(raw["component"]),
		RunID:     text(raw["run_id"]),
		File:      text(raw["file"]),
		Stage:     text(raw["stage"]),
		EventType: text(raw["event_type"]),
		Error:     text(raw["error"]),
	}
	for _, key := range []string{"ts", "time"} {
		if ts, err := time.Parse(time.RFC3339Nano, text(raw[key])); err == nil {
			rec.Time = ts
			break
		}
	}
	for key, value := range raw {
		if _, ok := reservedKeys[key]; ok {
			continue
		}
		if rec.Attrs == nil {
			rec.Attrs = make(map[string]string)
		}
		rec.Attrs[key] = text(value)
	}
	return rec, true
}

func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return fmt.Sprintf("%g", t)
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(data)
	}
}

// Filter selects records. Zero fields match everything.
type Filter struct {
	MinLevel string
	Stage    string
	File     string
}

var levelRank = map[string]int{"debug": 0, "info": 1, "warn": 2, "error": 3}

// Match reports whether rec passes the filter.
func (f Filter) Match(rec Record) bool {
	if f.MinLevel != "" {
		want, ok := levelRank[strings.ToLower(f.MinLevel)]
		if ok && levelRank[rec.Level] < want {
			return false
		}
	}
	if f.Stage != "" && rec.Stage != f.Stage {
		return false
	}
	if f.File != "" && !strings.Contains(rec.File, f.File) {
		return false
	}
	return true
}

// Format renders rec as a single console line.
func (rec Record) Format() string {
	var b strings.Builder
	if !rec.Time.IsZero() {
		b.WriteString(rec.Time.Local().Format("15:04:05"))
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "%-5s ", strings.ToUpper(rec.Level))
	if rec.Stage != "" {
		fmt.Fprintf(&b, "[%s] ", rec.Stage)
	}
	if rec.File != "" {
		b.WriteString(rec.File)
		b.WriteString(": ")
	}
	b.WriteString(rec.Message)
	if rec.Error != "" {
		fmt.Fprintf(&b, " error=%q", rec.Error)
	}
	keys := make([]string, 0, len(rec.Attrs))
	for k := range rec.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%s", k, rec.Attrs[k])
	}
	return b.String()
}
