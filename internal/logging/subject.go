package logging

import "strings"

// FormatSubject builds the run/file/stage subject shown in console output.
// Run identifiers are shortened to their first eight characters.
func FormatSubject(runID, file, stage string) string {
	runID = strings.TrimSpace(runID)
	file = strings.TrimSpace(file)
	stage = strings.TrimSpace(stage)
	parts := make([]string, 0, 2)
	if runID != "" {
		if len(runID) > 8 {
			runID = runID[:8]
		}
		parts = append(parts, "run "+runID)
	}
	switch {
	case file != "" && stage != "":
		parts = append(parts, file+" ("+stage+")")
	case file != "":
		parts = append(parts, file)
	case stage != "":
		parts = append(parts, stage)
	}
	return strings.Join(parts, " · ")
}
