// Package preflight provides readiness checks for the filesystem paths and
// settings rasteralign depends on.
//
// These checks run in two contexts:
//   - The pipeline calls RunAll with the run's input and output roots before
//     touching any file. If any check fails, the run stops early.
//   - The CLI "rasteralign preflight" command prints every result.
//
// Each check is gated by its config toggle -- disabled features are skipped.
package preflight
