// Package ledger records the history of alignment runs in SQLite.
//
// Each run stores its identifier, input and output roots, the reference grid
// it computed, and one row per file with the outcome the pipeline reached.
// The ledger is an audit trail: the pipeline never reads it back to make
// decisions. Schema changes bump the version in schema.go; users delete the
// database to adopt the new schema.
package ledger
