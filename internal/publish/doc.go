// Package publish copies the aligned output tree of a run to its final
// destination.
//
// Two drivers exist: "s3" uploads to an S3-compatible bucket with
// aws-sdk-go-v2 and "dir" copies into a local directory. Both carry every
// primary's sidecar companions (.prj and friends) along with it.
package publish
