package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Directories and stores return
// these (optionally wrapped) so services can translate them into coded
// domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: record does not exist in the directory
// - ErrInvalidState: record in wrong state for the requested operation
// - ErrUnavailable: directory or cache temporarily unavailable
//
// For validation failures (bad input, rule rejections), use
// pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
