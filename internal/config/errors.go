package config

import "errors"

// Configuration validation errors returned by Config.Validate and the
// loader. Callers match them with errors.Is.
var (
	// ErrNoBackendURL is returned when the backend URL is empty.
	ErrNoBackendURL = errors.New("no backend URL: set --backend or backend.url")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidDemoDelay is returned when the demo delay is negative.
	// Use 0 for an instant demo.
	ErrInvalidDemoDelay = errors.New("invalid demo delay: must be non-negative")

	// ErrInvalidExplainWait is returned when the explain wait is negative.
	ErrInvalidExplainWait = errors.New("invalid explain wait: must be non-negative")

	// ErrInvalidRedisDB is returned when the Redis database index is negative.
	ErrInvalidRedisDB = errors.New("invalid redis db: must be non-negative")

	// ErrNoTarget is returned when diagnose is run without an image.
	ErrNoTarget = errors.New("no image specified: provide one or more image paths")

	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")

	// ErrInvalidDuration is returned when a duration in the config file
	// cannot be parsed.
	ErrInvalidDuration = errors.New("invalid duration in configuration file")
)
