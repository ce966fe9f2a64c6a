package scheduler

import "errors"

var (
	// ErrJobNotFound is returned when running a job that was never registered
	ErrJobNotFound = errors.New("job not found")

	// ErrDuplicateJob is returned when registering a second job with the same name
	ErrDuplicateJob = errors.New("job already registered")

	// ErrInvalidSchedule is returned for a cron expression that does not parse
	ErrInvalidSchedule = errors.New("invalid cron schedule")
)
