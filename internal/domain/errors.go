package domain

import "errors"

var (
	ErrNoUsersFound           = errors.New("no users found")
	ErrFetchInProgress        = errors.New("fetch already in progress")
	ErrSchedulerTornDown      = errors.New("scheduler torn down")
	ErrTemporarilyUnavailable = errors.New("temporarily unavailable")
)
