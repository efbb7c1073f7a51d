package entity

import "errors"

// Domain errors shared by the sync, stats and session use cases.
var (
	ErrNotFound         = errors.New("record not found")
	ErrUnauthorized     = errors.New("remote rejected credentials")
	ErrNoToken          = errors.New("no auth token configured")
	ErrOffline          = errors.New("remote is unreachable")
	ErrStorage          = errors.New("local storage failure")
	ErrInvalidGame      = errors.New("invalid game identifier")
	ErrInvalidScore     = errors.New("invalid encounter score")
	ErrInvalidSubjectID = errors.New("invalid subject ID")
	ErrWorkerClosed     = errors.New("background worker closed")
	ErrAlreadyStarted   = errors.New("assignment already started")
)
