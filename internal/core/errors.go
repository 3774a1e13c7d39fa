package core

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrInvalidFrequency   = errors.New("invalid frequency")
	ErrInvalidPriority    = errors.New("invalid priority")
	ErrInvalidThreshold   = errors.New("invalid alert threshold")
	ErrInvalidAccountType = errors.New("invalid account type")
	ErrEmptyName          = errors.New("empty name")
	ErrEmptyCategory      = errors.New("empty category")
	ErrNoAccount          = errors.New("no account specified")
	ErrDuplicate          = errors.New("already exists")
	ErrReferenced         = errors.New("still referenced by other records")
	ErrNoSession          = errors.New("no active session")
)
