package service

import "errors"

var (
	// ErrDuplicateCode is returned by the province write path when a live
	// province already holds the numeric code.
	ErrDuplicateCode = errors.New("duplicate province code")
	// ErrInvalidProvince is returned when a create command is incomplete.
	ErrInvalidProvince = errors.New("invalid province")
)
