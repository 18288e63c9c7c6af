// Package domain provides domain-specific error definitions and utilities.
package domain

import "errors"

// Job-related errors.
var (
	ErrJobNotFound          = errors.New("conversion job not found")
	ErrJobAlreadyTerminal   = errors.New("conversion job is already in a terminal state")
	ErrInvalidJobTransition = errors.New("invalid job status transition")
)

// Module-related errors.
var (
	ErrEmptySource       = errors.New("module source is empty")
	ErrSourceTooLarge    = errors.New("module source exceeds the size limit")
	ErrInvalidModulePath = errors.New("module path is invalid")
)

// General domain errors.
var (
	ErrInvalidInput = errors.New("invalid input")
)
