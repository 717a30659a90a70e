package models

import "errors"

var (
	// ErrNotFound covers both missing rows and rows owned by another user.
	ErrNotFound = errors.New("not found")
	// ErrConflict reports a uniqueness violation, such as a taken username.
	ErrConflict = errors.New("already exists")
	// ErrConstraint reports a row rejected by a storage constraint.
	ErrConstraint = errors.New("constraint violated")
)
