package domain

import "errors"

var (
	// ErrDirtyWorkingTree is returned when a release is attempted with uncommitted state.
	ErrDirtyWorkingTree = errors.New("working directory is not clean")
	// ErrTagExists is returned when the tag of a new release is already taken.
	ErrTagExists = errors.New("tag already exists")
	// ErrAborted is returned when the operator declines to continue.
	ErrAborted = errors.New("aborted")
	// ErrReleaseInProgress is returned when another release holds the releases repository lock.
	ErrReleaseInProgress = errors.New("another release is in progress")
	// ErrInvalidVersion is returned for version strings that are not dot-separated integers.
	ErrInvalidVersion = errors.New("invalid version")
)
