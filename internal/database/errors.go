package database

import "errors"

var (
	// ErrDuplicateImage is returned when an experiment already holds an image
	// with identical bytes.
	ErrDuplicateImage = errors.New("image already exists in experiment")

	// ErrReferenceExists is returned when adding a second passes=0 image to an
	// experiment. An experiment has at most one reference image.
	ErrReferenceExists = errors.New("experiment already has a reference image")

	// ErrVersionConflict is returned when a result set changed between read
	// and write inside an update.
	ErrVersionConflict = errors.New("result set was modified concurrently")

	// ErrEmptyName is returned when creating an experiment without a name.
	ErrEmptyName = errors.New("experiment name must not be empty")
)
