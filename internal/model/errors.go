package model

import (
	"errors"
	"fmt"
)

// Analysis errors shared by the engine and its collaborators.
// Callers match them with errors.Is; structured variants below carry the
// offending ids.
var (
	// ErrImageNotFound is returned for an unknown image id.
	ErrImageNotFound = errors.New("image not found")

	// ErrExperimentNotFound is returned for an unknown experiment id.
	ErrExperimentNotFound = errors.New("experiment not found")

	// ErrInvalidRegion is returned when a region has no area or does not fit
	// inside the image it is applied to.
	ErrInvalidRegion = errors.New("invalid region")

	// ErrDecode is returned when image bytes are corrupt or in an unsupported format.
	ErrDecode = errors.New("cannot decode image")

	// ErrMissingReferenceImage is returned when an experiment has no image with
	// zero passes to compare against.
	ErrMissingReferenceImage = errors.New("experiment has no reference image (passes = 0)")

	// ErrAmbiguousReference is returned when more than one image of an
	// experiment has zero passes.
	ErrAmbiguousReference = errors.New("experiment has more than one reference image (passes = 0)")

	// ErrRecomputeAborted is returned when a full recompute stops on a failing
	// image. The stored results are left untouched.
	ErrRecomputeAborted = errors.New("recompute aborted")
)

// DecodeError reports an image whose bytes could not be turned into pixels.
type DecodeError struct {
	ImageID string
	Err     error
}

func (e *DecodeError) Error() string {
	if e.ImageID == "" {
		return fmt.Sprintf("%v: %v", ErrDecode, e.Err)
	}
	return fmt.Sprintf("%v %s: %v", ErrDecode, e.ImageID, e.Err)
}

// Unwrap returns the underlying decoder error.
func (e *DecodeError) Unwrap() error { return e.Err }

// Is matches ErrDecode.
func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// RecomputeAbortedError wraps the first per-image failure of a full recompute.
type RecomputeAbortedError struct {
	ExperimentID string
	ImageID      string
	Err          error
}

func (e *RecomputeAbortedError) Error() string {
	if e.ImageID == "" {
		return fmt.Sprintf("recompute of experiment %s aborted: %v", e.ExperimentID, e.Err)
	}
	return fmt.Sprintf("recompute of experiment %s aborted at image %s: %v", e.ExperimentID, e.ImageID, e.Err)
}

// Unwrap returns the failure that stopped the recompute.
func (e *RecomputeAbortedError) Unwrap() error { return e.Err }

// Is matches ErrRecomputeAborted.
func (e *RecomputeAbortedError) Is(target error) bool { return target == ErrRecomputeAborted }
