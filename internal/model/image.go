package model

import "time"

// ReferencePasses is the pass count reserved for the untouched reference image.
const ReferencePasses = 0

// ImageRef identifies a stored experiment image without its pixel data.
type ImageRef struct {
	// ID is the unique image identifier.
	ID string `json:"id"`

	// ExperimentID is the experiment the image belongs to.
	ExperimentID string `json:"experiment_id"`

	// Passes is the number of abrasion cycles applied before capture.
	Passes int `json:"passes"`
}

// IsReference reports whether the image is the experiment's baseline.
func (r ImageRef) IsReference() bool {
	return r.Passes == ReferencePasses
}

// CaptureInfo is camera metadata extracted from an image file, when present.
// All fields are optional.
type CaptureInfo struct {
	CameraMake  string    `json:"camera_make,omitempty"`
	CameraModel string    `json:"camera_model,omitempty"`
	CapturedAt  time.Time `json:"captured_at,omitzero"`
}

// IsZero reports whether no metadata was found.
func (c CaptureInfo) IsZero() bool {
	return c.CameraMake == "" && c.CameraModel == "" && c.CapturedAt.IsZero()
}
