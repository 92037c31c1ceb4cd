package model

import (
	"fmt"
	"strings"
)

// Role tells whether a signature is attested genuine or under examination.
type Role int

const (
	// RoleReference marks a signature attested as genuine.
	RoleReference Role = iota

	// RoleQuestioned marks the signature whose authenticity is assessed.
	RoleQuestioned
)

// String returns the lower-case role name.
func (r Role) String() string {
	switch r {
	case RoleReference:
		return "reference"
	case RoleQuestioned:
		return "questioned"
	default:
		return "unknown"
	}
}

// ParseRole converts a role name into a Role.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "reference", "ref":
		return RoleReference, nil
	case "questioned", "q":
		return RoleQuestioned, nil
	default:
		return 0, fmt.Errorf("unknown role %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Status is the processing state of a SignatureImage.
//
// The legal transitions are:
//
//	pending -> processing -> completed
//	                      -> failed
//
// Completed and failed are terminal. A failed image is never retried
// automatically; re-uploading produces a new image.
type Status int

const (
	// StatusPending means the image has not been processed yet.
	StatusPending Status = iota

	// StatusProcessing means calibration or extraction is running.
	StatusProcessing

	// StatusCompleted means a feature vector exists for the image.
	StatusCompleted

	// StatusFailed means an input defect stopped processing.
	StatusFailed
)

// String returns the lower-case status name.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusProcessing:
		return "processing"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	for _, candidate := range []Status{StatusPending, StatusProcessing, StatusCompleted, StatusFailed} {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", string(text))
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition reports whether moving from s to next is legal.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusProcessing
	case StatusProcessing:
		return next == StatusCompleted || next == StatusFailed
	default:
		return false
	}
}

// SignatureImage is an uploaded signature scan together with the physical
// size the user declared for it.
type SignatureImage struct {
	// ID identifies the image inside its project. When empty, the engine
	// derives one from the image content and declared size.
	ID string `json:"id"`

	// Label is a human-readable name, usually the file name.
	Label string `json:"label,omitempty"`

	// Data holds the encoded raster (PNG, JPEG, TIFF, BMP, WebP).
	Data []byte `json:"-"`

	// WidthMM and HeightMM are the declared physical dimensions of the
	// signature itself, not of the page.
	WidthMM  float64 `json:"width_mm"`
	HeightMM float64 `json:"height_mm"`

	// Role is reference or questioned.
	Role Role `json:"role"`

	// Status is the current processing state.
	Status Status `json:"status"`
}

// NewSignatureImage creates a pending SignatureImage.
func NewSignatureImage(id string, data []byte, widthMM, heightMM float64, role Role) *SignatureImage {
	return &SignatureImage{
		ID:       id,
		Data:     data,
		WidthMM:  widthMM,
		HeightMM: heightMM,
		Role:     role,
		Status:   StatusPending,
	}
}

// Transition moves the image to next, or returns ErrInvalidTransition.
func (s *SignatureImage) Transition(next Status) error {
	if !s.Status.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.Status, next)
	}
	s.Status = next
	return nil
}

// Derive returns a pending copy of the image with a new declared size.
// The copy has no ID so that a fresh one is assigned; the receiver is left
// untouched.
func (s *SignatureImage) Derive(widthMM, heightMM float64) *SignatureImage {
	return &SignatureImage{
		Label:    s.Label,
		Data:     s.Data,
		WidthMM:  widthMM,
		HeightMM: heightMM,
		Role:     s.Role,
		Status:   StatusPending,
	}
}

// Pending returns a pending copy of the image that keeps its ID, so that
// a project can be processed again without touching the caller's images.
func (s *SignatureImage) Pending() *SignatureImage {
	cp := *s
	cp.Status = StatusPending
	return &cp
}
