package scene

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Status enumerates the processing lifecycle of a scene.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Valid reports whether s is one of the four known status values.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Scene pairs an opaque visualization document with its processing state.
// Invariants: Error is set iff Status is failed; Result is set only when
// Status is completed.
type Scene struct {
	ID         uuid.UUID
	NVDocument json.RawMessage
	ToolName   *string
	Status     Status
	Result     json.RawMessage
	Error      *string
	OwnerID    *uuid.UUID
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ImageOption is the subset of a document image entry the processing step
// needs. The rest of the document is carried opaquely.
type ImageOption struct {
	Name     string  `json:"name,omitempty"`
	URL      string  `json:"url"`
	Colormap string  `json:"colormap,omitempty"`
	Opacity  float64 `json:"opacity,omitempty"`
}

// Document is the parseable portion of a scene's nv_document.
type Document struct {
	Title             string        `json:"title,omitempty"`
	ImageOptionsArray []ImageOption `json:"imageOptionsArray"`
}

// Images decodes the image entries out of the scene's document. A document
// without an imageOptionsArray yields an empty slice, not an error.
func (s *Scene) Images() ([]ImageOption, error) {
	if len(s.NVDocument) == 0 {
		return nil, nil
	}

	var doc Document
	if err := json.Unmarshal(s.NVDocument, &doc); err != nil {
		return nil, err
	}
	return doc.ImageOptionsArray, nil
}

// MarkFailed forces the failure invariant: status failed, error recorded,
// result cleared.
func (s *Scene) MarkFailed(message string) {
	s.Status = StatusFailed
	s.Error = &message
	s.Result = nil
}

// MarkCompleted forces the success invariant: status completed, result
// recorded, error cleared.
func (s *Scene) MarkCompleted(result json.RawMessage) {
	s.Status = StatusCompleted
	s.Result = result
	s.Error = nil
}

// Normalize drops fields that would violate the status invariants, e.g. an
// error supplied alongside a non-failed status on create.
func (s *Scene) Normalize() {
	if s.Status != StatusFailed {
		s.Error = nil
	}
	if s.Status != StatusCompleted {
		s.Result = nil
	}
}

type CreateSceneInput struct {
	NVDocument json.RawMessage
	ToolName   *string
	Status     Status
	Result     json.RawMessage
	Error      *string
	OwnerID    *uuid.UUID
}

// UpdateSceneInput carries a partial update; nil fields are left untouched.
type UpdateSceneInput struct {
	NVDocument json.RawMessage
	ToolName   *string
	Status     *Status
	Result     json.RawMessage
	Error      *string
}

type ListScenesFilter struct {
	Status *Status
	Limit  int
	Offset int
}
