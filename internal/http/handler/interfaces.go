package handler

import (
	"context"
	"io"
	"scene-service/internal/audit"
	"scene-service/internal/domain/scene"
	"scene-service/internal/storage/local"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// SceneProcessor runs the synchronous image transformation pass.
type SceneProcessor interface {
	Process(ctx context.Context, s *scene.Scene) (*scene.Scene, error)
}

// UploadStore abstracts the on-disk upload directory.
type UploadStore interface {
	Save(src io.Reader, originalName string) (*local.StoredFile, error)
	Delete(filename string) error
	List() ([]*local.StoredFile, error)
	FileURL(filename string) string
}

// AuditLogger defines audit logging operations
type AuditLogger interface {
	LogFromContext(c echo.Context, resourceType audit.ResourceType, resourceID *uuid.UUID, action audit.Action, status audit.Status, metadata map[string]any) error
	LogError(c echo.Context, resourceType audit.ResourceType, resourceID *uuid.UUID, action audit.Action, err error) error
}
