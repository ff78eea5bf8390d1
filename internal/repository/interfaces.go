package repository

import (
	"context"
	"scene-service/internal/domain/scene"
	"scene-service/internal/domain/user"

	"github.com/google/uuid"
)

// SceneRepository defines scene persistence operations
type SceneRepository interface {
	Create(ctx context.Context, input scene.CreateSceneInput) (*scene.Scene, error)
	GetByID(ctx context.Context, id uuid.UUID) (*scene.Scene, error)
	List(ctx context.Context, filter scene.ListScenesFilter) ([]*scene.Scene, error)
	Update(ctx context.Context, id uuid.UUID, input scene.UpdateSceneInput) (*scene.Scene, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteAll(ctx context.Context) (int64, error)
}

// UserRepository defines user persistence operations
type UserRepository interface {
	UpsertByUsername(ctx context.Context, input user.UpsertUserInput) (*user.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}
