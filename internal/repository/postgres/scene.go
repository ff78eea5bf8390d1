package postgres

import (
	"context"
	"fmt"
	"scene-service/internal/domain/scene"
	apperrors "scene-service/pkg/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type SceneRepository struct {
	db *DB
}

func NewSceneRepository(db *DB) *SceneRepository {
	return &SceneRepository{db: db}
}

const sceneColumns = "id, nv_document, tool_name, status, result, error, owner_id, created_at, updated_at"

func (r *SceneRepository) Create(ctx context.Context, input scene.CreateSceneInput) (*scene.Scene, error) {
	query := `
		INSERT INTO scenes (nv_document, tool_name, status, result, error, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + sceneColumns

	s := &scene.Scene{}
	err := r.db.Pool.QueryRow(ctx, query,
		input.NVDocument, input.ToolName, input.Status, input.Result, input.Error, input.OwnerID,
	).Scan(
		&s.ID, &s.NVDocument, &s.ToolName, &s.Status, &s.Result, &s.Error, &s.OwnerID, &s.CreatedAt, &s.UpdatedAt,
	)

	if err != nil {
		return nil, errFailedCreateScene(err)
	}

	return s, nil
}

func (r *SceneRepository) GetByID(ctx context.Context, id uuid.UUID) (*scene.Scene, error) {
	query := `SELECT ` + sceneColumns + ` FROM scenes WHERE id = $1`

	s := &scene.Scene{}
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.NVDocument, &s.ToolName, &s.Status, &s.Result, &s.Error, &s.OwnerID, &s.CreatedAt, &s.UpdatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NotFound(errSceneNotFound)
		}
		return nil, errFailedGetScene(err)
	}

	return s, nil
}

func (r *SceneRepository) List(ctx context.Context, filter scene.ListScenesFilter) ([]*scene.Scene, error) {
	query := `SELECT ` + sceneColumns + ` FROM scenes`
	args := []interface{}{}

	if filter.Status != nil {
		query += " WHERE status = $1"
		args = append(args, *filter.Status)
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errFailedListScenes(err)
	}
	defer rows.Close()

	var scenes []*scene.Scene
	for rows.Next() {
		s := &scene.Scene{}
		if err := rows.Scan(&s.ID, &s.NVDocument, &s.ToolName, &s.Status, &s.Result, &s.Error, &s.OwnerID, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, errFailedScanScene(err)
		}
		scenes = append(scenes, s)
	}

	if err := rows.Err(); err != nil {
		return nil, errIterateScenes(err)
	}

	return scenes, nil
}

// Update applies a partial update; nil input fields leave the stored column
// untouched. Result and Error are always written so status transitions can
// clear them.
func (r *SceneRepository) Update(ctx context.Context, id uuid.UUID, input scene.UpdateSceneInput) (*scene.Scene, error) {
	query := `
		UPDATE scenes SET
			nv_document = COALESCE($2, nv_document),
			tool_name   = COALESCE($3, tool_name),
			status      = COALESCE($4, status),
			result      = $5,
			error       = $6,
			updated_at  = now()
		WHERE id = $1
		RETURNING ` + sceneColumns

	s := &scene.Scene{}
	err := r.db.Pool.QueryRow(ctx, query,
		id, input.NVDocument, input.ToolName, input.Status, input.Result, input.Error,
	).Scan(
		&s.ID, &s.NVDocument, &s.ToolName, &s.Status, &s.Result, &s.Error, &s.OwnerID, &s.CreatedAt, &s.UpdatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NotFound(errSceneNotFound)
		}
		return nil, errFailedUpdateScene(err)
	}

	return s, nil
}

func (r *SceneRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM scenes WHERE id = $1`, id)
	if err != nil {
		return errFailedDeleteScene(err)
	}

	if tag.RowsAffected() == 0 {
		return apperrors.NotFound(errSceneNotFound)
	}

	return nil
}

func (r *SceneRepository) DeleteAll(ctx context.Context) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM scenes`)
	if err != nil {
		return 0, errFailedDeleteScenes(err)
	}

	return tag.RowsAffected(), nil
}
