package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"scene-service/internal/audit"
	"scene-service/internal/auth"
	"scene-service/internal/domain/scene"
	"scene-service/internal/repository"
	"scene-service/pkg/validator"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type SceneHandler struct {
	sceneRepo   repository.SceneRepository
	processor   SceneProcessor
	auditLogger AuditLogger
	pageSize    int
}

func NewSceneHandler(sceneRepo repository.SceneRepository, processor SceneProcessor, auditLogger AuditLogger, pageSize int) *SceneHandler {
	return &SceneHandler{
		sceneRepo:   sceneRepo,
		processor:   processor,
		auditLogger: auditLogger,
		pageSize:    pageSize,
	}
}

type CreateSceneRequest struct {
	NVDocument json.RawMessage `json:"nv_document"`
	ToolName   *string         `json:"tool_name"`
	Status     string          `json:"status"`
	Result     json.RawMessage `json:"result"`
	Error      *string         `json:"error"`
}

type UpdateSceneRequest struct {
	NVDocument json.RawMessage `json:"nv_document"`
	ToolName   *string         `json:"tool_name"`
	Status     *string         `json:"status"`
	Result     json.RawMessage `json:"result"`
	Error      *string         `json:"error"`
}

// ListScenes handles GET /scenes with optional status filtering and
// skip/limit pagination, newest first.
func (h *SceneHandler) ListScenes(c echo.Context) error {
	filter := scene.ListScenesFilter{
		Limit:  h.pageSize,
		Offset: 0,
	}

	if raw := c.QueryParam(queryStatus); raw != "" {
		if err := validator.Status(raw); err != nil {
			return respondError(c, http.StatusBadRequest, err.Error())
		}
		status := scene.Status(raw)
		filter.Status = &status
	}

	if raw := c.QueryParam(querySkip); raw != "" {
		if skip, err := strconv.Atoi(raw); err == nil && skip >= 0 {
			filter.Offset = skip
		}
	}

	if raw := c.QueryParam(queryLimit); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 && limit <= h.pageSize {
			filter.Limit = limit
		}
	}

	scenes, err := h.sceneRepo.List(c.Request().Context(), filter)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, scenesPayload(scenes))
}

// GetScene handles GET /scenes/:id.
func (h *SceneHandler) GetScene(c echo.Context) error {
	id, err := uuid.Parse(c.Param(paramID))
	if err != nil {
		return respondError(c, http.StatusBadRequest, msgInvalidSceneID)
	}

	s, err := h.sceneRepo.GetByID(c.Request().Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, scenePayload(s))
}

// CreateScene handles POST /scenes. The scene is persisted as supplied;
// creation never triggers processing.
func (h *SceneHandler) CreateScene(c echo.Context) error {
	var req CreateSceneRequest
	if err := bindStrictJSON(c, &req); err != nil {
		return handleHTTPError(c, err)
	}

	if req.Status == "" {
		req.Status = string(scene.StatusPending)
	}
	if err := validator.Status(req.Status); err != nil {
		return respondError(c, http.StatusBadRequest, err.Error())
	}
	if req.ToolName != nil {
		if err := validator.ToolName(*req.ToolName); err != nil {
			return respondError(c, http.StatusBadRequest, err.Error())
		}
	}

	input := scene.CreateSceneInput{
		NVDocument: req.NVDocument,
		ToolName:   req.ToolName,
		Status:     scene.Status(req.Status),
		Result:     req.Result,
		Error:      req.Error,
	}

	// Enforce the status invariants regardless of what the client sent.
	normalized := scene.Scene{Status: input.Status, Result: input.Result, Error: input.Error}
	normalized.Normalize()
	input.Result = normalized.Result
	input.Error = normalized.Error

	if input.Status == scene.StatusFailed && input.Error == nil {
		return respondError(c, http.StatusBadRequest, msgFailedRequiresError)
	}

	if userID, err := auth.GetUserID(c); err == nil {
		input.OwnerID = &userID
	}

	s, err := h.sceneRepo.Create(c.Request().Context(), input)
	if err != nil {
		h.auditLogger.LogError(c, audit.ResourceTypeScene, nil, audit.ActionCreate, err)
		return err
	}

	h.auditLogger.LogFromContext(c, audit.ResourceTypeScene, &s.ID, audit.ActionCreate, audit.StatusSuccess, nil)

	return c.JSON(http.StatusCreated, scenePayload(s))
}

// UpdateScene handles PUT /scenes/:id. The partial body is merged onto
// the stored record; processing is triggered when the resulting status is
// anything other than pending.
func (h *SceneHandler) UpdateScene(c echo.Context) error {
	id, err := uuid.Parse(c.Param(paramID))
	if err != nil {
		return respondError(c, http.StatusBadRequest, msgInvalidSceneID)
	}

	existing, err := h.sceneRepo.GetByID(c.Request().Context(), id)
	if err != nil {
		return err
	}

	var req UpdateSceneRequest
	if err := bindStrictJSON(c, &req); err != nil {
		return handleHTTPError(c, err)
	}

	if req.Status != nil {
		if err := validator.Status(*req.Status); err != nil {
			return respondError(c, http.StatusBadRequest, err.Error())
		}
	}
	if req.ToolName != nil {
		if err := validator.ToolName(*req.ToolName); err != nil {
			return respondError(c, http.StatusBadRequest, err.Error())
		}
	}

	targetStatus := existing.Status
	if req.Status != nil {
		targetStatus = scene.Status(*req.Status)
	}

	input := scene.UpdateSceneInput{
		NVDocument: req.NVDocument,
		ToolName:   req.ToolName,
	}
	if req.Status != nil {
		status := scene.Status(*req.Status)
		input.Status = &status
	}
	// Result and error follow the status invariants, not the raw body.
	// Fields the body omits are carried forward from the stored record, so
	// an unrelated partial update cannot strip a failed scene's error or a
	// completed scene's result.
	switch targetStatus {
	case scene.StatusCompleted:
		input.Result = req.Result
		if input.Result == nil {
			input.Result = existing.Result
		}
	case scene.StatusFailed:
		input.Error = req.Error
		if input.Error == nil {
			input.Error = existing.Error
		}
		if input.Error == nil {
			return respondError(c, http.StatusBadRequest, msgFailedRequiresError)
		}
	}

	updated, err := h.sceneRepo.Update(c.Request().Context(), id, input)
	if err != nil {
		h.auditLogger.LogError(c, audit.ResourceTypeScene, &id, audit.ActionUpdate, err)
		return err
	}

	if updated.Status != scene.StatusPending {
		processed, err := h.processor.Process(c.Request().Context(), updated)
		if err != nil {
			h.auditLogger.LogError(c, audit.ResourceTypeScene, &id, audit.ActionProcess, err)
			return err
		}
		h.auditLogger.LogFromContext(c, audit.ResourceTypeScene, &id, audit.ActionProcess, audit.StatusSuccess, nil)
		return c.JSON(http.StatusOK, scenePayload(processed))
	}

	h.auditLogger.LogFromContext(c, audit.ResourceTypeScene, &id, audit.ActionUpdate, audit.StatusSuccess, nil)

	return c.JSON(http.StatusOK, scenePayload(updated))
}

// DeleteScene handles DELETE /scenes/:id.
func (h *SceneHandler) DeleteScene(c echo.Context) error {
	id, err := uuid.Parse(c.Param(paramID))
	if err != nil {
		return respondError(c, http.StatusBadRequest, msgInvalidSceneID)
	}

	if err := h.sceneRepo.Delete(c.Request().Context(), id); err != nil {
		return err
	}

	h.auditLogger.LogFromContext(c, audit.ResourceTypeScene, &id, audit.ActionDelete, audit.StatusSuccess, nil)

	return respondMessage(c, http.StatusOK, msgSceneDeleted)
}

// DeleteAllScenes handles DELETE /scenes.
func (h *SceneHandler) DeleteAllScenes(c echo.Context) error {
	count, err := h.sceneRepo.DeleteAll(c.Request().Context())
	if err != nil {
		return err
	}

	h.auditLogger.LogFromContext(c, audit.ResourceTypeScene, nil, audit.ActionDelete, audit.StatusSuccess, map[string]any{"count": count})

	return c.JSON(http.StatusOK, map[string]any{
		jsonKeyMessage: fmt.Sprintf("Deleted %d scenes", count),
		"count":        count,
	})
}
