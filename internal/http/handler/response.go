package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"scene-service/internal/domain/scene"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func respondError(c echo.Context, status int, message string) error {
	return c.JSON(status, map[string]string{jsonKeyError: message})
}

func respondMessage(c echo.Context, status int, message string) error {
	return c.JSON(status, map[string]string{jsonKeyMessage: message})
}

func handleHTTPError(c echo.Context, err error) error {
	if he, ok := err.(*echo.HTTPError); ok {
		msg, _ := he.Message.(string)
		if msg == "" {
			msg = http.StatusText(he.Code)
		}
		return respondError(c, he.Code, msg)
	}

	return respondError(c, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}

// ScenePayload is the public representation of a scene record.
type ScenePayload struct {
	ID         uuid.UUID       `json:"id"`
	NVDocument json.RawMessage `json:"nv_document"`
	ToolName   *string         `json:"tool_name,omitempty"`
	Status     scene.Status    `json:"status"`
	Result     json.RawMessage `json:"result,omitempty"`
	Error      *string         `json:"error,omitempty"`
	OwnerID    *uuid.UUID      `json:"owner_id,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// ScenesPayload is the list envelope: records plus their count.
type ScenesPayload struct {
	Data  []*ScenePayload `json:"data"`
	Count int             `json:"count"`
}

func scenePayload(s *scene.Scene) *ScenePayload {
	return &ScenePayload{
		ID:         s.ID,
		NVDocument: s.NVDocument,
		ToolName:   s.ToolName,
		Status:     s.Status,
		Result:     s.Result,
		Error:      s.Error,
		OwnerID:    s.OwnerID,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
}

func scenesPayload(scenes []*scene.Scene) *ScenesPayload {
	payload := &ScenesPayload{
		Data:  make([]*ScenePayload, 0, len(scenes)),
		Count: len(scenes),
	}
	for _, s := range scenes {
		payload.Data = append(payload.Data, scenePayload(s))
	}
	return payload
}
