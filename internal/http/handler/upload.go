package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"scene-service/internal/audit"
	"scene-service/internal/auth"
	"scene-service/internal/domain/scene"
	"scene-service/internal/repository"
	"scene-service/internal/storage/local"
	"scene-service/pkg/validator"

	"github.com/labstack/echo/v4"
)

type UploadHandler struct {
	store       UploadStore
	sceneRepo   repository.SceneRepository
	auditLogger AuditLogger
}

func NewUploadHandler(store UploadStore, sceneRepo repository.SceneRepository, auditLogger AuditLogger) *UploadHandler {
	return &UploadHandler{
		store:       store,
		sceneRepo:   sceneRepo,
		auditLogger: auditLogger,
	}
}

type UploadFilesResponse struct {
	Message string              `json:"message"`
	Files   []*local.StoredFile `json:"files"`
}

// UploadFiles handles POST /upload/files. Every filename in the batch is
// validated before any file is written, so a disallowed extension stores
// nothing. A write failure mid-batch removes only the partial file; files
// already stored for earlier entries are kept (deliberate fail-fast, no
// rollback).
func (h *UploadHandler) UploadFiles(c echo.Context) error {
	stored, err := h.saveUploads(c)
	if err != nil {
		h.auditLogger.LogError(c, audit.ResourceTypeUpload, nil, audit.ActionCreate, err)
		return err
	}

	h.auditLogger.LogFromContext(c, audit.ResourceTypeUpload, nil, audit.ActionCreate, audit.StatusSuccess,
		map[string]any{"count": len(stored)})

	return c.JSON(http.StatusOK, UploadFilesResponse{
		Message: fmt.Sprintf(msgUploadedFmt, len(stored)),
		Files:   stored,
	})
}

// SceneWithFiles handles POST /upload/scene-with-files: stores the batch,
// builds a default visualization document referencing the stored URLs and
// creates a pending scene in one call.
func (h *UploadHandler) SceneWithFiles(c echo.Context) error {
	title := c.FormValue(formSceneTitle)
	if err := validator.SceneTitle(title); err != nil {
		return respondError(c, http.StatusBadRequest, err.Error())
	}

	stored, err := h.saveUploads(c)
	if err != nil {
		h.auditLogger.LogError(c, audit.ResourceTypeUpload, nil, audit.ActionCreate, err)
		return err
	}

	if title == "" {
		title = fmt.Sprintf(msgDefaultSceneTitleFmt, len(stored))
	}

	doc := scene.Document{Title: title}
	for _, f := range stored {
		doc.ImageOptionsArray = append(doc.ImageOptionsArray, scene.ImageOption{
			Name:     f.OriginalName,
			URL:      f.URL,
			Colormap: defaultColormap,
			Opacity:  defaultOpacity,
		})
	}

	document, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	input := scene.CreateSceneInput{
		NVDocument: document,
		Status:     scene.StatusPending,
	}
	if userID, err := auth.GetUserID(c); err == nil {
		input.OwnerID = &userID
	}

	s, err := h.sceneRepo.Create(c.Request().Context(), input)
	if err != nil {
		h.auditLogger.LogError(c, audit.ResourceTypeScene, nil, audit.ActionCreate, err)
		return err
	}

	h.auditLogger.LogFromContext(c, audit.ResourceTypeScene, &s.ID, audit.ActionCreate, audit.StatusSuccess,
		map[string]any{"uploaded_files": len(stored)})

	return c.JSON(http.StatusCreated, scenePayload(s))
}

// DeleteFile handles DELETE /upload/files/:filename.
func (h *UploadHandler) DeleteFile(c echo.Context) error {
	filename := c.Param(paramFilename)

	if err := h.store.Delete(filename); err != nil {
		return err
	}

	h.auditLogger.LogFromContext(c, audit.ResourceTypeUpload, nil, audit.ActionDelete, audit.StatusSuccess,
		map[string]any{"filename": filename})

	return respondMessage(c, http.StatusOK, fmt.Sprintf(msgFileDeletedFmt, filename))
}

// ListFiles handles GET /upload/files.
func (h *UploadHandler) ListFiles(c echo.Context) error {
	files, err := h.store.List()
	if err != nil {
		return err
	}

	if files == nil {
		files = []*local.StoredFile{}
	}

	return c.JSON(http.StatusOK, map[string]any{"files": files})
}

func (h *UploadHandler) saveUploads(c echo.Context) ([]*local.StoredFile, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, msgNoFilesProvided)
	}

	uploads := form.File[formFieldFiles]
	if len(uploads) == 0 {
		return nil, echo.NewHTTPError(http.StatusBadRequest, msgNoFilesProvided)
	}

	// Whole-batch validation before the first byte hits disk.
	for _, upload := range uploads {
		if err := validator.FileName(upload.Filename); err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		if err := validator.FileExtension(upload.Filename); err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}

	var stored []*local.StoredFile
	for _, upload := range uploads {
		src, err := upload.Open()
		if err != nil {
			return nil, err
		}

		file, err := h.store.Save(src, upload.Filename)
		src.Close()
		if err != nil {
			return nil, err
		}

		stored = append(stored, file)
	}

	return stored, nil
}
