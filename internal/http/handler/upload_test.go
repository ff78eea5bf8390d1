package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"scene-service/internal/domain/scene"
	"scene-service/internal/storage/local"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUploadStore(t *testing.T) *local.Store {
	t.Helper()
	store, err := local.NewStore(t.TempDir(), "http://localhost:8080")
	require.NoError(t, err)
	return store
}

func multipartRequest(t *testing.T, target string, fields map[string]string, files map[string]string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	for name, content := range files {
		part, err := writer.CreateFormFile(formFieldFiles, name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	return req
}

func TestUploadFiles(t *testing.T) {
	store := newUploadStore(t)
	h := NewUploadHandler(store, newFakeSceneRepo(), noopAudit{})

	req := multipartRequest(t, "/api/v1/upload/files", nil, map[string]string{
		"brain.nii.gz": "volume a",
		"scan.dcm":     "volume b",
	})
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)

	require.NoError(t, h.UploadFiles(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp UploadFilesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Successfully uploaded 2 files", resp.Message)
	require.Len(t, resp.Files, 2)

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestUploadFiles_NoFiles(t *testing.T) {
	h := NewUploadHandler(newUploadStore(t), newFakeSceneRepo(), noopAudit{})

	req := multipartRequest(t, "/api/v1/upload/files", nil, nil)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)

	err := h.UploadFiles(c)
	require.Error(t, err)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestUploadFiles_BadExtensionStoresNothing(t *testing.T) {
	store := newUploadStore(t)
	h := NewUploadHandler(store, newFakeSceneRepo(), noopAudit{})

	// The disallowed file comes last; upfront batch validation must stop
	// the valid one from being written too.
	req := multipartRequest(t, "/api/v1/upload/files", nil, map[string]string{
		"brain.nii.gz": "volume",
		"notes.txt":    "text",
	})
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)

	err := h.UploadFiles(c)
	require.Error(t, err)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)

	entries, readErr := os.ReadDir(store.Dir())
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}

func TestSceneWithFiles(t *testing.T) {
	store := newUploadStore(t)
	repo := newFakeSceneRepo()
	h := NewUploadHandler(store, repo, noopAudit{})

	req := multipartRequest(t, "/api/v1/upload/scene-with-files",
		map[string]string{formSceneTitle: "T1 Session"},
		map[string]string{"brain.nii.gz": "volume"})
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)

	require.NoError(t, h.SceneWithFiles(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	require.Len(t, repo.creates, 1)
	assert.Equal(t, scene.StatusPending, repo.creates[0].Status)

	var doc scene.Document
	require.NoError(t, json.Unmarshal(repo.creates[0].NVDocument, &doc))
	assert.Equal(t, "T1 Session", doc.Title)
	require.Len(t, doc.ImageOptionsArray, 1)
	assert.Equal(t, "brain.nii.gz", doc.ImageOptionsArray[0].Name)
	assert.Equal(t, defaultColormap, doc.ImageOptionsArray[0].Colormap)
	assert.EqualValues(t, defaultOpacity, doc.ImageOptionsArray[0].Opacity)
	assert.Contains(t, doc.ImageOptionsArray[0].URL, "/static/uploads/")
}

func TestSceneWithFiles_DefaultTitle(t *testing.T) {
	repo := newFakeSceneRepo()
	h := NewUploadHandler(newUploadStore(t), repo, noopAudit{})

	req := multipartRequest(t, "/api/v1/upload/scene-with-files", nil, map[string]string{
		"a.nii": "x",
		"b.nii": "y",
	})
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)

	require.NoError(t, h.SceneWithFiles(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var doc scene.Document
	require.NoError(t, json.Unmarshal(repo.creates[0].NVDocument, &doc))
	assert.Equal(t, "Uploaded Scene - 2 files", doc.Title)
}

func TestDeleteFile(t *testing.T) {
	store := newUploadStore(t)
	h := NewUploadHandler(store, newFakeSceneRepo(), noopAudit{})

	file, err := store.Save(bytes.NewReader([]byte("x")), "scan.nii")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/upload/files/"+file.Filename, nil)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	c.SetParamNames(paramFilename)
	c.SetParamValues(file.Filename)

	require.NoError(t, h.DeleteFile(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	files, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestListFiles(t *testing.T) {
	store := newUploadStore(t)
	h := NewUploadHandler(store, newFakeSceneRepo(), noopAudit{})

	_, err := store.Save(bytes.NewReader([]byte("x")), "scan.nii")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/upload/files", nil)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)

	require.NoError(t, h.ListFiles(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Files []*local.StoredFile `json:"files"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Files, 1)
}
