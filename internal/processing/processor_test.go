package processing

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"scene-service/internal/domain/scene"
	"scene-service/internal/storage/local"
	apperrors "scene-service/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSceneStore struct {
	updates []scene.UpdateSceneInput
	scene   scene.Scene
}

func (f *fakeSceneStore) Update(ctx context.Context, id uuid.UUID, input scene.UpdateSceneInput) (*scene.Scene, error) {
	f.updates = append(f.updates, input)
	if input.Status != nil {
		f.scene.Status = *input.Status
	}
	f.scene.Result = input.Result
	f.scene.Error = input.Error
	copied := f.scene
	return &copied, nil
}

// fakeRunner records invocations and fails once the configured call count
// is reached.
type fakeRunner struct {
	calls        [][2]string
	failAt       int // 1-based call index that fails; 0 means never
	stderr       string
	writeOutputs bool
}

func (f *fakeRunner) Run(ctx context.Context, inputPath, outputPath string) (string, string, error) {
	f.calls = append(f.calls, [2]string{inputPath, outputPath})
	if f.failAt > 0 && len(f.calls) >= f.failAt {
		return "", f.stderr, errors.New("exit status 1")
	}
	if f.writeOutputs {
		if err := os.WriteFile(outputPath, []byte("out"), 0o644); err != nil {
			return "", "", err
		}
	}
	return "", "", nil
}

func newTestStore(t *testing.T) *local.Store {
	t.Helper()
	store, err := local.NewStore(t.TempDir(), "http://localhost:8080")
	require.NoError(t, err)
	return store
}

func writeVolume(t *testing.T, store *local.Store, name string) string {
	t.Helper()
	path := filepath.Join(store.Dir(), name)
	require.NoError(t, os.WriteFile(path, []byte("volume"), 0o644))
	return path
}

func sceneWithImages(status scene.Status, urls ...string) *scene.Scene {
	doc := scene.Document{}
	for _, u := range urls {
		doc.ImageOptionsArray = append(doc.ImageOptionsArray, scene.ImageOption{URL: u})
	}
	raw, _ := json.Marshal(doc)
	return &scene.Scene{
		ID:         uuid.New(),
		NVDocument: raw,
		Status:     status,
	}
}

func TestProcess_PendingIsUntouched(t *testing.T) {
	store := newTestStore(t)
	scenes := &fakeSceneStore{}
	runner := &fakeRunner{}
	p := NewProcessor(scenes, store, runner, nil)

	s := sceneWithImages(scene.StatusPending, "http://localhost:8080/static/uploads/a.nii.gz")

	got, err := p.Process(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, s, got)
	assert.Empty(t, runner.calls)
	assert.Empty(t, scenes.updates)
}

func TestProcess_AllImagesSucceed(t *testing.T) {
	store := newTestStore(t)
	writeVolume(t, store, "a.nii.gz")
	writeVolume(t, store, "b.nii")

	scenes := &fakeSceneStore{}
	runner := &fakeRunner{writeOutputs: true}
	p := NewProcessor(scenes, store, runner, nil)

	s := sceneWithImages(scene.StatusProcessing,
		store.FileURL("a.nii.gz"),
		store.FileURL("b.nii"),
	)

	got, err := p.Process(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, scene.StatusCompleted, got.Status)
	assert.JSONEq(t, successResultJSON, string(got.Result))
	assert.Nil(t, got.Error)

	require.Len(t, runner.calls, 2)
	assert.Equal(t, filepath.Join(store.Dir(), "a.nii.gz"), runner.calls[0][0])
	assert.Equal(t, filepath.Join(store.Dir(), "a_ceil.nii.gz"), runner.calls[0][1])
	assert.Equal(t, filepath.Join(store.Dir(), "b_ceil.nii"), runner.calls[1][1])
}

func TestProcess_SecondImageFails(t *testing.T) {
	store := newTestStore(t)
	writeVolume(t, store, "a.nii.gz")
	writeVolume(t, store, "b.nii.gz")

	scenes := &fakeSceneStore{}
	runner := &fakeRunner{writeOutputs: true, failAt: 2, stderr: "niimath: bad header"}
	p := NewProcessor(scenes, store, runner, nil)

	s := sceneWithImages(scene.StatusProcessing,
		store.FileURL("a.nii.gz"),
		store.FileURL("b.nii.gz"),
	)

	_, err := p.Process(context.Background(), s)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrToolFailure)
	assert.Contains(t, err.Error(), "bad header")

	// The failure is recorded on the scene, and the first image's output
	// is kept on disk.
	require.Len(t, scenes.updates, 1)
	require.NotNil(t, scenes.updates[0].Status)
	assert.Equal(t, scene.StatusFailed, *scenes.updates[0].Status)
	require.NotNil(t, scenes.updates[0].Error)
	assert.Contains(t, *scenes.updates[0].Error, "bad header")
	assert.True(t, store.Exists(filepath.Join(store.Dir(), "a_ceil.nii.gz")))
}

func TestProcess_MissingImageURL(t *testing.T) {
	store := newTestStore(t)
	scenes := &fakeSceneStore{}
	runner := &fakeRunner{}
	p := NewProcessor(scenes, store, runner, nil)

	s := sceneWithImages(scene.StatusProcessing, "")

	_, err := p.Process(context.Background(), s)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Empty(t, runner.calls)

	require.Len(t, scenes.updates, 1)
	assert.Equal(t, scene.StatusFailed, *scenes.updates[0].Status)
}

func TestProcess_ImageFileMissing(t *testing.T) {
	store := newTestStore(t)
	scenes := &fakeSceneStore{}
	runner := &fakeRunner{}
	p := NewProcessor(scenes, store, runner, nil)

	s := sceneWithImages(scene.StatusProcessing, store.FileURL("ghost.nii.gz"))

	_, err := p.Process(context.Background(), s)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Empty(t, runner.calls)
}

func TestProcess_MalformedDocument(t *testing.T) {
	store := newTestStore(t)
	scenes := &fakeSceneStore{}
	p := NewProcessor(scenes, store, &fakeRunner{}, nil)

	s := &scene.Scene{
		ID:         uuid.New(),
		NVDocument: json.RawMessage(`{"imageOptionsArray": "not an array"}`),
		Status:     scene.StatusProcessing,
	}

	_, err := p.Process(context.Background(), s)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	require.Len(t, scenes.updates, 1)
	assert.Equal(t, scene.StatusFailed, *scenes.updates[0].Status)
}

func TestProcess_NoImagesCompletes(t *testing.T) {
	store := newTestStore(t)
	scenes := &fakeSceneStore{}
	runner := &fakeRunner{}
	p := NewProcessor(scenes, store, runner, nil)

	s := sceneWithImages(scene.StatusProcessing)

	got, err := p.Process(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, scene.StatusCompleted, got.Status)
	assert.Empty(t, runner.calls)
}

func TestOutputName(t *testing.T) {
	assert.Equal(t, "/data/brain_ceil.nii.gz", OutputName("/data/brain.nii.gz"))
	assert.Equal(t, "/data/brain_ceil.nii", OutputName("/data/brain.nii"))
	assert.Equal(t, "/data/BRAIN_ceil.NII.GZ", OutputName("/data/BRAIN.NII.GZ"))
	assert.Equal(t, "/data/scan_ceil.dcm", OutputName("/data/scan.dcm"))
}
