package processing

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"scene-service/internal/domain/scene"
	apperrors "scene-service/pkg/errors"
	"scene-service/pkg/logger"
	"scene-service/pkg/validator"

	"github.com/google/uuid"
)

const (
	outputSuffix = "_ceil"

	msgImageURLRequired    = "image URL is required"
	msgImageFileMissingFmt = "image file not found on disk: %s"
	msgToolFailedFmt       = "niimath operation failed: %s"
	msgInvalidDocumentFmt  = "invalid nv_document: %s"
	msgUnknownToolError    = "unknown niimath error"
	successResultJSON      = `{"message": "niimath operation completed successfully"}`
)

// SceneStore is the persistence slice the processor needs.
type SceneStore interface {
	Update(ctx context.Context, id uuid.UUID, input scene.UpdateSceneInput) (*scene.Scene, error)
}

// PathResolver maps document image references onto the local filesystem.
type PathResolver interface {
	ResolvePath(reference string) string
	Exists(path string) bool
}

// Archiver mirrors processed outputs to long-term storage. Optional.
type Archiver interface {
	ArchiveOutputs(ctx context.Context, sceneID string, paths []string) error
}

// Processor drives a scene through its single-pass state transition:
// pending stays untouched; anything else ends completed or failed within
// the same request. The first failing image aborts the run; outputs
// already produced are kept (deliberate fail-fast, no rollback).
type Processor struct {
	scenes   SceneStore
	paths    PathResolver
	runner   Runner
	archiver Archiver
}

func NewProcessor(scenes SceneStore, paths PathResolver, runner Runner, archiver Archiver) *Processor {
	return &Processor{
		scenes:   scenes,
		paths:    paths,
		runner:   runner,
		archiver: archiver,
	}
}

// Process transforms every image referenced by the scene's document. The
// returned scene reflects the persisted terminal state. Errors carry the
// taxonomy the HTTP layer maps onto status codes; whenever an error is
// returned, the failure has already been recorded on the scene row.
func (p *Processor) Process(ctx context.Context, s *scene.Scene) (*scene.Scene, error) {
	if s.Status == scene.StatusPending {
		return s, nil
	}

	images, err := s.Images()
	if err != nil {
		msg := fmt.Sprintf(msgInvalidDocumentFmt, err)
		p.persistFailure(ctx, s.ID, msg)
		return nil, apperrors.Validation(msg)
	}

	var outputs []string
	for _, image := range images {
		if image.URL == "" {
			p.persistFailure(ctx, s.ID, msgImageURLRequired)
			return nil, apperrors.Validation(msgImageURLRequired)
		}

		inputPath := p.paths.ResolvePath(image.URL)
		if !p.paths.Exists(inputPath) {
			msg := fmt.Sprintf(msgImageFileMissingFmt, filepath.Base(inputPath))
			p.persistFailure(ctx, s.ID, msg)
			return nil, apperrors.NotFound(msg)
		}

		stdout, stderr, runErr := p.runner.Run(ctx, inputPath, OutputName(inputPath))
		if runErr != nil {
			diagnostic := logger.SanitizeDiagnostic(firstNonEmpty(stderr, stdout, runErr.Error()))
			if diagnostic == "" {
				diagnostic = msgUnknownToolError
			}
			p.persistFailure(ctx, s.ID, diagnostic)
			return nil, apperrors.ToolFailure(fmt.Sprintf(msgToolFailedFmt, diagnostic))
		}

		outputs = append(outputs, OutputName(inputPath))
	}

	completed := scene.StatusCompleted
	updated, err := p.scenes.Update(ctx, s.ID, scene.UpdateSceneInput{
		Status: &completed,
		Result: json.RawMessage(successResultJSON),
	})
	if err != nil {
		return nil, err
	}

	if p.archiver != nil && len(outputs) > 0 {
		if err := p.archiver.ArchiveOutputs(ctx, s.ID.String(), outputs); err != nil {
			log.Printf("archive of scene %s outputs failed: %v", s.ID, err)
		}
	}

	return updated, nil
}

// persistFailure records the terminal failed state. A persistence error
// here is logged and swallowed; the caller's error carries the original
// diagnostic either way.
func (p *Processor) persistFailure(ctx context.Context, id uuid.UUID, message string) {
	failed := scene.StatusFailed
	if _, err := p.scenes.Update(ctx, id, scene.UpdateSceneInput{
		Status: &failed,
		Error:  &message,
	}); err != nil {
		log.Printf("failed to persist failure for scene %s: %v", id, err)
	}
}

// OutputName derives the transformed filename: input stem plus the
// transform suffix plus the original extension, with ".nii.gz" treated as
// one compound extension.
func OutputName(inputPath string) string {
	ext := validator.Extension(filepath.Base(inputPath))
	if ext != "" {
		// Preserve the original casing of the matched suffix.
		ext = inputPath[len(inputPath)-len(ext):]
	} else {
		ext = filepath.Ext(inputPath)
	}
	return strings.TrimSuffix(inputPath, ext) + outputSuffix + ext
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
