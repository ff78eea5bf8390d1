package validator

import (
	"fmt"
	"strings"

	"scene-service/internal/domain/scene"
)

const (
	maxFileNameLen   = 255
	maxToolNameLen   = 255
	maxSceneTitleLen = 255
	asciiDelete      = 127

	errStatusInvalidFmt        = "invalid status: %s"
	errFileNameEmptyFmt        = "file name cannot be empty"
	errFileNameMaxLengthFmt    = "file name must not exceed %d characters"
	errFileNamePathSepFmt      = "file name cannot contain path separators"
	errFileNameControlCharsFmt = "file name cannot contain control characters"
	errFileNameHiddenFmt       = "file name cannot start with a dot"
	errExtensionNotAllowedFmt  = "file type not allowed: %s. Allowed types: %s"
	errToolNameMaxLengthFmt    = "tool name must not exceed %d characters"
	errSceneTitleMaxLengthFmt  = "scene title must not exceed %d characters"
)

// allowedExtensions is the medical-imaging allow-list. ".nii.gz" is a
// compound extension and is matched before the single-suffix check.
var allowedExtensions = []string{".nii.gz", ".nii", ".dcm", ".mgz", ".img", ".hdr"}

// Status rejects values outside the scene status enumeration.
func Status(value string) error {
	if !scene.Status(value).Valid() {
		return fmt.Errorf(errStatusInvalidFmt, value)
	}
	return nil
}

// FileName rejects empty, oversized, hidden, path-escaping, or
// control-character names.
func FileName(name string) error {
	if name == "" {
		return fmt.Errorf(errFileNameEmptyFmt)
	}

	if len(name) > maxFileNameLen {
		return fmt.Errorf(errFileNameMaxLengthFmt, maxFileNameLen)
	}

	if strings.ContainsAny(name, "/\\") {
		return fmt.Errorf(errFileNamePathSepFmt)
	}

	if strings.HasPrefix(name, ".") {
		return fmt.Errorf(errFileNameHiddenFmt)
	}

	for _, r := range name {
		if r < ' ' || r == asciiDelete {
			return fmt.Errorf(errFileNameControlCharsFmt)
		}
	}

	return nil
}

// FileExtension enforces the upload allow-list.
func FileExtension(name string) error {
	lower := strings.ToLower(name)
	for _, ext := range allowedExtensions {
		if strings.HasSuffix(lower, ext) {
			return nil
		}
	}
	return fmt.Errorf(errExtensionNotAllowedFmt, name, strings.Join(allowedExtensions, ", "))
}

// Extension returns the allow-listed extension of name, treating ".nii.gz"
// as a single compound suffix. Empty string when no allowed suffix matches.
func Extension(name string) string {
	lower := strings.ToLower(name)
	for _, ext := range allowedExtensions {
		if strings.HasSuffix(lower, ext) {
			return ext
		}
	}
	return ""
}

func ToolName(name string) error {
	if len(name) > maxToolNameLen {
		return fmt.Errorf(errToolNameMaxLengthFmt, maxToolNameLen)
	}
	return nil
}

func SceneTitle(title string) error {
	if len(title) > maxSceneTitleLen {
		return fmt.Errorf(errSceneTitleMaxLengthFmt, maxSceneTitleLen)
	}
	return nil
}
