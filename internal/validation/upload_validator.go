package validation

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
)

// UploadValidator checks uploaded files before they reach the pipeline
type UploadValidator struct {
	logger            *slog.Logger
	maxBytes          int64
	allowedExtensions []string
}

// NewUploadValidator creates a new upload validator
func NewUploadValidator(logger *slog.Logger, maxBytes int64, allowedExtensions []string) *UploadValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &UploadValidator{
		logger:            logger,
		maxBytes:          maxBytes,
		allowedExtensions: allowedExtensions,
	}
}

// MaxBytes returns the configured upload size limit
func (v *UploadValidator) MaxBytes() int64 {
	return v.maxBytes
}

// ValidateUpload checks filename extension and declared size.
// Size 0 is allowed here; emptiness is caught by the parser, which can
// distinguish an empty file from an unparsable one.
func (v *UploadValidator) ValidateUpload(filename string, size int64) error {
	ext := strings.ToLower(filepath.Ext(filename))

	allowed := false
	for _, allowedExt := range v.allowedExtensions {
		if ext == strings.ToLower(allowedExt) {
			allowed = true
			break
		}
	}
	if !allowed {
		v.logger.Warn("upload rejected: extension not allowed",
			slog.String("filename", filename),
			slog.String("extension", ext))
		return fmt.Errorf("file %s has unsupported extension %q (allowed: %s)",
			filename, ext, strings.Join(v.allowedExtensions, ", "))
	}

	if size > v.maxBytes {
		v.logger.Warn("upload rejected: too large",
			slog.String("filename", filename),
			slog.Int64("size", size),
			slog.Int64("max_bytes", v.maxBytes))
		return fmt.Errorf("file %s is %d bytes, exceeding the %d byte limit", filename, size, v.maxBytes)
	}

	v.logger.Debug("upload validated",
		slog.String("filename", filename),
		slog.Int64("size", size))
	return nil
}
