package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrLockContention = errors.New("lock contention")
	ErrConfiguration  = errors.New("configuration error")
	ErrAcquisition    = errors.New("acquisition error")
	ErrTranscription  = errors.New("transcription error")
	ErrOffload        = errors.New("offload error")
	ErrValidation     = errors.New("validation error")
	ErrTransient      = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Fatal reports whether an error must abort the whole run rather than being
// recorded against a single video. Lock contention and configuration problems
// are fatal; everything else stays scoped to the video that produced it.
func Fatal(err error) bool {
	return errors.Is(err, ErrLockContention) || errors.Is(err, ErrConfiguration)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
