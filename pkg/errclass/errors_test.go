package errclass_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/recvault/recvault/pkg/errclass"
	"github.com/stretchr/testify/assert"
)

func TestError_CodeOnly(t *testing.T) {
	assert.Equal(t, "E_ALREADY_ACTIVE", errclass.ErrAlreadyActive.Error())
}

func TestError_WithMessage(t *testing.T) {
	err := errclass.ErrNotRecording.WithMessage("no active session")
	assert.Equal(t, "E_NOT_RECORDING: no active session", err.Error())
}

func TestError_WithMessagef(t *testing.T) {
	err := errclass.ErrRecordingNotFound.WithMessagef("folder %q not found", "2026-03-01_week-02_session-001")
	assert.Contains(t, err.Error(), "E_RECORDING_NOT_FOUND")
	assert.Contains(t, err.Error(), "2026-03-01_week-02_session-001")
}

func TestError_StableCodes(t *testing.T) {
	assert.Equal(t, "E_FOLDER_NAME_INVALID", errclass.ErrNameInvalid.Error())
	assert.Equal(t, "E_PATH_ESCAPE", errclass.ErrPathEscape.Error())
	assert.Equal(t, "E_METADATA_CORRUPT", errclass.ErrMetadataCorrupt.Error())
}

func TestError_IsMatchesByCode(t *testing.T) {
	err := errclass.ErrAlreadyPaused.WithMessage("session already paused")
	assert.ErrorIs(t, err, errclass.ErrAlreadyPaused)
	assert.NotErrorIs(t, err, errclass.ErrNotPaused)
}

func TestError_IsSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("pause: %w", errclass.ErrNotRecording.WithMessage("idle"))
	assert.True(t, errors.Is(err, errclass.ErrNotRecording))
}
