package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrEmptyPrompt     = errors.New("empty prompt")
	ErrGenerationBusy  = errors.New("generation already in flight")
	ErrEditorClosed    = errors.New("editor is not open")
	ErrNoInputImage    = errors.New("no input image attached")
	ErrInvalidImage    = errors.New("invalid image data")
	ErrProviderFailure = errors.New("provider failure")
	ErrHistoryDisabled = errors.New("history storage is not configured")
)
