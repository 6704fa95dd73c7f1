package service

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedDocument = errors.New("unsupported document type")
	ErrNoPages             = errors.New("document has no pages")
	ErrOCRFailed           = errors.New("OCR failed on every page")
)

// Stage names the step of an extraction that failed.
type Stage string

const (
	StageFetch     Stage = "fetch"
	StageRecognize Stage = "recognize"
)

// ExtractionError wraps a failure of the fetch or recognize step. Parsing
// itself never fails.
type ExtractionError struct {
	Stage Stage
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}
