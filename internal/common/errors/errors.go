// Package errors provides the standardized error taxonomy for project
// generation runs.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeUnknownFeature   ErrorCode = "UNKNOWN_FEATURE"
	ErrCodeDuplicateModel   ErrorCode = "DUPLICATE_MODEL"
	ErrCodeTreeWalkFailed   ErrorCode = "TREE_WALK_FAILED"
	ErrCodeCatalogQuery     ErrorCode = "CATALOG_QUERY_FAILED"
	ErrCodeTemplateNotFound ErrorCode = "TEMPLATE_NOT_FOUND"
	ErrCodeConfigInvalid    ErrorCode = "CONFIG_ARTIFACT_INVALID"
	ErrCodeRunInProgress    ErrorCode = "RUN_IN_PROGRESS"
	ErrCodeJobStoreFailed   ErrorCode = "JOB_STORE_FAILED"
)

// StandardError represents a structured generation error. Retryable
// distinguishes infrastructure faults (retry the run) from authoring
// faults (fix the catalog or feature definition first).
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Engine Error Types
// ==========================

// UnknownFeatureError reports slugs that were requested, template-provided
// or transitively required but do not exist in the catalog. Fatal to the
// generation run.
type UnknownFeatureError struct {
	Slugs []string
}

func (e *UnknownFeatureError) Error() string {
	return fmt.Sprintf("unknown feature(s): %s", strings.Join(e.Slugs, ", "))
}

// DuplicateModelError reports two schema fragments (or the base schema
// and a fragment) declaring the same model or enum name. Merging
// silently would corrupt the generated data model, so this is fatal.
type DuplicateModelError struct {
	Model        string
	FirstSource  string
	SecondSource string
}

func (e *DuplicateModelError) Error() string {
	return fmt.Sprintf("duplicate model %q declared by %s and %s",
		e.Model, e.FirstSource, e.SecondSource)
}

// TreeWalkError wraps an I/O failure while walking the base tree or a
// feature payload. Recoverable only by retrying the run; never skipped,
// since a partial tree produces a broken project.
type TreeWalkError struct {
	Path string
	Err  error
}

func (e *TreeWalkError) Error() string {
	return fmt.Sprintf("tree walk failed at %s: %v", e.Path, e.Err)
}

func (e *TreeWalkError) Unwrap() error { return e.Err }

// ==========================
// 3. Error Constructors
// ==========================

// NewUnknownFeatureError creates a non-retryable resolution error.
func NewUnknownFeatureError(slugs []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnknownFeature,
		Message:   "Requested or required feature not found in catalog",
		Details:   strings.Join(slugs, ", "),
		Retryable: false,
		Metadata:  map[string]interface{}{"slugs": slugs},
		Timestamp: time.Now().UTC(),
	}
}

// NewDuplicateModelError creates a non-retryable schema merge error.
func NewDuplicateModelError(model, firstSource, secondSource string) *StandardError {
	return &StandardError{
		Code:    ErrCodeDuplicateModel,
		Message: "Schema fragments declare the same model name",
		Details: fmt.Sprintf("model: %s, sources: %s, %s", model, firstSource, secondSource),
		Metadata: map[string]interface{}{
			"model":   model,
			"sources": []string{firstSource, secondSource},
		},
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTreeWalkFailedError creates a retryable file assembly error.
func NewTreeWalkFailedError(path string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTreeWalkFailed,
		Message:   "I/O error while assembling project tree",
		Details:   fmt.Sprintf("path: %s, error: %s", path, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCatalogQueryFailedError creates a retryable catalog lookup error.
func NewCatalogQueryFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCatalogQuery,
		Message:   "Catalog query error during resolution",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewTemplateNotFoundError creates a non-retryable template lookup error.
func NewTemplateNotFoundError(slug string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTemplateNotFound,
		Message:   "Template not found in registry",
		Details:   fmt.Sprintf("template: %s", slug),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewConfigInvalidError creates a non-retryable artifact validation error.
func NewConfigInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfigInvalid,
		Message:   "Generated project config failed schema validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRunInProgressError creates a non-retryable duplicate submission error.
func NewRunInProgressError(orderID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRunInProgress,
		Message:   "A generation run is already in progress for this order",
		Details:   fmt.Sprintf("orderId: %s", orderID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewJobStoreFailedError creates a retryable job persistence error.
func NewJobStoreFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeJobStoreFailed,
		Message:   "Job store error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}
