package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound            = errors.New("resource not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrDocumentNotFound    = errors.New("document not found")
	ErrReturnNotFound      = errors.New("return record not found")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrUploadFailed        = errors.New("file upload to storage failed")

	// ErrExtractionFailed marks a single provider attempt that did not yield
	// an adequate result. Recoverable via the fallback chain.
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrUnextractedDocument means every provider in the chain failed; the
	// document needs manual entry. A reported condition, not a crash.
	ErrUnextractedDocument = errors.New("document could not be extracted by any provider")

	// ErrUnresolvedConflict blocks progression past reconciled.
	ErrUnresolvedConflict = errors.New("canonical profile has unresolved conflicts")

	ErrIneligibleRegime    = errors.New("regime is not eligible for this profile")
	ErrNoExtractionInputs  = errors.New("no extraction results or manual entries for this period")
	ErrInvalidTransition   = errors.New("invalid return status transition")
	ErrStateConflict       = errors.New("concurrent transition lost the race")
	ErrNotConfirmed        = errors.New("computed figures have not been confirmed")
	ErrFilingFailed        = errors.New("external filing attempt failed")
	ErrFilingRejected      = errors.New("return was rejected by the filing authority")
	ErrReconInProgress     = errors.New("reconciliation already in progress for this period")
	ErrProfileImmutable    = errors.New("profile values backing a filed return cannot be edited")
	ErrOverrideNotFound    = errors.New("field override not found")
	ErrRuleTableNotFound   = errors.New("no rule table for the requested version or period")
	ErrInvalidFilingPeriod = errors.New("invalid filing period")
	ErrSchemaMapping       = errors.New("return schema mapping failed")
)

// SchemaMappingError reports the schema fields that have no corresponding
// profile entry. Field-addressable so the caller can prompt for them.
type SchemaMappingError struct {
	Fields []string
}

func (e *SchemaMappingError) Error() string {
	return fmt.Sprintf("return schema mapping failed: missing fields: %s", strings.Join(e.Fields, ", "))
}

func (e *SchemaMappingError) Unwrap() error { return ErrSchemaMapping }

// ConflictError reports the profile fields carrying unresolved conflicts.
type ConflictError struct {
	Fields []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("unresolved conflicts on fields: %s", strings.Join(e.Fields, ", "))
}

func (e *ConflictError) Unwrap() error { return ErrUnresolvedConflict }

// IneligibleRegimeError reports why a regime cannot be chosen.
type IneligibleRegimeError struct {
	Regime        string
	Reasons       []string
	MissingFields []string
}

func (e *IneligibleRegimeError) Error() string {
	parts := append([]string{}, e.Reasons...)
	if len(e.MissingFields) > 0 {
		parts = append(parts, "missing fields: "+strings.Join(e.MissingFields, ", "))
	}
	return fmt.Sprintf("regime %s not eligible: %s", e.Regime, strings.Join(parts, "; "))
}

func (e *IneligibleRegimeError) Unwrap() error { return ErrIneligibleRegime }
