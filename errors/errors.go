/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Common sentinel errors
var (
	// ErrMalformedSubmission is returned when a submitted library table fails the shape contract
	ErrMalformedSubmission = errors.New("malformed submission")

	// ErrDoubleAttach is returned when a consumer is attached to a registry that already has one
	ErrDoubleAttach = errors.New("consumer already attached")

	// ErrConsumerFailure is returned when the consumer fails to accept a delivered table
	ErrConsumerFailure = errors.New("consumer failed")

	// ErrNotFound is returned when an archived record is not found
	ErrNotFound = errors.New("record not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoIndexMap is returned when no index map is found for a type
	ErrNoIndexMap = errors.New("no index map found for type")
)

// MalformedSubmissionError describes why a library table was rejected.
// Library is empty when the table as a whole is unusable (e.g. nil).
type MalformedSubmissionError struct {
	Library string
	Reason  string
}

func (e *MalformedSubmissionError) Error() string {
	if e.Library != "" {
		return fmt.Sprintf("malformed submission for library %q: %s", e.Library, e.Reason)
	}
	return fmt.Sprintf("malformed submission: %s", e.Reason)
}

func (e *MalformedSubmissionError) Is(target error) bool {
	return target == ErrMalformedSubmission
}

// DoubleAttachError is returned by a second Attach on the same registry.
type DoubleAttachError struct {
	Registry string
}

func (e *DoubleAttachError) Error() string {
	if e.Registry != "" {
		return fmt.Sprintf("registry %q: consumer already attached", e.Registry)
	}
	return "consumer already attached"
}

func (e *DoubleAttachError) Is(target error) bool {
	return target == ErrDoubleAttach
}

// ConsumerFailureError wraps the error returned (or panic raised) by a consumer
// while it was handling the submission with sequence number Seq.
type ConsumerFailureError struct {
	Seq       uint64
	Libraries []string
	Err       error
}

func (e *ConsumerFailureError) Error() string {
	libs := strings.Join(e.Libraries, ",")
	if libs == "" {
		libs = "<empty>"
	}
	return fmt.Sprintf("consumer failed on submission #%d [%s]: %v", e.Seq, libs, e.Err)
}

func (e *ConsumerFailureError) Is(target error) bool {
	return target == ErrConsumerFailure
}

func (e *ConsumerFailureError) Unwrap() error {
	return e.Err
}

// NotFoundError represents an error when an archived record is not found
type NotFoundError struct {
	Type string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with key %q not found", e.Type, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ValidationError represents an input validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Helper functions for creating errors

// NewMalformedSubmissionError creates a new MalformedSubmissionError
func NewMalformedSubmissionError(library, reason string) error {
	return &MalformedSubmissionError{Library: library, Reason: reason}
}

// NewDoubleAttachError creates a new DoubleAttachError
func NewDoubleAttachError(registry string) error {
	return &DoubleAttachError{Registry: registry}
}

// NewConsumerFailureError creates a new ConsumerFailureError
func NewConsumerFailureError(seq uint64, libraries []string, err error) error {
	return &ConsumerFailureError{Seq: seq, Libraries: libraries, Err: err}
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(recordType, key string) error {
	return &NotFoundError{Type: recordType, Key: key}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsMalformedSubmission checks if an error is a malformed submission error
func IsMalformedSubmission(err error) bool {
	return errors.Is(err, ErrMalformedSubmission)
}

// IsDoubleAttach checks if an error is a double attach error
func IsDoubleAttach(err error) bool {
	return errors.Is(err, ErrDoubleAttach)
}

// IsConsumerFailure checks if an error is a consumer failure
func IsConsumerFailure(err error) bool {
	return errors.Is(err, ErrConsumerFailure)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}
