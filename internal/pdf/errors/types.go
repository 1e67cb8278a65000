package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorType classifies failures at the pipeline's component boundaries.
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeInputInvalid covers files that are not PDFs, are corrupted, or are encrypted.
	ErrorTypeInputInvalid
	// ErrorTypeExtractionEmpty means no structured fields and no usable text were found.
	ErrorTypeExtractionEmpty
	// ErrorTypeMapperUnavailable covers a missing credential or a malformed model response.
	ErrorTypeMapperUnavailable
	// ErrorTypeFillFailure covers any failure while writing the filled output.
	ErrorTypeFillFailure
)

// String returns a string representation of the ErrorType
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeInputInvalid:
		return "INPUT_INVALID"
	case ErrorTypeExtractionEmpty:
		return "EXTRACTION_EMPTY"
	case ErrorTypeMapperUnavailable:
		return "MAPPER_UNAVAILABLE"
	case ErrorTypeFillFailure:
		return "FILL_FAILURE"
	default:
		return "UNKNOWN"
	}
}

// PipelineError carries the diagnostic detail a caller needs for manual remediation.
type PipelineError struct {
	Type     ErrorType `json:"type"`
	Op       string    `json:"op"`
	Message  string    `json:"message"`
	FilePath string    `json:"file_path,omitempty"`
	Strategy string    `json:"strategy,omitempty"`
	Err      error     `json:"-"`
}

// Error implements the error interface
func (e *PipelineError) Error() string {
	var b strings.Builder

	fmt.Fprintf(&b, "[%s] %s", e.Type, e.Op)

	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}

	if e.FilePath != "" {
		fmt.Fprintf(&b, " (path=%s", e.FilePath)

		if e.Strategy != "" {
			fmt.Fprintf(&b, ", strategy=%s", e.Strategy)
		}

		b.WriteString(")")
	}

	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}

	return b.String()
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// New creates a PipelineError without an underlying cause
func New(errorType ErrorType, op, message string) *PipelineError {
	return &PipelineError{
		Type:    errorType,
		Op:      op,
		Message: message,
	}
}

// Wrap attaches a type and operation to an existing error
func Wrap(errorType ErrorType, op string, err error) *PipelineError {
	return &PipelineError{
		Type: errorType,
		Op:   op,
		Err:  err,
	}
}

// WithFile adds file path information to an existing PipelineError
func (e *PipelineError) WithFile(filePath string) *PipelineError {
	e.FilePath = filePath
	return e
}

// WithStrategy records which extraction strategy was running
func (e *PipelineError) WithStrategy(strategy string) *PipelineError {
	e.Strategy = strategy
	return e
}

// IsType reports whether err, or anything it wraps, is a PipelineError of the given type.
func IsType(err error, errorType ErrorType) bool {
	var pe *PipelineError
	if stderrors.As(err, &pe) {
		return pe.Type == errorType
	}
	return false
}

// TypeOf returns the ErrorType of err, or ErrorTypeUnknown.
func TypeOf(err error) ErrorType {
	var pe *PipelineError
	if stderrors.As(err, &pe) {
		return pe.Type
	}
	return ErrorTypeUnknown
}
