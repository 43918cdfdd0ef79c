package docfill

import (
	"errors"
	"fmt"
)

// TemplateError indicates a problem with the template document itself,
// such as a malformed table marker or an unparseable body.
type TemplateError struct {
	Message string
	Cause   error
}

func (e *TemplateError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("template error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("template error: %s", e.Message)
}

func (e *TemplateError) Unwrap() error {
	return e.Cause
}

// DocumentError indicates a failure reading or writing the DOCX package.
type DocumentError struct {
	Operation string
	Path      string
	Cause     error
}

func (e *DocumentError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("document error during %s on %s: %v", e.Operation, e.Path, e.Cause)
	}
	return fmt.Sprintf("document error during %s: %v", e.Operation, e.Cause)
}

func (e *DocumentError) Unwrap() error {
	return e.Cause
}

// ImageError indicates that an image bound to a placeholder key could not
// be read or decoded.
type ImageError struct {
	Key   string
	Cause error
}

func (e *ImageError) Error() string {
	return fmt.Sprintf("image error for key %q: %v", e.Key, e.Cause)
}

func (e *ImageError) Unwrap() error {
	return e.Cause
}

// InvalidInputError indicates invalid caller-supplied input, such as an
// empty template or undecodable Base64 content.
type InvalidInputError struct {
	Message string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s", e.Message)
}

// AuthorizationError indicates the engine's authorizer rejected the call.
type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("authorization failed: %s", e.Message)
}

// ContextError wraps an error with the operation that produced it.
type ContextError struct {
	Context string
	Err     error
}

func (e *ContextError) Error() string {
	return fmt.Sprintf("%s: %v", e.Context, e.Err)
}

func (e *ContextError) Unwrap() error {
	return e.Err
}

// WithContext annotates err with an operation name. A nil err stays nil.
func WithContext(context string, err error) error {
	if err == nil {
		return nil
	}
	return &ContextError{Context: context, Err: err}
}

// IsTemplateError reports whether err is or wraps a TemplateError.
func IsTemplateError(err error) bool {
	var te *TemplateError
	return errors.As(err, &te)
}

// IsDocumentError reports whether err is or wraps a DocumentError.
func IsDocumentError(err error) bool {
	var de *DocumentError
	return errors.As(err, &de)
}

// IsImageError reports whether err is or wraps an ImageError.
func IsImageError(err error) bool {
	var ie *ImageError
	return errors.As(err, &ie)
}

// IsInvalidInputError reports whether err is or wraps an InvalidInputError.
func IsInvalidInputError(err error) bool {
	var iie *InvalidInputError
	return errors.As(err, &iie)
}

// IsAuthorizationError reports whether err is or wraps an AuthorizationError.
func IsAuthorizationError(err error) bool {
	var ae *AuthorizationError
	return errors.As(err, &ae)
}
