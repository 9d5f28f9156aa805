package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a Hamper error code.
type ErrorCode string

const (
	ErrInvalidRequest     ErrorCode = "INVALID_REQUEST"     // 400
	ErrNotFound           ErrorCode = "NOT_FOUND"           // 404
	ErrFileNotFound       ErrorCode = "FILE_NOT_FOUND"      // 404
	ErrImageRead          ErrorCode = "IMAGE_READ"          // 400
	ErrImageSize          ErrorCode = "IMAGE_SIZE"          // 413
	ErrImageType          ErrorCode = "IMAGE_TYPE"          // 415
	ErrImageDecode        ErrorCode = "IMAGE_DECODE"        // 422
	ErrImageAspectRatio   ErrorCode = "IMAGE_ASPECT_RATIO"  // 422
	ErrBadInput           ErrorCode = "BAD_INPUT"           // 400 from the analysis service
	ErrServer             ErrorCode = "SERVER"              // 502, remote 5xx
	ErrUnauthenticated    ErrorCode = "UNAUTHENTICATED"     // 401
	ErrStorageUnavailable ErrorCode = "STORAGE_UNAVAILABLE" // 503
	ErrInternal           ErrorCode = "INTERNAL"            // 500
)

// HamperError represents a structured error with code, status, and details.
type HamperError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
	cause   error
}

// Error implements the error interface.
func (e *HamperError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *HamperError) Unwrap() error {
	return e.cause
}

// Retryable reports whether repeating the same request may succeed.
// Only remote server failures qualify; input errors need a new capture.
func (e *HamperError) Retryable() bool {
	return e.Code == ErrServer
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *HamperError {
	return &HamperError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a missing laundry record.
func NewNotFound(id int64) *HamperError {
	return &HamperError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("laundry not found: %d", id),
		Details: map[string]any{"id": id},
	}
}

// NewSymbolNotFound creates a 404 error for a care-symbol code missing from the catalog.
func NewSymbolNotFound(code string) *HamperError {
	return &HamperError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("symbol not found: %s", code),
		Details: map[string]any{"code": code},
	}
}

// NewFileNotFound creates a 404 error for a missing import file.
func NewFileNotFound(path string) *HamperError {
	return &HamperError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewImageRead creates a 400 error when the image file could not be read.
func NewImageRead(err error) *HamperError {
	return &HamperError{
		Code:    ErrImageRead,
		Status:  400,
		Message: fmt.Sprintf("could not read image: %v", err),
		cause:   err,
	}
}

// NewImageSize creates a 413 error for empty or oversized images.
func NewImageSize(max, actual int64) *HamperError {
	msg := fmt.Sprintf("image exceeds maximum size: %d bytes (max %d)", actual, max)
	if actual <= 0 {
		msg = "image is empty"
	}
	return &HamperError{
		Code:    ErrImageSize,
		Status:  413,
		Message: msg,
		Details: map[string]any{"max_bytes": max, "actual_bytes": actual},
	}
}

// NewImageType creates a 415 error for an unsupported MIME type.
func NewImageType(mimeType string) *HamperError {
	return &HamperError{
		Code:    ErrImageType,
		Status:  415,
		Message: fmt.Sprintf("unsupported image type: %q", mimeType),
		Details: map[string]any{"mime_type": mimeType},
	}
}

// NewImageDecode creates a 422 error when the image bytes cannot be decoded.
func NewImageDecode(err error) *HamperError {
	return &HamperError{
		Code:    ErrImageDecode,
		Status:  422,
		Message: fmt.Sprintf("could not decode image: %v", err),
		cause:   err,
	}
}

// NewImageAspectRatio creates a 422 error for images that are too narrow or too wide.
func NewImageAspectRatio(width, height int) *HamperError {
	return &HamperError{
		Code:    ErrImageAspectRatio,
		Status:  422,
		Message: fmt.Sprintf("image aspect ratio out of bounds: %dx%d (allowed 1:5 to 5:1)", width, height),
		Details: map[string]any{"width": width, "height": height},
	}
}

// NewBadInput creates a 400 error for requests the remote service rejected
// or responses that could not be parsed. The user must re-capture or enter
// the label manually.
func NewBadInput(msg string) *HamperError {
	return &HamperError{
		Code:    ErrBadInput,
		Status:  400,
		Message: msg,
	}
}

// NewServer creates a 502 error for remote 5xx responses.
func NewServer(status int, msg string) *HamperError {
	return &HamperError{
		Code:    ErrServer,
		Status:  502,
		Message: msg,
		Details: map[string]any{"upstream_status": status},
	}
}

// NewUnauthenticated creates a 401 error when the session could not be reissued.
func NewUnauthenticated() *HamperError {
	return &HamperError{
		Code:    ErrUnauthenticated,
		Status:  401,
		Message: "session expired; sign in again",
	}
}

// NewStorageUnavailable creates a 503 error when the local store cannot be opened.
func NewStorageUnavailable(err error) *HamperError {
	msg := "local storage unavailable"
	if err != nil {
		msg = fmt.Sprintf("local storage unavailable: %v", err)
	}
	return &HamperError{
		Code:    ErrStorageUnavailable,
		Status:  503,
		Message: msg,
		cause:   err,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *HamperError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &HamperError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
		cause:   err,
	}
}

// Is checks if err (or anything it wraps) is a HamperError with the given code.
func Is(err error, code ErrorCode) bool {
	var hErr *HamperError
	if stderrors.As(err, &hErr) {
		return hErr.Code == code
	}
	return false
}

// As returns the HamperError wrapped by err, converting anything else to INTERNAL.
func As(err error) *HamperError {
	if err == nil {
		return nil
	}
	var hErr *HamperError
	if stderrors.As(err, &hErr) {
		return hErr
	}
	return NewInternal(err)
}
