// Package syncservice is the edge counterpart to syncclient:
// authenticated opaque-blob storage with conflict detection via
// monotonic timestamps, rate limiting, and CORS, and no inspection of
// user data.
package syncservice

import "time"

// maxPayloadBytes bounds an upload body.
const maxPayloadBytes = 10 * 1024

// User is the stored account record. PasswordHash is the client's own
// SHA-256 hex digest, compared byte-for-byte (see DESIGN.md's Open
// Question decision #2 for why this is not upgraded to a slow KDF
// server-side).
type User struct {
	UserID       string    `json:"userId"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

// BlobRecord is the opaque, per-user stored payload.
type BlobRecord struct {
	UserID        string `json:"userId"`
	DeviceID      string `json:"deviceId"`
	EncryptedData string `json:"encryptedData"`
	Timestamp     int64  `json:"timestamp"`
	Version       int    `json:"version"`
}

// ErrorCode names the service's machine-readable error identifiers.
type ErrorCode string

const (
	ErrCodeBadRequest      ErrorCode = "BAD_REQUEST"
	ErrCodeUnauthorized    ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden       ErrorCode = "FORBIDDEN"
	ErrCodeNotFound        ErrorCode = "NOT_FOUND"
	ErrCodeConflict        ErrorCode = "CONFLICT"
	ErrCodePayloadTooLarge ErrorCode = "PAYLOAD_TOO_LARGE"
	ErrCodeRateLimitExceed ErrorCode = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
)

// errorResponse is the JSON body returned on any non-2xx response.
type errorResponse struct {
	Success    bool      `json:"success"`
	Error      ErrorCode `json:"error"`
	Message    string    `json:"message,omitempty"`
	RetryAfter int       `json:"retryAfter,omitempty"`
}

func newErrorResponse(code ErrorCode, message string) errorResponse {
	return errorResponse{Success: false, Error: code, Message: message}
}
