package handler

import "github.com/markethub/backend/internal/interfaces/http/dto"

// APIResponse is the generic envelope referenced from swagger
// annotations; the runtime envelope lives in dto.Response.
// @Description Standard API response wrapper with typed data field
type APIResponse[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data,omitempty"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
	Meta    *dto.Meta      `json:"meta,omitempty"`
}

// MessageData carries a human-readable outcome for operations with
// no other payload, like a completed restore or a password change.
// @Description Message data
type MessageData struct {
	Message string `json:"message"`
}
