package errors

import "fmt"

var (
	ErrDuplicateRoom      = fmt.Errorf("room already exists")
	ErrRoomNotFound       = fmt.Errorf("room not found")
	ErrRoomLocked         = fmt.Errorf("room is locked")
	ErrMessageNotFound    = fmt.Errorf("message not found")
	ErrUnauthorized       = fmt.Errorf("invalid or missing admin token")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
	ErrRateLimited        = fmt.Errorf("rate limit exceeded")
	ErrImageTooLarge      = fmt.Errorf("image exceeds configured size limit")
	ErrValidation         = fmt.Errorf("invalid payload")
	ErrWorkerPanic        = fmt.Errorf("worker panic")
)
