package core

import "errors"

// Error codes for domain errors.
const (
	ErrCodeNameTaken         = "name_taken"
	ErrCodeUserNotFound      = "user_not_found"
	ErrCodeRoomNotFound      = "room_not_found"
	ErrCodeChatLogNotFound   = "chat_log_not_found"
	ErrCodeIllegalTransition = "illegal_transition"
	ErrCodeBadRequest        = "bad_request"
	ErrCodeInternal          = "internal"
)

var (
	ErrNameTaken         = errors.New("name taken")
	ErrUserNotFound      = errors.New("user not found")
	ErrRoomNotFound      = errors.New("room not found")
	ErrChatLogNotFound   = errors.New("chat log not found")
	ErrIllegalTransition = errors.New("illegal transition")
	ErrBadRequest        = errors.New("bad request")
	ErrHubStopped        = errors.New("hub stopped")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}

// toCoreError maps a registry error onto the wire error taxonomy.
func toCoreError(err error) *CoreError {
	var ce *CoreError
	switch {
	case errors.As(err, &ce):
		return ce
	case errors.Is(err, ErrNameTaken):
		return coreError(ErrCodeNameTaken, err.Error())
	case errors.Is(err, ErrUserNotFound):
		return coreError(ErrCodeUserNotFound, err.Error())
	case errors.Is(err, ErrRoomNotFound):
		return coreError(ErrCodeRoomNotFound, err.Error())
	case errors.Is(err, ErrChatLogNotFound):
		return coreError(ErrCodeChatLogNotFound, err.Error())
	case errors.Is(err, ErrIllegalTransition):
		return coreError(ErrCodeIllegalTransition, err.Error())
	case errors.Is(err, ErrBadRequest):
		return coreError(ErrCodeBadRequest, err.Error())
	default:
		return coreError(ErrCodeInternal, err.Error())
	}
}
