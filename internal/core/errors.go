package core

// Error codes carried in ERROR payloads. They follow HTTP conventions:
// validation and conflict failures are 400, auth 401, blocked relations
// 403, unknown users/rooms/requests 404, unexpected handler failures 500.
const (
	ErrCodeValidation = 400
	ErrCodeAuth       = 401
	ErrCodePermission = 403
	ErrCodeNotFound   = 404
	ErrCodeInternal   = 500
)

// CommandError pairs an error code with the command it failed and a
// user-facing message. Handlers return it; the resolver loop converts it to
// an ERROR payload for the originating connection.
type CommandError struct {
	Code    int
	Command string
	Message string
}

func (e *CommandError) Error() string {
	return e.Message
}

func cmdError(code int, command, message string) *CommandError {
	return &CommandError{Code: code, Command: command, Message: message}
}
