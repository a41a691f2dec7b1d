package core

// Error codes for domain errors.
const (
	ErrCodeBanned             = "banned"
	ErrCodeNameTaken          = "name_taken"
	ErrCodeNotAuthorized      = "not_authorized"
	ErrCodeCannotBanAdmin     = "cannot_ban_admin"
	ErrCodeInvalidAdminSecret = "invalid_admin_secret"
	ErrCodeBadRequest         = "bad_request"
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
