package engagement

import "errors"

// Error kinds. Handlers map these to status codes with errors.Is.
var (
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotFound           = errors.New("not found")
)

// Client-facing messages.
const (
	MsgCredentialsRequired      = "Email and password required"
	MsgInvalidCredentials       = "Invalid credentials"
	MsgAmbassadorFieldsRequired = "name, email, password, and campus are required"
	MsgAmbassadorExists         = "An ambassador with this email already exists"
	MsgMissingFields            = "Missing required fields"
	MsgEventIDRequired          = "id query param required"
	MsgEventNotFound            = "Event not found"
	MsgUploadFieldsRequired     = "fileName and fileData (base64) required"
	MsgInvalidFileData          = "fileData must be base64 encoded"
	MsgFileTooLarge             = "File too large. Max 10MB."
	MsgBlobPathRequired         = "blobPath query param required"
)

// Error pairs an error kind with the message shown to the caller.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, msg string) error {
	return &Error{Kind: kind, Message: msg}
}

// Message returns the client-facing message carried by err, or fallback.
func Message(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return fallback
}
