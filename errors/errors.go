package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Kind is the closed set of failures the request pipeline can produce.
// Every kind except KindInternal is a caller error.
type Kind int

const (
	KindInternal Kind = iota
	KindUnauthenticated
	KindInvalidCredential
	KindMissingParticipant
	KindNoFileProvided
	KindUnsupportedFileType
	KindFileTooLarge
	KindTooManyFiles
	KindMalformedMessage
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindInvalidCredential:
		return "invalid_credential"
	case KindMissingParticipant:
		return "missing_participant"
	case KindNoFileProvided:
		return "no_file_provided"
	case KindUnsupportedFileType:
		return "unsupported_file_type"
	case KindFileTooLarge:
		return "file_too_large"
	case KindTooManyFiles:
		return "too_many_files"
	case KindMalformedMessage:
		return "malformed_message"
	default:
		return "internal"
	}
}

// Error carries a Kind and a caller-facing message.
// Err holds the underlying cause and is never shown to callers.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches caller errors on Kind alone, so a size error carrying the
// configured limit still satisfies errors.Is(err, ErrFileTooLarge).
// Internal errors also compare Msg unless the target carries none.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Kind != e.Kind {
		return false
	}
	if e.Kind == KindInternal && t.Msg != "" {
		return t.Msg == e.Msg
	}
	return true
}

// WithMsg returns a copy of e with a different caller-facing message.
func (e *Error) WithMsg(msg string) *Error {
	return &Error{Kind: e.Kind, Msg: msg, Err: e.Err}
}

var (
	ErrUnauthenticated        = &Error{Kind: KindUnauthenticated, Msg: "You are not authenticated!"}
	ErrInvalidCredential      = &Error{Kind: KindInvalidCredential, Msg: "Token is not valid!"}
	ErrVerifierMisconfigured  = &Error{Kind: KindInternal, Msg: "Internal server error during authentication"}
	ErrMissingParticipant     = &Error{Kind: KindMissingParticipant, Msg: "Both user IDs are required."}
	ErrNoFileProvided         = &Error{Kind: KindNoFileProvided, Msg: "No file was uploaded or the file is empty."}
	ErrUnsupportedFileType    = &Error{Kind: KindUnsupportedFileType, Msg: "Only image, document and PDF files are allowed!"}
	ErrFileTooLarge           = &Error{Kind: KindFileTooLarge, Msg: "File size too large. Maximum size is 10MB."}
	ErrTooManyFiles           = &Error{Kind: KindTooManyFiles, Msg: "Too many files uploaded. Only one file is allowed."}
	ErrMalformedMessage       = &Error{Kind: KindMalformedMessage, Msg: "A message needs either content or an attachment, not both."}
	ErrMessageTooLong         = &Error{Kind: KindMalformedMessage, Msg: "Message is too long. Maximum length is 64KB."}
	ErrUnknownAttachment      = &Error{Kind: KindMalformedMessage, Msg: "The referenced attachment does not exist."}
	ErrWorkerPanic            = fmt.Errorf("worker panic")
	ErrDeliveryBufferOverflow = fmt.Errorf("delivery buffer full")
)

// Internal wraps an unexpected fault so it maps to a 5xx response.
func Internal(msg string, err error) error {
	return &Error{Kind: KindInternal, Msg: msg, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain.
// Anything else is internal.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// PublicMessage is the message a caller may see for err, or fallback when
// err is internal.
func PublicMessage(err error, fallback string) string {
	var e *Error
	if stderrors.As(err, &e) && e.Kind != KindInternal && e.Msg != "" {
		return e.Msg
	}
	return fallback
}

func Status(kind Kind) int {
	switch kind {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindInvalidCredential:
		return http.StatusForbidden
	case KindMissingParticipant,
		KindNoFileProvided,
		KindUnsupportedFileType,
		KindFileTooLarge,
		KindTooManyFiles,
		KindMalformedMessage:
		return http.StatusBadRequest
	case KindInternal:
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}
