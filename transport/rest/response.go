package rest

import (
	"chat-dm/domain"
	"chat-dm/errors"
	"encoding/json"
	"net/http"
	"runtime/debug"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// operation names a handler in logs and gives its generic 500 message.
type operation struct {
	name    string
	failure string
}

var (
	opAuthenticate = operation{name: "authenticate", failure: "Internal server error during authentication"}
	opGetMessages  = operation{name: "get-messages", failure: "Failed to fetch messages"}
	opUploadFile   = operation{name: "upload-file", failure: "Failed to process file upload"}
	opSendMessage  = operation{name: "send-message", failure: "Failed to send message"}
	opStream       = operation{name: "stream", failure: "Failed to open the message stream"}
)

type failureResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type attachmentResponse struct {
	FilePath string `json:"filePath"`
	FileName string `json:"fileName"`
	FileSize int64  `json:"fileSize"`
	MimeType string `json:"mimeType"`
}

type messageResponse struct {
	ID         string              `json:"id"`
	Sender     string              `json:"sender"`
	Recipient  string              `json:"recipient"`
	Content    *string             `json:"content,omitempty"`
	Attachment *attachmentResponse `json:"attachment,omitempty"`
	Timestamp  time.Time           `json:"timestamp"`
}

type messagesResponse struct {
	Success  bool              `json:"success"`
	Messages []messageResponse `json:"messages"`
}

type sendMessageResponse struct {
	Success bool            `json:"success"`
	Message messageResponse `json:"message"`
}

type uploadResponse struct {
	Success bool `json:"success"`
	attachmentResponse
}

func toAttachmentResponse(ref domain.AttachmentRef) attachmentResponse {
	return attachmentResponse{
		FilePath: ref.PublicPath(),
		FileName: ref.OriginalName,
		FileSize: ref.SizeBytes,
		MimeType: ref.MimeType,
	}
}

func toMessageResponse(msg domain.Message, _ int) messageResponse {
	res := messageResponse{
		ID:        msg.ID.String(),
		Sender:    msg.Sender.String(),
		Recipient: msg.Recipient.String(),
		Content:   msg.Content,
		Timestamp: msg.Timestamp,
	}
	if msg.Attachment != nil {
		attachment := toAttachmentResponse(*msg.Attachment)
		res.Attachment = &attachment
	}
	return res
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// fail renders err. Caller errors carry their own message; internal
// faults get the operation's generic message and are logged.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op operation, err error) {
	kind := errors.KindOf(err)
	body := failureResponse{}
	switch kind {
	case errors.KindUnauthenticated,
		errors.KindInvalidCredential,
		errors.KindMissingParticipant,
		errors.KindNoFileProvided,
		errors.KindUnsupportedFileType,
		errors.KindFileTooLarge,
		errors.KindTooManyFiles,
		errors.KindMalformedMessage:
		body.Error = errors.PublicMessage(err, op.failure)
		s.log.Debug("Request rejected", "operation", op.name, "kind", kind, "error", err)
	case errors.KindInternal:
		body.Error = op.failure
		if !s.options.Production {
			body.Details = err.Error()
		}
		s.log.Error("Request failed",
			"operation", op.name,
			"request_id", chimiddleware.GetReqID(r.Context()),
			"error", err,
			"stack", string(debug.Stack()))
	}
	writeJSON(w, errors.Status(kind), body)
}

func (s *Server) authFailure(w http.ResponseWriter, r *http.Request, err error) {
	s.fail(w, r, opAuthenticate, err)
}
