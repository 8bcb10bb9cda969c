package rest

import (
	"chat-dm/auth"
	"chat-dm/domain"
	"chat-dm/errors"
	"encoding/json"
	stderrors "errors"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/samber/lo"
)

// multipartSlack covers boundaries and plain fields around the file.
const multipartSlack = domain.MB

// Ids may be JSON strings or numbers.
type getMessagesRequest struct {
	ID domain.Identity `json:"id"`
}

type sendMessageRequest struct {
	Recipient  domain.Identity     `json:"recipient"`
	Content    *string             `json:"content"`
	Attachment *attachmentResponse `json:"attachment"`
}

func (s *Server) getMessages(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.IdentityFrom(r.Context())

	var body getMessagesRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !stderrors.Is(err, io.EOF) {
		s.fail(w, r, opGetMessages, errors.ErrMissingParticipant)
		return
	}

	messages, err := s.service.FetchConversation(r.Context(), domain.FetchConversationCommand{
		Caller: caller,
		Other:  body.ID,
	})
	if err != nil {
		s.fail(w, r, opGetMessages, err)
		return
	}
	writeJSON(w, http.StatusOK, messagesResponse{
		Success:  true,
		Messages: lo.Map(messages, toMessageResponse),
	})
}

func (s *Server) uploadFile(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.IdentityFrom(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, s.options.MaxUploadBytes+multipartSlack)
	parts, err := r.MultipartReader()
	if err != nil {
		s.fail(w, r, opUploadFile, errors.ErrNoFileProvided)
		return
	}

	ref, err := s.service.UploadAttachment(r.Context(), caller, parts)
	if err != nil {
		s.fail(w, r, opUploadFile, err)
		return
	}
	s.log.Info("File uploaded", "caller", caller, "path", ref.PublicPath(), "size", ref.SizeBytes)
	writeJSON(w, http.StatusOK, uploadResponse{
		Success:            true,
		attachmentResponse: toAttachmentResponse(ref),
	})
}

// sendMessage accepts either a multipart form (recipient, content, file)
// or a JSON body referencing a previous upload.
func (s *Server) sendMessage(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.IdentityFrom(r.Context())

	var (
		msg domain.Message
		err error
	)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		r.Body = http.MaxBytesReader(w, r.Body, s.options.MaxUploadBytes+multipartSlack)
		parts, partsErr := r.MultipartReader()
		if partsErr != nil {
			s.fail(w, r, opSendMessage, errors.ErrMalformedMessage)
			return
		}
		msg, err = s.service.SendMultipart(r.Context(), caller, parts)
	} else {
		var body sendMessageRequest
		if decodeErr := json.NewDecoder(r.Body).Decode(&body); decodeErr != nil {
			s.fail(w, r, opSendMessage, errors.ErrMalformedMessage)
			return
		}
		msg, err = s.service.SendMessage(r.Context(), domain.SendMessageCommand{
			Sender:     caller,
			Recipient:  body.Recipient,
			Content:    body.Content,
			Attachment: fromAttachmentRequest(body.Attachment),
		})
	}
	if err != nil {
		s.fail(w, r, opSendMessage, err)
		return
	}
	writeJSON(w, http.StatusOK, sendMessageResponse{Success: true, Message: toMessageResponse(msg, 0)})
}

// fromAttachmentRequest keeps what the client declared. The service checks
// it against the stored file.
func fromAttachmentRequest(req *attachmentResponse) *domain.AttachmentRef {
	if req == nil {
		return nil
	}
	return &domain.AttachmentRef{
		StoredPath:   strings.TrimPrefix(req.FilePath, domain.PublicFilesPrefix),
		OriginalName: req.FileName,
		SizeBytes:    req.FileSize,
		MimeType:     req.MimeType,
	}
}

type statusResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Uptime    string            `json:"uptime"`
	Endpoints map[string]string `json:"endpoints"`
}

func (s *Server) status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Status:    "Server is running",
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(s.started).Truncate(time.Second).String(),
		Endpoints: map[string]string{
			"messages": "/api/messages",
			"files":    domain.PublicFilesPrefix,
		},
	})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
