package services

import (
	"chat-dm/contract"
	"chat-dm/domain"
	"chat-dm/errors"
	"chat-dm/observability"
	"chat-dm/repositories"
	"chat-dm/storage"
	"context"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Form fields read from a multipart send.
const (
	RecipientField = "recipient"
	ContentField   = "content"
)

type IChatService interface {
	FetchConversation(ctx context.Context, cmd domain.FetchConversationCommand) ([]domain.Message, error)
	SendMessage(ctx context.Context, cmd domain.SendMessageCommand) (domain.Message, error)
	SendMultipart(ctx context.Context, sender domain.Identity, parts storage.PartReader) (domain.Message, error)
	UploadAttachment(ctx context.Context, caller domain.Identity, parts storage.PartReader) (domain.AttachmentRef, error)
	JoinStream(identity domain.Identity, sink contract.EventSink) string
	LeaveStream(sessionID string, identity domain.Identity)
}

type ChatService struct {
	log          *slog.Logger
	validator    *validator.Validate
	messages     repositories.IMessageRepository
	attachments  storage.IAttachmentStore
	orchestrator contract.IOrchestrator
	metrics      *observability.Metrics
}

func NewChatService(log *slog.Logger, messages repositories.IMessageRepository,
	attachments storage.IAttachmentStore, orchestrator contract.IOrchestrator,
	metrics *observability.Metrics) *ChatService {
	return &ChatService{
		log:          log,
		validator:    validator.New(),
		messages:     messages,
		attachments:  attachments,
		orchestrator: orchestrator,
		metrics:      metrics,
	}
}

// FetchConversation returns the conversation between the caller and
// another user, oldest first.
func (s *ChatService) FetchConversation(ctx context.Context, cmd domain.FetchConversationCommand) ([]domain.Message, error) {
	if err := s.validator.Struct(cmd); err != nil {
		return nil, errors.ErrMissingParticipant
	}
	messages, err := s.messages.FetchConversation(ctx, cmd.Caller, cmd.Other)
	if err != nil {
		return nil, err
	}
	return fromDiskMessages(messages), nil
}

// SendMessage records the message then pushes it to the live sessions of
// both participants. An attachment must reference a previous upload; its
// size and detected type are taken from the stored file.
// Delivery failures never fail the send.
func (s *ChatService) SendMessage(ctx context.Context, cmd domain.SendMessageCommand) (domain.Message, error) {
	if err := s.validator.Struct(cmd); err != nil {
		return domain.Message{}, errors.ErrMissingParticipant
	}
	if cmd.Attachment != nil {
		resolved, err := s.attachments.Resolve(*cmd.Attachment)
		if err != nil {
			return domain.Message{}, err
		}
		cmd.Attachment = &resolved
	}
	return s.send(ctx, cmd)
}

// SendMultipart reads recipient, content and an optional file from one
// multipart body and sends the resulting message.
func (s *ChatService) SendMultipart(ctx context.Context, sender domain.Identity, parts storage.PartReader) (domain.Message, error) {
	upload, err := s.attachments.IngestMultipart(ctx, parts)
	s.observeUpload(upload.Attachment, err)
	if err != nil {
		return domain.Message{}, err
	}

	cmd := domain.SendMessageCommand{
		Sender:     sender,
		Recipient:  domain.Identity(upload.Values[RecipientField]),
		Attachment: upload.Attachment,
	}
	if content, ok := upload.Values[ContentField]; ok {
		cmd.Content = &content
	}
	if err = s.validator.Struct(cmd); err != nil {
		return domain.Message{}, errors.ErrMissingParticipant
	}
	return s.send(ctx, cmd)
}

func (s *ChatService) send(ctx context.Context, cmd domain.SendMessageCommand) (domain.Message, error) {
	if cmd.Content != nil && *cmd.Content == "" {
		cmd.Content = nil
	}
	if cmd.Content != nil && len(*cmd.Content) > domain.MaxContentLen {
		return domain.Message{}, errors.ErrMessageTooLong
	}

	stored, err := s.messages.RecordMessage(ctx, repositories.DiskMessage{
		Sender:     cmd.Sender,
		Recipient:  cmd.Recipient,
		Content:    cmd.Content,
		Attachment: cmd.Attachment,
	})
	if err != nil {
		return domain.Message{}, err
	}
	if s.metrics != nil {
		s.metrics.MessagesRecorded.Inc()
	}

	msg := fromDiskMessage(stored, 0)
	s.publish(msg.Recipient, msg)
	if msg.Sender != msg.Recipient {
		s.publish(msg.Sender, msg)
	}
	return msg, nil
}

// UploadAttachment stores the single file of a multipart body.
func (s *ChatService) UploadAttachment(ctx context.Context, caller domain.Identity, parts storage.PartReader) (domain.AttachmentRef, error) {
	upload, err := s.attachments.IngestMultipart(ctx, parts)
	if err == nil && upload.Attachment == nil {
		err = errors.ErrNoFileProvided
	}
	s.observeUpload(upload.Attachment, err)
	if err != nil {
		return domain.AttachmentRef{}, err
	}
	s.log.Debug("Attachment stored", "caller", caller, "path", upload.Attachment.StoredPath)
	return *upload.Attachment, nil
}

// JoinStream registers sink for identity and returns the new session id.
func (s *ChatService) JoinStream(identity domain.Identity, sink contract.EventSink) string {
	sessionID := uuid.NewString()
	s.orchestrator.RegisterSession(sessionID, identity, sink)
	return sessionID
}

func (s *ChatService) LeaveStream(sessionID string, identity domain.Identity) {
	s.orchestrator.UnregisterSession(sessionID, identity)
}

func (s *ChatService) publish(to domain.Identity, msg domain.Message) {
	if err := s.orchestrator.Publish(to, msg); err != nil {
		s.log.Warn("Real-time delivery skipped", "to", to, "message", msg.ID, "error", err)
	}
}

func (s *ChatService) observeUpload(attachment *domain.AttachmentRef, err error) {
	if s.metrics == nil {
		return
	}
	switch {
	case err == nil && attachment != nil:
		s.metrics.Uploads.WithLabelValues(observability.OutcomeOK).Inc()
		s.metrics.UploadedBytes.Add(float64(attachment.SizeBytes))
	case err == nil:
	case errors.KindOf(err) == errors.KindInternal:
		s.metrics.Uploads.WithLabelValues(observability.OutcomeFailed).Inc()
	default:
		s.metrics.Uploads.WithLabelValues(observability.OutcomeRejected).Inc()
	}
}

func fromDiskMessages(messages []repositories.DiskMessage) []domain.Message {
	return lo.Map(messages, fromDiskMessage)
}

func fromDiskMessage(item repositories.DiskMessage, _ int) domain.Message {
	return domain.Message{
		ID:         item.ID,
		Sender:     item.Sender,
		Recipient:  item.Recipient,
		Content:    item.Content,
		Attachment: item.Attachment,
		Timestamp:  item.At,
		Sequence:   item.Seq,
	}
}
