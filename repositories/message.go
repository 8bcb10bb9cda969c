//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"chat-dm/domain"
	"chat-dm/errors"
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const (
	messagePrefix    = "dm:"
	sequenceKey      = "seq:dm"
	sequenceLeaseLen = 1000
)

type IMessageRepository interface {
	RecordMessage(ctx context.Context, message DiskMessage) (DiskMessage, error)
	FetchConversation(ctx context.Context, a, b domain.Identity) ([]DiskMessage, error)
}

// DiskMessage is the persisted form of a direct message.
// ID, At and Seq are assigned by RecordMessage.
type DiskMessage struct {
	ID         uuid.UUID
	Sender     domain.Identity
	Recipient  domain.Identity
	Content    *string
	Attachment *domain.AttachmentRef
	At         time.Time
	Seq        uint64
}

type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
	seq *badger.Sequence
	now func() time.Time

	mu   sync.Mutex
	last time.Time
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) (*MessageRepository, error) {
	seq, err := db.GetSequence([]byte(sequenceKey), sequenceLeaseLen)
	if err != nil {
		return nil, fmt.Errorf("sequence lease failed: %w", err)
	}
	return &MessageRepository{
		db:  db,
		log: log,
		seq: seq,
		now: func() time.Time { return time.Now().UTC() },
	}, nil
}

// WithClock replaces the wall clock used to stamp messages.
func (m *MessageRepository) WithClock(now func() time.Time) *MessageRepository {
	m.now = now
	return m
}

// Close returns the unused part of the sequence lease.
func (m *MessageRepository) Close() error {
	return m.seq.Release()
}

// RecordMessage persists a message between two participants.
// The key is formatted as "dm:{low}:{high}:{timestamp_padded}:{seq_padded}" to:
//  1. Group both directions of a conversation under one prefix, the pair
//     being ordered and base64url encoded so ':' never appears inside it.
//  2. Sort chronologically using 19-digit zero padding (lexicographical order).
//  3. Break timestamp ties by arrival order through a Badger sequence.
func (m *MessageRepository) RecordMessage(ctx context.Context, message DiskMessage) (DiskMessage, error) {
	if message.Sender.IsEmpty() || message.Recipient.IsEmpty() {
		return DiskMessage{}, errors.ErrMissingParticipant
	}
	if !domain.HasExactlyOneBody(message.Content, message.Attachment) {
		return DiskMessage{}, errors.ErrMalformedMessage
	}
	if err := ctx.Err(); err != nil {
		return DiskMessage{}, errors.Internal("message not recorded", err)
	}

	at, seq, err := m.stamp()
	if err != nil {
		return DiskMessage{}, errors.Internal("sequence allocation failed", err)
	}
	if message.ID == uuid.Nil {
		message.ID = uuid.New()
	}
	message.At = at
	message.Seq = seq

	bytes, err := encodeMessage(message)
	if err != nil {
		return DiskMessage{}, errors.Internal("message encoding failed", err)
	}
	key := messageKey(domain.NewConversationKey(message.Sender, message.Recipient), at, seq)
	err = m.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, bytes)
	})
	if err != nil {
		return DiskMessage{}, errors.Internal("message not recorded", err)
	}
	return message, nil
}

// FetchConversation returns every message exchanged between a and b, in
// either direction, oldest first. It returns an empty slice when the pair
// never talked.
func (m *MessageRepository) FetchConversation(ctx context.Context, a, b domain.Identity) ([]DiskMessage, error) {
	if a.IsEmpty() || b.IsEmpty() {
		return nil, errors.ErrMissingParticipant
	}

	prefix := conversationPrefix(domain.NewConversationKey(a, b))
	messages := make([]DiskMessage, 0)
	err := m.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Prefix = prefix
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := it.Item().Value(func(value []byte) error {
				message, err := decodeMessage(value)
				if err != nil {
					return err
				}
				messages = append(messages, message)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.Internal("conversation not fetched", err)
	}
	m.log.Debug("Conversation fetched", "messages", len(messages))
	return messages, nil
}

// stamp hands out a timestamp that never goes backwards for this
// repository and the next sequence number, both under the same lock so
// that (timestamp, sequence) follows arrival order.
func (m *MessageRepository) stamp() (time.Time, uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	at := m.now()
	if at.Before(m.last) {
		at = m.last
	}
	seq, err := m.seq.Next()
	if err != nil {
		return time.Time{}, 0, err
	}
	m.last = at
	return at, seq, nil
}

func conversationPrefix(key domain.ConversationKey) []byte {
	return []byte(fmt.Sprintf("%s%s:%s:",
		messagePrefix,
		base64.RawURLEncoding.EncodeToString([]byte(key.Low)),
		base64.RawURLEncoding.EncodeToString([]byte(key.High)),
	))
}

func messageKey(key domain.ConversationKey, at time.Time, seq uint64) []byte {
	return append(conversationPrefix(key), []byte(fmt.Sprintf("%019d:%020d", at.UnixNano(), seq))...)
}
