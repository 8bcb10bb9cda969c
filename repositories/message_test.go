package repositories

import (
	"chat-dm/domain"
	"chat-dm/errors"
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func openRepository(t *testing.T) (*badger.DB, *MessageRepository) {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).
		WithLoggingLevel(badger.ERROR).
		WithValueLogFileSize(16 << 20))
	require.NoError(t, err)
	repository, err := NewMessageRepository(db, logs.GetLoggerFromLevel(slog.LevelError))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = repository.Close()
		_ = db.Close()
	})
	return db, repository
}

func text(content string) DiskMessage {
	return DiskMessage{Content: lo.ToPtr(content)}
}

func record(t *testing.T, repository *MessageRepository, from, to domain.Identity, content string) DiskMessage {
	t.Helper()
	message := text(content)
	message.Sender = from
	message.Recipient = to
	recorded, err := repository.RecordMessage(context.Background(), message)
	require.NoError(t, err)
	return recorded
}

func contents(messages []DiskMessage) []string {
	return lo.Map(messages, func(item DiskMessage, _ int) string {
		return lo.FromPtr(item.Content)
	})
}

func Test_Record_And_Fetch_Conversation_In_Order(t *testing.T) {
	req := require.New(t)
	_, repository := openRepository(t)
	ctx := context.Background()

	// Given Alice says hi and Bob answers
	record(t, repository, "alice", "bob", "hi")
	record(t, repository, "bob", "alice", "hello")

	// When Alice fetches the conversation
	messages, err := repository.FetchConversation(ctx, "alice", "bob")

	// Then both messages come back oldest first
	req.NoError(err)
	req.Len(messages, 2)
	req.Equal(domain.Identity("alice"), messages[0].Sender)
	req.Equal("hi", *messages[0].Content)
	req.Equal(domain.Identity("bob"), messages[1].Sender)
	req.Equal("hello", *messages[1].Content)
}

func Test_Fetch_Conversation_Is_Symmetric(t *testing.T) {
	req := require.New(t)
	_, repository := openRepository(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		record(t, repository, "alice", "bob", fmt.Sprintf("a%d", i))
		record(t, repository, "bob", "alice", fmt.Sprintf("b%d", i))
	}

	ab, err := repository.FetchConversation(ctx, "alice", "bob")
	req.NoError(err)
	ba, err := repository.FetchConversation(ctx, "bob", "alice")
	req.NoError(err)

	req.Len(ab, 10)
	req.Equal(contents(ab), contents(ba))
}

func Test_Fetch_Conversation_Is_Isolated_Per_Pair(t *testing.T) {
	req := require.New(t)
	_, repository := openRepository(t)
	ctx := context.Background()

	// Given identities that share a prefix
	record(t, repository, "a", "b", "a to b")
	record(t, repository, "ab", "b", "ab to b")
	record(t, repository, "a", "bc", "a to bc")
	record(t, repository, "a", "clara", "a to clara")

	messages, err := repository.FetchConversation(ctx, "b", "a")

	req.NoError(err)
	req.Equal([]string{"a to b"}, contents(messages))
}

func Test_Fetch_Empty_Conversation(t *testing.T) {
	req := require.New(t)
	_, repository := openRepository(t)

	messages, err := repository.FetchConversation(context.Background(), "alice", "bob")

	req.NoError(err)
	req.NotNil(messages)
	req.Empty(messages)
}

func Test_Fetch_Missing_Participant_Before_Storage(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	repository, err := NewMessageRepository(db, slog.Default())
	req.NoError(err)

	// Given a store that can no longer be read
	req.NoError(repository.Close())
	req.NoError(db.Close())

	// When a participant is missing
	_, err = repository.FetchConversation(context.Background(), "", "bob")
	req.ErrorIs(err, errors.ErrMissingParticipant)

	_, err = repository.FetchConversation(context.Background(), "alice", "")
	req.ErrorIs(err, errors.ErrMissingParticipant)
}

func Test_Record_Rejects_Malformed_Messages(t *testing.T) {
	req := require.New(t)
	_, repository := openRepository(t)
	ctx := context.Background()
	attachment := &domain.AttachmentRef{StoredPath: "file-1-1.png", OriginalName: "a.png", SizeBytes: 3, MimeType: "image/png"}

	// Neither content nor attachment
	_, err := repository.RecordMessage(ctx, DiskMessage{Sender: "alice", Recipient: "bob"})
	req.ErrorIs(err, errors.ErrMalformedMessage)

	// Both content and attachment
	_, err = repository.RecordMessage(ctx, DiskMessage{Sender: "alice", Recipient: "bob",
		Content: lo.ToPtr("hi"), Attachment: attachment})
	req.ErrorIs(err, errors.ErrMalformedMessage)

	// Missing recipient
	_, err = repository.RecordMessage(ctx, DiskMessage{Sender: "alice", Content: lo.ToPtr("hi")})
	req.ErrorIs(err, errors.ErrMissingParticipant)

	messages, err := repository.FetchConversation(ctx, "alice", "bob")
	req.NoError(err)
	req.Empty(messages)
}

func Test_Record_Attachment_Round_Trip(t *testing.T) {
	req := require.New(t)
	_, repository := openRepository(t)
	ctx := context.Background()
	attachment := &domain.AttachmentRef{
		StoredPath:       "file-1700000000000-42.pdf",
		OriginalName:     "invoice.pdf",
		SizeBytes:        2048,
		MimeType:         "application/pdf",
		DetectedMimeType: "application/pdf",
	}

	recorded, err := repository.RecordMessage(ctx, DiskMessage{Sender: "alice", Recipient: "bob", Attachment: attachment})
	req.NoError(err)

	messages, err := repository.FetchConversation(ctx, "bob", "alice")
	req.NoError(err)
	req.Len(messages, 1)
	req.Equal(recorded.ID, messages[0].ID)
	req.Nil(messages[0].Content)
	req.Equal(attachment, messages[0].Attachment)
	req.True(recorded.At.Equal(messages[0].At))
}

func Test_Same_Timestamp_Keeps_Arrival_Order(t *testing.T) {
	req := require.New(t)
	_, repository := openRepository(t)
	frozen := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	repository.WithClock(func() time.Time { return frozen })

	for i := 0; i < 20; i++ {
		record(t, repository, "alice", "bob", fmt.Sprintf("%02d", i))
	}

	messages, err := repository.FetchConversation(context.Background(), "alice", "bob")
	req.NoError(err)
	req.Len(messages, 20)
	for i, m := range messages {
		req.Equal(fmt.Sprintf("%02d", i), *m.Content)
		req.True(m.At.Equal(frozen))
	}
}

func Test_Timestamps_Never_Go_Backwards(t *testing.T) {
	req := require.New(t)
	_, repository := openRepository(t)
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	ticks := []time.Time{base, base.Add(-time.Hour), base.Add(time.Second), base.Add(-time.Minute)}
	i := 0
	repository.WithClock(func() time.Time {
		at := ticks[i]
		i++
		return at
	})

	for range ticks {
		record(t, repository, "alice", "bob", "tick")
	}

	messages, err := repository.FetchConversation(context.Background(), "alice", "bob")
	req.NoError(err)
	req.Len(messages, len(ticks))
	req.True(sort.SliceIsSorted(messages, func(a, b int) bool {
		return messages[a].At.Before(messages[b].At)
	}))
	req.True(messages[1].At.Equal(base))
	req.True(messages[3].At.Equal(base.Add(time.Second)))
}

func Test_Concurrent_Records_Are_All_Visible_And_Sorted(t *testing.T) {
	req := require.New(t)
	_, repository := openRepository(t)
	ctx := context.Background()
	const writers = 8
	const perWriter = 25

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			from, to := domain.Identity("alice"), domain.Identity("bob")
			if w%2 == 1 {
				from, to = to, from
			}
			for i := 0; i < perWriter; i++ {
				_, err := repository.RecordMessage(ctx, DiskMessage{Sender: from, Recipient: to,
					Content: lo.ToPtr(fmt.Sprintf("%d-%d", w, i))})
				if err != nil {
					t.Error(err)
				}
			}
		}(w)
	}
	wg.Wait()

	messages, err := repository.FetchConversation(ctx, "bob", "alice")
	req.NoError(err)
	req.Len(messages, writers*perWriter)
	for i := 1; i < len(messages); i++ {
		req.False(messages[i].At.Before(messages[i-1].At))
		req.Greater(messages[i].Seq, messages[i-1].Seq)
	}
}
