package domain

// FetchConversationCommand asks for every message between Caller and Other.
type FetchConversationCommand struct {
	Caller Identity `validate:"required"`
	Other  Identity `validate:"required"`
}

// SendMessageCommand carries one new message. Exactly one of Content and
// Attachment must be set.
type SendMessageCommand struct {
	Sender     Identity `validate:"required"`
	Recipient  Identity `validate:"required"`
	Content    *string
	Attachment *AttachmentRef
}
