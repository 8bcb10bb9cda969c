package domain

// ConversationKey identifies the unordered pair of participants of a
// direct conversation. NewConversationKey(a, b) == NewConversationKey(b, a).
type ConversationKey struct {
	Low  Identity
	High Identity
}

func NewConversationKey(a, b Identity) ConversationKey {
	if b < a {
		a, b = b, a
	}
	return ConversationKey{Low: a, High: b}
}
