// Package domain contains core concepts of the direct-messaging system.
// This file defines Message records and related rules.
// Messages are immutable once recorded.
package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Identity identifies a user. It is only trusted once a credential has
// been verified.
type Identity string

func (i Identity) String() string { return string(i) }

func (i Identity) IsEmpty() bool { return i == "" }

// NumericIdentity renders a numeric user id in plain decimal.
func NumericIdentity(v float64) Identity {
	return Identity(strconv.FormatFloat(v, 'f', -1, 64))
}

// UnmarshalJSON accepts a JSON string or number. Null leaves the identity
// empty.
func (i *Identity) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
		*i = ""
	case string:
		*i = Identity(v)
	case float64:
		*i = NumericIdentity(v)
	default:
		return fmt.Errorf("identity must be a string or a number, got %s", data)
	}
	return nil
}

// Message represents an immutable direct message between two users.
type Message struct {
	ID         uuid.UUID
	Sender     Identity
	Recipient  Identity
	Content    *string
	Attachment *AttachmentRef
	Timestamp  time.Time
	Sequence   uint64 // store-assigned, breaks timestamp ties in arrival order
}

// HasExactlyOneBody reports whether exactly one of content or attachment
// is present.
func HasExactlyOneBody(content *string, attachment *AttachmentRef) bool {
	return (content != nil) != (attachment != nil)
}

// AttachmentRef points at a stored upload.
type AttachmentRef struct {
	StoredPath       string
	OriginalName     string
	SizeBytes        int64
	MimeType         string
	DetectedMimeType string
}

// PublicPath is the URL under which the stored file is served.
func (a AttachmentRef) PublicPath() string {
	return PublicFilesPrefix + a.StoredPath
}

const PublicFilesPrefix = "/uploads/files/"

const KB = 1024
const MB = KB * KB

// MaxContentLen bounds the text of a message, in bytes.
const MaxContentLen = 64 * KB
