package repositories

import (
	"chat-dm/domain"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

// messageRecord is the CBOR layout of a DiskMessage.
// Integer keys keep records compact; never renumber them.
type messageRecord struct {
	ID         []byte            `cbor:"1,keyasint"`
	Sender     string            `cbor:"2,keyasint"`
	Recipient  string            `cbor:"3,keyasint"`
	Content    *string           `cbor:"4,keyasint,omitempty"`
	Attachment *attachmentRecord `cbor:"5,keyasint,omitempty"`
	At         int64             `cbor:"6,keyasint"`
	Seq        uint64            `cbor:"7,keyasint"`
}

type attachmentRecord struct {
	StoredPath       string `cbor:"1,keyasint"`
	OriginalName     string `cbor:"2,keyasint"`
	SizeBytes        int64  `cbor:"3,keyasint"`
	MimeType         string `cbor:"4,keyasint"`
	DetectedMimeType string `cbor:"5,keyasint,omitempty"`
}

func encodeMessage(message DiskMessage) ([]byte, error) {
	record := messageRecord{
		ID:        message.ID[:],
		Sender:    message.Sender.String(),
		Recipient: message.Recipient.String(),
		Content:   message.Content,
		At:        message.At.UnixNano(),
		Seq:       message.Seq,
	}
	if a := message.Attachment; a != nil {
		record.Attachment = &attachmentRecord{
			StoredPath:       a.StoredPath,
			OriginalName:     a.OriginalName,
			SizeBytes:        a.SizeBytes,
			MimeType:         a.MimeType,
			DetectedMimeType: a.DetectedMimeType,
		}
	}
	return cbor.Marshal(record)
}

func decodeMessage(data []byte) (DiskMessage, error) {
	var record messageRecord
	if err := cbor.Unmarshal(data, &record); err != nil {
		return DiskMessage{}, err
	}
	id, err := uuid.FromBytes(record.ID)
	if err != nil {
		return DiskMessage{}, err
	}
	message := DiskMessage{
		ID:        id,
		Sender:    domain.Identity(record.Sender),
		Recipient: domain.Identity(record.Recipient),
		Content:   record.Content,
		At:        time.Unix(0, record.At).UTC(),
		Seq:       record.Seq,
	}
	if a := record.Attachment; a != nil {
		message.Attachment = &domain.AttachmentRef{
			StoredPath:       a.StoredPath,
			OriginalName:     a.OriginalName,
			SizeBytes:        a.SizeBytes,
			MimeType:         a.MimeType,
			DetectedMimeType: a.DetectedMimeType,
		}
	}
	return message, nil
}
