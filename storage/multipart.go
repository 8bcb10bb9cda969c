package storage

import (
	"chat-dm/domain"
	"chat-dm/errors"
	"context"
	stderrors "errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
)

// PartReader is satisfied by *multipart.Reader.
type PartReader interface {
	NextPart() (*multipart.Part, error)
}

// Upload is the outcome of reading a multipart body.
// Attachment is nil when the body carried no file.
type Upload struct {
	Attachment *domain.AttachmentRef
	Values     map[string]string
}

// IngestMultipart reads a whole multipart body. At most one file part,
// named FileField, is accepted. Plain fields end up in Values and may not
// exceed domain.MaxContentLen.
// Nothing is published unless the body is consumed without error.
func (s *AttachmentStore) IngestMultipart(ctx context.Context, parts PartReader) (Upload, error) {
	upload := Upload{Values: make(map[string]string)}
	var pending *staged
	fail := func(err error) (Upload, error) {
		if pending != nil {
			pending.discard()
		}
		return Upload{}, err
	}

	for {
		part, err := parts.NextPart()
		if stderrors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fail(s.readFailure(err))
		}

		if !isFilePart(part) {
			value, err := io.ReadAll(io.LimitReader(part, domain.MaxContentLen+1))
			_ = part.Close()
			if err != nil {
				return fail(s.readFailure(err))
			}
			if len(value) > domain.MaxContentLen {
				s.log.Debug("Multipart value rejected", "field", part.FormName(), "limit", domain.MaxContentLen)
				return fail(errors.ErrMessageTooLong)
			}
			upload.Values[part.FormName()] = string(value)
			continue
		}
		if part.FileName() == "" {
			// An empty file input.
			_ = part.Close()
			continue
		}
		if pending != nil || part.FormName() != FileField {
			_ = part.Close()
			return fail(errors.ErrTooManyFiles)
		}

		pending, err = s.stage(ctx, FileDescriptor{
			FieldName: part.FormName(),
			Filename:  part.FileName(),
			MimeType:  part.Header.Get("Content-Type"),
		}, part)
		_ = part.Close()
		if err != nil {
			return fail(err)
		}
	}

	if pending == nil {
		return upload, nil
	}
	if pending.size == 0 {
		pending.discard()
		return upload, nil
	}
	ref, err := pending.commit()
	if err != nil {
		return Upload{}, err
	}
	upload.Attachment = &ref
	return upload, nil
}

// isFilePart reports whether the part declared a filename parameter, even
// an empty one.
func isFilePart(part *multipart.Part) bool {
	_, params, err := mime.ParseMediaType(part.Header.Get("Content-Disposition"))
	if err != nil {
		return false
	}
	_, ok := params["filename"]
	return ok
}

func isBodyTooLarge(err error) bool {
	var maxBytesErr *http.MaxBytesError
	if stderrors.As(err, &maxBytesErr) {
		return true
	}
	return strings.Contains(err.Error(), "request body too large")
}
