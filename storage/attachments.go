//go:generate go run go.uber.org/mock/mockgen -source=attachments.go -destination=../mocks/mock_attachment_store.go -package=mocks
package storage

import (
	"bytes"
	"chat-dm/domain"
	"chat-dm/domain/mimetypes"
	"chat-dm/errors"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
)

const (
	// FileField is the only multipart field accepted as an upload.
	FileField = "file"

	sniffLen        = 3072
	maxNameAttempts = 8
	stagingPattern  = ".upload-*.part"
)

type IAttachmentStore interface {
	Ingest(ctx context.Context, desc FileDescriptor, r io.Reader) (domain.AttachmentRef, error)
	IngestMultipart(ctx context.Context, parts PartReader) (Upload, error)
	Resolve(ref domain.AttachmentRef) (domain.AttachmentRef, error)
}

// FileDescriptor is what the client declared about an upload.
type FileDescriptor struct {
	FieldName string `validate:"required,alphanum,max=64"`
	Filename  string `validate:"required,max=1024"`
	MimeType  string
}

// AttachmentStore validates uploads and writes them under root.
// Payloads are staged under a hidden name and only linked to their public
// name once every check passed.
type AttachmentStore struct {
	log       *slog.Logger
	validator *validator.Validate
	root      string
	maxSize   int64
	now       func() time.Time
	random    func() int64
}

func NewAttachmentStore(log *slog.Logger, root string, maxSizeMb int) (*AttachmentStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err = os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("uploads directory not created: %w", err)
	}
	return &AttachmentStore{
		log:       log,
		validator: validator.New(),
		root:      abs,
		maxSize:   int64(maxSizeMb) * domain.MB,
		now:       time.Now,
		random:    func() int64 { return rand.Int64N(1e9) },
	}, nil
}

// Root is the absolute directory holding published files.
func (s *AttachmentStore) Root() string { return s.root }

// MaxSize is the upload limit in bytes.
func (s *AttachmentStore) MaxSize() int64 { return s.maxSize }

// Ingest validates and stores a single payload.
func (s *AttachmentStore) Ingest(ctx context.Context, desc FileDescriptor, r io.Reader) (domain.AttachmentRef, error) {
	staged, err := s.stage(ctx, desc, r)
	if err != nil {
		return domain.AttachmentRef{}, err
	}
	if staged.size == 0 {
		staged.discard()
		return domain.AttachmentRef{}, errors.ErrNoFileProvided
	}
	return staged.commit()
}

// Resolve checks a reference supplied by a client against the published
// file. The declared type must be allowed for the stored extension. Size
// and detected type are read from the file, never trusted from ref.
func (s *AttachmentStore) Resolve(ref domain.AttachmentRef) (domain.AttachmentRef, error) {
	info, ok := s.lookup(ref.StoredPath)
	if !ok {
		return domain.AttachmentRef{}, errors.ErrUnknownAttachment
	}
	if !mimetypes.Allowed(ref.StoredPath, ref.MimeType) {
		s.log.Debug("Attachment reference rejected", "stored_path", ref.StoredPath, "mime_type", ref.MimeType)
		return domain.AttachmentRef{}, errors.ErrUnsupportedFileType
	}
	detected, err := mimetype.DetectFile(filepath.Join(s.root, ref.StoredPath))
	if err != nil {
		return domain.AttachmentRef{}, errors.Internal("attachment not read", err)
	}
	if ref.OriginalName == "" {
		ref.OriginalName = ref.StoredPath
	}
	ref.SizeBytes = info.Size()
	ref.DetectedMimeType = detected.String()
	return ref, nil
}

// lookup finds the published file named storedPath. Staging files,
// directories and anything outside root are never found.
func (s *AttachmentStore) lookup(storedPath string) (fs.FileInfo, bool) {
	if storedPath == "" || strings.HasPrefix(storedPath, ".") || filepath.Base(storedPath) != storedPath {
		return nil, false
	}
	info, err := os.Stat(filepath.Join(s.root, storedPath))
	if err != nil || !info.Mode().IsRegular() {
		return nil, false
	}
	return info, true
}

type staged struct {
	store    *AttachmentStore
	desc     FileDescriptor
	tmpPath  string
	size     int64
	detected string
}

// stage checks the declared type, then copies the payload to a hidden
// file while enforcing the size limit.
func (s *AttachmentStore) stage(ctx context.Context, desc FileDescriptor, r io.Reader) (*staged, error) {
	if err := s.validator.Struct(desc); err != nil {
		if desc.Filename == "" {
			return nil, errors.ErrNoFileProvided
		}
		return nil, errors.Internal("invalid file descriptor", err)
	}
	if !mimetypes.Allowed(desc.Filename, desc.MimeType) {
		s.log.Debug("Upload rejected", "reason", "type", "filename", desc.Filename, "mime_type", desc.MimeType)
		return nil, errors.ErrUnsupportedFileType
	}

	tmp, err := os.CreateTemp(s.root, stagingPattern)
	if err != nil {
		return nil, errors.Internal("staging file not created", err)
	}
	st := &staged{store: s, desc: desc, tmpPath: tmp.Name()}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !stderrors.Is(err, io.EOF) && !stderrors.Is(err, io.ErrUnexpectedEOF) {
		_ = tmp.Close()
		st.discard()
		return nil, s.readFailure(err)
	}
	head = head[:n]
	st.detected = mimetype.Detect(head).String()

	body := io.LimitReader(io.MultiReader(bytes.NewReader(head), r), s.maxSize+1)
	written, err := io.Copy(tmp, body)
	closeErr := tmp.Close()
	switch {
	case err != nil:
		st.discard()
		return nil, s.readFailure(err)
	case closeErr != nil:
		st.discard()
		return nil, errors.Internal("staging file not flushed", closeErr)
	case written > s.maxSize:
		st.discard()
		s.log.Debug("Upload rejected", "reason", "size", "filename", desc.Filename,
			"limit", humanize.IBytes(uint64(s.maxSize)))
		return nil, s.tooLarge()
	case ctx.Err() != nil:
		st.discard()
		return nil, errors.Internal("upload interrupted", ctx.Err())
	}
	st.size = written
	return st, nil
}

// commit publishes the staged payload under
// "<fieldname>-<unix millis>-<random><original extension>".
// A hard link never replaces an existing file, so a name taken by a
// concurrent upload simply triggers another draw.
func (st *staged) commit() (domain.AttachmentRef, error) {
	s := st.store
	ext := filepath.Ext(st.desc.Filename)
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		name := fmt.Sprintf("%s-%d-%d%s", st.desc.FieldName, s.now().UnixMilli(), s.random(), ext)
		target := filepath.Join(s.root, name)
		err := os.Link(st.tmpPath, target)
		if err == nil {
			st.discard()
			storedPath, err := s.publicPath(target)
			if err != nil {
				return domain.AttachmentRef{}, errors.Internal("stored path not resolved", err)
			}
			s.log.Info("File uploaded successfully", "stored_path", storedPath,
				"original_name", st.desc.Filename, "size", humanize.IBytes(uint64(st.size)))
			return domain.AttachmentRef{
				StoredPath:       storedPath,
				OriginalName:     st.desc.Filename,
				SizeBytes:        st.size,
				MimeType:         st.desc.MimeType,
				DetectedMimeType: st.detected,
			}, nil
		}
		if !stderrors.Is(err, fs.ErrExist) {
			st.discard()
			return domain.AttachmentRef{}, errors.Internal("file not published", err)
		}
		s.log.Debug("Stored name already taken, drawing another", "name", name)
	}
	st.discard()
	return domain.AttachmentRef{}, errors.Internal("file not published", fmt.Errorf("no free name after %d attempts", maxNameAttempts))
}

func (st *staged) discard() {
	if err := os.Remove(st.tmpPath); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		st.store.log.Warn("Staging file not removed", "path", st.tmpPath, "error", err)
	}
}

// publicPath strips the storage root from an absolute path and normalises
// separators to '/'.
func (s *AttachmentStore) publicPath(abs string) (string, error) {
	rel, err := filepath.Rel(s.root, abs)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

func (s *AttachmentStore) tooLarge() error {
	return errors.ErrFileTooLarge.WithMsg(fmt.Sprintf("File size too large. Maximum size is %dMB.", s.maxSize/domain.MB))
}

func (s *AttachmentStore) readFailure(err error) error {
	if isBodyTooLarge(err) {
		return s.tooLarge()
	}
	return errors.Internal("upload not read", err)
}
