package mimetypes

import (
	"mime"
	"path/filepath"
	"strings"
)

type MIME string

const (
	Unknown   MIME = "unknown"
	TextPlain MIME = "text/plain"

	ApplicationPDF    MIME = "application/pdf"
	ApplicationMSWord MIME = "application/msword"
	ApplicationDOCX   MIME = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

	ImagePNG   MIME = "image/png"
	ImageJPEG  MIME = "image/jpeg"
	ImagePJPEG MIME = "image/pjpeg"
	ImageGIF   MIME = "image/gif"
)

// allowed maps every accepted extension to the MIME types a client may
// declare for it.
var allowed = map[string][]MIME{
	".jpg":  {ImageJPEG, ImagePJPEG},
	".jpeg": {ImageJPEG, ImagePJPEG},
	".png":  {ImagePNG},
	".gif":  {ImageGIF},
	".pdf":  {ApplicationPDF},
	".doc":  {ApplicationMSWord},
	".docx": {ApplicationDOCX},
	".txt":  {TextPlain},
}

// Extension returns the lower-cased extension of filename, dot included.
func Extension(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// Matches parses detected and reports whether its media type is expected.
func Matches(detected string, expected MIME) (MIME, bool) {
	mt, _, err := mime.ParseMediaType(detected)
	if err != nil {
		return Unknown, false
	}
	return expected, mt == string(expected)
}

// Allowed reports whether both the extension of filename and the declared
// MIME type are on the allow-list and agree with each other.
func Allowed(filename, declared string) bool {
	candidates, ok := allowed[Extension(filename)]
	if !ok {
		return false
	}
	for _, c := range candidates {
		if _, match := Matches(declared, c); match {
			return true
		}
	}
	return false
}
