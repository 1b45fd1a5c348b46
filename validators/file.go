package validators

import (
	"bytes"
	"errors"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrNoFile          = errors.New("no file provided")
	ErrNotAZip         = errors.New("file must be a ZIP archive")
	ErrNoSpace         = errors.New("not enough space to upload file")
	ErrFileNameTooLong = errors.New("file name is too long")
)

// zipSignature is the ZIP local-file-header magic
var zipSignature = []byte{'P', 'K', 0x03, 0x04}

const maxFileNameSize = 255

// ArchiveValidator checks that the uploaded bytes are a ZIP archive and
// that they fit into the owner's remaining quota. Both checks run
// before anything is written anywhere. Returns the detected content
// type on success.
func ArchiveValidator(content []byte, filename string, remainingSpace int64) (string, error) {
	if len(content) == 0 {
		return "", ErrNoFile
	}

	if len(filename) > maxFileNameSize {
		return "", ErrFileNameTooLong
	}

	if !bytes.HasPrefix(content, zipSignature) {
		return "", ErrNotAZip
	}

	if int64(len(content)) > remainingSpace {
		return "", ErrNoSpace
	}

	return mimetype.Detect(content).String(), nil
}
