package source

import (
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
)

// PlaylistExtension is the only file extension accepted for uploads.
const PlaylistExtension = ".m3u"

// ErrUnsupportedExtension is returned for uploads that are not .m3u files.
var ErrUnsupportedExtension = errors.New("only .m3u files are accepted")

// HasPlaylistExtension reports whether name ends in .m3u, ignoring case.
func HasPlaylistExtension(name string) bool {
	return strings.EqualFold(filepath.Ext(name), PlaylistExtension)
}

// ReadUpload returns the full text of an uploaded playlist file.
func ReadUpload(fh *multipart.FileHeader, maxBytes int64) (string, error) {
	if !HasPlaylistExtension(fh.Filename) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedExtension, fh.Filename)
	}
	if maxBytes > 0 && fh.Size > maxBytes {
		return "", fmt.Errorf("%w: %d bytes", ErrTooLarge, fh.Size)
	}

	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload %q: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := readLimited(f, maxBytes)
	if err != nil {
		return "", err
	}
	return DecodeText(data, "")
}
