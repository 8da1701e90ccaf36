// Package blob stores the binary payloads of the service: song audio,
// song banners and profile pictures. A Storage holds opaque byte streams
// under string keys; everything else (ownership, metadata) lives in the
// document store.
package blob

import (
	"context"
	"errors"
	"io"
	"path"

	"github.com/google/uuid"
)

// ErrNotFound reports that no object exists under the requested key.
var ErrNotFound = errors.New("blob: object not found")

// Storage reads and writes binary objects by key.
type Storage interface {
	// Save writes the object under key, replacing any previous content.
	Save(ctx context.Context, key string, contentType string, r io.Reader) error

	// Open returns the object's content and its stored content type.
	// The caller must close the reader.
	Open(ctx context.Context, key string) (io.ReadCloser, string, error)

	// Remove deletes the object. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
}

// NewKey builds an object key of the form "<prefix>/<uuid><ext>".
// ext should carry its dot ("" is fine for extensionless payloads).
func NewKey(prefix, ext string) string {
	return path.Join(prefix, uuid.NewString()+ext)
}

// ExtensionForContentType maps the media types the service accepts to a
// filename extension. Unknown types get no extension.
func ExtensionForContentType(ct string) string {
	switch ct {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "audio/mpeg":
		return ".mp3"
	case "audio/wav", "audio/x-wav":
		return ".wav"
	case "audio/ogg":
		return ".ogg"
	case "audio/flac":
		return ".flac"
	default:
		return ""
	}
}
