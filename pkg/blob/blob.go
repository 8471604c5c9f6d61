// Package blob stores lead photos and proposal attachments.
package blob

import (
	"context"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/jordanlanch/obramap/pkg/models"
)

// Kind is the folder a file is filed under inside an obra.
type Kind string

const (
	KindPhoto    Kind = "fotos"
	KindProposal Kind = "propostas"
)

// Store uploads files and hands out download URLs.
type Store interface {
	Upload(ctx context.Context, objectPath string, r io.Reader, size int64, contentType string) (models.Foto, error)
	DownloadURL(ctx context.Context, ref models.Foto) (string, error)
	Delete(ctx context.Context, ref models.Foto) error
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeFilename keeps the base name and replaces anything outside [A-Za-z0-9._-].
func SanitizeFilename(name string) string {
	base := path.Base(strings.ReplaceAll(name, `\`, "/"))
	base = unsafeChars.ReplaceAllString(base, "_")
	base = strings.Trim(base, "._")
	if base == "" {
		return "arquivo"
	}
	return base
}

// ObjectPath namespaces a file per user and per obra:
// users/{uid}/obras/{obraID}/{kind}/{uuid}-{filename}
func ObjectPath(userID, obraID string, kind Kind, filename string) string {
	return fmt.Sprintf("users/%s/obras/%s/%s/%s-%s", userID, obraID, kind, uuid.NewString(), SanitizeFilename(filename))
}

// OwnedBy reports whether ref lives under the user's namespace.
func OwnedBy(ref models.Foto, userID string) bool {
	return strings.HasPrefix(ref.RefPath, "users/"+userID+"/")
}
