// Package media stores uploaded cover images in object storage.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"

	"github.com/google/uuid"
)

// MaxCoverSize is the largest accepted cover upload.
const MaxCoverSize = 5 << 20

var (
	ErrTooLarge        = errors.New("file too large")
	ErrUnsupportedType = errors.New("unsupported media type")
)

// Store is an object store addressed by slash-separated keys.
type Store interface {
	// Put writes r under key and returns the public URL of the object.
	Put(ctx context.Context, key, contentType string, r io.Reader) (string, error)
	// Delete removes key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error
}

var coverTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// Upload is a validated image held in memory.
type Upload struct {
	Data        []byte
	ContentType string
	Ext         string
}

// ReadCover reads at most MaxCoverSize bytes from r and checks the content
// is an accepted image type. The declared type is ignored; the bytes decide.
func ReadCover(r io.Reader) (*Upload, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxCoverSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) > MaxCoverSize {
		return nil, ErrTooLarge
	}
	ct := http.DetectContentType(data)
	ext, ok := coverTypes[ct]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, ct)
	}
	return &Upload{Data: data, ContentType: ct, Ext: ext}, nil
}

// CoverKey returns a fresh object key for a cover of the given entity kind
// ("subjects", "books").
func CoverKey(kind, id, ext string) string {
	return path.Join("covers", kind, id, uuid.NewString()+ext)
}

// PutCover stores u under a fresh cover key.
func PutCover(ctx context.Context, s Store, kind, id string, u *Upload) (key, url string, err error) {
	key = CoverKey(kind, id, u.Ext)
	url, err = s.Put(ctx, key, u.ContentType, bytes.NewReader(u.Data))
	if err != nil {
		return "", "", fmt.Errorf("store cover: %w", err)
	}
	return key, url, nil
}
