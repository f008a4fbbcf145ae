package media

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/kurin/blazer/b2"
)

// B2Config addresses a Backblaze B2 bucket.
type B2Config struct {
	AccountID string
	AppKey    string
	Bucket    string
	// PublicURL replaces the bucket download URL, e.g. for a CDN in front of
	// the bucket.
	PublicURL string
}

// B2Store keeps objects in a Backblaze B2 bucket.
type B2Store struct {
	bucket    *b2.Bucket
	publicURL string
}

// NewB2Store connects to B2 and opens the configured bucket.
func NewB2Store(ctx context.Context, cfg B2Config) (*B2Store, error) {
	client, err := b2.NewClient(ctx, cfg.AccountID, cfg.AppKey)
	if err != nil {
		return nil, fmt.Errorf("create b2 client: %w", err)
	}
	bucket, err := client.Bucket(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("open bucket %s: %w", cfg.Bucket, err)
	}
	public := strings.TrimRight(cfg.PublicURL, "/")
	if public == "" {
		public = fmt.Sprintf("%s/file/%s", bucket.BaseURL(), bucket.Name())
	}
	return &B2Store{bucket: bucket, publicURL: public}, nil
}

// Put uploads r under key.
func (s *B2Store) Put(ctx context.Context, key, contentType string, r io.Reader) (string, error) {
	w := s.bucket.Object(key).NewWriter(ctx, b2.WithAttrsOption(&b2.Attrs{ContentType: contentType}))
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return "", fmt.Errorf("write object %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close object %s: %w", key, err)
	}
	return s.publicURL + "/" + key, nil
}

// Delete removes key from the bucket.
func (s *B2Store) Delete(ctx context.Context, key string) error {
	err := s.bucket.Object(key).Delete(ctx)
	if err == nil || b2.IsNotExist(err) {
		return nil
	}
	return fmt.Errorf("delete object %s: %w", key, err)
}
