// Package media stores processed item photos and returns the reference kept
// in the item's image field.
package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/kurin/blazer/b2"

	"github.com/erazemk/lostfound/internal/imaging"
)

// Store saves an image for an item and returns a URL for it.
type Store interface {
	Put(ctx context.Context, itemID string, data []byte, mime string) (string, error)
}

// Inline keeps images inside the item record as data URLs.
type Inline struct{}

func (Inline) Put(_ context.Context, _ string, data []byte, mime string) (string, error) {
	return imaging.EncodeDataURL(mime, data), nil
}

// B2 uploads images to a Backblaze B2 bucket.
type B2 struct {
	Client *b2.Client
	Bucket *b2.Bucket
	Prefix string
	// BaseURL, if set, replaces the bucket's download URL in returned links
	// (a CDN in front of the bucket, for example).
	BaseURL string
	now     func() time.Time
}

// OpenB2 connects to the bucket.
func OpenB2(ctx context.Context, accountID, appKey, bucketName, prefix, baseURL string) (*B2, error) {
	client, err := b2.NewClient(ctx, accountID, appKey)
	if err != nil {
		return nil, fmt.Errorf("creating b2 client: %w", err)
	}

	bucket, err := client.Bucket(ctx, bucketName)
	if err != nil {
		return nil, fmt.Errorf("opening bucket %s: %w", bucketName, err)
	}

	return &B2{Client: client, Bucket: bucket, Prefix: prefix, BaseURL: baseURL, now: time.Now}, nil
}

func (s *B2) Put(ctx context.Context, itemID string, data []byte, _ string) (string, error) {
	key := objectKey(s.Prefix, itemID, s.now())

	w := s.Bucket.Object(key).NewWriter(ctx)
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		w.Close()
		return "", fmt.Errorf("writing object: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("closing object writer: %w", err)
	}

	if s.BaseURL != "" {
		return strings.TrimSuffix(s.BaseURL, "/") + "/" + key, nil
	}
	return fmt.Sprintf("%s/file/%s/%s", s.Bucket.BaseURL(), s.Bucket.Name(), key), nil
}

// objectKey names a photo upload. Every upload gets a new key so cached
// copies of a replaced photo are never served.
func objectKey(prefix, itemID string, at time.Time) string {
	return path.Join(prefix, "items", itemID, fmt.Sprintf("%d.jpg", at.UnixNano()))
}
