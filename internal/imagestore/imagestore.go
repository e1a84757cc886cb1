// Package imagestore uploads menu images to an S3-compatible bucket and
// returns their public URLs.
package imagestore

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var (
	ErrNoFileProvided       = errors.New("no file provided")
	ErrFileTooLarge         = errors.New("file too large")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrUpload               = errors.New("image upload failed")
)

const (
	objectPrefix  = "menu/"
	maxBaseLength = 64
)

// Validate rejects an upload before anything is sent to the bucket.
func Validate(size int64, contentType string, maxBytes int64) error {
	if size <= 0 {
		return ErrNoFileProvided
	}
	if maxBytes > 0 && size > maxBytes {
		return fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrFileTooLarge, size, maxBytes)
	}
	mediaType, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(contentType)), ";")
	if !strings.HasPrefix(mediaType, "image/") || len(mediaType) == len("image/") {
		return fmt.Errorf("%w: %q", ErrUnsupportedMediaType, contentType)
	}
	return nil
}

// ObjectName builds a collision-resistant object key from the upload time and
// the client's original file name.
func ObjectName(now time.Time, original string) string {
	var suffix [4]byte
	_, _ = rand.Read(suffix[:])

	return strconv.FormatInt(now.UnixMilli(), 10) + "-" + hex.EncodeToString(suffix[:]) + "-" + sanitize(original)
}

func sanitize(original string) string {
	base := strings.ToLower(path.Base(strings.ReplaceAll(original, "\\", "/")))

	var b strings.Builder
	dash := false
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_':
			b.WriteRune(r)
			dash = false
		case !dash:
			b.WriteByte('-')
			dash = true
		}
	}

	out := strings.Trim(b.String(), "-.")
	if len(out) > maxBaseLength {
		out = strings.Trim(out[len(out)-maxBaseLength:], "-.")
	}
	if out == "" {
		return "image"
	}
	return out
}

// objectPutter is the subset of *minio.Client used by Store.
type objectPutter interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string //nolint:gosec // G117: storage credential
	Bucket    string
	UseSSL    bool
	// PublicURL is the base under which uploaded objects are readable. When
	// empty it is derived from the endpoint and bucket.
	PublicURL string
	MaxBytes  int64
}

type Store struct {
	client    objectPutter
	bucket    string
	publicURL string
	maxBytes  int64
	now       func() time.Time
}

// New builds a Store backed by a minio client. No request is made until the
// first Put.
func New(cfg Config) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("imagestore.New: %w", err)
	}

	publicURL := cfg.PublicURL
	if publicURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicURL = scheme + "://" + cfg.Endpoint + "/" + cfg.Bucket
	}

	return newStore(client, cfg.Bucket, publicURL, cfg.MaxBytes), nil
}

func newStore(client objectPutter, bucket, publicURL string, maxBytes int64) *Store {
	return &Store{
		client:    client,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
		maxBytes:  maxBytes,
		now:       time.Now,
	}
}

// MaxBytes returns the configured per-upload limit.
func (s *Store) MaxBytes() int64 {
	return s.maxBytes
}

// Put validates and uploads one image, returning its public URL. Remote
// failures are wrapped in ErrUpload. Nothing is retried or cleaned up.
func (s *Store) Put(ctx context.Context, r io.Reader, size int64, contentType, original string) (string, error) {
	if err := Validate(size, contentType, s.maxBytes); err != nil {
		return "", err
	}

	name := objectPrefix + ObjectName(s.now(), original)

	_, err := s.client.PutObject(ctx, s.bucket, name, r, size, minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: "public, max-age=31536000, immutable",
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUpload, err)
	}

	return s.publicURL + "/" + name, nil
}
