package imagestore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockPutter struct {
	calls  int
	bucket string
	name   string
	body   []byte
	opts   minio.PutObjectOptions
	err    error
}

func (m *mockPutter) PutObject(_ context.Context, bucket, name string, r io.Reader, _ int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	m.calls++
	m.bucket = bucket
	m.name = name
	m.opts = opts
	m.body, _ = io.ReadAll(r)
	if m.err != nil {
		return minio.UploadInfo{}, m.err
	}
	return minio.UploadInfo{Bucket: bucket, Key: name, Size: int64(len(m.body))}, nil
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		size        int64
		contentType string
		wantErr     error
	}{
		{name: "ok png", size: 10, contentType: "image/png"},
		{name: "ok with params", size: 10, contentType: "image/jpeg; charset=binary"},
		{name: "ok at limit", size: 100, contentType: "image/webp"},
		{name: "empty", size: 0, contentType: "image/png", wantErr: ErrNoFileProvided},
		{name: "too large", size: 101, contentType: "image/png", wantErr: ErrFileTooLarge},
		{name: "not an image", size: 10, contentType: "application/pdf", wantErr: ErrUnsupportedMediaType},
		{name: "bare image prefix", size: 10, contentType: "image/", wantErr: ErrUnsupportedMediaType},
		{name: "missing type", size: 10, contentType: "", wantErr: ErrUnsupportedMediaType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := Validate(tt.size, tt.contentType, 100)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestObjectName(t *testing.T) {
	t.Parallel()

	now := time.UnixMilli(1700000000123)
	pattern := regexp.MustCompile(`^1700000000123-[0-9a-f]{8}-(.+)$`)

	tests := []struct {
		original string
		wantBase string
	}{
		{"Nasi Goreng.JPG", "nasi-goreng.jpg"},
		{"../../etc/passwd", "passwd"},
		{`C:\photos\Es Teh.png`, "es-teh.png"},
		{"", "image"},
		{"???", "image"},
		{strings.Repeat("a", 100) + ".png", strings.Repeat("a", 60) + ".png"},
	}

	for _, tt := range tests {
		m := pattern.FindStringSubmatch(ObjectName(now, tt.original))
		require.Len(t, m, 2, tt.original)
		assert.Equal(t, tt.wantBase, m[1], tt.original)
		assert.LessOrEqual(t, len(m[1]), maxBaseLength)
	}

	assert.NotEqual(t, ObjectName(now, "a.png"), ObjectName(now, "a.png"))
}

func TestStore_Put(t *testing.T) {
	t.Parallel()

	putter := &mockPutter{}
	s := newStore(putter, "menu-images", "https://cdn.example.com/menu-images/", 1024)
	s.now = func() time.Time { return time.UnixMilli(42) }

	url, err := s.Put(context.Background(), bytes.NewReader([]byte("png-bytes")), 9, "image/png", "Sate.png")
	require.NoError(t, err)

	assert.Equal(t, 1, putter.calls)
	assert.Equal(t, "menu-images", putter.bucket)
	assert.True(t, strings.HasPrefix(putter.name, "menu/42-"))
	assert.True(t, strings.HasSuffix(putter.name, "-sate.png"))
	assert.Equal(t, "image/png", putter.opts.ContentType)
	assert.Equal(t, []byte("png-bytes"), putter.body)
	assert.Equal(t, "https://cdn.example.com/menu-images/"+putter.name, url)
}

func TestStore_Put_RejectedBeforeRemote(t *testing.T) {
	t.Parallel()

	putter := &mockPutter{}
	s := newStore(putter, "b", "https://cdn.example.com", 4)

	_, err := s.Put(context.Background(), bytes.NewReader([]byte("too big")), 7, "image/png", "x.png")
	require.ErrorIs(t, err, ErrFileTooLarge)

	_, err = s.Put(context.Background(), bytes.NewReader(nil), 0, "image/png", "x.png")
	require.ErrorIs(t, err, ErrNoFileProvided)

	assert.Zero(t, putter.calls)
}

func TestStore_Put_RemoteFailure(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection reset")
	s := newStore(&mockPutter{err: cause}, "b", "https://cdn.example.com", 1024)

	_, err := s.Put(context.Background(), bytes.NewReader([]byte("x")), 1, "image/gif", "x.gif")
	require.ErrorIs(t, err, ErrUpload)
	assert.ErrorIs(t, err, cause)
}

func TestNew_DerivesPublicURL(t *testing.T) {
	t.Parallel()

	s, err := New(Config{
		Endpoint:  "storage.example.com",
		AccessKey: "ak",
		SecretKey: "sk",
		Bucket:    "menu-images",
		UseSSL:    true,
		MaxBytes:  10,
	})
	require.NoError(t, err)

	assert.Equal(t, "https://storage.example.com/menu-images", s.publicURL)
	assert.Equal(t, int64(10), s.MaxBytes())
}
