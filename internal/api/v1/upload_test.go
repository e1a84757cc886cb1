package v1_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/gosuda/menuboard/internal/api/v1"
	"github.com/gosuda/menuboard/internal/imagestore"
	"github.com/gosuda/menuboard/internal/metrics"
)

// pngHeader is enough for http.DetectContentType to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

// multipartBody builds a form with one file part. An empty field skips the
// file entirely.
func multipartBody(t *testing.T, field, filename, contentType string, data []byte) (io.Reader, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("note", "menu photo"))

	if field != "" {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
		if contentType != "" {
			h.Set("Content-Type", contentType)
		}
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}

	require.NoError(t, w.Close())
	return &buf, "Content-Type: " + w.FormDataContentType()
}

func okUploader(maxBytes int64) *mockUploader {
	return &mockUploader{
		maxBytes: maxBytes,
		putFunc: func(_ context.Context, r io.Reader, _ int64, _, original string) (string, error) {
			_, _ = io.Copy(io.Discard, r)
			return "https://cdn.example.com/menu/" + original, nil
		},
	}
}

func TestUploadImage(t *testing.T) {
	t.Parallel()

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		uploader := &mockUploader{maxBytes: 1024}
		uploader.putFunc = func(_ context.Context, r io.Reader, size int64, contentType, original string) (string, error) {
			data, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, int64(len(data)), size)
			assert.Equal(t, "image/png", contentType)
			assert.Equal(t, "sate.png", original)
			return "https://cdn.example.com/menu/sate.png", nil
		}
		_, api := humatest.New(t)
		v1.RegisterUploadRoutes(api, uploader, metrics.New())

		body, ct := multipartBody(t, "image", "sate.png", "image/png", pngHeader)
		resp := api.PostCtx(adminCtx(), "/upload-image", ct, body)

		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		var out struct {
			URL string `json:"url"`
		}
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
		assert.Equal(t, "https://cdn.example.com/menu/sate.png", out.URL)
		assert.Equal(t, 1, uploader.calls)
	})

	t.Run("sniffs_generic_type", func(t *testing.T) {
		t.Parallel()

		var gotType string
		uploader := okUploader(1024)
		uploader.putFunc = func(_ context.Context, r io.Reader, _ int64, contentType, _ string) (string, error) {
			gotType = contentType
			data, _ := io.ReadAll(r)
			assert.Equal(t, pngHeader, data)
			return "https://cdn.example.com/x", nil
		}
		_, api := humatest.New(t)
		v1.RegisterUploadRoutes(api, uploader, nil)

		body, ct := multipartBody(t, "image", "blob", "application/octet-stream", pngHeader)
		resp := api.PostCtx(adminCtx(), "/upload-image", ct, body)

		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		assert.Equal(t, "image/png", gotType)
	})

	t.Run("no_image_field", func(t *testing.T) {
		t.Parallel()

		uploader := okUploader(1024)
		_, api := humatest.New(t)
		v1.RegisterUploadRoutes(api, uploader, nil)

		body, ct := multipartBody(t, "", "", "", nil)
		resp := api.PostCtx(adminCtx(), "/upload-image", ct, body)

		assert.Equal(t, http.StatusBadRequest, resp.Code)
		e := decodeError(t, resp)
		assert.Equal(t, "validation failed", e.Error)
		assert.Equal(t, []string{imagestore.ErrNoFileProvided.Error()}, e.Details)
		assert.Zero(t, uploader.calls)
	})

	t.Run("too_large_never_reaches_store", func(t *testing.T) {
		t.Parallel()

		uploader := okUploader(8)
		_, api := humatest.New(t)
		v1.RegisterUploadRoutes(api, uploader, nil)

		body, ct := multipartBody(t, "image", "big.png", "image/png", bytes.Repeat([]byte{0xff}, 64))
		resp := api.PostCtx(adminCtx(), "/upload-image", ct, body)

		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Zero(t, uploader.calls)
	})

	t.Run("not_an_image", func(t *testing.T) {
		t.Parallel()

		uploader := okUploader(1024)
		_, api := humatest.New(t)
		v1.RegisterUploadRoutes(api, uploader, nil)

		body, ct := multipartBody(t, "image", "menu.pdf", "application/pdf", []byte("%PDF-1.7"))
		resp := api.PostCtx(adminCtx(), "/upload-image", ct, body)

		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Zero(t, uploader.calls)
	})

	t.Run("remote_failure_is_502", func(t *testing.T) {
		t.Parallel()

		uploader := &mockUploader{
			maxBytes: 1024,
			putFunc: func(context.Context, io.Reader, int64, string, string) (string, error) {
				return "", fmt.Errorf("%w: %w", imagestore.ErrUpload, io.ErrUnexpectedEOF)
			},
		}
		_, api := humatest.New(t)
		v1.RegisterUploadRoutes(api, uploader, nil)

		body, ct := multipartBody(t, "image", "sate.png", "image/png", pngHeader)
		resp := api.PostCtx(adminCtx(), "/upload-image", ct, body)

		assert.Equal(t, http.StatusBadGateway, resp.Code)
		e := decodeError(t, resp)
		assert.Equal(t, "image upload failed", e.Error)
		assert.Empty(t, e.Details)
	})

	t.Run("storage_not_configured", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterUploadRoutes(api, nil, nil)

		body, ct := multipartBody(t, "image", "sate.png", "image/png", pngHeader)
		resp := api.PostCtx(adminCtx(), "/upload-image", ct, body)

		assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
	})
}

func TestLimitUploadBody(t *testing.T) {
	t.Parallel()

	const limit = 2048

	newRequest := func(t *testing.T, size int, streamed bool) *http.Request {
		t.Helper()
		body, ct := multipartBody(t, "image", "big.png", "image/png", bytes.Repeat([]byte{0xff}, size))
		req := httptest.NewRequest(http.MethodPost, "/upload-image", body)
		req.Header.Set("Content-Type", strings.TrimPrefix(ct, "Content-Type: "))
		if streamed {
			req.ContentLength = -1
		}
		return req
	}

	tests := []struct {
		name     string
		size     int
		streamed bool
		wantNext bool
	}{
		{name: "declared_length_over_limit", size: 200 << 10},
		{name: "streamed_body_over_limit", size: 200 << 10, streamed: true},
		{name: "under_limit", size: 512, wantNext: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var form *multipart.Form
			called := false
			next := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				called = true
				form = r.MultipartForm
			})

			rec := httptest.NewRecorder()
			v1.LimitUploadBody(limit, metrics.New())(next).ServeHTTP(rec, newRequest(t, tt.size, tt.streamed))

			assert.Equal(t, tt.wantNext, called)
			if tt.wantNext {
				require.NotNil(t, form)
				assert.Len(t, form.File["image"], 1)
				return
			}

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			var e struct {
				Error   string   `json:"error"`
				Details []string `json:"details"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
			assert.Equal(t, "validation failed", e.Error)
			require.Len(t, e.Details, 1)
			assert.Contains(t, e.Details[0], imagestore.ErrFileTooLarge.Error())
		})
	}

	t.Run("disabled_without_limit", func(t *testing.T) {
		t.Parallel()

		called := false
		next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true })
		rec := httptest.NewRecorder()
		v1.LimitUploadBody(0, nil)(next).ServeHTTP(rec, newRequest(t, 4096, false))

		assert.True(t, called)
	})
}

func TestUploadBodyLimit(t *testing.T) {
	t.Parallel()

	assert.Zero(t, v1.UploadBodyLimit(nil))
	assert.Greater(t, v1.UploadBodyLimit(&mockUploader{maxBytes: 1024}), int64(1024))
}
