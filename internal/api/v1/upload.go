package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/menuboard/internal/imagestore"
	"github.com/gosuda/menuboard/internal/metrics"
)

// imageField is the multipart field carrying the upload.
const imageField = "image"

// multipartOverhead is allowed on top of the image limit for boundaries and
// part headers.
const multipartOverhead = 64 << 10

// multipartMemory is how much of a parsed form is held in memory before
// file parts spill to temporary files.
const multipartMemory = 32 << 10

type UploadImageInput struct {
	RawBody multipart.Form
}

type UploadImageOutput struct {
	Body struct {
		URL string `json:"url" doc:"Public URL of the stored image"`
	}
}

// RegisterUploadRoutes wires the image upload. uploader may be nil when no
// bucket is configured, in which case the route answers 503.
func RegisterUploadRoutes(api huma.API, uploader ImageUploader, m *metrics.Metrics) {
	maxBody := UploadBodyLimit(uploader)

	huma.Register(api, huma.Operation{
		OperationID:  "upload-image",
		Method:       http.MethodPost,
		Path:         "/upload-image",
		Summary:      "Upload a menu image",
		Tags:         []string{"Admin"},
		MaxBodyBytes: maxBody,
	}, func(ctx context.Context, input *UploadImageInput) (*UploadImageOutput, error) {
		if _, err := actor(ctx); err != nil {
			return nil, err
		}
		if uploader == nil {
			return nil, huma.Error503ServiceUnavailable("image storage is not configured")
		}

		files := input.RawBody.File[imageField]
		if len(files) == 0 {
			m.Upload(metrics.UploadRejected, 0)
			return nil, huma.Error400BadRequest("validation failed", imagestore.ErrNoFileProvided)
		}
		fh := files[0]

		f, err := fh.Open()
		if err != nil {
			return nil, huma.Error400BadRequest("could not read uploaded file", err)
		}
		defer f.Close()

		r, contentType, err := detectContentType(f, fh.Header.Get("Content-Type"))
		if err != nil {
			return nil, huma.Error400BadRequest("could not read uploaded file", err)
		}

		if err := imagestore.Validate(fh.Size, contentType, uploader.MaxBytes()); err != nil {
			return nil, uploadError(err, m)
		}

		url, err := uploader.Put(ctx, r, fh.Size, contentType, fh.Filename)
		if err != nil {
			return nil, uploadError(err, m)
		}

		m.Upload(metrics.UploadOK, fh.Size)
		out := &UploadImageOutput{}
		out.Body.URL = url
		return out, nil
	})
}

// UploadBodyLimit is the largest request body the upload route reads, or 0
// when uploads are disabled.
func UploadBodyLimit(uploader ImageUploader) int64 {
	if uploader == nil {
		return 0
	}
	return uploader.MaxBytes() + multipartOverhead
}

// LimitUploadBody caps the request body at limit bytes and parses multipart
// forms before the handler runs, so an oversized upload is rejected while it
// is read instead of after it has been spooled. The handler sees the parsed
// form on the same request. A limit <= 0 leaves the body alone.
func LimitUploadBody(limit int64, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				m.Upload(metrics.UploadRejected, 0)
				writeBodyTooLarge(w, limit)
				return
			}

			body := &limitedBody{ReadCloser: http.MaxBytesReader(w, r.Body, limit)}
			r.Body = body

			if isMultipart(r) {
				err := r.ParseMultipartForm(multipartMemory)
				if r.MultipartForm != nil {
					defer func() { _ = r.MultipartForm.RemoveAll() }()
				}
				if err != nil && body.exceeded {
					m.Upload(metrics.UploadRejected, 0)
					writeBodyTooLarge(w, limit)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// limitedBody records whether the wrapped http.MaxBytesReader hit its limit,
// whatever the multipart parser wraps the error in.
type limitedBody struct {
	io.ReadCloser
	exceeded bool
}

func (b *limitedBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		b.exceeded = true
	}
	return n, err
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

func writeBodyTooLarge(w http.ResponseWriter, limit int64) {
	body := newError(http.StatusBadRequest, "validation failed",
		fmt.Errorf("%w: request body exceeds limit of %d bytes", imagestore.ErrFileTooLarge, limit))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(body.GetStatus())
	_ = json.NewEncoder(w).Encode(body)
}

// detectContentType trusts the part's declared type unless it is missing or
// generic, in which case the leading bytes are sniffed.
func detectContentType(f io.Reader, declared string) (io.Reader, string, error) {
	if declared != "" && declared != "application/octet-stream" {
		return f, declared, nil
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, "", err
	}
	head = head[:n]

	return io.MultiReader(bytes.NewReader(head), f), http.DetectContentType(head), nil
}

func uploadError(err error, m *metrics.Metrics) error {
	switch {
	case errors.Is(err, imagestore.ErrNoFileProvided),
		errors.Is(err, imagestore.ErrFileTooLarge),
		errors.Is(err, imagestore.ErrUnsupportedMediaType):
		m.Upload(metrics.UploadRejected, 0)
		return huma.Error400BadRequest("validation failed", err)
	case errors.Is(err, imagestore.ErrUpload):
		m.Upload(metrics.UploadFailed, 0)
		return huma.NewError(http.StatusBadGateway, "image upload failed", err)
	default:
		m.Upload(metrics.UploadFailed, 0)
		return huma.Error500InternalServerError("image upload failed", err)
	}
}
