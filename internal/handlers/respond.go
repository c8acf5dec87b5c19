package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apierrors "github.com/stwalsh4118/estate/api/internal/errors"
	"github.com/stwalsh4118/estate/api/internal/media"
	"github.com/stwalsh4118/estate/api/internal/models"
	"github.com/stwalsh4118/estate/api/internal/services"
)

// payloadField is the multipart field carrying the JSON part of a request
// that also uploads files.
const payloadField = "payload"

// respondError maps a service error onto the JSON error envelope.
func respondError(c *gin.Context, err error, message string) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		apierrors.FieldErrors(c, verr.Fields)
	case errors.Is(err, services.ErrAuthenticationRequired):
		apierrors.Unauthorized(c, "Authentication required")
	case errors.Is(err, services.ErrForbidden):
		apierrors.Forbidden(c, "You are not allowed to modify this property")
	case errors.Is(err, services.ErrPropertyNotFound):
		apierrors.NotFound(c, "Property not found")
	case errors.Is(err, services.ErrAssetNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrJobNotFound):
		apierrors.NotFound(c, "Media job not found")
	case errors.Is(err, services.ErrConflict):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrDependencyConflict):
		apierrors.DependencyConflict(c, err.Error())
	case errors.Is(err, media.ErrQueueFull), errors.Is(err, media.ErrQueueClosed):
		apierrors.ServiceUnavailable(c, "Media processing is temporarily unavailable", err)
	default:
		apierrors.InternalServerError(c, message, err)
	}
}

// pathID parses a uuid path parameter, answering 400 when it is malformed.
func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		apierrors.BadRequest(c, fmt.Sprintf("Invalid %s", name), map[string]interface{}{
			name: c.Param(name),
		})
		return uuid.Nil, false
	}
	return id, true
}

func errInvalidField(name string) error {
	return fmt.Errorf("invalid %s", name)
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

// bindJSONOrPayload decodes the request body into dst. Multipart requests
// carry the JSON document in the payload field; a missing field leaves dst
// untouched.
func bindJSONOrPayload(c *gin.Context, dst any) error {
	if !isMultipart(c) {
		return c.ShouldBindJSON(dst)
	}
	raw := c.PostForm(payloadField)
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), dst)
}

// formUploads reads every file of the multipart form into memory, keyed by
// the media category named by the field. Files under other fields are
// ignored. Upload order within a category is preserved, and the i-th
// metadata entry of a category applies to its i-th file. Metadata without a
// matching file is ignored.
func formUploads(form *multipart.Form, maxBytes int64, meta map[models.MediaCategory][]models.UploadMeta) (map[models.MediaCategory][]media.Upload, error) {
	if form == nil {
		return nil, nil
	}
	uploads := make(map[models.MediaCategory][]media.Upload)
	for _, category := range models.MediaCategories {
		for i, fh := range form.File[string(category)] {
			upload, err := readUpload(fh, maxBytes)
			if err != nil {
				return nil, err
			}
			if i < len(meta[category]) {
				upload.Meta = meta[category][i].Asset()
			}
			uploads[category] = append(uploads[category], upload)
		}
	}
	if len(uploads) == 0 {
		return nil, nil
	}
	return uploads, nil
}

func readUpload(fh *multipart.FileHeader, maxBytes int64) (media.Upload, error) {
	if maxBytes > 0 && fh.Size > maxBytes {
		return media.Upload{}, fmt.Errorf("file %s exceeds the %d byte limit", fh.Filename, maxBytes)
	}
	f, err := fh.Open()
	if err != nil {
		return media.Upload{}, fmt.Errorf("failed to open %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return media.Upload{}, fmt.Errorf("failed to read %s: %w", fh.Filename, err)
	}
	return media.Upload{Filename: fh.Filename, Data: data}, nil
}
