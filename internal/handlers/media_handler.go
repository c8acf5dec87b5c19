package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apierrors "github.com/stwalsh4118/estate/api/internal/errors"
	"github.com/stwalsh4118/estate/api/internal/media"
	"github.com/stwalsh4118/estate/api/internal/middleware"
	"github.com/stwalsh4118/estate/api/internal/models"
	"github.com/stwalsh4118/estate/api/internal/services"
)

// UploadAsset returns the handler for POST /properties/:id/<category>.
// The multipart form carries one file under "file" plus optional title,
// sizeLabel, documentTypeId and isFeatured fields.
func (h *PropertyHandler) UploadAsset(category models.MediaCategory) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}

		fh, err := c.FormFile("file")
		if err != nil {
			apierrors.BadRequest(c, "A file is required in the \"file\" field", nil)
			return
		}
		upload, err := readUpload(fh, h.maxUpload)
		if err != nil {
			apierrors.BadRequest(c, err.Error(), nil)
			return
		}

		meta, err := assetMeta(c)
		if err != nil {
			apierrors.BadRequest(c, err.Error(), nil)
			return
		}
		upload.Meta = meta

		inserted, err := h.properties.UploadAsset(c.Request.Context(), middleware.GetActor(c), id, category, upload)
		if err != nil {
			respondError(c, err, "Failed to upload "+string(category))
			return
		}
		c.JSON(http.StatusCreated, inserted)
	}
}

// DeleteAsset returns the handler for DELETE /properties/:id/<category>/:assetId.
func (h *PropertyHandler) DeleteAsset(category models.MediaCategory) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		assetID, ok := pathID(c, "assetId")
		if !ok {
			return
		}

		if err := h.properties.DeleteAsset(c.Request.Context(), middleware.GetActor(c), id, category, assetID); err != nil {
			respondError(c, err, "Failed to delete "+string(category))
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// ScheduleMedia handles POST /properties/:id/media. The payload field holds
// the delete, pre-stored add and per-file upload metadata per category;
// files are read from the images, documents and floor-plans fields. The job runs after
// the response is written.
func (h *PropertyHandler) ScheduleMedia(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var in services.MediaInput
	if err := bindJSONOrPayload(c, &in); err != nil {
		apierrors.BadRequest(c, "Invalid request body", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	var uploads map[models.MediaCategory][]media.Upload
	if isMultipart(c) {
		form, err := c.MultipartForm()
		if err != nil {
			apierrors.BadRequest(c, "Invalid multipart form", nil)
			return
		}
		if uploads, err = formUploads(form, h.maxUpload, in.UploadMeta()); err != nil {
			apierrors.BadRequest(c, err.Error(), nil)
			return
		}
	}

	status, err := h.properties.ScheduleMedia(c.Request.Context(), middleware.GetActor(c), id, in, uploads)
	if err != nil {
		respondError(c, err, "Failed to schedule media changes")
		return
	}

	c.Header("Location", "/api/v1/media-jobs/"+status.ID.String())
	c.JSON(http.StatusAccepted, status)
}

// MediaJob handles GET /api/v1/media-jobs/:id.
func (h *PropertyHandler) MediaJob(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	status, err := h.properties.MediaJob(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to load media job")
		return
	}
	c.JSON(http.StatusOK, status)
}

func assetMeta(c *gin.Context) (models.StoredAsset, error) {
	var meta models.StoredAsset
	if title := strings.TrimSpace(c.PostForm("title")); title != "" {
		meta.Title = &title
	}
	if label := strings.TrimSpace(c.PostForm("sizeLabel")); label != "" {
		meta.SizeLabel = &label
	}
	if raw := strings.TrimSpace(c.PostForm("documentTypeId")); raw != "" {
		typeID, err := uuid.Parse(raw)
		if err != nil {
			return meta, errInvalidField("documentTypeId")
		}
		meta.DocumentTypeID = &typeID
	}
	if raw := c.PostForm("isFeatured"); raw != "" {
		featured, err := strconv.ParseBool(raw)
		if err != nil {
			return meta, errInvalidField("isFeatured")
		}
		meta.IsFeatured = featured
	}
	return meta, nil
}
