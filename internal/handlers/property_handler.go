package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	apierrors "github.com/stwalsh4118/estate/api/internal/errors"
	"github.com/stwalsh4118/estate/api/internal/middleware"
	"github.com/stwalsh4118/estate/api/internal/models"
	"github.com/stwalsh4118/estate/api/internal/repository"
	"github.com/stwalsh4118/estate/api/internal/services"
)

// PropertyHandler handles property, relation and media HTTP requests.
type PropertyHandler struct {
	properties services.PropertyService
	catalog    services.CatalogService
	maxUpload  int64
}

// NewPropertyHandler creates a new PropertyHandler instance. maxUpload
// bounds the size of a single uploaded file in bytes.
func NewPropertyHandler(properties services.PropertyService, catalog services.CatalogService, maxUpload int64) *PropertyHandler {
	return &PropertyHandler{
		properties: properties,
		catalog:    catalog,
		maxUpload:  maxUpload,
	}
}

// Register mounts the property routes on rg.
func (h *PropertyHandler) Register(rg *gin.RouterGroup) {
	properties := rg.Group("/properties")
	{
		properties.GET("", h.List)
		properties.POST("", h.Create)
		properties.GET("/:id", h.Get)
		properties.GET("/:id/details", h.GetDetails)
		properties.PATCH("/:id", h.Update)
		properties.DELETE("/:id", h.Delete)

		for _, relation := range models.Relations {
			properties.POST("/:id/"+string(relation), h.AddRelation(relation))
			properties.DELETE("/:id/"+string(relation)+"/:refId", h.RemoveRelation(relation))
		}

		properties.POST("/:id/nearby-points", h.AddNearbyPoint)
		properties.DELETE("/:id/nearby-points/:pointId", h.DeleteNearbyPoint)
		properties.POST("/:id/construction-updates", h.AddConstructionUpdate)
		properties.DELETE("/:id/construction-updates/:updateId", h.DeleteConstructionUpdate)

		for _, category := range models.MediaCategories {
			properties.POST("/:id/"+string(category), h.UploadAsset(category))
			properties.DELETE("/:id/"+string(category)+"/:assetId", h.DeleteAsset(category))
		}
		properties.POST("/:id/media", h.ScheduleMedia)
	}

	rg.GET("/media-jobs/:id", h.MediaJob)
}

// CatalogErrorResponse keeps the catalog shape on failure so list views can
// render an empty state.
type CatalogErrorResponse struct {
	services.CatalogResult
	Error apierrors.ErrorDetail `json:"error"`
}

// List handles GET /api/v1/properties.
func (h *PropertyHandler) List(c *gin.Context) {
	q := repository.ParseCatalogQuery(c.Request.URL.Query())

	result, err := h.catalog.List(c.Request.Context(), q)
	if err != nil {
		if log := middleware.GetLogger(c); log != nil {
			log.Error("Failed to list properties", err, map[string]interface{}{
				"query": c.Request.URL.RawQuery,
			})
		}
		if result == nil {
			result = services.EmptyCatalogResult()
		}
		c.JSON(http.StatusInternalServerError, CatalogErrorResponse{
			CatalogResult: *result,
			Error: apierrors.ErrorDetail{
				Code:      apierrors.ErrInternalServer,
				Message:   "Failed to load properties",
				RequestID: middleware.GetRequestID(c),
			},
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Get handles GET /api/v1/properties/:id.
func (h *PropertyHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	aggregate, err := h.properties.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to load property")
		return
	}
	c.JSON(http.StatusOK, aggregate)
}

// GetDetails handles GET /api/v1/properties/:id/details.
func (h *PropertyHandler) GetDetails(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	details, err := h.properties.GetDetails(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to load property details")
		return
	}
	c.JSON(http.StatusOK, details)
}

// Create handles POST /api/v1/properties. The body is either JSON or a
// multipart form with the JSON in the payload field and files under
// images, documents and floor-plans. media.<category>.uploads in the
// payload carries per-file metadata. ?draftSlot= clears that draft on
// success.
func (h *PropertyHandler) Create(c *gin.Context) {
	in, ok := h.bindInput(c)
	if !ok {
		return
	}

	result, err := h.properties.Create(c.Request.Context(), middleware.GetActor(c), in, c.Query("draftSlot"))
	if err != nil {
		respondError(c, err, "Failed to create property")
		return
	}

	h.logWrite(c, "Property create accepted", result)
	c.JSON(http.StatusCreated, result)
}

// Update handles PATCH /api/v1/properties/:id.
func (h *PropertyHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	in, ok := h.bindInput(c)
	if !ok {
		return
	}

	result, err := h.properties.Update(c.Request.Context(), middleware.GetActor(c), id, in)
	if err != nil {
		respondError(c, err, "Failed to update property")
		return
	}

	h.logWrite(c, "Property update accepted", result)
	c.JSON(http.StatusOK, result)
}

// Delete handles DELETE /api/v1/properties/:id. ?soft=true marks the row
// deleted instead of removing it.
func (h *PropertyHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	soft, _ := strconv.ParseBool(c.DefaultQuery("soft", "false"))

	if err := h.properties.Delete(c.Request.Context(), middleware.GetActor(c), id, soft); err != nil {
		respondError(c, err, "Failed to delete property")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PropertyHandler) bindInput(c *gin.Context) (*services.PropertyInput, bool) {
	in := &services.PropertyInput{}
	if err := bindJSONOrPayload(c, in); err != nil {
		apierrors.BadRequest(c, "Invalid request body", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, false
	}

	if isMultipart(c) {
		form, err := c.MultipartForm()
		if err != nil {
			apierrors.BadRequest(c, "Invalid multipart form", nil)
			return nil, false
		}
		uploads, err := formUploads(form, h.maxUpload, in.Media.UploadMeta())
		if err != nil {
			apierrors.BadRequest(c, err.Error(), nil)
			return nil, false
		}
		in.Uploads = uploads
	}
	return in, true
}

func (h *PropertyHandler) logWrite(c *gin.Context, msg string, result *services.WriteResult) {
	log := middleware.GetLogger(c)
	if log == nil {
		return
	}
	fields := map[string]interface{}{
		"property_id":           result.Property.ID.String(),
		"reconciled":            result.Reconciled,
		"nearby_points_dropped": len(result.NearbyPoints.Dropped),
		"updates_dropped":       len(result.ConstructionUpdates.Dropped),
	}
	if result.MediaJob != nil {
		fields["media_job_id"] = result.MediaJob.ID.String()
		fields["media_job_state"] = string(result.MediaJob.State)
	}
	log.Info(msg, fields)
}
