package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apierrors "github.com/stwalsh4118/estate/api/internal/errors"
	"github.com/stwalsh4118/estate/api/internal/middleware"
	"github.com/stwalsh4118/estate/api/internal/models"
)

// RelationRequest is the body of a single association append.
type RelationRequest struct {
	ID uuid.UUID `json:"id" binding:"required"`
}

// AddRelation returns the handler for POST /properties/:id/<relation>.
func (h *PropertyHandler) AddRelation(relation models.Relation) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var req RelationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apierrors.BadRequest(c, "Body must be {\"id\": \"<uuid>\"}", nil)
			return
		}

		if err := h.properties.AddRelation(c.Request.Context(), middleware.GetActor(c), id, relation, req.ID); err != nil {
			respondError(c, err, "Failed to add "+string(relation))
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// RemoveRelation returns the handler for DELETE /properties/:id/<relation>/:refId.
func (h *PropertyHandler) RemoveRelation(relation models.Relation) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		refID, ok := pathID(c, "refId")
		if !ok {
			return
		}

		if err := h.properties.RemoveRelation(c.Request.Context(), middleware.GetActor(c), id, relation, refID); err != nil {
			respondError(c, err, "Failed to remove "+string(relation))
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// AddNearbyPoint handles POST /properties/:id/nearby-points.
func (h *PropertyHandler) AddNearbyPoint(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in models.NearbyPointInput
	if err := c.ShouldBindJSON(&in); err != nil {
		apierrors.BadRequest(c, "Invalid request body", nil)
		return
	}

	point, err := h.properties.AddNearbyPoint(c.Request.Context(), middleware.GetActor(c), id, in)
	if err != nil {
		respondError(c, err, "Failed to add nearby point")
		return
	}
	c.JSON(http.StatusCreated, point)
}

// DeleteNearbyPoint handles DELETE /properties/:id/nearby-points/:pointId.
func (h *PropertyHandler) DeleteNearbyPoint(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	pointID, ok := pathID(c, "pointId")
	if !ok {
		return
	}

	if err := h.properties.DeleteNearbyPoint(c.Request.Context(), middleware.GetActor(c), id, pointID); err != nil {
		respondError(c, err, "Failed to delete nearby point")
		return
	}
	c.Status(http.StatusNoContent)
}

// AddConstructionUpdate handles POST /properties/:id/construction-updates.
func (h *PropertyHandler) AddConstructionUpdate(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in models.ConstructionUpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		apierrors.BadRequest(c, "Invalid request body", nil)
		return
	}

	update, err := h.properties.AddConstructionUpdate(c.Request.Context(), middleware.GetActor(c), id, in)
	if err != nil {
		respondError(c, err, "Failed to add construction update")
		return
	}
	c.JSON(http.StatusCreated, update)
}

// DeleteConstructionUpdate handles DELETE /properties/:id/construction-updates/:updateId.
func (h *PropertyHandler) DeleteConstructionUpdate(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	updateID, ok := pathID(c, "updateId")
	if !ok {
		return
	}

	if err := h.properties.DeleteConstructionUpdate(c.Request.Context(), middleware.GetActor(c), id, updateID); err != nil {
		respondError(c, err, "Failed to delete construction update")
		return
	}
	c.Status(http.StatusNoContent)
}
