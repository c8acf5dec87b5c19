package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/stwalsh4118/estate/api/internal/errors"
	"github.com/stwalsh4118/estate/api/internal/middleware"
	"github.com/stwalsh4118/estate/api/internal/models"
	"github.com/stwalsh4118/estate/api/internal/services"
)

// DraftHandler serves the caller's in-progress property forms.
type DraftHandler struct {
	drafts *services.DraftService
}

// NewDraftHandler creates a new DraftHandler instance.
func NewDraftHandler(drafts *services.DraftService) *DraftHandler {
	return &DraftHandler{drafts: drafts}
}

// Register mounts the draft routes on rg.
func (h *DraftHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/drafts/property", h.Get)
	rg.PUT("/drafts/property", h.Put)
	rg.DELETE("/drafts/property", h.Delete)
}

// DraftResponse wraps a draft; Draft is null when the slot is empty.
type DraftResponse struct {
	Draft *models.PropertyDraft `json:"draft"`
	Slot  string                `json:"slot"`
}

// SaveDraftResponse reports whether the draft was persisted.
type SaveDraftResponse struct {
	Slot  string `json:"slot"`
	Saved bool   `json:"saved"`
}

// Get handles GET /api/v1/drafts/property?slot=.
func (h *DraftHandler) Get(c *gin.Context) {
	slot := c.Query("slot")
	draft, err := h.drafts.Load(c.Request.Context(), middleware.GetActor(c), slot)
	if err != nil {
		respondError(c, err, "Failed to load draft")
		return
	}
	c.JSON(http.StatusOK, DraftResponse{Draft: draft, Slot: slotName(slot)})
}

// Put handles PUT /api/v1/drafts/property?slot=.
func (h *DraftHandler) Put(c *gin.Context) {
	var draft models.PropertyDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		apierrors.BadRequest(c, "Invalid draft body", nil)
		return
	}

	slot := c.Query("slot")
	saved, err := h.drafts.Save(c.Request.Context(), middleware.GetActor(c), slot, &draft)
	if err != nil {
		respondError(c, err, "Failed to save draft")
		return
	}
	c.JSON(http.StatusOK, SaveDraftResponse{Saved: saved, Slot: slotName(slot)})
}

// Delete handles DELETE /api/v1/drafts/property?slot=.
func (h *DraftHandler) Delete(c *gin.Context) {
	if err := h.drafts.Clear(c.Request.Context(), middleware.GetActor(c), c.Query("slot")); err != nil {
		respondError(c, err, "Failed to clear draft")
		return
	}
	c.Status(http.StatusNoContent)
}

// slotName echoes the effective slot of an already accepted request.
func slotName(slot string) string {
	s, err := services.NormalizeSlot(slot)
	if err != nil {
		return slot
	}
	return s
}
