package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inkfest/inkfest-api/internal/models"
	"github.com/inkfest/inkfest-api/internal/service"
	appErrors "github.com/inkfest/inkfest-api/pkg/errors"
	"github.com/inkfest/inkfest-api/pkg/response"
)

// FestivalHandler handles festival and event-day endpoints.
type FestivalHandler struct {
	service *service.FestivalService
}

// NewFestivalHandler creates a new festival handler.
func NewFestivalHandler(svc *service.FestivalService) *FestivalHandler {
	return &FestivalHandler{service: svc}
}

// List godoc
// @Summary List festivals
// @Tags Festivals
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /festivals [get]
func (h *FestivalHandler) List(c *gin.Context) {
	festivals, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, festivals, nil)
}

// Get godoc
// @Summary Get festival
// @Description Get festival detail including its event days
// @Tags Festivals
// @Produce json
// @Param id path string true "Festival ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /festivals/{id} [get]
func (h *FestivalHandler) Get(c *gin.Context) {
	festival, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, festival, nil)
}

// Create godoc
// @Summary Create festival
// @Description Create a festival; one event day is generated per date in range
// @Tags Festivals
// @Accept json
// @Produce json
// @Param payload body models.CreateFestivalRequest true "Festival payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /festivals [post]
func (h *FestivalHandler) Create(c *gin.Context) {
	var req models.CreateFestivalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid festival payload"))
		return
	}

	festival, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, festival)
}

// Update godoc
// @Summary Update festival
// @Description Update festival details; shrinking the date range drops the removed days
// @Tags Festivals
// @Accept json
// @Produce json
// @Param id path string true "Festival ID"
// @Param payload body models.UpdateFestivalRequest true "Festival payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /festivals/{id} [put]
func (h *FestivalHandler) Update(c *gin.Context) {
	var req models.UpdateFestivalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid festival payload"))
		return
	}

	festival, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, festival, nil)
}

// Delete godoc
// @Summary Delete festival
// @Description Delete a festival with its days, slots and scores
// @Tags Festivals
// @Produce json
// @Param id path string true "Festival ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /festivals/{id} [delete]
func (h *FestivalHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Days godoc
// @Summary List event days
// @Tags Festivals
// @Produce json
// @Param id path string true "Festival ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /festivals/{id}/days [get]
func (h *FestivalHandler) Days(c *gin.Context) {
	days, err := h.service.Days(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, days, nil)
}
