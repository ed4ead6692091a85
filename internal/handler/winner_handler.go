package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inkfest/inkfest-api/internal/models"
	"github.com/inkfest/inkfest-api/internal/service"
	appErrors "github.com/inkfest/inkfest-api/pkg/errors"
	"github.com/inkfest/inkfest-api/pkg/response"
)

// WinnerHandler handles winner resolution endpoints.
type WinnerHandler struct {
	service *service.WinnerService
}

// NewWinnerHandler creates a new winner handler.
func NewWinnerHandler(svc *service.WinnerService) *WinnerHandler {
	return &WinnerHandler{service: svc}
}

// List godoc
// @Summary List contest winners
// @Tags Winners
// @Produce json
// @Param id path string true "Slot ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /contests/{id}/winners [get]
func (h *WinnerHandler) List(c *gin.Context) {
	winners, err := h.service.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, winners, nil)
}

// Assign godoc
// @Summary Assign contest winner
// @Description Resolve one category's winner; ties require an explicit entry selection
// @Tags Winners
// @Accept json
// @Produce json
// @Param id path string true "Slot ID"
// @Param payload body models.AssignWinnerRequest true "Winner payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /contests/{id}/winners [post]
func (h *WinnerHandler) Assign(c *gin.Context) {
	var req models.AssignWinnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid winner payload"))
		return
	}

	resolution, err := h.service.Assign(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, resolution, nil)
}
