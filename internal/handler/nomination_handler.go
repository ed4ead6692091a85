package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inkfest/inkfest-api/internal/models"
	"github.com/inkfest/inkfest-api/internal/service"
	appErrors "github.com/inkfest/inkfest-api/pkg/errors"
	"github.com/inkfest/inkfest-api/pkg/response"
)

// NominationHandler handles nomination template and criterion endpoints.
type NominationHandler struct {
	service *service.NominationService
}

// NewNominationHandler creates a new nomination handler.
func NewNominationHandler(svc *service.NominationService) *NominationHandler {
	return &NominationHandler{service: svc}
}

// ListTemplates godoc
// @Summary List nomination templates
// @Tags Nominations
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /nominations [get]
func (h *NominationHandler) ListTemplates(c *gin.Context) {
	templates, err := h.service.ListTemplates(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, templates, nil)
}

// GetTemplate godoc
// @Summary Get nomination template
// @Tags Nominations
// @Produce json
// @Param id path string true "Template ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /nominations/{id} [get]
func (h *NominationHandler) GetTemplate(c *gin.Context) {
	template, err := h.service.GetTemplate(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, template, nil)
}

// CreateTemplate godoc
// @Summary Create nomination template
// @Description Create a reusable contest definition with its criterion set
// @Tags Nominations
// @Accept json
// @Produce json
// @Param payload body models.CreateTemplateRequest true "Template payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /nominations [post]
func (h *NominationHandler) CreateTemplate(c *gin.Context) {
	var req models.CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid template payload"))
		return
	}

	template, err := h.service.CreateTemplate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, template)
}

// UpdateTemplate godoc
// @Summary Update nomination template
// @Tags Nominations
// @Accept json
// @Produce json
// @Param id path string true "Template ID"
// @Param payload body models.UpdateTemplateRequest true "Template payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /nominations/{id} [put]
func (h *NominationHandler) UpdateTemplate(c *gin.Context) {
	var req models.UpdateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid template payload"))
		return
	}

	template, err := h.service.UpdateTemplate(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, template, nil)
}

// DeleteTemplate godoc
// @Summary Delete nomination template
// @Description Delete a template not referenced by any slot
// @Tags Nominations
// @Produce json
// @Param id path string true "Template ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /nominations/{id} [delete]
func (h *NominationHandler) DeleteTemplate(c *gin.Context) {
	if err := h.service.DeleteTemplate(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// ListCriteria godoc
// @Summary List criteria
// @Tags Nominations
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /criteria [get]
func (h *NominationHandler) ListCriteria(c *gin.Context) {
	criteria, err := h.service.ListCriteria(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, criteria, nil)
}

// CreateCriterion godoc
// @Summary Create criterion
// @Tags Nominations
// @Accept json
// @Produce json
// @Param payload body models.CreateCriterionRequest true "Criterion payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /criteria [post]
func (h *NominationHandler) CreateCriterion(c *gin.Context) {
	var req models.CreateCriterionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid criterion payload"))
		return
	}

	criterion, err := h.service.CreateCriterion(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, criterion)
}

// UpdateCriterion godoc
// @Summary Update criterion
// @Tags Nominations
// @Accept json
// @Produce json
// @Param id path string true "Criterion ID"
// @Param payload body models.UpdateCriterionRequest true "Criterion payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /criteria/{id} [put]
func (h *NominationHandler) UpdateCriterion(c *gin.Context) {
	var req models.UpdateCriterionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid criterion payload"))
		return
	}

	criterion, err := h.service.UpdateCriterion(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, criterion, nil)
}

// DeleteCriterion godoc
// @Summary Delete criterion
// @Description Delete a criterion with no recorded scores
// @Tags Nominations
// @Produce json
// @Param id path string true "Criterion ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /criteria/{id} [delete]
func (h *NominationHandler) DeleteCriterion(c *gin.Context) {
	if err := h.service.DeleteCriterion(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
