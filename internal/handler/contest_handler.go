package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inkfest/inkfest-api/internal/models"
	"github.com/inkfest/inkfest-api/internal/service"
	appErrors "github.com/inkfest/inkfest-api/pkg/errors"
	"github.com/inkfest/inkfest-api/pkg/response"
)

// ContestHandler handles contest membership endpoints.
type ContestHandler struct {
	service *service.ContestService
}

// NewContestHandler creates a new contest handler.
func NewContestHandler(svc *service.ContestService) *ContestHandler {
	return &ContestHandler{service: svc}
}

// Participants godoc
// @Summary List contest entries
// @Tags Contests
// @Produce json
// @Param id path string true "Slot ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /contests/{id}/participants [get]
func (h *ContestHandler) Participants(c *gin.Context) {
	participants, err := h.service.Participants(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, participants, nil)
}

// RegisterParticipant godoc
// @Summary Register contest entry
// @Description Enter a participant into a contest; repeat entries get sequential numbers
// @Tags Contests
// @Accept json
// @Produce json
// @Param id path string true "Slot ID"
// @Param payload body models.RegisterParticipantRequest true "Entry payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /contests/{id}/participants [post]
func (h *ContestHandler) RegisterParticipant(c *gin.Context) {
	var req models.RegisterParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid entry payload"))
		return
	}

	participation, err := h.service.RegisterParticipant(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, participation)
}

// RemoveParticipant godoc
// @Summary Remove contest entry
// @Tags Contests
// @Produce json
// @Param id path string true "Slot ID"
// @Param participationId path string true "Participation ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /contests/{id}/participants/{participationId} [delete]
func (h *ContestHandler) RemoveParticipant(c *gin.Context) {
	if err := h.service.RemoveParticipant(c.Request.Context(), c.Param("id"), c.Param("participationId")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Judges godoc
// @Summary List contest judges
// @Tags Contests
// @Produce json
// @Param id path string true "Slot ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /contests/{id}/judges [get]
func (h *ContestHandler) Judges(c *gin.Context) {
	judges, err := h.service.Judges(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, judges, nil)
}

// AssignJudge godoc
// @Summary Assign judge
// @Tags Contests
// @Accept json
// @Produce json
// @Param id path string true "Slot ID"
// @Param payload body models.AssignJudgeRequest true "Judge payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /contests/{id}/judges [post]
func (h *ContestHandler) AssignJudge(c *gin.Context) {
	var req models.AssignJudgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid judge payload"))
		return
	}

	assignment, err := h.service.AssignJudge(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, assignment)
}

// UnassignJudge godoc
// @Summary Unassign judge
// @Tags Contests
// @Produce json
// @Param id path string true "Slot ID"
// @Param judgeId path string true "Judge ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /contests/{id}/judges/{judgeId} [delete]
func (h *ContestHandler) UnassignJudge(c *gin.Context) {
	if err := h.service.UnassignJudge(c.Request.Context(), c.Param("id"), c.Param("judgeId")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Workload godoc
// @Summary Judge workload
// @Description Contests assigned to the authenticated judge, split by scoring progress
// @Tags Contests
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /judges/me/workload [get]
func (h *ContestHandler) Workload(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	workload, err := h.service.Workload(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, workload, nil)
}
