package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inkfest/inkfest-api/internal/models"
	"github.com/inkfest/inkfest-api/internal/service"
	appErrors "github.com/inkfest/inkfest-api/pkg/errors"
	"github.com/inkfest/inkfest-api/pkg/response"
)

// ScoringHandler handles judge scoring endpoints.
type ScoringHandler struct {
	service *service.ScoringService
}

// NewScoringHandler creates a new scoring handler.
func NewScoringHandler(svc *service.ScoringService) *ScoringHandler {
	return &ScoringHandler{service: svc}
}

// RecordScore godoc
// @Summary Record one score
// @Description Store or overwrite the authenticated judge's score for one criterion of one entry
// @Tags Scoring
// @Accept json
// @Produce json
// @Param payload body models.RecordScoreRequest true "Score payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /scores [post]
func (h *ScoringHandler) RecordScore(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.RecordScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid score payload"))
		return
	}

	score, err := h.service.RecordScore(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, score)
}

// SubmitScores godoc
// @Summary Submit a score sheet
// @Description Store the authenticated judge's scores for one entry in one call
// @Tags Scoring
// @Accept json
// @Produce json
// @Param payload body models.SubmitScoresRequest true "Sheet payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /scores/sheet [post]
func (h *ScoringHandler) SubmitScores(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.SubmitScoresRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid sheet payload"))
		return
	}

	scores, err := h.service.SubmitScores(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, scores)
}

// JudgeSheet godoc
// @Summary Judge scoring view
// @Description The contest's criteria, entries and the judge's recorded scores
// @Tags Scoring
// @Produce json
// @Param id path string true "Slot ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /contests/{id}/sheet [get]
func (h *ScoringHandler) JudgeSheet(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	sheet, err := h.service.JudgeSheet(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, sheet, nil)
}

// Aggregates godoc
// @Summary Contest standings
// @Description Ranked aggregates of every entry in the contest
// @Tags Scoring
// @Produce json
// @Param id path string true "Slot ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /contests/{id}/aggregates [get]
func (h *ScoringHandler) Aggregates(c *gin.Context) {
	aggregates, err := h.service.ContestAggregates(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, aggregates, nil)
}

// Evaluate godoc
// @Summary Re-evaluate contest status
// @Description Force a status re-derivation from current membership and scores
// @Tags Scoring
// @Produce json
// @Param id path string true "Slot ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /contests/{id}/evaluate [post]
func (h *ScoringHandler) Evaluate(c *gin.Context) {
	slot, err := h.service.EvaluateContestStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, slot, nil)
}
