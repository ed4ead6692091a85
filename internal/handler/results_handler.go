package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inkfest/inkfest-api/internal/models"
	"github.com/inkfest/inkfest-api/internal/service"
	appErrors "github.com/inkfest/inkfest-api/pkg/errors"
	"github.com/inkfest/inkfest-api/pkg/response"
)

// ResultsHandler handles organizer reports and participant score views.
type ResultsHandler struct {
	service *service.ResultsService
}

// NewResultsHandler creates a new results handler.
func NewResultsHandler(svc *service.ResultsService) *ResultsHandler {
	return &ResultsHandler{service: svc}
}

// Report godoc
// @Summary Results report
// @Description Day-grouped contest standings, optionally scoped to one festival or day
// @Tags Results
// @Produce json
// @Param festival_id query string false "Festival filter"
// @Param day_id query string false "Day filter"
// @Success 200 {object} response.Envelope
// @Router /results [get]
func (h *ResultsHandler) Report(c *gin.Context) {
	scope := models.ResultsScope{
		FestivalID: c.Query("festival_id"),
		DayID:      c.Query("day_id"),
	}

	report, err := h.service.BuildReport(c.Request.Context(), scope)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, report, nil)
}

// MyScores godoc
// @Summary My scores
// @Description The authenticated participant's entries with per-judge breakdowns; winner places appear only after the award ceremony
// @Tags Results
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /results/me [get]
func (h *ResultsHandler) MyScores(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	views, err := h.service.MyScores(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, views, nil)
}
