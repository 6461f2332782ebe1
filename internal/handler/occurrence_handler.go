package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/studio-booking-api/internal/dto"
	"github.com/noah-isme/studio-booking-api/internal/service"
	appErrors "github.com/noah-isme/studio-booking-api/pkg/errors"
	"github.com/noah-isme/studio-booking-api/pkg/response"
)

// OccurrenceHandler exposes generated-occurrence endpoints.
type OccurrenceHandler struct {
	service *service.OccurrenceService
}

// NewOccurrenceHandler constructs an occurrence handler.
func NewOccurrenceHandler(svc *service.OccurrenceService) *OccurrenceHandler {
	return &OccurrenceHandler{service: svc}
}

// List godoc
// @Summary List occurrences
// @Description List occurrences with filters
// @Tags Occurrences
// @Produce json
// @Param seriesId query string false "Filter by series"
// @Param teacherId query string false "Filter by teacher"
// @Param studentId query string false "Filter by student"
// @Param boothId query string false "Filter by booth"
// @Param dateFrom query string false "Start date (YYYY-MM-DD)"
// @Param dateTo query string false "End date (YYYY-MM-DD)"
// @Param state query string false "Filter by state"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /occurrences [get]
func (h *OccurrenceHandler) List(c *gin.Context) {
	var req dto.OccurrenceListRequest
	req.SeriesID = c.Query("seriesId")
	req.TeacherID = c.Query("teacherId")
	req.StudentID = c.Query("studentId")
	req.BoothID = c.Query("boothId")
	req.DateFrom = c.Query("dateFrom")
	req.DateTo = c.Query("dateTo")
	req.State = c.Query("state")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		req.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("pageSize", "50")); err == nil {
		req.PageSize = size
	}

	list, pagination, err := h.service.List(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list, pagination)
}

// Get godoc
// @Summary Get occurrence
// @Tags Occurrences
// @Produce json
// @Param id path string true "Occurrence ID"
// @Success 200 {object} response.Envelope
// @Router /occurrences/{id} [get]
func (h *OccurrenceHandler) Get(c *gin.Context) {
	occ, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, occ, nil)
}

// ListBySeries godoc
// @Summary List occurrences for a series
// @Tags Occurrences
// @Produce json
// @Param id path string true "Series ID"
// @Success 200 {object} response.Envelope
// @Router /series/{id}/occurrences [get]
func (h *OccurrenceHandler) ListBySeries(c *gin.Context) {
	list, err := h.service.ListBySeries(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list, nil)
}

// Cancel godoc
// @Summary Cancel occurrence
// @Description Flag an occurrence as cancelled. The row is kept so generation will not recreate the slot.
// @Tags Occurrences
// @Accept json
// @Produce json
// @Param id path string true "Occurrence ID"
// @Param payload body dto.CancelOccurrenceRequest false "Cancellation payload"
// @Success 204
// @Router /occurrences/{id}/cancel [post]
func (h *OccurrenceHandler) Cancel(c *gin.Context) {
	var req dto.CancelOccurrenceRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}
	if claims := claimsFromContext(c); claims != nil {
		req.ActorID = claims.UserID
	}
	if err := h.service.Cancel(c.Request.Context(), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
