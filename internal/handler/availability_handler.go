package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/studio-booking-api/internal/dto"
	"github.com/noah-isme/studio-booking-api/internal/models"
	"github.com/noah-isme/studio-booking-api/internal/service"
	appErrors "github.com/noah-isme/studio-booking-api/pkg/errors"
	"github.com/noah-isme/studio-booking-api/pkg/response"
)

// AvailabilityHandler exposes availability records and resolution endpoints.
type AvailabilityHandler struct {
	service *service.AvailabilityService
}

// NewAvailabilityHandler constructs an availability handler.
func NewAvailabilityHandler(svc *service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{service: svc}
}

// List godoc
// @Summary List availability records
// @Tags Availability
// @Produce json
// @Param ownerId query string false "Filter by owner"
// @Param kind query string false "Filter by kind"
// @Param status query string false "Filter by approval status"
// @Param date query string false "Filter by date (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /availability [get]
func (h *AvailabilityHandler) List(c *gin.Context) {
	var req dto.AvailabilityListRequest
	req.OwnerID = c.Query("ownerId")
	req.Kind = c.Query("kind")
	req.Status = c.Query("status")
	req.Date = c.Query("date")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		req.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("pageSize", "20")); err == nil {
		req.PageSize = size
	}

	records, pagination, err := h.service.List(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, pagination)
}

// Create godoc
// @Summary Create availability record
// @Tags Availability
// @Accept json
// @Produce json
// @Param payload body dto.CreateAvailabilityRequest true "Availability payload"
// @Success 201 {object} response.Envelope
// @Router /availability [post]
func (h *AvailabilityHandler) Create(c *gin.Context) {
	var req dto.CreateAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// UpdateStatus godoc
// @Summary Update approval status
// @Tags Availability
// @Accept json
// @Produce json
// @Param id path string true "Record ID"
// @Param payload body dto.UpdateAvailabilityStatusRequest true "Status payload"
// @Success 204
// @Router /availability/{id}/status [put]
func (h *AvailabilityHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateAvailabilityStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Delete godoc
// @Summary Delete availability record
// @Tags Availability
// @Produce json
// @Param id path string true "Record ID"
// @Success 204
// @Router /availability/{id} [delete]
func (h *AvailabilityHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Resolve godoc
// @Summary Resolve effective availability
// @Description Compute one participant's effective windows for a date, optionally checked against a window
// @Tags Availability
// @Produce json
// @Param ownerId query string true "Owner ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param start query string false "Window start (HH:MM)"
// @Param end query string false "Window end (HH:MM)"
// @Success 200 {object} response.Envelope
// @Router /availability/resolve [get]
func (h *AvailabilityHandler) Resolve(c *gin.Context) {
	ownerID := c.Query("ownerId")
	if ownerID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "ownerId is required"))
		return
	}
	date, window, err := parseResolveQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	details, err := h.service.Resolve(c.Request.Context(), ownerID, date, window)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, details, nil)
}

// ResolveShared godoc
// @Summary Resolve shared availability
// @Description Intersect two participants' effective windows for a date
// @Tags Availability
// @Produce json
// @Param ownerA query string true "First owner ID"
// @Param ownerB query string true "Second owner ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param start query string false "Window start (HH:MM)"
// @Param end query string false "Window end (HH:MM)"
// @Success 200 {object} response.Envelope
// @Router /availability/resolve-shared [get]
func (h *AvailabilityHandler) ResolveShared(c *gin.Context) {
	ownerA := c.Query("ownerA")
	ownerB := c.Query("ownerB")
	if ownerA == "" || ownerB == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "ownerA and ownerB are required"))
		return
	}
	date, window, err := parseResolveQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	shared, err := h.service.ResolveShared(c.Request.Context(), ownerA, ownerB, date, window, false)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, shared, nil)
}

func parseResolveQuery(c *gin.Context) (time.Time, *models.TimeSlot, error) {
	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		return time.Time{}, nil, appErrors.Clone(appErrors.ErrValidation, "date must be formatted as YYYY-MM-DD")
	}

	start := c.Query("start")
	end := c.Query("end")
	if start == "" && end == "" {
		return date, nil, nil
	}
	startMin, err := models.ParseClock(start)
	if err != nil {
		return time.Time{}, nil, appErrors.Clone(appErrors.ErrValidation, "start must be formatted as HH:MM")
	}
	endMin, err := models.ParseClock(end)
	if err != nil {
		return time.Time{}, nil, appErrors.Clone(appErrors.ErrValidation, "end must be formatted as HH:MM")
	}
	if startMin >= endMin {
		return time.Time{}, nil, appErrors.Clone(appErrors.ErrValidation, "start must be before end")
	}
	return date, &models.TimeSlot{StartMin: startMin, EndMin: endMin}, nil
}
